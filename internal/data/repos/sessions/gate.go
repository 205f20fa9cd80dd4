package sessions

import (
	"gorm.io/gorm"

	types "github.com/lrnlab/apptrack-backend/internal/domain"
	"github.com/lrnlab/apptrack-backend/internal/platform/dbctx"
	"github.com/lrnlab/apptrack-backend/internal/platform/logger"
)

type GateRepo interface {
	Create(dbc dbctx.Context, gate *types.ApplicationSessionGate) error
	GetByCode(dbc dbctx.Context, code string) (*types.ApplicationSessionGate, error)
	// ActiveMembers returns the gate's active member sessions in a stable
	// order (by code), which the round-robin cursor indexes into.
	ActiveMembers(dbc dbctx.Context, gateCode string) ([]*types.ApplicationSession, error)
	AddMember(dbc dbctx.Context, gateCode, sessionCode string) error
	// AdvanceCursor moves next_forward_index from to next, but only if it
	// still holds from. Returns false when a concurrent advance got there
	// first; the caller re-reads and retries.
	AdvanceCursor(dbc dbctx.Context, gateCode string, from, next int) (bool, error)
}

type gateRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewGateRepo(db *gorm.DB, baseLog *logger.Logger) GateRepo {
	return &gateRepo{db: db, log: baseLog.With("repo", "GateRepo")}
}

func (r *gateRepo) Create(dbc dbctx.Context, gate *types.ApplicationSessionGate) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(dbc.Ctx).Create(gate).Error
}

func (r *gateRepo) GetByCode(dbc dbctx.Context, code string) (*types.ApplicationSessionGate, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if code == "" {
		return nil, nil
	}
	var row types.ApplicationSessionGate
	if err := t.WithContext(dbc.Ctx).
		Where("code = ?", code).
		Limit(1).
		Find(&row).Error; err != nil {
		return nil, err
	}
	if row.Code == "" {
		return nil, nil
	}
	return &row, nil
}

func (r *gateRepo) ActiveMembers(dbc dbctx.Context, gateCode string) ([]*types.ApplicationSession, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var rows []*types.ApplicationSession
	if err := t.WithContext(dbc.Ctx).
		Preload("Config").
		Preload("Config.Application").
		Joins("JOIN application_session_gate_members m ON m.application_session_code = application_session.code").
		Where("m.application_session_gate_code = ? AND application_session.is_active = ?", gateCode, true).
		Order("application_session.code ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *gateRepo) AddMember(dbc dbctx.Context, gateCode, sessionCode string) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(dbc.Ctx).
		Exec("INSERT INTO application_session_gate_members (application_session_gate_code, application_session_code) VALUES (?, ?)",
			gateCode, sessionCode).Error
}

func (r *gateRepo) AdvanceCursor(dbc dbctx.Context, gateCode string, from, next int) (bool, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	res := t.WithContext(dbc.Ctx).
		Model(&types.ApplicationSessionGate{}).
		Where("code = ? AND next_forward_index = ?", gateCode, from).
		Update("next_forward_index", next)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
