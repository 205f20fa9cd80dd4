package sessions

import (
	"gorm.io/gorm"

	types "github.com/lrnlab/apptrack-backend/internal/domain"
	"github.com/lrnlab/apptrack-backend/internal/platform/dbctx"
	"github.com/lrnlab/apptrack-backend/internal/platform/logger"
)

type ApplicationSessionRepo interface {
	Create(dbc dbctx.Context, sess *types.ApplicationSession) error
	GetByCode(dbc dbctx.Context, code string) (*types.ApplicationSession, error)
}

type applicationSessionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewApplicationSessionRepo(db *gorm.DB, baseLog *logger.Logger) ApplicationSessionRepo {
	return &applicationSessionRepo{db: db, log: baseLog.With("repo", "ApplicationSessionRepo")}
}

func (r *applicationSessionRepo) Create(dbc dbctx.Context, sess *types.ApplicationSession) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(dbc.Ctx).Create(sess).Error
}

func (r *applicationSessionRepo) GetByCode(dbc dbctx.Context, code string) (*types.ApplicationSession, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if code == "" {
		return nil, nil
	}
	var row types.ApplicationSession
	if err := t.WithContext(dbc.Ctx).
		Preload("Config").
		Preload("Config.Application").
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
