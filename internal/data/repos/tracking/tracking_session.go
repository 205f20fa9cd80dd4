package tracking

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/lrnlab/apptrack-backend/internal/domain"
	"github.com/lrnlab/apptrack-backend/internal/platform/dbctx"
	"github.com/lrnlab/apptrack-backend/internal/platform/logger"
)

type TrackingSessionRepo interface {
	Create(dbc dbctx.Context, sess *types.TrackingSession) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.TrackingSession, error)
	// GetOpenByUserAppSession returns the single tracking session with no end
	// time for the given user application session, or nil when none is open.
	GetOpenByUserAppSession(dbc dbctx.Context, userAppSessionID uuid.UUID) (*types.TrackingSession, error)
	// GetOpenByID scopes the lookup to the owning user application session so
	// a token can never close somebody else's session.
	GetOpenByID(dbc dbctx.Context, id, userAppSessionID uuid.UUID) (*types.TrackingSession, error)
	// Close sets end_time on a still-open session. Returns false when the
	// row was already closed (or never existed), so a racing second stop
	// cannot overwrite the first end_time.
	Close(dbc dbctx.Context, id uuid.UUID, endTime time.Time) (bool, error)
}

type trackingSessionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTrackingSessionRepo(db *gorm.DB, baseLog *logger.Logger) TrackingSessionRepo {
	return &trackingSessionRepo{db: db, log: baseLog.With("repo", "TrackingSessionRepo")}
}

func (r *trackingSessionRepo) Create(dbc dbctx.Context, sess *types.TrackingSession) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(dbc.Ctx).Create(sess).Error
}

func (r *trackingSessionRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.TrackingSession, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var row types.TrackingSession
	if err := t.WithContext(dbc.Ctx).
		Where("id = ?", id).
		Limit(1).
		Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *trackingSessionRepo) GetOpenByUserAppSession(dbc dbctx.Context, userAppSessionID uuid.UUID) (*types.TrackingSession, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var row types.TrackingSession
	if err := t.WithContext(dbc.Ctx).
		Where("user_app_session_id = ? AND end_time IS NULL", userAppSessionID).
		Limit(1).
		Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *trackingSessionRepo) GetOpenByID(dbc dbctx.Context, id, userAppSessionID uuid.UUID) (*types.TrackingSession, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var row types.TrackingSession
	if err := t.WithContext(dbc.Ctx).
		Where("id = ? AND user_app_session_id = ? AND end_time IS NULL", id, userAppSessionID).
		Limit(1).
		Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *trackingSessionRepo) Close(dbc dbctx.Context, id uuid.UUID, endTime time.Time) (bool, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	res := t.WithContext(dbc.Ctx).
		Model(&types.TrackingSession{}).
		Where("id = ? AND end_time IS NULL", id).
		Update("end_time", endTime)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
