package tracking

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/lrnlab/apptrack-backend/internal/domain"
	"github.com/lrnlab/apptrack-backend/internal/platform/dbctx"
	"github.com/lrnlab/apptrack-backend/internal/platform/logger"
)

type TrackingEventRepo interface {
	Create(dbc dbctx.Context, event *types.TrackingEvent) error
	ListByTrackingSession(dbc dbctx.Context, trackingSessionID uuid.UUID) ([]*types.TrackingEvent, error)
}

type trackingEventRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTrackingEventRepo(db *gorm.DB, baseLog *logger.Logger) TrackingEventRepo {
	return &trackingEventRepo{db: db, log: baseLog.With("repo", "TrackingEventRepo")}
}

func (r *trackingEventRepo) Create(dbc dbctx.Context, event *types.TrackingEvent) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(dbc.Ctx).Create(event).Error
}

func (r *trackingEventRepo) ListByTrackingSession(dbc dbctx.Context, trackingSessionID uuid.UUID) ([]*types.TrackingEvent, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var rows []*types.TrackingEvent
	if err := t.WithContext(dbc.Ctx).
		Where("tracking_session_id = ?", trackingSessionID).
		Order("time ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
