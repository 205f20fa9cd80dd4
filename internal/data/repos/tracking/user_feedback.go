package tracking

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/lrnlab/apptrack-backend/internal/domain"
	"github.com/lrnlab/apptrack-backend/internal/platform/dbctx"
	"github.com/lrnlab/apptrack-backend/internal/platform/logger"
)

type UserFeedbackRepo interface {
	Create(dbc dbctx.Context, fb *types.UserFeedback) error
	// GetBySection fetches the one feedback row per (user app session,
	// content section); submitting again updates it in place.
	GetBySection(dbc dbctx.Context, userAppSessionID uuid.UUID, contentSection string) (*types.UserFeedback, error)
	Update(dbc dbctx.Context, id uuid.UUID, updates map[string]any) error
	ListByUserAppSession(dbc dbctx.Context, userAppSessionID uuid.UUID) ([]*types.UserFeedback, error)
}

type userFeedbackRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserFeedbackRepo(db *gorm.DB, baseLog *logger.Logger) UserFeedbackRepo {
	return &userFeedbackRepo{db: db, log: baseLog.With("repo", "UserFeedbackRepo")}
}

func (r *userFeedbackRepo) Create(dbc dbctx.Context, fb *types.UserFeedback) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(dbc.Ctx).Create(fb).Error
}

func (r *userFeedbackRepo) GetBySection(dbc dbctx.Context, userAppSessionID uuid.UUID, contentSection string) (*types.UserFeedback, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var row types.UserFeedback
	if err := t.WithContext(dbc.Ctx).
		Where("user_app_session_id = ? AND content_section = ?", userAppSessionID, contentSection).
		Limit(1).
		Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *userFeedbackRepo) Update(dbc dbctx.Context, id uuid.UUID, updates map[string]any) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(dbc.Ctx).
		Model(&types.UserFeedback{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *userFeedbackRepo) ListByUserAppSession(dbc dbctx.Context, userAppSessionID uuid.UUID) ([]*types.UserFeedback, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var rows []*types.UserFeedback
	if err := t.WithContext(dbc.Ctx).
		Where("user_app_session_id = ?", userAppSessionID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
