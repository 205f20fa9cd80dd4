package sessions

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/lrnlab/apptrack-backend/internal/domain"
	"github.com/lrnlab/apptrack-backend/internal/platform/dbctx"
	"github.com/lrnlab/apptrack-backend/internal/platform/logger"
)

type UserApplicationSessionRepo interface {
	Create(dbc dbctx.Context, uas *types.UserApplicationSession) error
	// GetBySessionAndToken resolves a bearer token within one application
	// session. Tokens are only unique per session, so both parts are required.
	GetBySessionAndToken(dbc dbctx.Context, sessionCode, token string) (*types.UserApplicationSession, error)
	UpdateTranscript(dbc dbctx.Context, id uuid.UUID, transcript []byte) error
}

type userApplicationSessionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserApplicationSessionRepo(db *gorm.DB, baseLog *logger.Logger) UserApplicationSessionRepo {
	return &userApplicationSessionRepo{db: db, log: baseLog.With("repo", "UserApplicationSessionRepo")}
}

func (r *userApplicationSessionRepo) Create(dbc dbctx.Context, uas *types.UserApplicationSession) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(dbc.Ctx).Create(uas).Error
}

func (r *userApplicationSessionRepo) GetBySessionAndToken(dbc dbctx.Context, sessionCode, token string) (*types.UserApplicationSession, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if sessionCode == "" || token == "" {
		return nil, nil
	}
	var row types.UserApplicationSession
	if err := t.WithContext(dbc.Ctx).
		Preload("ApplicationSession").
		Preload("ApplicationSession.Config").
		Where("application_session_code = ? AND code = ?", sessionCode, token).
		Limit(1).
		Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *userApplicationSessionRepo) UpdateTranscript(dbc dbctx.Context, id uuid.UUID, transcript []byte) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(dbc.Ctx).
		Model(&types.UserApplicationSession{}).
		Where("id = ?", id).
		Update("chatbot_transcript", transcript).Error
}
