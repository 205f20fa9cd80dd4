package apps

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/lrnlab/apptrack-backend/internal/domain"
	"github.com/lrnlab/apptrack-backend/internal/platform/dbctx"
	"github.com/lrnlab/apptrack-backend/internal/platform/logger"
)

type ApplicationRepo interface {
	Create(dbc dbctx.Context, app *types.Application) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Application, error)
	ListWithDefaultSession(dbc dbctx.Context) ([]*types.Application, error)
}

type applicationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewApplicationRepo(db *gorm.DB, baseLog *logger.Logger) ApplicationRepo {
	return &applicationRepo{db: db, log: baseLog.With("repo", "ApplicationRepo")}
}

func (r *applicationRepo) Create(dbc dbctx.Context, app *types.Application) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(dbc.Ctx).Create(app).Error
}

func (r *applicationRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Application, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var row types.Application
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

func (r *applicationRepo) ListWithDefaultSession(dbc dbctx.Context) ([]*types.Application, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var rows []*types.Application
	if err := t.WithContext(dbc.Ctx).
		Where("default_application_session_code IS NOT NULL").
		Order("name ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

type ApplicationConfigRepo interface {
	Create(dbc dbctx.Context, cfg *types.ApplicationConfig) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.ApplicationConfig, error)
}

type applicationConfigRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewApplicationConfigRepo(db *gorm.DB, baseLog *logger.Logger) ApplicationConfigRepo {
	return &applicationConfigRepo{db: db, log: baseLog.With("repo", "ApplicationConfigRepo")}
}

func (r *applicationConfigRepo) Create(dbc dbctx.Context, cfg *types.ApplicationConfig) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(dbc.Ctx).Create(cfg).Error
}

func (r *applicationConfigRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.ApplicationConfig, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var row types.ApplicationConfig
	if err := t.WithContext(dbc.Ctx).
		Preload("Application").
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
