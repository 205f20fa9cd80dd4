package apps

import (
	"gorm.io/gorm"

	types "github.com/lrnlab/apptrack-backend/internal/domain"
	"github.com/lrnlab/apptrack-backend/internal/platform/dbctx"
	"github.com/lrnlab/apptrack-backend/internal/platform/logger"
)

type UserRepo interface {
	Create(dbc dbctx.Context, user *types.User) error
	GetByUsername(dbc dbctx.Context, username string) (*types.User, error)
	GetByEmail(dbc dbctx.Context, email string) (*types.User, error)
	UsernameExists(dbc dbctx.Context, username string) (bool, error)
}

type userRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo {
	return &userRepo{db: db, log: baseLog.With("repo", "UserRepo")}
}

func (r *userRepo) Create(dbc dbctx.Context, user *types.User) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(dbc.Ctx).Create(user).Error
}

func (r *userRepo) GetByUsername(dbc dbctx.Context, username string) (*types.User, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if username == "" {
		return nil, nil
	}
	var row types.User
	if err := t.WithContext(dbc.Ctx).
		Where("username = ?", username).
		Limit(1).
		Find(&row).Error; err != nil {
		return nil, err
	}
	if row.Username == "" {
		return nil, nil
	}
	return &row, nil
}

func (r *userRepo) GetByEmail(dbc dbctx.Context, email string) (*types.User, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if email == "" {
		return nil, nil
	}
	var row types.User
	if err := t.WithContext(dbc.Ctx).
		Where("email = ?", email).
		Limit(1).
		Find(&row).Error; err != nil {
		return nil, err
	}
	if row.Username == "" {
		return nil, nil
	}
	return &row, nil
}

func (r *userRepo) UsernameExists(dbc dbctx.Context, username string) (bool, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var n int64
	if err := t.WithContext(dbc.Ctx).
		Model(&types.User{}).
		Where("username = ?", username).
		Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}
