package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/lrnlab/apptrack-backend/internal/domain"
)

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, username, password string) *types.User {
	tb.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		tb.Fatalf("hash password: %v", err)
	}
	u := &types.User{
		ID:       uuid.New(),
		Username: username,
		Email:    username + "@example.com",
		Password: string(hash),
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedApplication(tb testing.TB, ctx context.Context, tx *gorm.DB, name string) *types.Application {
	tb.Helper()
	a := &types.Application{
		ID:   uuid.New(),
		Name: name,
		URL:  "https://apps.example.com/" + name,
	}
	if err := tx.WithContext(ctx).Create(a).Error; err != nil {
		tb.Fatalf("seed application: %v", err)
	}
	return a
}

func SeedAppConfig(tb testing.TB, ctx context.Context, tx *gorm.DB, appID uuid.UUID, config string) *types.ApplicationConfig {
	tb.Helper()
	if config == "" {
		config = "{}"
	}
	c := &types.ApplicationConfig{
		ID:            uuid.New(),
		ApplicationID: appID,
		Label:         "cfg-" + uuid.NewString()[:8],
		Config:        datatypes.JSON([]byte(config)),
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed application config: %v", err)
	}
	return c
}

func SeedAppSession(tb testing.TB, ctx context.Context, tx *gorm.DB, configID uuid.UUID, code, authMode string) *types.ApplicationSession {
	tb.Helper()
	s := &types.ApplicationSession{
		Code:     code,
		ConfigID: configID,
		AuthMode: authMode,
		IsActive: true,
	}
	if err := tx.WithContext(ctx).Create(s).Error; err != nil {
		tb.Fatalf("seed application session: %v", err)
	}
	return s
}

func SeedGate(tb testing.TB, ctx context.Context, tx *gorm.DB, code, label string) *types.ApplicationSessionGate {
	tb.Helper()
	g := &types.ApplicationSessionGate{
		Code:     code,
		Label:    label,
		IsActive: true,
	}
	if err := tx.WithContext(ctx).Create(g).Error; err != nil {
		tb.Fatalf("seed gate: %v", err)
	}
	return g
}

func SeedUserAppSession(tb testing.TB, ctx context.Context, tx *gorm.DB, sessionCode, token string, userID *uuid.UUID) *types.UserApplicationSession {
	tb.Helper()
	uas := &types.UserApplicationSession{
		ID:                     uuid.New(),
		ApplicationSessionCode: sessionCode,
		UserID:                 userID,
		Code:                   token,
	}
	if err := tx.WithContext(ctx).Create(uas).Error; err != nil {
		tb.Fatalf("seed user application session: %v", err)
	}
	return uas
}

func SeedTrackingSession(tb testing.TB, ctx context.Context, tx *gorm.DB, userAppSessionID uuid.UUID, endTime *time.Time) *types.TrackingSession {
	tb.Helper()
	ts := &types.TrackingSession{
		ID:               uuid.New(),
		UserAppSessionID: userAppSessionID,
		StartTime:        time.Now().UTC().Add(-time.Minute),
		EndTime:          endTime,
		DeviceInfo:       datatypes.JSON([]byte("{}")),
	}
	if err := tx.WithContext(ctx).Create(ts).Error; err != nil {
		tb.Fatalf("seed tracking session: %v", err)
	}
	return ts
}
