package db

import (
	types "github.com/lrnlab/apptrack-backend/internal/domain"
	"gorm.io/gorm"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		// identity
		&types.User{},

		// applications + configuration
		&types.Application{},
		&types.ApplicationConfig{},

		// sessions
		&types.ApplicationSession{},
		&types.ApplicationSessionGate{},
		&types.UserApplicationSession{},

		// telemetry
		&types.TrackingSession{},
		&types.TrackingEvent{},
		&types.UserFeedback{},
	)
}
