package repos

import (
	"gorm.io/gorm"

	"github.com/lrnlab/apptrack-backend/internal/data/repos/apps"
	"github.com/lrnlab/apptrack-backend/internal/data/repos/sessions"
	"github.com/lrnlab/apptrack-backend/internal/data/repos/tracking"
	"github.com/lrnlab/apptrack-backend/internal/platform/logger"
)

type UserRepo = apps.UserRepo
type ApplicationRepo = apps.ApplicationRepo
type ApplicationConfigRepo = apps.ApplicationConfigRepo

type ApplicationSessionRepo = sessions.ApplicationSessionRepo
type GateRepo = sessions.GateRepo
type UserApplicationSessionRepo = sessions.UserApplicationSessionRepo

type TrackingSessionRepo = tracking.TrackingSessionRepo
type TrackingEventRepo = tracking.TrackingEventRepo
type UserFeedbackRepo = tracking.UserFeedbackRepo

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo {
	return apps.NewUserRepo(db, baseLog)
}
func NewApplicationRepo(db *gorm.DB, baseLog *logger.Logger) ApplicationRepo {
	return apps.NewApplicationRepo(db, baseLog)
}
func NewApplicationConfigRepo(db *gorm.DB, baseLog *logger.Logger) ApplicationConfigRepo {
	return apps.NewApplicationConfigRepo(db, baseLog)
}

func NewApplicationSessionRepo(db *gorm.DB, baseLog *logger.Logger) ApplicationSessionRepo {
	return sessions.NewApplicationSessionRepo(db, baseLog)
}
func NewGateRepo(db *gorm.DB, baseLog *logger.Logger) GateRepo {
	return sessions.NewGateRepo(db, baseLog)
}
func NewUserApplicationSessionRepo(db *gorm.DB, baseLog *logger.Logger) UserApplicationSessionRepo {
	return sessions.NewUserApplicationSessionRepo(db, baseLog)
}

func NewTrackingSessionRepo(db *gorm.DB, baseLog *logger.Logger) TrackingSessionRepo {
	return tracking.NewTrackingSessionRepo(db, baseLog)
}
func NewTrackingEventRepo(db *gorm.DB, baseLog *logger.Logger) TrackingEventRepo {
	return tracking.NewTrackingEventRepo(db, baseLog)
}
func NewUserFeedbackRepo(db *gorm.DB, baseLog *logger.Logger) UserFeedbackRepo {
	return tracking.NewUserFeedbackRepo(db, baseLog)
}
