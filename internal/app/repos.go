package app

import (
	"gorm.io/gorm"

	"github.com/lrnlab/apptrack-backend/internal/data/repos"
	"github.com/lrnlab/apptrack-backend/internal/platform/logger"
)

type Repos struct {
	User              repos.UserRepo
	Application       repos.ApplicationRepo
	ApplicationConfig repos.ApplicationConfigRepo

	ApplicationSession     repos.ApplicationSessionRepo
	Gate                   repos.GateRepo
	UserApplicationSession repos.UserApplicationSessionRepo

	TrackingSession repos.TrackingSessionRepo
	TrackingEvent   repos.TrackingEventRepo
	UserFeedback    repos.UserFeedbackRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:              repos.NewUserRepo(db, log),
		Application:       repos.NewApplicationRepo(db, log),
		ApplicationConfig: repos.NewApplicationConfigRepo(db, log),

		ApplicationSession:     repos.NewApplicationSessionRepo(db, log),
		Gate:                   repos.NewGateRepo(db, log),
		UserApplicationSession: repos.NewUserApplicationSessionRepo(db, log),

		TrackingSession: repos.NewTrackingSessionRepo(db, log),
		TrackingEvent:   repos.NewTrackingEventRepo(db, log),
		UserFeedback:    repos.NewUserFeedbackRepo(db, log),
	}
}
