package app

import (
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/lrnlab/apptrack-backend/internal/platform/codegen"
	"github.com/lrnlab/apptrack-backend/internal/platform/logger"
	"github.com/lrnlab/apptrack-backend/internal/services"
)

type Services struct {
	Session  services.SessionService
	Auth     services.AuthService
	Tracking services.TrackingService
	Feedback services.FeedbackService
	Gate     services.GateService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, r Repos, cache *redis.Client) Services {
	log.Info("Wiring services...")
	codes := codegen.New([]byte(cfg.SecretKey))
	return Services{
		Session:  services.NewSessionService(log, r.ApplicationSession, r.Application, r.UserApplicationSession, codes, cache, cfg.Features),
		Auth:     services.NewAuthService(log, r.User, r.ApplicationSession, r.UserApplicationSession, codes, cfg.Features),
		Tracking: services.NewTrackingService(log, db, r.TrackingSession, r.TrackingEvent),
		Feedback: services.NewFeedbackService(log, r.UserFeedback, r.TrackingSession),
		Gate:     services.NewGateService(log, r.Gate, r.ApplicationSession),
	}
}
