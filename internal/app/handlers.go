package app

import (
	"github.com/lrnlab/apptrack-backend/internal/http/handlers"
	"github.com/lrnlab/apptrack-backend/internal/platform/logger"
)

type Handlers struct {
	Health   *handlers.HealthHandler
	Session  *handlers.SessionHandler
	Auth     *handlers.AuthHandler
	Tracking *handlers.TrackingHandler
	Feedback *handlers.FeedbackHandler
	Gate     *handlers.GateHandler
}

func wireHandlers(log *logger.Logger, s Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:   handlers.NewHealthHandler(),
		Session:  handlers.NewSessionHandler(s.Session),
		Auth:     handlers.NewAuthHandler(s.Auth),
		Tracking: handlers.NewTrackingHandler(s.Tracking),
		Feedback: handlers.NewFeedbackHandler(s.Feedback),
		Gate:     handlers.NewGateHandler(s.Gate),
	}
}
