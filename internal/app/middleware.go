package app

import (
	"github.com/lrnlab/apptrack-backend/internal/http/middleware"
	"github.com/lrnlab/apptrack-backend/internal/platform/logger"
)

type Middleware struct {
	SessionToken *middleware.SessionTokenMiddleware
}

func wireMiddleware(log *logger.Logger, s Services) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		SessionToken: middleware.NewSessionTokenMiddleware(log, s.Session, s.Tracking),
	}
}
