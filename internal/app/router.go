package app

import (
	"github.com/gin-gonic/gin"

	"github.com/lrnlab/apptrack-backend/internal/platform/logger"
	"github.com/lrnlab/apptrack-backend/internal/server"
)

func wireRouter(log *logger.Logger, cfg Config, h Handlers, m Middleware) *gin.Engine {
	return server.NewRouter(server.RouterConfig{
		Log:             log,
		HealthHandler:   h.Health,
		SessionHandler:  h.Session,
		AuthHandler:     h.Auth,
		TrackingHandler: h.Tracking,
		FeedbackHandler: h.Feedback,
		GateHandler:     h.Gate,
		SessionToken:    m.SessionToken,
		TracingEnabled:  cfg.Tracing,
		CORSOrigins:     cfg.CORSOrigins,
	})
}
