package server

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/lrnlab/apptrack-backend/internal/http/handlers"
	"github.com/lrnlab/apptrack-backend/internal/http/middleware"
	"github.com/lrnlab/apptrack-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log *logger.Logger

	HealthHandler   *handlers.HealthHandler
	SessionHandler  *handlers.SessionHandler
	AuthHandler     *handlers.AuthHandler
	TrackingHandler *handlers.TrackingHandler
	FeedbackHandler *handlers.FeedbackHandler
	GateHandler     *handlers.GateHandler

	SessionToken *middleware.SessionTokenMiddleware

	TracingEnabled bool
	CORSOrigins    []string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.AttachTraceContext())
	r.Use(middleware.RequestLogger(cfg.Log))
	if cfg.TracingEnabled {
		r.Use(otelgin.Middleware("apptrack-backend"))
	}
	r.Use(middleware.CORS(cfg.CORSOrigins))

	r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)

	r.GET("/session", cfg.SessionHandler.Resolve)
	r.POST("/session_login", cfg.AuthHandler.SessionLogin)
	r.POST("/register_user", cfg.AuthHandler.RegisterUser)

	token := cfg.SessionToken
	r.POST("/start_tracking", token.RequireToken(), cfg.TrackingHandler.StartTracking)
	r.POST("/stop_tracking", token.RequireToken(), token.RequireTrackingSession(), cfg.TrackingHandler.StopTracking)
	r.POST("/track_event", token.RequireToken(), token.RequireTrackingSession(), cfg.TrackingHandler.TrackEvent)

	r.POST("/user_feedback", token.RequireToken(), cfg.FeedbackHandler.SubmitFeedback)
	r.GET("/user_feedback", token.RequireToken(), cfg.FeedbackHandler.ListFeedback)

	r.GET("/gate/:code", cfg.GateHandler.Route)

	return r
}
