package middleware

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/lrnlab/apptrack-backend/internal/http/response"
	"github.com/lrnlab/apptrack-backend/internal/platform/ctxutil"
	"github.com/lrnlab/apptrack-backend/internal/platform/dbctx"
	"github.com/lrnlab/apptrack-backend/internal/platform/logger"
	"github.com/lrnlab/apptrack-backend/internal/services"
)

// SessionTokenMiddleware guards token-protected endpoints. RequireToken
// resolves the bearer token into a UserApplicationSession;
// RequireTrackingSession additionally resolves an open tracking session.
// Resolved entities ride the request context for the handlers.
type SessionTokenMiddleware struct {
	log      *logger.Logger
	sessions services.SessionService
	tracking services.TrackingService
}

func NewSessionTokenMiddleware(log *logger.Logger, sessions services.SessionService, tracking services.TrackingService) *SessionTokenMiddleware {
	return &SessionTokenMiddleware{
		log:      log.With("Middleware", "SessionTokenMiddleware"),
		sessions: sessions,
		tracking: tracking,
	}
}

// guardFields are the envelope fields the guards peek at. The body is
// buffered and restored so handlers can still bind it.
type guardFields struct {
	Sess              string `json:"sess"`
	TrackingSessionID string `json:"tracking_session_id"`
}

func (m *SessionTokenMiddleware) RequireToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			response.RespondError(c, http.StatusUnauthorized, "missing_token", fmt.Errorf("Authorization: Token <token> header required"))
			c.Abort()
			return
		}

		fields, err := peekGuardFields(c)
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, "malformed_body", err)
			c.Abort()
			return
		}
		sess := fields.Sess
		if sess == "" {
			sess = c.Query("sess")
		}
		if sess == "" {
			response.RespondError(c, http.StatusUnauthorized, "missing_session", fmt.Errorf("sess field required"))
			c.Abort()
			return
		}

		uas, err := m.sessions.ResolveToken(dbctx.Context{Ctx: c.Request.Context()}, sess, token)
		if err != nil {
			response.RespondAPIError(c, err)
			c.Abort()
			return
		}

		rd := &ctxutil.RequestData{UserAppSession: uas}
		c.Request = c.Request.WithContext(ctxutil.WithRequestData(c.Request.Context(), rd))
		c.Next()
	}
}

// RequireTrackingSession must run after RequireToken.
func (m *SessionTokenMiddleware) RequireTrackingSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		rd := ctxutil.GetRequestData(c.Request.Context())
		if rd == nil || rd.UserAppSession == nil {
			m.log.Error("tracking guard ran without a resolved token")
			response.RespondError(c, http.StatusInternalServerError, "internal_error", fmt.Errorf("request not authenticated"))
			c.Abort()
			return
		}

		fields, err := peekGuardFields(c)
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, "malformed_body", err)
			c.Abort()
			return
		}
		raw := fields.TrackingSessionID
		if raw == "" {
			raw = c.Query("tracking_session_id")
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, "missing_tracking_session", fmt.Errorf("tracking_session_id required"))
			c.Abort()
			return
		}

		ts, err := m.tracking.ResolveOpen(dbctx.Context{Ctx: c.Request.Context()}, rd.UserAppSession, id)
		if err != nil {
			response.RespondAPIError(c, err)
			c.Abort()
			return
		}

		rd.TrackingSession = ts
		c.Next()
	}
}

func extractToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if len(header) > 6 && strings.EqualFold(header[:6], "Token ") {
		return strings.TrimSpace(header[6:])
	}
	return ""
}

func peekGuardFields(c *gin.Context) (guardFields, error) {
	var fields guardFields
	if c.Request.Body == nil || c.Request.Method == http.MethodGet {
		return fields, nil
	}
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return fields, fmt.Errorf("read body: %w", err)
	}
	c.Request.Body = io.NopCloser(bytes.NewReader(body))
	if len(bytes.TrimSpace(body)) == 0 {
		return fields, nil
	}
	if err := json.Unmarshal(body, &fields); err != nil {
		return fields, fmt.Errorf("malformed JSON body")
	}
	return fields, nil
}
