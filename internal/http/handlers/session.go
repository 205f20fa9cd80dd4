package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/lrnlab/apptrack-backend/internal/http/response"
	"github.com/lrnlab/apptrack-backend/internal/platform/dbctx"
	"github.com/lrnlab/apptrack-backend/internal/services"
)

const csrfCookieMaxAge = 12 * 60 * 60

type SessionHandler struct {
	sessions services.SessionService
}

func NewSessionHandler(sessions services.SessionService) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

// Resolve handles GET /session. With ?sess= it resolves the session code;
// otherwise it falls back to ?referrer= or the Referer header.
func (h *SessionHandler) Resolve(c *gin.Context) {
	dbc := dbctx.Context{Ctx: c.Request.Context()}

	var info *services.SessionInfo
	var err error
	if code := c.Query("sess"); code != "" {
		info, err = h.sessions.Resolve(dbc, code)
	} else {
		referrer := c.Query("referrer")
		if referrer == "" {
			referrer = c.GetHeader("Referer")
		}
		info, err = h.sessions.ResolveReferrer(dbc, referrer)
	}
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}

	c.SetCookie("csrftoken", h.sessions.CSRFToken(), csrfCookieMaxAge, "/", "", false, false)
	if info.Created {
		response.RespondCreated(c, info)
		return
	}
	response.RespondOK(c, info)
}
