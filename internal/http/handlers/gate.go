package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lrnlab/apptrack-backend/internal/http/response"
	"github.com/lrnlab/apptrack-backend/internal/platform/dbctx"
	"github.com/lrnlab/apptrack-backend/internal/services"
)

const stickyCookieMaxAge = 12 * 60 * 60

type GateHandler struct {
	gates services.GateService
}

func NewGateHandler(gates services.GateService) *GateHandler {
	return &GateHandler{gates: gates}
}

// Route handles GET /gate/:code for both gate codes and direct session
// codes. Gate visits are pinned to their target with a sticky cookie.
func (h *GateHandler) Route(c *gin.Context) {
	code := c.Param("code")
	cookieName := "gate_app_sess_" + code
	sticky, _ := c.Cookie(cookieName)

	result, err := h.gates.Route(dbctx.Context{Ctx: c.Request.Context()}, code, sticky)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}

	switch result.Kind {
	case services.RouteInactive:
		c.String(http.StatusOK, "This session is currently inactive.")
	case services.RouteNoContent:
		c.Status(http.StatusNoContent)
	case services.RouteRedirect:
		if result.StickySession != "" {
			c.SetCookie(cookieName, result.StickySession, stickyCookieMaxAge, "/", "", true, false)
		}
		c.Redirect(http.StatusFound, result.RedirectURL)
	}
}
