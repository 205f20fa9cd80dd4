package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lrnlab/apptrack-backend/internal/http/response"
	"github.com/lrnlab/apptrack-backend/internal/platform/apierr"
	"github.com/lrnlab/apptrack-backend/internal/platform/dbctx"
	"github.com/lrnlab/apptrack-backend/internal/services"
)

type AuthHandler struct {
	auth services.AuthService
}

func NewAuthHandler(auth services.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

func (h *AuthHandler) SessionLogin(c *gin.Context) {
	var req services.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	info, err := h.auth.SessionLogin(dbctx.Context{Ctx: c.Request.Context()}, req)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondCreated(c, info)
}

func (h *AuthHandler) RegisterUser(c *gin.Context) {
	var req services.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	user, err := h.auth.Register(dbctx.Context{Ctx: c.Request.Context()}, req)
	if err != nil {
		// registration rejections use the flat {error, message} shape the
		// embedding apps consume
		var aerr *apierr.Error
		if errors.As(err, &aerr) && aerr.Status == http.StatusForbidden {
			c.JSON(http.StatusForbidden, gin.H{"error": aerr.Code, "message": aerr.Err.Error()})
			return
		}
		response.RespondAPIError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"username": user.Username})
}
