package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lrnlab/apptrack-backend/internal/http/response"
	"github.com/lrnlab/apptrack-backend/internal/platform/ctxutil"
	"github.com/lrnlab/apptrack-backend/internal/platform/dbctx"
	"github.com/lrnlab/apptrack-backend/internal/services"
)

type FeedbackHandler struct {
	feedback services.FeedbackService
}

func NewFeedbackHandler(feedback services.FeedbackService) *FeedbackHandler {
	return &FeedbackHandler{feedback: feedback}
}

func (h *FeedbackHandler) SubmitFeedback(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserAppSession == nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	var req services.FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}

	created, err := h.feedback.Submit(dbctx.Context{Ctx: c.Request.Context()}, rd.UserAppSession, req)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	if created {
		c.Status(http.StatusCreated)
		return
	}
	c.Status(http.StatusOK)
}

func (h *FeedbackHandler) ListFeedback(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserAppSession == nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	items, err := h.feedback.List(dbctx.Context{Ctx: c.Request.Context()}, rd.UserAppSession)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"user_feedback": items})
}
