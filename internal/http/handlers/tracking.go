package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lrnlab/apptrack-backend/internal/http/response"
	"github.com/lrnlab/apptrack-backend/internal/platform/ctxutil"
	"github.com/lrnlab/apptrack-backend/internal/platform/dbctx"
	"github.com/lrnlab/apptrack-backend/internal/services"
)

type TrackingHandler struct {
	tracking services.TrackingService
}

func NewTrackingHandler(tracking services.TrackingService) *TrackingHandler {
	return &TrackingHandler{tracking: tracking}
}

type startTrackingRequest struct {
	StartTime  time.Time      `json:"start_time" binding:"required"`
	DeviceInfo map[string]any `json:"device_info"`
}

func (h *TrackingHandler) StartTracking(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserAppSession == nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	var req startTrackingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}

	result, err := h.tracking.Start(dbctx.Context{Ctx: c.Request.Context()}, rd.UserAppSession, services.StartTrackingRequest{
		StartTime:  req.StartTime,
		DeviceInfo: req.DeviceInfo,
		ClientIP:   c.ClientIP(),
	})
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}

	payload := gin.H{"tracking_session_id": result.TrackingSessionID}
	if result.Resumed {
		response.RespondOK(c, payload)
		return
	}
	response.RespondCreated(c, payload)
}

type stopTrackingRequest struct {
	EndTime time.Time `json:"end_time" binding:"required"`
}

func (h *TrackingHandler) StopTracking(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.TrackingSession == nil {
		response.RespondError(c, http.StatusBadRequest, "no_open_tracking_session", nil)
		return
	}
	var req stopTrackingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}

	if err := h.tracking.Stop(dbctx.Context{Ctx: c.Request.Context()}, rd.TrackingSession, req.EndTime); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"tracking_session_id": rd.TrackingSession.ID})
}

type trackEventRequest struct {
	Event services.TrackEventInput `json:"event" binding:"required"`
}

func (h *TrackingHandler) TrackEvent(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.TrackingSession == nil {
		response.RespondError(c, http.StatusBadRequest, "no_open_tracking_session", nil)
		return
	}
	var req trackEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}

	id, err := h.tracking.RecordEvent(dbctx.Context{Ctx: c.Request.Context()}, rd.TrackingSession, req.Event)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"tracking_event_id": id})
}
