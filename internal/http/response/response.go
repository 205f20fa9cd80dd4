package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lrnlab/apptrack-backend/internal/platform/apierr"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

type ValidationEnvelope struct {
	ValidationErrors map[string][]string `json:"validation_errors"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

// RespondAPIError maps a service error onto the wire: validation errors get
// the field→messages map, apierr.Error carries its own status and code,
// anything else is a 500.
func RespondAPIError(c *gin.Context, err error) {
	var verr *apierr.ValidationError
	if errors.As(err, &verr) {
		c.JSON(http.StatusBadRequest, ValidationEnvelope{ValidationErrors: verr.Fields})
		return
	}
	var aerr *apierr.Error
	if errors.As(err, &aerr) {
		RespondError(c, aerr.Status, aerr.Code, aerr.Err)
		return
	}
	RespondError(c, http.StatusInternalServerError, "internal_error", err)
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}
