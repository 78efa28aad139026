package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jucity/ai-manager-backend/internal/apierr"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
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

// RespondAppError maps a service error to its HTTP shape. Anything that
// is not an apierr gets a generic 500 so internals never leak to
// clients; the middleware has already logged the real error.
func RespondAppError(c *gin.Context, err error) {
	status, code := apierr.StatusOf(err)
	if status == http.StatusInternalServerError {
		RespondError(c, status, code, errServiceUnavailable)
		return
	}
	RespondError(c, status, code, err)
}

type serviceUnavailableError struct{}

func (serviceUnavailableError) Error() string { return "service temporarily unavailable" }

var errServiceUnavailable = serviceUnavailableError{}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}
