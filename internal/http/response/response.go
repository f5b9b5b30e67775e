package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/edubot-backend/internal/platform/apierr"
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

// RespondAPIError maps service errors onto the envelope. Internal failures
// never leak their message.
func RespondAPIError(c *gin.Context, err error) {
	ae := apierr.As(err)
	if ae == nil {
		RespondError(c, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	if ae.Status >= http.StatusInternalServerError {
		_ = c.Error(err)
		c.JSON(ae.Status, ErrorEnvelope{Error: APIError{Message: http.StatusText(ae.Status), Code: ae.Code}})
		return
	}
	RespondError(c, ae.Status, ae.Code, ae)
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}
