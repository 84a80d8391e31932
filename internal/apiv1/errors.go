package apiv1

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/contractreg/contractreg/internal/coreerrors"
)

// errorEnvelope is the error response body spec §6 names:
// { "error": { "code", "message", "details" }, "request_id" }.
type errorEnvelope struct {
	Error     errorBody   `json:"error"`
	RequestID string      `json:"request_id"`
}

type errorBody struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// writeError maps a core error to the HTTP status/code named in spec §6 and
// writes the envelope. Errors that aren't a *coreerrors.Error are treated as
// internal.
func writeError(c *gin.Context, err error) {
	var status int
	var code, message string
	var details interface{}

	var coreErr *coreerrors.Error
	if errors.As(err, &coreErr) {
		status = coreErr.Kind.HTTPStatus()
		code = coreErr.Kind.Code()
		message = coreErr.Message
		details = coreErr.Details()
	} else {
		status = http.StatusInternalServerError
		code = "INTERNAL_ERROR"
		message = "an internal error occurred"
	}

	c.JSON(status, errorEnvelope{
		Error:     errorBody{Code: code, Message: message, Details: details},
		RequestID: requestID(c),
	})
}

func requestID(c *gin.Context) string {
	if id, ok := c.Get("request_id"); ok {
		if s, ok := id.(string); ok {
			return s
		}
	}
	return ""
}

func writeUnauthorized(c *gin.Context, message string) {
	c.JSON(http.StatusUnauthorized, errorEnvelope{
		Error:     errorBody{Code: "UNAUTHORIZED", Message: message},
		RequestID: requestID(c),
	})
}
