package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/aaos-backend/internal/domain/governance"
	"github.com/yungbote/aaos-backend/internal/projection"
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

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

var governanceStatus = map[governance.ErrorCode]int{
	governance.CodeValidation:         http.StatusBadRequest,
	governance.CodeNotFound:           http.StatusNotFound,
	governance.CodeForbidden:          http.StatusForbidden,
	governance.CodePaused:             http.StatusLocked,
	governance.CodeInvariantViolation: http.StatusConflict,
	governance.CodePreconditionFailed: http.StatusConflict,
	governance.CodeConflict:           http.StatusConflict,
	governance.CodeRetryable:          http.StatusServiceUnavailable,
	governance.CodeInternal:           http.StatusInternalServerError,
}

var projectionStatus = map[projection.GuardCode]int{
	projection.CodeInvalidInput:      http.StatusBadRequest,
	projection.CodeUnauthorized:      http.StatusForbidden,
	projection.CodePaused:            http.StatusLocked,
	projection.CodeUnknownProjection: http.StatusNotFound,
}

// StatusFor maps a service or projection error to its HTTP status, code
// and client-facing message. Unclassified errors become a bare 500.
func StatusFor(err error) (int, string, string) {
	if code := governance.CodeOf(err); code != "" {
		status, ok := governanceStatus[code]
		if !ok || code == governance.CodeInternal {
			return http.StatusInternalServerError, string(governance.CodeInternal), "internal error"
		}
		return status, string(code), governance.MessageOf(err)
	}
	if code := projection.CodeOf(err); code != "" {
		var guardErr *projection.GuardError
		msg := err.Error()
		if errors.As(err, &guardErr) {
			msg = guardErr.Message
		}
		return projectionStatus[code], string(code), msg
	}
	return http.StatusInternalServerError, string(governance.CodeInternal), "internal error"
}

// RespondErr writes the envelope for err using StatusFor.
func RespondErr(c *gin.Context, err error) {
	status, code, msg := StatusFor(err)
	c.JSON(status, ErrorEnvelope{Error: APIError{Message: msg, Code: code}})
}
