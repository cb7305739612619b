// Package governance holds the hard-failure error type shared by every
// guarded mutation. Expected policy outcomes are not errors; they are
// returned as guard results by the guard packages.
package governance

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode standardizes failure semantics across services.
type ErrorCode string

const (
	CodeValidation         ErrorCode = "validation"
	CodeNotFound           ErrorCode = "not_found"
	CodeForbidden          ErrorCode = "forbidden"
	CodePaused             ErrorCode = "paused"
	CodeInvariantViolation ErrorCode = "invariant_violation"
	CodeConflict           ErrorCode = "conflict"
	CodePreconditionFailed ErrorCode = "precondition_failed"
	CodeRetryable          ErrorCode = "retryable"
	CodeInternal           ErrorCode = "internal"
)

type Error struct {
	Code    ErrorCode
	Op      string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	op := strings.TrimSpace(e.Op)
	msg := strings.TrimSpace(e.Message)
	switch {
	case op != "" && msg != "":
		return fmt.Sprintf("%s: %s (%s)", op, msg, e.Code)
	case op != "":
		return fmt.Sprintf("%s (%s)", op, e.Code)
	case msg != "":
		return fmt.Sprintf("%s (%s)", msg, e.Code)
	default:
		return string(e.Code)
	}
}

func (e *Error) Unwrap() error { return e.Cause }

func NewError(code ErrorCode, op, message string, cause error) error {
	return &Error{
		Code:    code,
		Op:      strings.TrimSpace(op),
		Message: strings.TrimSpace(message),
		Cause:   cause,
	}
}

// Wrap annotates an existing error with a code. A nil err stays nil.
func Wrap(code ErrorCode, op string, err error) error {
	if err == nil {
		return nil
	}
	return NewError(code, op, err.Error(), err)
}

func IsCode(err error, code ErrorCode) bool {
	var gErr *Error
	if !errors.As(err, &gErr) {
		return false
	}
	return gErr.Code == code
}

// CodeOf extracts the code, or "" when err is not a governance error.
func CodeOf(err error) ErrorCode {
	var gErr *Error
	if !errors.As(err, &gErr) {
		return ""
	}
	return gErr.Code
}

// MessageOf returns the structural message without op or code decoration.
func MessageOf(err error) string {
	var gErr *Error
	if errors.As(err, &gErr) && gErr.Message != "" {
		return gErr.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
