package projection

import (
	"errors"
	"fmt"
)

// GuardCode is the closed set of reasons a projection is refused before it runs.
type GuardCode string

const (
	CodePaused            GuardCode = "PAUSED"
	CodeUnauthorized      GuardCode = "UNAUTHORIZED"
	CodeInvalidInput      GuardCode = "INVALID_INPUT"
	CodeUnknownProjection GuardCode = "UNKNOWN_PROJECTION"
)

// GuardError is raised by the executor when the guard refuses an input.
type GuardError struct {
	Code    GuardCode
	Message string
}

func (e *GuardError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// UnknownProjectionError is a lookup miss in the registry. It is a caller
// bug, never audited.
type UnknownProjectionError struct {
	Name Name
}

func (e *UnknownProjectionError) Error() string {
	return fmt.Sprintf("Unknown projection: %s", e.Name)
}

func (e *UnknownProjectionError) Code() GuardCode { return CodeUnknownProjection }

// ValidationError wraps a contract's Validate failure.
type ValidationError struct {
	Projection Name
	Err        error
}

func (e *ValidationError) Error() string { return e.Err.Error() }

func (e *ValidationError) Unwrap() error { return e.Err }

// Invalid builds the error a contract returns from Validate.
func Invalid(format string, args ...any) error {
	return fmt.Errorf(format, args...)
}

// CodeOf maps an executor error to its guard code, or "" for run and
// infrastructure failures.
func CodeOf(err error) GuardCode {
	var guardErr *GuardError
	if errors.As(err, &guardErr) {
		return guardErr.Code
	}
	var unknown *UnknownProjectionError
	if errors.As(err, &unknown) {
		return CodeUnknownProjection
	}
	var invalid *ValidationError
	if errors.As(err, &invalid) {
		return CodeInvalidInput
	}
	return ""
}
