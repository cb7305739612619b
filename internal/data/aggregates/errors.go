package aggregates

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/yungbote/aaos-backend/internal/domain/governance"
)

var (
	// ErrValidation indicates caller input validation failure.
	ErrValidation = errors.New("aggregate validation")
	// ErrInvariant indicates invariant rule violation.
	ErrInvariant = errors.New("aggregate invariant violation")
	// ErrConflict indicates optimistic/concurrency conflict.
	ErrConflict = errors.New("aggregate conflict")
	// ErrRetryable indicates transient retryable failure.
	ErrRetryable = errors.New("aggregate retryable")
)

func ValidationError(msg string) error {
	return errors.Join(ErrValidation, errors.New(strings.TrimSpace(msg)))
}

func InvariantError(msg string) error {
	return errors.Join(ErrInvariant, errors.New(strings.TrimSpace(msg)))
}

func ConflictError(msg string) error {
	return errors.Join(ErrConflict, errors.New(strings.TrimSpace(msg)))
}

func RetryableError(msg string) error {
	return errors.Join(ErrRetryable, errors.New(strings.TrimSpace(msg)))
}

// MapError maps infrastructure failures into governance error codes.
// Governance errors pass through untouched.
func MapError(op string, err error) error {
	if err == nil {
		return nil
	}
	var gErr *governance.Error
	if errors.As(err, &gErr) {
		return err
	}
	switch {
	case errors.Is(err, ErrValidation):
		return governance.Wrap(governance.CodeValidation, op, err)
	case errors.Is(err, ErrInvariant):
		return governance.Wrap(governance.CodeInvariantViolation, op, err)
	case errors.Is(err, ErrConflict):
		return governance.Wrap(governance.CodeConflict, op, err)
	case errors.Is(err, ErrRetryable):
		return governance.Wrap(governance.CodeRetryable, op, err)
	case errors.Is(err, gorm.ErrRecordNotFound):
		return governance.Wrap(governance.CodeNotFound, op, err)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return governance.Wrap(governance.CodeConflict, op, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return governance.Wrap(governance.CodeRetryable, op, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch strings.TrimSpace(pgErr.Code) {
		case "23505":
			return governance.Wrap(governance.CodeConflict, op, err) // unique_violation
		case "23503":
			return governance.Wrap(governance.CodePreconditionFailed, op, err) // foreign_key_violation
		case "40001", "40P01", "55P03":
			return governance.Wrap(governance.CodeRetryable, op, err) // serialization/deadlock/lock_not_available
		}
	}

	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	switch {
	case strings.Contains(msg, "duplicate key"),
		strings.Contains(msg, "already exists"),
		strings.Contains(msg, "unique constraint failed"):
		return governance.Wrap(governance.CodeConflict, op, err)
	case strings.Contains(msg, "deadlock"),
		strings.Contains(msg, "serialization"),
		strings.Contains(msg, "database is locked"),
		strings.Contains(msg, "timeout"),
		strings.Contains(msg, "temporar"):
		return governance.Wrap(governance.CodeRetryable, op, err)
	default:
		return governance.Wrap(governance.CodeInternal, op, err)
	}
}
