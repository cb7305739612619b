package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/aaos-backend/internal/data/aggregates"
	"github.com/yungbote/aaos-backend/internal/domain/governance"
	"github.com/yungbote/aaos-backend/internal/platform/dbctx"
	"github.com/yungbote/aaos-backend/internal/platform/logger"
)

const writeRetries = 2

// isoMillis renders timestamps in audit meta.
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

// blockedMutation is a policy refusal. Its audit row must commit, so the
// writer commits the transaction and returns the inner error afterwards.
type blockedMutation struct {
	err error
}

func (b *blockedMutation) Error() string { return b.err.Error() }

func (b *blockedMutation) Unwrap() error { return b.err }

// governedWriter runs every guarded mutation in one transaction together
// with its audit rows. A nested call (dbc.Tx set) joins the caller's
// transaction instead of opening one.
type governedWriter struct {
	deps  aggregates.BaseDeps
	audit AuditSink
	log   *logger.Logger
}

func newGovernedWriter(db *gorm.DB, sink AuditSink, log *logger.Logger) governedWriter {
	return governedWriter{
		deps: aggregates.BaseDeps{
			DB:      db,
			Hooks:   aggregates.NewLogHooks(log),
			Retries: writeRetries,
		}.WithDefaults(),
		audit: sink,
		log:   log,
	}
}

func (w governedWriter) run(dbc dbctx.Context, op string, fn func(dbc dbctx.Context) error) error {
	if dbc.Tx != nil {
		return fn(dbc)
	}
	ctx := dbc.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, box := withAuditOutbox(ctx)

	var refusal error
	err := aggregates.Write(ctx, w.deps, op, func(tx dbctx.Context) error {
		box.reset()
		refusal = nil
		err := fn(tx)
		var blocked *blockedMutation
		if errors.As(err, &blocked) {
			refusal = blocked.err
			return nil
		}
		return err
	})
	if err != nil {
		return err
	}
	w.audit.Committed(ctx, box.drain())
	return refusal
}

// block records the refusal and returns the error the caller must raise.
func (w governedWriter) block(dbc dbctx.Context, entry AuditEntry, code governance.ErrorCode, op, message string) error {
	if entry.Meta == nil {
		entry.Meta = map[string]any{}
	}
	entry.Meta["reason"] = message
	if _, err := w.audit.Append(dbc, entry); err != nil {
		return err
	}
	w.log.Warn("mutation blocked",
		"op", op,
		"user_id", uuidString(entry.UserID),
		"event_type", entry.EventType,
		"reason", message,
	)
	return &blockedMutation{err: governance.NewError(code, op, message, nil)}
}

// mapInfra tags infrastructure errors with governance codes.
func mapInfra(op string, err error) error {
	return aggregates.MapError(op, err)
}

func uuidString(id *uuid.UUID) string {
	if id == nil {
		return ""
	}
	return id.String()
}

func uuidPtr(id uuid.UUID) *uuid.UUID { return &id }

func uuidOrNil(id *uuid.UUID) any {
	if id == nil {
		return nil
	}
	return id.String()
}

func stringOrNil(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
