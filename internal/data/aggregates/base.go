package aggregates

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/aaos-backend/internal/domain/governance"
	"github.com/yungbote/aaos-backend/internal/platform/dbctx"
)

// BaseDeps is shared by every guarded write. Zero fields are defaulted.
type BaseDeps struct {
	DB      *gorm.DB
	Runner  TxRunner
	Hooks   Hooks
	Guard   CASGuard
	Retries int
}

func (d BaseDeps) WithDefaults() BaseDeps {
	if d.Runner == nil {
		d.Runner = NewGormTxRunner(d.DB)
	}
	if d.Hooks == nil {
		d.Hooks = noopHooks{}
	}
	if d.Guard.db == nil {
		d.Guard = NewCASGuard(d.DB)
	}
	if d.Retries < 0 {
		d.Retries = 0
	}
	return d
}

// Write runs fn in one transaction and maps its failure to a governance
// error. Retryable failures (serialization, deadlock, lock timeout) rerun fn
// up to deps.Retries extra times; fn must therefore be safe to repeat.
func Write(ctx context.Context, deps BaseDeps, op string, fn func(dbc dbctx.Context) error) error {
	deps = deps.WithDefaults()
	op = strings.TrimSpace(op)
	if op == "" {
		op = "aggregate.write"
	}

	var mapped error
	for attempt := 0; attempt <= deps.Retries; attempt++ {
		start := time.Now()
		mapped = MapError(op, deps.Runner.InTx(ctx, fn))

		status := errorStatus(mapped)
		if governance.IsCode(mapped, governance.CodeConflict) {
			deps.Hooks.IncConflict(op)
		}
		deps.Hooks.ObserveOperation(op, status, time.Since(start))

		if !governance.IsCode(mapped, governance.CodeRetryable) || ctx.Err() != nil {
			break
		}
		if attempt < deps.Retries {
			deps.Hooks.IncRetry(op)
		}
	}
	return mapped
}

func errorStatus(err error) string {
	if err == nil {
		return "success"
	}
	code := strings.TrimSpace(string(governance.CodeOf(err)))
	if code == "" {
		code = strings.TrimSpace(string(governance.CodeOf(MapError("aggregate.status", err))))
	}
	if code == "" {
		return "failure"
	}
	return code
}
