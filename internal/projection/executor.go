package projection

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/aaos-backend/internal/platform/clock"
	"github.com/yungbote/aaos-backend/internal/platform/logger"
)

var tracer = otel.Tracer("aaos.projection")

// AccessRecord is the single audit an execution produces.
type AccessRecord struct {
	UserID     uuid.UUID
	SessionID  *uuid.UUID
	Projection Name
	InputsHash string
	Sources    []Source
	OccurredAt time.Time
}

type AuditRecorder interface {
	RecordProjectionAccess(ctx context.Context, rec AccessRecord) error
}

// Executor is the only entry point for running projections. It holds no
// mutable state and is safe for concurrent use.
type Executor struct {
	registry *Registry
	guard    *Guard
	db       ReadDB
	audit    AuditRecorder
	clock    clock.Clock
	log      *logger.Logger
}

func NewExecutor(registry *Registry, guard *Guard, db ReadDB, audit AuditRecorder, clk clock.Clock, log *logger.Logger) *Executor {
	if clk == nil {
		clk = clock.System()
	}
	return &Executor{
		registry: registry,
		guard:    guard,
		db:       db,
		audit:    audit,
		clock:    clk,
		log:      log.With("component", "ProjectionExecutor"),
	}
}

// Names lists the registered projections.
func (e *Executor) Names() []Name { return e.registry.List() }

// Execute runs lookup, guard, validate, run and audit, strictly in that
// order. Nothing is audited unless the first four steps succeed.
func (e *Executor) Execute(ctx context.Context, name Name, in Input) (any, error) {
	ctx, span := tracer.Start(ctx, "projection.execute",
		trace.WithAttributes(
			attribute.String("projection.name", string(name)),
			attribute.String("projection.user_id", in.UserID),
		),
	)
	defer span.End()

	out, err := e.execute(ctx, span, name, in)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(CodeOf(err)))
		return nil, err
	}
	return out, nil
}

func (e *Executor) execute(ctx context.Context, span trace.Span, name Name, in Input) (any, error) {
	contract, err := e.registry.Get(name)
	if err != nil {
		return nil, err
	}

	res, err := e.guard.Check(ctx, contract, in)
	if err != nil {
		return nil, fmt.Errorf("projection %s guard: %w", name, err)
	}
	if !res.OK {
		e.log.Debug("projection blocked", "projection", name, "code", res.Code, "user_id", in.UserID)
		return nil, &GuardError{Code: res.Code, Message: res.Message}
	}
	in = canonicalIDs(in)

	if err := contract.Validate(in); err != nil {
		return nil, &ValidationError{Projection: name, Err: err}
	}

	out, err := contract.Run(ctx, Context{DB: e.db, Now: e.clock.Now}, in)
	if err != nil {
		return nil, fmt.Errorf("projection %s run: %w", name, err)
	}

	hash, err := Fingerprint(in)
	if err != nil {
		return nil, fmt.Errorf("projection %s fingerprint: %w", name, err)
	}
	span.SetAttributes(attribute.String("projection.inputs_hash", hash))

	// The guard already parsed both ids.
	userID := uuid.MustParse(in.UserID)
	sessionID, _ := optionalID(in.SessionID)
	if err := e.audit.RecordProjectionAccess(ctx, AccessRecord{
		UserID:     userID,
		SessionID:  sessionID,
		Projection: name,
		InputsHash: hash,
		Sources:    contract.Sources(),
		OccurredAt: e.clock.Now(),
	}); err != nil {
		return nil, fmt.Errorf("projection %s audit: %w", name, err)
	}
	return out, nil
}

// ExecuteAs runs a projection and asserts its output type.
func ExecuteAs[O any](ctx context.Context, e *Executor, name Name, in Input) (O, error) {
	var zero O
	out, err := e.Execute(ctx, name, in)
	if err != nil {
		return zero, err
	}
	typed, ok := out.(O)
	if !ok {
		return zero, fmt.Errorf("projection %s: output is %T, not %T", name, out, zero)
	}
	return typed, nil
}
