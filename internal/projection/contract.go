package projection

import (
	"context"
	"time"
)

// Context is everything a contract may touch while running.
type Context struct {
	DB  ReadDB
	Now func() time.Time
}

// Contract is one read-only, deterministic projection. Output must be a
// pure function of the input and the source rows.
type Contract interface {
	Name() Name
	// Sources lists the tables the contract reads. It is recorded in the
	// access audit.
	Sources() []Source
	// Validate checks contract-specific input rules. Ownership and pause
	// belong to the guard.
	Validate(in Input) error
	Run(ctx context.Context, pc Context, in Input) (any, error)
}

// Definition adapts typed functions into a Contract.
type Definition[O any] struct {
	ProjectionName Name
	Reads          []Source
	ValidateFunc   func(in Input) error
	RunFunc        func(ctx context.Context, pc Context, in Input) (O, error)
}

func (d Definition[O]) Name() Name { return d.ProjectionName }

func (d Definition[O]) Sources() []Source {
	out := make([]Source, len(d.Reads))
	copy(out, d.Reads)
	return out
}

func (d Definition[O]) Validate(in Input) error {
	if d.ValidateFunc == nil {
		return nil
	}
	return d.ValidateFunc(in)
}

func (d Definition[O]) Run(ctx context.Context, pc Context, in Input) (any, error) {
	return d.RunFunc(ctx, pc, in)
}
