package ctxutil

import "context"

type traceDataKey struct{}
type operatorKey struct{}

type TraceData struct {
	TraceID   string
	RequestID string
}

func WithTraceData(ctx context.Context, td *TraceData) context.Context {
	return context.WithValue(ctx, traceDataKey{}, td)
}

func GetTraceData(ctx context.Context) *TraceData {
	if td, ok := ctx.Value(traceDataKey{}).(*TraceData); ok {
		return td
	}
	return nil
}

// Operator identifies the authenticated caller of a system-scope control action.
type Operator struct {
	Subject string
	Role    string
}

func WithOperator(ctx context.Context, op *Operator) context.Context {
	return context.WithValue(ctx, operatorKey{}, op)
}

func GetOperator(ctx context.Context) *Operator {
	if op, ok := ctx.Value(operatorKey{}).(*Operator); ok {
		return op
	}
	return nil
}
