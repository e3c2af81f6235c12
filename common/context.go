package common

import (
	"context"
)

type ctxKey int

const (
	ctxKeyRunID ctxKey = iota
	ctxKeyWorkerID
)

// WithRunID saves the current run ID to the context.
func WithRunID(ctx context.Context, rID string) context.Context {
	return context.WithValue(ctx, ctxKeyRunID, rID)
}

// GetRunID returns the current run ID.
func GetRunID(ctx context.Context) string {
	rID, _ := ctx.Value(ctxKeyRunID).(string)
	return rID
}

// WithWorkerID tags the context with a worker lane. It is only used for log
// correlation; components take the worker id as an explicit argument.
func WithWorkerID(ctx context.Context, wID int) context.Context {
	return context.WithValue(ctx, ctxKeyWorkerID, wID)
}

// GetWorkerID returns the worker lane stored in the context, if any.
func GetWorkerID(ctx context.Context) (int, bool) {
	wID, ok := ctx.Value(ctxKeyWorkerID).(int)
	return wID, ok
}
