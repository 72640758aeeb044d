package logging

import "context"

type contextKey string

const runIDKey contextKey = "teleprompt.run_id"

// WithRunID attaches an optimization run identifier to the context so that
// every log line emitted under it can be correlated.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey, runID)
}

// GetRunID returns the run identifier stored in ctx, if any.
func GetRunID(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(runIDKey).(string)
	return id, ok
}
