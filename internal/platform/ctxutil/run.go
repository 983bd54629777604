package ctxutil

import "context"

type runDataKey struct{}

// RunData identifies the pipeline run a context belongs to.
type RunData struct {
	RunID   string
	TraceID string
}

func WithRunData(ctx context.Context, rd *RunData) context.Context {
	return context.WithValue(ctx, runDataKey{}, rd)
}

func GetRunData(ctx context.Context) *RunData {
	val := ctx.Value(runDataKey{})
	if rd, ok := val.(*RunData); ok {
		return rd
	}
	return nil
}
