package services

import "context"

type contextKey string

const (
	runIDKey    contextKey = "run_id"
	stageKey    contextKey = "stage"
	filenameKey contextKey = "filename"
)

// WithRunID annotates context with the organize run identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext extracts the organize run identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(runIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithStage annotates context with the organize stage name (listing, moving, captioning).
func WithStage(ctx context.Context, stage string) context.Context {
	if stage == "" {
		return ctx
	}
	return context.WithValue(ctx, stageKey, stage)
}

// StageFromContext returns the stage name if present.
func StageFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(stageKey)
	if str, ok := v.(string); ok && str != "" {
		return str, true
	}
	return "", false
}

// WithFilename annotates context with the file currently being processed.
func WithFilename(ctx context.Context, name string) context.Context {
	if name == "" {
		return ctx
	}
	return context.WithValue(ctx, filenameKey, name)
}

// FilenameFromContext returns the file name if present.
func FilenameFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(filenameKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
