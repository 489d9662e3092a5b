package services

import "context"

type contextKey string

const (
	runIDKey       contextKey = "run_id"
	contentTypeKey contextKey = "content_type"
	segmentKey     contextKey = "segment"
)

// WithRunID annotates context with the pipeline run correlation identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext extracts the run identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(runIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithContentType annotates context with the content type being generated.
func WithContentType(ctx context.Context, contentType string) context.Context {
	if contentType == "" {
		return ctx
	}
	return context.WithValue(ctx, contentTypeKey, contentType)
}

// ContentTypeFromContext returns the content type if present.
func ContentTypeFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(contentTypeKey)
	if str, ok := v.(string); ok && str != "" {
		return str, true
	}
	return "", false
}

// WithSegment annotates context with the 1-based segment index being processed.
func WithSegment(ctx context.Context, index int) context.Context {
	if index <= 0 {
		return ctx
	}
	return context.WithValue(ctx, segmentKey, index)
}

// SegmentFromContext extracts the segment index if present.
func SegmentFromContext(ctx context.Context) (int, bool) {
	v, ok := ctx.Value(segmentKey).(int)
	if !ok || v <= 0 {
		return 0, false
	}
	return v, true
}
