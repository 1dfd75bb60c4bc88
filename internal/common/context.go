package common

import (
	"context"
)

type contextKey string

const (
	ContextKeyRequestID    contextKey = "request_id"
	ContextKeyInspectionID contextKey = "inspection_id"
)

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// RequestIDFromContext extracts the request ID from context
func RequestIDFromContext(ctx context.Context) string {
	if requestID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return requestID
	}
	return ""
}

// WithInspectionID tags downstream work (extraction, analysis) with the inspection it belongs to.
func WithInspectionID(ctx context.Context, inspectionID string) context.Context {
	return context.WithValue(ctx, ContextKeyInspectionID, inspectionID)
}

// InspectionIDFromContext extracts the inspection ID from context
func InspectionIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(ContextKeyInspectionID).(string); ok {
		return id
	}
	return ""
}
