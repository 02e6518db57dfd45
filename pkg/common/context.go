package common

import (
	"context"
	"time"
)

// ContextKey represents a context key type
type ContextKey string

// Context keys
const (
	ContextKeyRequestID ContextKey = "request_id"
	ContextKeyStartTime ContextKey = "start_time"
)

// WithRequestID adds request ID to context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// GetRequestID extracts request ID from context
func GetRequestID(ctx context.Context) (string, bool) {
	requestID, ok := ctx.Value(ContextKeyRequestID).(string)
	return requestID, ok
}

// WithStartTime adds start time to context
func WithStartTime(ctx context.Context, startTime time.Time) context.Context {
	return context.WithValue(ctx, ContextKeyStartTime, startTime)
}

// GetElapsedTime reports how long ago the request started, or zero
// outside a request.
func GetElapsedTime(ctx context.Context) time.Duration {
	if startTime, ok := ctx.Value(ContextKeyStartTime).(time.Time); ok {
		return time.Since(startTime)
	}
	return 0
}
