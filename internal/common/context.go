package common

import "context"

// Context keys for storing values in context
type contextKey string

const (
	ContextKeyRequestID contextKey = "request_id"
	ContextKeySourceKey contextKey = "source_key"
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

// WithSourceKey records the object key of the document being processed.
func WithSourceKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, ContextKeySourceKey, key)
}

// SourceKeyFromContext extracts the source document key from context
func SourceKeyFromContext(ctx context.Context) string {
	if key, ok := ctx.Value(ContextKeySourceKey).(string); ok {
		return key
	}
	return ""
}
