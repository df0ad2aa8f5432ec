package infrastructure

import "context"

type contextKey string

const (
	// TraceIDContextKey holds the request or span trace ID
	TraceIDContextKey contextKey = "trace_id"
	// OwnerIDContextKey holds the owner a request operates on
	OwnerIDContextKey contextKey = "owner_id"
)

func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, TraceIDContextKey, traceID)
}

// GetTraceID returns the trace ID stored in ctx, or ""
func GetTraceID(ctx context.Context) string {
	traceID, _ := ctx.Value(TraceIDContextKey).(string)
	return traceID
}

func WithOwnerID(ctx context.Context, ownerID string) context.Context {
	return context.WithValue(ctx, OwnerIDContextKey, ownerID)
}

// GetOwnerID returns the owner ID stored in ctx, or ""
func GetOwnerID(ctx context.Context) string {
	ownerID, _ := ctx.Value(OwnerIDContextKey).(string)
	return ownerID
}
