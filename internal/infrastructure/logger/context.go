package logger

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type contextKey string

// RequestIDKey stores the request ID in a context.Context so layers
// below HTTP (the dataset loader, the gorm logger) can correlate their
// log lines with the request.
const RequestIDKey contextKey = "request_id"

// WithRequestID stamps the request ID onto the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetRequestID returns the request ID from the context, or "".
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDKey).(string)
	return id
}

// WithTraceContext attaches trace_id and span_id fields when the
// context carries a sampled span. Without a valid span the logger is
// returned unchanged.
func WithTraceContext(ctx context.Context, log *zap.Logger) *zap.Logger {
	spanCtx := trace.SpanContextFromContext(ctx)
	if !spanCtx.IsValid() {
		return log
	}
	return log.With(
		zap.String("trace_id", spanCtx.TraceID().String()),
		zap.String("span_id", spanCtx.SpanID().String()),
	)
}
