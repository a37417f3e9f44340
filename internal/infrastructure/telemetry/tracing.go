package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName identifies business spans started by the service layer.
const TracerName = "homefinder-backend"

// Span attribute keys for business spans. Metric attribute.Key values
// live in metrics.go; these string keys are for traces only.
const (
	SpanAttrListingType = "listing_type"
	SpanAttrCity        = "city"
	SpanAttrResultCount = "result_count"
	SpanAttrRelaxed     = "relaxed"
	SpanAttrLimit       = "limit"

	SpanAttrDatasetSource = "dataset_source"
	SpanAttrRowsLoaded    = "rows_loaded"
	SpanAttrRowsDropped   = "rows_dropped"
	SpanAttrFingerprint   = "fingerprint"
)

// SpanOption configures span start attributes.
type SpanOption func(*[]attribute.KeyValue)

// WithAttribute attaches an attribute at span start.
func WithAttribute(key string, value any) SpanOption {
	return func(attrs *[]attribute.KeyValue) {
		*attrs = append(*attrs, toAttribute(key, value))
	}
}

// StartSpan starts an internal span on the global tracer. The caller
// must End the returned span.
func StartSpan(ctx context.Context, name string, opts ...SpanOption) (context.Context, trace.Span) {
	var attrs []attribute.KeyValue
	for _, opt := range opts {
		opt(&attrs)
	}

	return otel.GetTracerProvider().Tracer(TracerName).Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
}

// StartServiceSpan starts a span named {service}.{method}, e.g.
// "recommendation.search".
func StartServiceSpan(ctx context.Context, service, method string, opts ...SpanOption) (context.Context, trace.Span) {
	return StartSpan(ctx, service+"."+method, opts...)
}

// SetAttributes adds alternating key/value pairs to the span. Non-string
// keys are skipped.
func SetAttributes(span trace.Span, keyValues ...any) {
	if span == nil {
		return
	}
	attrs := make([]attribute.KeyValue, 0, len(keyValues)/2)
	for i := 0; i+1 < len(keyValues); i += 2 {
		if key, ok := keyValues[i].(string); ok {
			attrs = append(attrs, toAttribute(key, keyValues[i+1]))
		}
	}
	span.SetAttributes(attrs...)
}

// RecordError records err on the span and marks it failed. Nil span or
// nil error is a no-op.
func RecordError(span trace.Span, err error) {
	if span == nil || err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

func toAttribute(key string, value any) attribute.KeyValue {
	switch v := value.(type) {
	case string:
		return attribute.String(key, v)
	case int:
		return attribute.Int(key, v)
	case int64:
		return attribute.Int64(key, v)
	case float64:
		return attribute.Float64(key, v)
	case bool:
		return attribute.Bool(key, v)
	case fmt.Stringer:
		return attribute.String(key, v.String())
	default:
		return attribute.String(key, fmt.Sprintf("%v", v))
	}
}
