package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// maxRequestIDLength caps the request_id span attribute so an oversized
// header cannot bloat spans.
const maxRequestIDLength = 128

// Tracing creates one server span per request via otelgin. Span names
// follow "METHOD route" with the matched route pattern.
func Tracing() gin.HandlerFunc {
	return otelgin.Middleware("homefinder-backend")
}

// TracingAttributeInjector stamps the request ID onto the active span.
// Must run after Tracing so the span is still recording.
func TracingAttributeInjector() gin.HandlerFunc {
	return func(c *gin.Context) {
		span := trace.SpanFromContext(c.Request.Context())
		if span.IsRecording() {
			if id := spanRequestID(c); id != "" {
				span.SetAttributes(attribute.String("request_id", id))
			}
		}
		c.Next()
	}
}

func spanRequestID(c *gin.Context) string {
	if id := c.GetString("request_id"); id != "" {
		return id
	}
	id := c.GetHeader(HeaderRequestID)
	if len(id) > maxRequestIDLength {
		id = id[:maxRequestIDLength]
	}
	return id
}

// SpanErrorMarker flags the server span as failed for 4xx and 5xx
// responses. Must run after Tracing.
func SpanErrorMarker() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		span := trace.SpanFromContext(c.Request.Context())
		if !span.IsRecording() {
			return
		}

		status := c.Writer.Status()
		if status < http.StatusBadRequest {
			return
		}

		msg := http.StatusText(status)
		if msg == "" {
			msg = "Client Error"
		}
		span.SetStatus(codes.Error, msg)
		span.SetAttributes(attribute.Int("http.status_code", status))
	}
}
