package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// tracedRouter wires the full tracing chain against an in-memory span
// recorder installed as the global tracer provider.
func tracedRouter(t *testing.T) (*gin.Engine, *tracetest.SpanRecorder) {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})

	r := gin.New()
	r.Use(RequestID())
	r.Use(Tracing())
	r.Use(TracingAttributeInjector())
	r.Use(SpanErrorMarker())
	r.GET("/api/v1/listings/:id", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	r.GET("/api/v1/missing", func(c *gin.Context) {
		c.Status(http.StatusNotFound)
	})
	return r, recorder
}

func findAttr(span sdktrace.ReadOnlySpan, key attribute.Key) (attribute.Value, bool) {
	for _, kv := range span.Attributes() {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestTracingCreatesServerSpan(t *testing.T) {
	r, recorder := tracedRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/listings/7", nil))
	require.Equal(t, http.StatusOK, w.Code)

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Contains(t, ended[0].Name(), "/api/v1/listings/:id")
	assert.Equal(t, codes.Unset, ended[0].Status().Code)
}

func TestTracingInjectsRequestID(t *testing.T) {
	r, recorder := tracedRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/listings/7", nil)
	req.Header.Set(HeaderRequestID, "trace-me-42")
	r.ServeHTTP(httptest.NewRecorder(), req)

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	id, ok := findAttr(ended[0], "request_id")
	require.True(t, ok)
	assert.Equal(t, "trace-me-42", id.AsString())
}

func TestTracingTruncatesOversizedRequestID(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})

	// No RequestID middleware, so the injector falls back to the header.
	r := gin.New()
	r.Use(Tracing())
	r.Use(TracingAttributeInjector())
	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(HeaderRequestID, strings.Repeat("x", 500))
	r.ServeHTTP(httptest.NewRecorder(), req)

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	id, ok := findAttr(ended[0], "request_id")
	require.True(t, ok)
	assert.Len(t, id.AsString(), maxRequestIDLength)
}

func TestSpanErrorMarkerFlagsErrorStatus(t *testing.T) {
	r, recorder := tracedRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/missing", nil))
	require.Equal(t, http.StatusNotFound, w.Code)

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, codes.Error, ended[0].Status().Code)
	assert.Equal(t, "Not Found", ended[0].Status().Description)

	status, ok := findAttr(ended[0], "http.status_code")
	require.True(t, ok)
	assert.EqualValues(t, http.StatusNotFound, status.AsInt64())
}

func TestSpanErrorMarkerWithoutSpanIsNoop(t *testing.T) {
	r := gin.New()
	r.Use(SpanErrorMarker())
	r.GET("/boom", func(c *gin.Context) {
		c.Status(http.StatusInternalServerError)
	})

	w := httptest.NewRecorder()
	require.NotPanics(t, func() {
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
