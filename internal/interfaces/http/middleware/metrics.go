package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/homefinder/backend/internal/infrastructure/telemetry"
)

// HTTPMetricsConfig configures the HTTP metrics middleware.
type HTTPMetricsConfig struct {
	MeterProvider *telemetry.MeterProvider
	ServiceName   string
	Enabled       bool
}

// httpMetrics bundles the per-request instruments.
type httpMetrics struct {
	requestTotal    *telemetry.Counter
	requestDuration *telemetry.Histogram
	responseSize    *telemetry.Histogram
	activeRequests  metric.Int64UpDownCounter
}

func newHTTPMetrics(meter metric.Meter) (*httpMetrics, error) {
	requestTotal, err := telemetry.NewCounter(meter,
		"http_server_request_total",
		"Total number of HTTP requests",
		"{request}",
	)
	if err != nil {
		return nil, err
	}

	requestDuration, err := telemetry.NewHistogram(meter, telemetry.HistogramOpts{
		Name:        "http_server_request_duration_seconds",
		Description: "HTTP request latency distribution in seconds",
		Unit:        "s",
		Boundaries:  telemetry.HTTPDurationBuckets,
	})
	if err != nil {
		return nil, err
	}

	responseSize, err := telemetry.NewHistogram(meter, telemetry.HistogramOpts{
		Name:        "http_server_response_size_bytes",
		Description: "HTTP response body size distribution in bytes",
		Unit:        "By",
		Boundaries:  []float64{100, 500, 1000, 5000, 10000, 50000, 100000, 500000, 1000000},
	})
	if err != nil {
		return nil, err
	}

	activeRequests, err := meter.Int64UpDownCounter(
		"http_server_active_requests",
		metric.WithDescription("Number of currently active HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	return &httpMetrics{
		requestTotal:    requestTotal,
		requestDuration: requestDuration,
		responseSize:    responseSize,
		activeRequests:  activeRequests,
	}, nil
}

// HTTPMetrics records request count, latency, response size and
// in-flight requests. Disabled or failed setup degrades to a no-op.
func HTTPMetrics(cfg HTTPMetricsConfig) gin.HandlerFunc {
	if !cfg.Enabled || cfg.MeterProvider == nil || !cfg.MeterProvider.IsEnabled() {
		return func(c *gin.Context) { c.Next() }
	}
	return HTTPMetricsWithMeter(cfg.MeterProvider.Meter("http.server"), true)
}

// HTTPMetricsWithMeter builds the middleware on a caller-supplied meter.
func HTTPMetricsWithMeter(meter metric.Meter, enabled bool) gin.HandlerFunc {
	if !enabled {
		return func(c *gin.Context) { c.Next() }
	}

	m, err := newHTTPMetrics(meter)
	if err != nil {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		ctx := c.Request.Context()
		start := time.Now()

		m.activeRequests.Add(ctx, 1)
		c.Next()
		m.activeRequests.Add(ctx, -1)

		// The matched route pattern keeps attribute cardinality bounded.
		route := c.FullPath()
		if route == "" {
			route = "unknown"
		}

		baseAttrs := []attribute.KeyValue{
			telemetry.AttrHTTPMethod.String(c.Request.Method),
			telemetry.AttrHTTPRoute.String(route),
		}
		m.requestTotal.Inc(ctx, append(baseAttrs,
			telemetry.AttrHTTPStatusCode.Int(c.Writer.Status()))...)
		m.requestDuration.RecordDuration(ctx, time.Since(start), baseAttrs...)

		if size := c.Writer.Size(); size > 0 {
			m.responseSize.Record(ctx, float64(size), baseAttrs...)
		}
	}
}
