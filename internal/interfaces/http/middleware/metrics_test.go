package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/homefinder/backend/internal/infrastructure/telemetry"
)

func metricsRouter(t *testing.T) (*gin.Engine, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	r := gin.New()
	r.Use(HTTPMetricsWithMeter(provider.Meter("http.server"), true))
	r.GET("/api/v1/listings/:id", func(c *gin.Context) {
		c.String(http.StatusOK, "listing detail body")
	})
	r.GET("/api/v1/broken", func(c *gin.Context) {
		c.Status(http.StatusInternalServerError)
	})
	return r, reader
}

func collectMetrics(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := make(map[string]metricdata.Metrics)
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func TestHTTPMetricsRecordsRequests(t *testing.T) {
	r, reader := metricsRouter(t)

	for range 3 {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/listings/7", nil))
		require.Equal(t, http.StatusOK, w.Code)
	}

	metrics := collectMetrics(t, reader)

	total, ok := metrics["http_server_request_total"]
	require.True(t, ok)
	sum, ok := total.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1)

	dp := sum.DataPoints[0]
	assert.EqualValues(t, 3, dp.Value)

	// The route pattern is recorded, not the concrete path.
	route, _ := dp.Attributes.Value(telemetry.AttrHTTPRoute)
	assert.Equal(t, "/api/v1/listings/:id", route.AsString())
	status, _ := dp.Attributes.Value(telemetry.AttrHTTPStatusCode)
	assert.EqualValues(t, http.StatusOK, status.AsInt64())

	duration, ok := metrics["http_server_request_duration_seconds"]
	require.True(t, ok)
	hist, ok := duration.Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	assert.EqualValues(t, 3, hist.DataPoints[0].Count)

	size, ok := metrics["http_server_response_size_bytes"]
	require.True(t, ok)
	sizeHist := size.Data.(metricdata.Histogram[float64])
	require.Len(t, sizeHist.DataPoints, 1)
	maxSize, defined := sizeHist.DataPoints[0].Max.Value()
	require.True(t, defined)
	assert.EqualValues(t, len("listing detail body"), maxSize)
}

func TestHTTPMetricsStatusCodePartitions(t *testing.T) {
	r, reader := metricsRouter(t)

	for _, path := range []string{"/api/v1/listings/7", "/api/v1/broken"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	}

	metrics := collectMetrics(t, reader)
	sum := metrics["http_server_request_total"].Data.(metricdata.Sum[int64])

	statuses := make(map[int64]int64)
	for _, dp := range sum.DataPoints {
		status, _ := dp.Attributes.Value(telemetry.AttrHTTPStatusCode)
		statuses[status.AsInt64()] += dp.Value
	}
	assert.EqualValues(t, 1, statuses[http.StatusOK])
	assert.EqualValues(t, 1, statuses[http.StatusInternalServerError])
}

func TestHTTPMetricsUnmatchedRoute(t *testing.T) {
	r, reader := metricsRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))
	require.Equal(t, http.StatusNotFound, w.Code)

	metrics := collectMetrics(t, reader)
	sum := metrics["http_server_request_total"].Data.(metricdata.Sum[int64])
	require.Len(t, sum.DataPoints, 1)

	route, _ := sum.DataPoints[0].Attributes.Value(telemetry.AttrHTTPRoute)
	assert.Equal(t, "unknown", route.AsString())
}

func TestHTTPMetricsDisabled(t *testing.T) {
	r := gin.New()
	r.Use(HTTPMetrics(HTTPMetricsConfig{Enabled: false}))
	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHTTPMetricsNilProviderIsNoop(t *testing.T) {
	mw := HTTPMetrics(HTTPMetricsConfig{Enabled: true, MeterProvider: nil})
	require.NotNil(t, mw)

	r := gin.New()
	r.Use(mw)
	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
