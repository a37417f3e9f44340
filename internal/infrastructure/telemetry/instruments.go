package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Attribute keys shared across metrics so dashboards can join on them.
var (
	AttrHTTPMethod     = attribute.Key("http.method")
	AttrHTTPStatusCode = attribute.Key("http.status_code")
	AttrHTTPRoute      = attribute.Key("http.route")

	AttrDBState = attribute.Key("db.pool.state")

	AttrSearchPath    = attribute.Key("search.path")
	AttrDatasetSource = attribute.Key("dataset.source")
	AttrLoadResult    = attribute.Key("load.result")
	AttrDropReason    = attribute.Key("drop.reason")
)

// Histogram bucket boundaries, in seconds.
var (
	// HTTPDurationBuckets covers request latencies from 5ms to 10s.
	HTTPDurationBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

	// DBDurationBuckets covers query and dataset load latencies.
	DBDurationBuckets = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5}

	// SmallDurationBuckets covers in-memory operations.
	SmallDurationBuckets = []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1}
)

// Counter wraps a monotonically increasing int64 counter.
type Counter struct {
	counter metric.Int64Counter
}

// NewCounter creates a Counter on the given meter.
func NewCounter(meter metric.Meter, name, description, unit string) (*Counter, error) {
	c, err := meter.Int64Counter(name, metric.WithDescription(description), metric.WithUnit(unit))
	if err != nil {
		return nil, fmt.Errorf("failed to create counter %s: %w", name, err)
	}
	return &Counter{counter: c}, nil
}

// Add increments the counter by value.
func (c *Counter) Add(ctx context.Context, value int64, attrs ...attribute.KeyValue) {
	c.counter.Add(ctx, value, metric.WithAttributes(attrs...))
}

// Inc increments the counter by 1.
func (c *Counter) Inc(ctx context.Context, attrs ...attribute.KeyValue) {
	c.counter.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// HistogramOpts configures a Histogram. Boundaries are optional; the
// SDK default applies when empty.
type HistogramOpts struct {
	Name        string
	Description string
	Unit        string
	Boundaries  []float64
}

// Histogram wraps a float64 distribution, typically a latency.
type Histogram struct {
	histogram metric.Float64Histogram
}

// NewHistogram creates a Histogram on the given meter.
func NewHistogram(meter metric.Meter, opts HistogramOpts) (*Histogram, error) {
	instOpts := []metric.Float64HistogramOption{
		metric.WithDescription(opts.Description),
		metric.WithUnit(opts.Unit),
	}
	if len(opts.Boundaries) > 0 {
		instOpts = append(instOpts, metric.WithExplicitBucketBoundaries(opts.Boundaries...))
	}

	h, err := meter.Float64Histogram(opts.Name, instOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create histogram %s: %w", opts.Name, err)
	}
	return &Histogram{histogram: h}, nil
}

// Record adds a single observation.
func (h *Histogram) Record(ctx context.Context, value float64, attrs ...attribute.KeyValue) {
	h.histogram.Record(ctx, value, metric.WithAttributes(attrs...))
}

// RecordDuration records d converted to seconds.
func (h *Histogram) RecordDuration(ctx context.Context, d time.Duration, attrs ...attribute.KeyValue) {
	h.histogram.Record(ctx, d.Seconds(), metric.WithAttributes(attrs...))
}

// Gauge wraps a point-in-time int64 value.
type Gauge struct {
	gauge metric.Int64Gauge
}

// NewGauge creates a Gauge on the given meter.
func NewGauge(meter metric.Meter, name, description, unit string) (*Gauge, error) {
	g, err := meter.Int64Gauge(name, metric.WithDescription(description), metric.WithUnit(unit))
	if err != nil {
		return nil, fmt.Errorf("failed to create gauge %s: %w", name, err)
	}
	return &Gauge{gauge: g}, nil
}

// Record stores the current value.
func (g *Gauge) Record(ctx context.Context, value int64, attrs ...attribute.KeyValue) {
	g.gauge.Record(ctx, value, metric.WithAttributes(attrs...))
}

// FloatGauge wraps a point-in-time float64 value.
type FloatGauge struct {
	gauge metric.Float64Gauge
}

// NewFloatGauge creates a FloatGauge on the given meter.
func NewFloatGauge(meter metric.Meter, name, description, unit string) (*FloatGauge, error) {
	g, err := meter.Float64Gauge(name, metric.WithDescription(description), metric.WithUnit(unit))
	if err != nil {
		return nil, fmt.Errorf("failed to create float gauge %s: %w", name, err)
	}
	return &FloatGauge{gauge: g}, nil
}

// Record stores the current value.
func (g *FloatGauge) Record(ctx context.Context, value float64, attrs ...attribute.KeyValue) {
	g.gauge.Record(ctx, value, metric.WithAttributes(attrs...))
}
