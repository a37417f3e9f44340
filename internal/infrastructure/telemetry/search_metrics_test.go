package telemetry_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/homefinder/backend/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/zap/zaptest"
)

// stubStatsProvider returns a fixed dataset snapshot and counts calls.
type stubStatsProvider struct {
	mu    sync.Mutex
	calls int
	stats telemetry.DatasetStats
	ok    bool
}

func (p *stubStatsProvider) DatasetStats(_ context.Context) (telemetry.DatasetStats, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	return p.stats, p.ok
}

func (p *stubStatsProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func TestNewSearchMetrics(t *testing.T) {
	meter := sdkmetric.NewMeterProvider(sdkmetric.WithReader(sdkmetric.NewManualReader())).Meter("test")

	sm, err := telemetry.NewSearchMetrics(telemetry.SearchMetricsConfig{
		Meter:  meter,
		Logger: zaptest.NewLogger(t),
	})
	require.NoError(t, err)
	require.NotNil(t, sm)
}

func TestNewSearchMetrics_NilMeter(t *testing.T) {
	sm, err := telemetry.NewSearchMetrics(telemetry.SearchMetricsConfig{})

	assert.Nil(t, sm)
	assert.ErrorIs(t, err, telemetry.ErrMeterNil)
	assert.Contains(t, err.Error(), "meter cannot be nil")
}

func TestSearchMetrics_Record(t *testing.T) {
	meter := sdkmetric.NewMeterProvider(sdkmetric.WithReader(sdkmetric.NewManualReader())).Meter("test")
	sm, err := telemetry.NewSearchMetrics(telemetry.SearchMetricsConfig{Meter: meter})
	require.NoError(t, err)

	ctx := context.Background()

	// Recording must not panic or block
	sm.RecordSearch(ctx, telemetry.SearchPathStrict, 5, 3*time.Millisecond)
	sm.RecordSearch(ctx, telemetry.SearchPathRelaxed, 0, time.Millisecond)
	sm.RecordDatasetLoad(ctx, "file:listings.csv", telemetry.LoadResultSuccess, 120*time.Millisecond)
	sm.RecordDatasetLoad(ctx, "file:listings.csv", telemetry.LoadResultCached, time.Microsecond)
	sm.RecordDroppedRows(ctx, "gibberish", 3)
	sm.RecordDroppedRows(ctx, "missing", 0) // no-op for zero counts
}

func TestSearchMetrics_PeriodicCollection(t *testing.T) {
	meter := sdkmetric.NewMeterProvider(sdkmetric.WithReader(sdkmetric.NewManualReader())).Meter("test")
	provider := &stubStatsProvider{
		stats: telemetry.DatasetStats{
			SourceURI: "file:listings.csv",
			Rows:      1200,
			LoadedAt:  time.Now().Add(-time.Minute),
		},
		ok: true,
	}

	sm, err := telemetry.NewSearchMetrics(telemetry.SearchMetricsConfig{
		Meter:         meter,
		Logger:        zaptest.NewLogger(t),
		StatsProvider: provider,
	})
	require.NoError(t, err)

	sm.StartPeriodicCollection(context.Background(), 10*time.Millisecond)
	defer sm.Stop()

	// The loop collects immediately on start, then on each tick
	assert.Eventually(t, func() bool {
		return provider.callCount() >= 2
	}, time.Second, 5*time.Millisecond)
}

func TestSearchMetrics_PeriodicCollection_StartsOnce(t *testing.T) {
	meter := sdkmetric.NewMeterProvider(sdkmetric.WithReader(sdkmetric.NewManualReader())).Meter("test")
	provider := &stubStatsProvider{ok: false}

	sm, err := telemetry.NewSearchMetrics(telemetry.SearchMetricsConfig{
		Meter:         meter,
		StatsProvider: provider,
	})
	require.NoError(t, err)

	ctx := context.Background()
	sm.StartPeriodicCollection(ctx, time.Hour)
	sm.StartPeriodicCollection(ctx, time.Hour)

	assert.Eventually(t, func() bool {
		return provider.callCount() == 1
	}, time.Second, 5*time.Millisecond)

	sm.Stop()
	sm.Stop() // idempotent
}
