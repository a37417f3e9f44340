// Package telemetry provides OpenTelemetry integration for metrics collection.
package telemetry

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// SearchMetrics provides business metrics for the recommendation service.
// It tracks search activity, result sizes and dataset health.
type SearchMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	// Counter metrics (monotonically increasing)
	searchTotal        *Counter
	searchResultsTotal *Counter
	datasetLoadsTotal  *Counter
	datasetDroppedRows *Counter

	// Histogram metrics
	searchDuration      *Histogram
	datasetLoadDuration *Histogram

	// Gauge metrics (point-in-time values)
	datasetRows *Gauge
	datasetAge  *FloatGauge

	// Periodic collector
	stopChan    chan struct{}
	stopOnce    sync.Once
	collectOnce sync.Once

	statsProvider DatasetStatsProvider
}

// DatasetStats is a snapshot of the loaded dataset for gauge collection.
type DatasetStats struct {
	SourceURI string
	Rows      int
	LoadedAt  time.Time
}

// DatasetStatsProvider supplies dataset state for periodic metrics
// collection. This interface lets the telemetry layer observe the dataset
// without depending on the application package.
type DatasetStatsProvider interface {
	// DatasetStats returns the current snapshot. The second return value
	// is false while no dataset has been loaded yet.
	DatasetStats(ctx context.Context) (DatasetStats, bool)
}

// SearchMetricsConfig holds configuration for search metrics.
type SearchMetricsConfig struct {
	Meter           metric.Meter
	Logger          *zap.Logger
	CollectInterval time.Duration // Default: 1 minute
	StatsProvider   DatasetStatsProvider
}

// NewSearchMetrics creates a new SearchMetrics instance.
func NewSearchMetrics(cfg SearchMetricsConfig) (*SearchMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	sm := &SearchMetrics{
		meter:         cfg.Meter,
		logger:        logger,
		stopChan:      make(chan struct{}),
		statsProvider: cfg.StatsProvider,
	}

	var err error

	sm.searchTotal, err = NewCounter(
		cfg.Meter,
		"homefinder_search_total",
		"Total number of recommendation searches",
		"{searches}",
	)
	if err != nil {
		return nil, err
	}

	sm.searchResultsTotal, err = NewCounter(
		cfg.Meter,
		"homefinder_search_results_total",
		"Total number of listings returned across searches",
		"{listings}",
	)
	if err != nil {
		return nil, err
	}

	sm.searchDuration, err = NewHistogram(cfg.Meter, HistogramOpts{
		Name:        "homefinder_search_duration_seconds",
		Description: "Recommendation search latency distribution in seconds",
		Unit:        "s",
		Boundaries:  SmallDurationBuckets,
	})
	if err != nil {
		return nil, err
	}

	sm.datasetLoadsTotal, err = NewCounter(
		cfg.Meter,
		"homefinder_dataset_loads_total",
		"Total number of dataset load attempts",
		"{loads}",
	)
	if err != nil {
		return nil, err
	}

	sm.datasetLoadDuration, err = NewHistogram(cfg.Meter, HistogramOpts{
		Name:        "homefinder_dataset_load_duration_seconds",
		Description: "Dataset load and clean duration distribution in seconds",
		Unit:        "s",
		Boundaries:  DBDurationBuckets,
	})
	if err != nil {
		return nil, err
	}

	sm.datasetDroppedRows, err = NewCounter(
		cfg.Meter,
		"homefinder_dataset_dropped_rows_total",
		"Total rows excluded during dataset cleaning, by reason",
		"{rows}",
	)
	if err != nil {
		return nil, err
	}

	sm.datasetRows, err = NewGauge(
		cfg.Meter,
		"homefinder_dataset_rows",
		"Number of cleaned listings currently loaded",
		"{rows}",
	)
	if err != nil {
		return nil, err
	}

	sm.datasetAge, err = NewFloatGauge(
		cfg.Meter,
		"homefinder_dataset_age_seconds",
		"Seconds since the current dataset was loaded",
		"s",
	)
	if err != nil {
		return nil, err
	}

	return sm, nil
}

// =============================================================================
// Search Metrics
// =============================================================================

// SearchPath labels which filtering pass produced a result.
type SearchPath string

const (
	SearchPathStrict  SearchPath = "strict"
	SearchPathRelaxed SearchPath = "relaxed"
)

// RecordSearch records one completed search: the path taken, the number
// of listings returned and the time it took.
func (sm *SearchMetrics) RecordSearch(ctx context.Context, path SearchPath, resultCount int, duration time.Duration) {
	sm.searchTotal.Inc(ctx, AttrSearchPath.String(string(path)))
	sm.searchResultsTotal.Add(ctx, int64(resultCount), AttrSearchPath.String(string(path)))
	sm.searchDuration.RecordDuration(ctx, duration)
}

// =============================================================================
// Dataset Metrics
// =============================================================================

// LoadResult labels the outcome of a dataset load attempt.
type LoadResult string

const (
	LoadResultSuccess LoadResult = "success"
	LoadResultCached  LoadResult = "cached"
	LoadResultFailed  LoadResult = "failed"
)

// RecordDatasetLoad records a dataset load attempt and its duration.
func (sm *SearchMetrics) RecordDatasetLoad(ctx context.Context, sourceURI string, result LoadResult, duration time.Duration) {
	sm.datasetLoadsTotal.Inc(ctx,
		AttrDatasetSource.String(sourceURI),
		AttrLoadResult.String(string(result)),
	)
	sm.datasetLoadDuration.RecordDuration(ctx, duration,
		AttrLoadResult.String(string(result)),
	)
}

// RecordDroppedRows records rows excluded during cleaning, by reason.
func (sm *SearchMetrics) RecordDroppedRows(ctx context.Context, reason string, count int) {
	if count <= 0 {
		return
	}
	sm.datasetDroppedRows.Add(ctx, int64(count), AttrDropReason.String(reason))
}

// =============================================================================
// Periodic Collection
// =============================================================================

// StartPeriodicCollection starts periodic collection of dataset gauges.
// This is non-blocking - use Stop() to stop collection.
func (sm *SearchMetrics) StartPeriodicCollection(ctx context.Context, interval time.Duration) {
	sm.collectOnce.Do(func() {
		if interval <= 0 {
			interval = time.Minute
		}

		go sm.runPeriodicCollection(ctx, interval)
	})
}

// runPeriodicCollection runs the periodic collection loop.
func (sm *SearchMetrics) runPeriodicCollection(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Collect immediately on start
	sm.collectDatasetMetrics(ctx)

	for {
		select {
		case <-sm.stopChan:
			sm.logger.Info("Stopping periodic search metrics collection")
			return
		case <-ctx.Done():
			sm.logger.Info("Context cancelled, stopping periodic search metrics collection")
			return
		case <-ticker.C:
			sm.collectDatasetMetrics(ctx)
		}
	}
}

// SetStatsProvider wires the dataset stats provider after construction.
// The provider is read by the collection goroutine, so this must be
// called before StartPeriodicCollection.
func (sm *SearchMetrics) SetStatsProvider(p DatasetStatsProvider) {
	sm.statsProvider = p
}

// collectDatasetMetrics records the dataset gauges from the provider.
func (sm *SearchMetrics) collectDatasetMetrics(ctx context.Context) {
	if sm.statsProvider == nil {
		sm.logger.Debug("No dataset stats provider configured, skipping dataset metrics collection")
		return
	}

	stats, ok := sm.statsProvider.DatasetStats(ctx)
	if !ok {
		return
	}

	sourceAttr := AttrDatasetSource.String(stats.SourceURI)
	sm.datasetRows.Record(ctx, int64(stats.Rows), sourceAttr)
	sm.datasetAge.Record(ctx, time.Since(stats.LoadedAt).Seconds(), sourceAttr)
}

// Stop stops the periodic collection.
func (sm *SearchMetrics) Stop() {
	sm.stopOnce.Do(func() {
		close(sm.stopChan)
	})
}

// =============================================================================
// Error Types
// =============================================================================

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewSearchMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}
