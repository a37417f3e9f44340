// Package dataset orchestrates the dataset lifecycle: loading listings
// from a configured source, caching the cleaned table and exposing its
// state to the API and telemetry layers.
package dataset

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/homefinder/backend/internal/domain/listing"
	"github.com/homefinder/backend/internal/domain/shared"
	"github.com/homefinder/backend/internal/infrastructure/cache"
	ds "github.com/homefinder/backend/internal/infrastructure/dataset"
	"github.com/homefinder/backend/internal/infrastructure/telemetry"
)

// Status describes the currently loaded dataset
type Status struct {
	SourceURI        string    `json:"source_uri"`
	Fingerprint      string    `json:"fingerprint"`
	LoadedAt         time.Time `json:"loaded_at"`
	RowsRead         int       `json:"rows_read"`
	RowsKept         int       `json:"rows_kept"`
	DroppedMissing   int       `json:"dropped_missing"`
	DroppedNumeric   int       `json:"dropped_numeric"`
	DroppedGibberish int       `json:"dropped_gibberish"`
	Warnings         int       `json:"warnings"`
	Types            int       `json:"types"`
	Cities           int       `json:"cities"`
}

// Service loads the listings dataset and keeps the cleaned table
// available for searches. Loads are single-flighted: concurrent callers
// that miss the cache wait for one load instead of racing the source.
type Service struct {
	source  ds.Source
	cache   *cache.TableCache
	opts    ds.LoadOptions
	logger  *zap.Logger
	metrics *telemetry.SearchMetrics

	mu sync.Mutex
}

// ServiceOption configures the dataset service
type ServiceOption func(*Service)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithMetrics attaches search metrics for load instrumentation
func WithMetrics(metrics *telemetry.SearchMetrics) ServiceOption {
	return func(s *Service) {
		s.metrics = metrics
	}
}

// WithLoadOptions sets the load options passed to the cleaner
func WithLoadOptions(opts ds.LoadOptions) ServiceOption {
	return func(s *Service) {
		s.opts = opts
	}
}

// NewService creates a dataset service over a source and a table cache
func NewService(source ds.Source, tableCache *cache.TableCache, opts ...ServiceOption) *Service {
	s := &Service{
		source: source,
		cache:  tableCache,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load returns the cached table when the source fingerprint still
// matches, otherwise reloads from the source. A schema error fails the
// load with no partial table.
func (s *Service) Load(ctx context.Context) (*cache.CachedTable, error) {
	fingerprint, err := s.source.Fingerprint(ctx)
	if err != nil {
		return nil, shared.ErrDatasetUnavailable.WithCause(err)
	}

	if entry, ok := s.cache.Get(s.source.URI(), fingerprint); ok {
		s.recordLoad(ctx, telemetry.LoadResultCached, 0)
		return entry, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Another caller may have loaded while we waited for the lock
	if entry, ok := s.cache.Get(s.source.URI(), fingerprint); ok {
		s.recordLoad(ctx, telemetry.LoadResultCached, 0)
		return entry, nil
	}

	ctx, span := telemetry.StartServiceSpan(ctx, "dataset", "load",
		telemetry.WithAttribute(telemetry.SpanAttrDatasetSource, s.source.URI()),
	)
	defer span.End()

	start := time.Now()
	table, report, err := ds.Load(ctx, s.source, s.opts)
	if err != nil {
		telemetry.RecordError(span, err)
		s.recordLoad(ctx, telemetry.LoadResultFailed, time.Since(start))
		s.logger.Error("Dataset load failed",
			zap.String("source", s.source.URI()),
			zap.Error(err))
		if shared.IsSchemaError(err) {
			return nil, err
		}
		return nil, shared.ErrDatasetUnavailable.WithCause(err)
	}

	entry := s.cache.Put(s.source.URI(), fingerprint, table, report)
	telemetry.SetAttributes(span,
		telemetry.SpanAttrFingerprint, fingerprint,
		telemetry.SpanAttrRowsLoaded, report.RowsKept,
		telemetry.SpanAttrRowsDropped, report.RowsRead-report.RowsKept,
	)
	s.recordLoad(ctx, telemetry.LoadResultSuccess, time.Since(start))
	s.recordDrops(ctx, report)

	s.logger.Info("Dataset loaded",
		append([]zap.Field{
			zap.String("source", s.source.URI()),
			zap.String("fingerprint", fingerprint),
			zap.Duration("duration", time.Since(start)),
		}, report.Fields()...)...)

	return entry, nil
}

// Current returns the current listings table, loading it on first use.
// It implements listing.TableProvider for the recommender.
func (s *Service) Current(ctx context.Context) (*listing.Table, error) {
	entry, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	return entry.Table, nil
}

// Reload drops the cached table and loads fresh from the source. Used
// by the admin reload endpoint.
func (s *Service) Reload(ctx context.Context) (*cache.CachedTable, error) {
	s.cache.Invalidate(s.source.URI())
	return s.Load(ctx)
}

// Status reports the state of the currently loaded dataset. It loads
// the dataset when nothing is cached yet.
func (s *Service) Status(ctx context.Context) (*Status, error) {
	entry, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}

	return &Status{
		SourceURI:        s.source.URI(),
		Fingerprint:      entry.Fingerprint,
		LoadedAt:         entry.LoadedAt,
		RowsRead:         entry.Report.RowsRead,
		RowsKept:         entry.Report.RowsKept,
		DroppedMissing:   entry.Report.DroppedMissing,
		DroppedNumeric:   entry.Report.DroppedNumeric,
		DroppedGibberish: entry.Report.DroppedGibberish,
		Warnings:         entry.Report.Warnings.TotalCount(),
		Types:            len(entry.Table.Types()),
		Cities:           len(entry.Table.Cities()),
	}, nil
}

// Defaults returns search-form defaults derived from the loaded table
func (s *Service) Defaults(ctx context.Context) (listing.SearchDefaults, error) {
	table, err := s.Current(ctx)
	if err != nil {
		return listing.SearchDefaults{}, err
	}
	return table.Defaults(), nil
}

// Ready reports whether a dataset is currently loaded, without loading
// one. It backs the health endpoint.
func (s *Service) Ready() (int, time.Time, bool) {
	entry, ok := s.cache.Peek(s.source.URI())
	if !ok {
		return 0, time.Time{}, false
	}
	return entry.Table.Len(), entry.LoadedAt, true
}

// DatasetStats implements telemetry.DatasetStatsProvider. It reads the
// cached entry without triggering a load so the metrics collector never
// touches the source.
func (s *Service) DatasetStats(_ context.Context) (telemetry.DatasetStats, bool) {
	entry, ok := s.cache.Peek(s.source.URI())
	if !ok {
		return telemetry.DatasetStats{}, false
	}
	return telemetry.DatasetStats{
		SourceURI: s.source.URI(),
		Rows:      entry.Table.Len(),
		LoadedAt:  entry.LoadedAt,
	}, true
}

func (s *Service) recordLoad(ctx context.Context, result telemetry.LoadResult, d time.Duration) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordDatasetLoad(ctx, s.source.URI(), result, d)
}

func (s *Service) recordDrops(ctx context.Context, report *ds.Report) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordDroppedRows(ctx, "missing", report.DroppedMissing)
	s.metrics.RecordDroppedRows(ctx, "numeric", report.DroppedNumeric)
	s.metrics.RecordDroppedRows(ctx, "gibberish", report.DroppedGibberish)
}

// Compile-time interface checks
var (
	_ listing.TableProvider          = (*Service)(nil)
	_ telemetry.DatasetStatsProvider = (*Service)(nil)
)
