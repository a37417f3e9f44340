// Package recommendation implements the property search: a strict
// filtering pass ranked by ascending price, with a relaxed type+city
// fallback when the strict constraints match nothing.
package recommendation

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/homefinder/backend/internal/domain/listing"
	"github.com/homefinder/backend/internal/domain/shared"
	"github.com/homefinder/backend/internal/infrastructure/cache"
	"github.com/homefinder/backend/internal/infrastructure/telemetry"
)

// DefaultLimit is the number of recommendations returned when the
// caller does not ask for a specific count
const DefaultLimit = 5

// DatasetProvider supplies the loaded table together with its source
// fingerprint. The fingerprint scopes result-cache keys to one dataset
// version.
type DatasetProvider interface {
	Load(ctx context.Context) (*cache.CachedTable, error)
}

// Service answers recommendation searches over the current dataset
type Service struct {
	provider DatasetProvider
	results  shared.SearchResultCache
	cacheCfg shared.SearchCacheConfig
	logger   *zap.Logger
	metrics  *telemetry.SearchMetrics
}

// ServiceOption configures the recommendation service
type ServiceOption func(*Service)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithMetrics attaches search metrics
func WithMetrics(metrics *telemetry.SearchMetrics) ServiceOption {
	return func(s *Service) {
		s.metrics = metrics
	}
}

// WithResultCache enables result caching with the given backend and
// behavior settings
func WithResultCache(results shared.SearchResultCache, cfg shared.SearchCacheConfig) ServiceOption {
	return func(s *Service) {
		s.results = results
		s.cacheCfg = cfg
	}
}

// NewService creates a recommendation service over a dataset provider
func NewService(provider DatasetProvider, opts ...ServiceOption) *Service {
	s := &Service{
		provider: provider,
		cacheCfg: shared.DefaultSearchCacheConfig(),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Recommend returns up to limit listings matching criteria, sorted by
// ascending price with source order breaking ties. When no listing
// satisfies the full constraint set, the type and city constraints are
// retried alone and the result is flagged Relaxed, even when that
// fallback is also empty. A non-positive limit falls back to
// DefaultLimit.
func (s *Service) Recommend(ctx context.Context, criteria listing.SearchCriteria, limit int) (*listing.Recommendation, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	ctx, span := telemetry.StartServiceSpan(ctx, "recommendation", "search",
		telemetry.WithAttribute(telemetry.SpanAttrListingType, criteria.Type),
		telemetry.WithAttribute(telemetry.SpanAttrCity, criteria.City),
		telemetry.WithAttribute(telemetry.SpanAttrLimit, limit),
	)
	defer span.End()

	start := time.Now()

	entry, err := s.provider.Load(ctx)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	key := resultCacheKey(entry.Fingerprint, criteria, limit)
	if rec, ok := s.cachedResult(ctx, key); ok {
		s.finish(ctx, span, rec, start)
		return rec, nil
	}

	rec := search(entry.Table, criteria, limit)
	s.storeResult(ctx, key, rec)
	s.finish(ctx, span, rec, start)

	return rec, nil
}

// search runs the strict pass and, when it matches nothing, the relaxed
// type+city fallback. Iteration is over the price-ordered view, so the
// collected matches are already ranked.
func search(table *listing.Table, criteria listing.SearchCriteria, limit int) *listing.Recommendation {
	byPrice := table.ListingsByPrice()

	matched := make([]*listing.Listing, 0, limit)
	total := 0
	for _, l := range byPrice {
		if !criteria.Matches(l) {
			continue
		}
		total++
		if len(matched) < limit {
			matched = append(matched, l)
		}
	}

	if total > 0 {
		return &listing.Recommendation{
			Listings:     matched,
			Relaxed:      false,
			TotalMatched: total,
		}
	}

	for _, l := range byPrice {
		if !criteria.MatchesRelaxed(l) {
			continue
		}
		total++
		if len(matched) < limit {
			matched = append(matched, l)
		}
	}

	return &listing.Recommendation{
		Listings:     matched,
		Relaxed:      true,
		TotalMatched: total,
	}
}

// finish records the outcome on the span and the search metrics
func (s *Service) finish(ctx context.Context, span trace.Span, rec *listing.Recommendation, start time.Time) {
	telemetry.SetAttributes(span,
		telemetry.SpanAttrResultCount, len(rec.Listings),
		telemetry.SpanAttrRelaxed, rec.Relaxed,
	)

	if s.metrics == nil {
		return
	}
	path := telemetry.SearchPathStrict
	if rec.Relaxed {
		path = telemetry.SearchPathRelaxed
	}
	s.metrics.RecordSearch(ctx, path, len(rec.Listings), time.Since(start))
}

// canonicalCriteria is the stable serialized form of a criteria set used
// for cache keys. String constraints collapse to the "any" sentinel when
// unconstrained; decimals serialize through their exact string form.
type canonicalCriteria struct {
	Type         string `json:"type"`
	City         string `json:"city"`
	MinBedrooms  *int   `json:"min_bedrooms,omitempty"`
	MinBathrooms *int   `json:"min_bathrooms,omitempty"`
	MinSize      string `json:"min_size,omitempty"`
	MaxSize      string `json:"max_size,omitempty"`
	MinPrice     string `json:"min_price,omitempty"`
	MaxPrice     string `json:"max_price,omitempty"`
	Limit        int    `json:"limit"`
}

func decimalString(d *decimal.Decimal) string {
	if d == nil {
		return ""
	}
	return d.String()
}

func canonicalValue(v string) string {
	if listing.IsAny(v) {
		return listing.AnyValue
	}
	return v
}

// resultCacheKey derives the cache key for one search. The dataset
// fingerprint scopes the key, so a reloaded dataset never serves stale
// results.
func resultCacheKey(fingerprint string, criteria listing.SearchCriteria, limit int) string {
	canonical := canonicalCriteria{
		Type:         canonicalValue(criteria.Type),
		City:         canonicalValue(criteria.City),
		MinBedrooms:  criteria.MinBedrooms,
		MinBathrooms: criteria.MinBathrooms,
		MinSize:      decimalString(criteria.MinSize),
		MaxSize:      decimalString(criteria.MaxSize),
		MinPrice:     decimalString(criteria.MinPrice),
		MaxPrice:     decimalString(criteria.MaxPrice),
		Limit:        limit,
	}

	payload, err := json.Marshal(canonical)
	if err != nil {
		// Marshaling a plain struct cannot fail; keep a usable key anyway
		payload = []byte(fmt.Sprintf("%+v", canonical))
	}

	return fmt.Sprintf("search:%s:%x", fingerprint, sha256.Sum256(payload))
}

// cachedResult probes the result cache. Cache failures are logged and
// treated as misses; the search itself never fails on a cache error.
func (s *Service) cachedResult(ctx context.Context, key string) (*listing.Recommendation, bool) {
	if s.results == nil || !s.cacheCfg.Enabled {
		return nil, false
	}

	payload, ok, err := s.results.Get(ctx, key)
	if err != nil {
		s.logger.Warn("Result cache read failed", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	if !ok {
		return nil, false
	}

	var rec listing.Recommendation
	if err := json.Unmarshal(payload, &rec); err != nil {
		s.logger.Warn("Result cache entry is corrupt", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return &rec, true
}

// storeResult writes a search result to the cache, best effort
func (s *Service) storeResult(ctx context.Context, key string, rec *listing.Recommendation) {
	if s.results == nil || !s.cacheCfg.Enabled {
		return
	}

	payload, err := json.Marshal(rec)
	if err != nil {
		s.logger.Warn("Failed to serialize search result", zap.Error(err))
		return
	}
	if err := s.results.Set(ctx, key, payload, s.cacheCfg.TTL); err != nil {
		s.logger.Warn("Result cache write failed", zap.String("key", key), zap.Error(err))
	}
}
