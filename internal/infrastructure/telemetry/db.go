package telemetry

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBTracingConfig configures span generation for the database-backed
// dataset source.
type DBTracingConfig struct {
	Enabled          bool
	LogFullSQL       bool // include SQL text in spans, dev only
	SlowQueryThresh  time.Duration
	DBSystem         string
	WithoutVariables bool // strip bind variables from recorded SQL
}

// DefaultDBTracingConfig returns the secure defaults: tracing off,
// variables stripped.
func DefaultDBTracingConfig() DBTracingConfig {
	return DBTracingConfig{
		SlowQueryThresh:  200 * time.Millisecond,
		DBSystem:         "postgresql",
		WithoutVariables: true,
	}
}

// EnableGormTracing registers otelgorm spans plus a marker that tags
// slow statements and errors. The dataset source only reads the
// listings table and the seeder only inserts into it, so the Query,
// Raw and Create pipelines cover every statement this service issues.
func EnableGormTracing(db *gorm.DB, cfg DBTracingConfig, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}
	if !cfg.Enabled {
		log.Debug("Database tracing disabled")
		return nil
	}

	opts := []otelgorm.Option{otelgorm.WithDBName(cfg.DBSystem)}
	if cfg.WithoutVariables || !cfg.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}

	thresh := cfg.SlowQueryThresh
	if thresh == 0 {
		thresh = 200 * time.Millisecond
	}
	marker := &spanMarker{thresh: thresh}

	cb := db.Callback()
	if err := cb.Query().Before("gorm:query").Register("homefinder:span_start", marker.start); err != nil {
		return err
	}
	if err := cb.Query().After("gorm:query").Register("homefinder:span_finish", marker.finish); err != nil {
		return err
	}
	if err := cb.Raw().Before("gorm:raw").Register("homefinder:span_start", marker.start); err != nil {
		return err
	}
	if err := cb.Raw().After("gorm:raw").Register("homefinder:span_finish", marker.finish); err != nil {
		return err
	}
	if err := cb.Create().Before("gorm:create").Register("homefinder:span_start", marker.start); err != nil {
		return err
	}
	if err := cb.Create().After("gorm:create").Register("homefinder:span_finish", marker.finish); err != nil {
		return err
	}

	log.Info("Database tracing enabled",
		zap.String("db_system", cfg.DBSystem),
		zap.Bool("log_full_sql", cfg.LogFullSQL),
		zap.Duration("slow_query_threshold", thresh),
	)
	return nil
}

type dbStartKey struct{}

// spanMarker annotates the active statement span with the table, row
// count, errors and a slow-query flag.
type spanMarker struct {
	thresh time.Duration
}

func (m *spanMarker) start(db *gorm.DB) {
	if db.Statement.Context == nil {
		return
	}
	db.Statement.Context = context.WithValue(db.Statement.Context, dbStartKey{}, time.Now())
}

func (m *spanMarker) finish(db *gorm.DB) {
	ctx := db.Statement.Context
	if ctx == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	if db.Statement.Table != "" {
		span.SetAttributes(attribute.String("db.sql.table", db.Statement.Table))
	}
	if db.Statement.RowsAffected >= 0 {
		span.SetAttributes(attribute.Int64("db.rows_affected", db.Statement.RowsAffected))
	}
	if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) {
		span.SetStatus(codes.Error, db.Error.Error())
		span.RecordError(db.Error)
	}

	start, ok := ctx.Value(dbStartKey{}).(time.Time)
	if !ok {
		return
	}
	if elapsed := time.Since(start); elapsed > m.thresh {
		span.SetAttributes(
			attribute.Bool("db.slow_query", true),
			attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
		)
	}
}

// RegisterDBPoolMetrics exports connection pool gauges through the
// meter's reader. The observable callback reads sql.DB stats at each
// collection, so no ticker goroutine is needed.
func RegisterDBPoolMetrics(meter metric.Meter, sqlDB *sql.DB) (metric.Registration, error) {
	connections, err := meter.Int64ObservableGauge(
		"db_pool_connections",
		metric.WithDescription("Connections in the pool by state"),
		metric.WithUnit("{connection}"),
	)
	if err != nil {
		return nil, err
	}
	connectionsMax, err := meter.Int64ObservableGauge(
		"db_pool_connections_max",
		metric.WithDescription("Configured connection pool ceiling"),
		metric.WithUnit("{connection}"),
	)
	if err != nil {
		return nil, err
	}
	waitTotal, err := meter.Int64ObservableCounter(
		"db_pool_wait_total",
		metric.WithDescription("Cumulative times a connection was waited for"),
		metric.WithUnit("{wait}"),
	)
	if err != nil {
		return nil, err
	}

	return meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		stats := sqlDB.Stats()
		o.ObserveInt64(connections, int64(stats.Idle), metric.WithAttributes(AttrDBState.String("idle")))
		o.ObserveInt64(connections, int64(stats.InUse), metric.WithAttributes(AttrDBState.String("in_use")))
		o.ObserveInt64(connections, int64(stats.OpenConnections), metric.WithAttributes(AttrDBState.String("open")))
		o.ObserveInt64(connectionsMax, int64(stats.MaxOpenConnections))
		o.ObserveInt64(waitTotal, stats.WaitCount)
		return nil
	}, connections, connectionsMax, waitTotal)
}
