package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func openTestGorm(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	return db
}

func recordingSpan(t *testing.T) (context.Context, *tracetest.SpanRecorder, func()) {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	ctx, span := tp.Tracer("test").Start(context.Background(), "listings.select")
	return ctx, recorder, func() { span.End() }
}

func TestDefaultDBTracingConfig(t *testing.T) {
	cfg := DefaultDBTracingConfig()

	assert.False(t, cfg.Enabled)
	assert.False(t, cfg.LogFullSQL)
	assert.True(t, cfg.WithoutVariables)
	assert.Equal(t, 200*time.Millisecond, cfg.SlowQueryThresh)
	assert.Equal(t, "postgresql", cfg.DBSystem)
}

func TestEnableGormTracingDisabled(t *testing.T) {
	db := openTestGorm(t)

	require.NoError(t, EnableGormTracing(db, DefaultDBTracingConfig(), nil))

	assert.Nil(t, db.Callback().Query().Get("homefinder:span_finish"))
}

func TestEnableGormTracingRegistersCallbacks(t *testing.T) {
	db := openTestGorm(t)
	cfg := DefaultDBTracingConfig()
	cfg.Enabled = true

	require.NoError(t, EnableGormTracing(db, cfg, nil))

	assert.NotNil(t, db.Callback().Query().Get("homefinder:span_start"))
	assert.NotNil(t, db.Callback().Query().Get("homefinder:span_finish"))
	assert.NotNil(t, db.Callback().Raw().Get("homefinder:span_finish"))
	assert.NotNil(t, db.Callback().Create().Get("homefinder:span_finish"))
}

func TestSpanMarkerSlowQuery(t *testing.T) {
	ctx, recorder, end := recordingSpan(t)
	ctx = context.WithValue(ctx, dbStartKey{}, time.Now().Add(-time.Second))

	marker := &spanMarker{thresh: 200 * time.Millisecond}
	db := &gorm.DB{RowsAffected: 3}
	db.Statement = &gorm.Statement{DB: db, Context: ctx, Table: "listings"}
	marker.finish(db)
	end()

	spans := recorder.Ended()
	require.Len(t, spans, 1)

	attrs := make(map[attribute.Key]attribute.Value)
	for _, kv := range spans[0].Attributes() {
		attrs[kv.Key] = kv.Value
	}
	assert.Equal(t, "listings", attrs["db.sql.table"].AsString())
	assert.Equal(t, int64(3), attrs["db.rows_affected"].AsInt64())
	assert.True(t, attrs["db.slow_query"].AsBool())
	assert.GreaterOrEqual(t, attrs["db.query_duration_ms"].AsInt64(), int64(1000))
}

func TestSpanMarkerFastQueryNotFlagged(t *testing.T) {
	ctx, recorder, end := recordingSpan(t)
	ctx = context.WithValue(ctx, dbStartKey{}, time.Now())

	marker := &spanMarker{thresh: time.Minute}
	db := &gorm.DB{}
	db.Statement = &gorm.Statement{DB: db, Context: ctx, Table: "listings"}
	marker.finish(db)
	end()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	for _, kv := range spans[0].Attributes() {
		assert.NotEqual(t, attribute.Key("db.slow_query"), kv.Key)
	}
}

func TestSpanMarkerError(t *testing.T) {
	ctx, recorder, end := recordingSpan(t)

	marker := &spanMarker{thresh: time.Minute}
	db := &gorm.DB{}
	db.Statement = &gorm.Statement{DB: db, Context: ctx, Table: "listings"}
	db.Error = errors.New("connection reset")
	marker.finish(db)
	end()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, "connection reset", spans[0].Status().Description)
}

func TestSpanMarkerRecordNotFoundIsNotAnError(t *testing.T) {
	ctx, recorder, end := recordingSpan(t)

	marker := &spanMarker{thresh: time.Minute}
	db := &gorm.DB{}
	db.Statement = &gorm.Statement{DB: db, Context: ctx, Table: "listings"}
	db.Error = gorm.ErrRecordNotFound
	marker.finish(db)
	end()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Unset, spans[0].Status().Code)
}

func TestSpanMarkerNilContext(t *testing.T) {
	marker := &spanMarker{thresh: time.Minute}

	assert.NotPanics(t, func() {
		marker.finish(&gorm.DB{Statement: &gorm.Statement{}})
		marker.start(&gorm.DB{Statement: &gorm.Statement{}})
	})
}

func TestRegisterDBPoolMetrics(t *testing.T) {
	db := openTestGorm(t)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(7)

	reader := sdkmetric.NewManualReader()
	meter := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)).Meter("db.pool")

	reg, err := RegisterDBPoolMetrics(meter, sqlDB)
	require.NoError(t, err)
	defer reg.Unregister()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	require.Len(t, rm.ScopeMetrics, 1)

	names := make(map[string]bool)
	for _, m := range rm.ScopeMetrics[0].Metrics {
		names[m.Name] = true
		if m.Name == "db_pool_connections_max" {
			gauge, ok := m.Data.(metricdata.Gauge[int64])
			require.True(t, ok)
			require.Len(t, gauge.DataPoints, 1)
			assert.Equal(t, int64(7), gauge.DataPoints[0].Value)
		}
	}
	assert.True(t, names["db_pool_connections"])
	assert.True(t, names["db_pool_connections_max"])
	assert.True(t, names["db_pool_wait_total"])
}
