package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type instrumentedRow struct {
	ID   uint   `gorm:"primaryKey"`
	Name string `gorm:"size:100"`
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&instrumentedRow{}))
	return db
}

func TestDetectOperationType(t *testing.T) {
	assert.Equal(t, "SELECT", detectOperationType("  select * from t"))
	assert.Equal(t, "INSERT", detectOperationType("INSERT INTO t"))
	assert.Equal(t, "UPDATE", detectOperationType("update t set"))
	assert.Equal(t, "DELETE", detectOperationType("DELETE FROM t"))
	assert.Equal(t, "OTHER", detectOperationType("WITH x AS (SELECT 1) SELECT 1"))
}

func TestRegisterDBMetrics_RecordsQueries(t *testing.T) {
	db := openTestDB(t)
	reader := sdkmetric.NewManualReader()
	mp := NewMeterProviderWithReader(reader)

	metrics, err := RegisterDBMetrics(db, mp, DBMetricsConfig{
		Enabled:            true,
		SlowQueryThreshold: time.Hour,
		PoolStatsInterval:  time.Hour,
	}, nil)
	require.NoError(t, err)
	require.NotNil(t, metrics)
	t.Cleanup(metrics.Stop)
	metrics.collectPoolStats(context.Background())

	require.NoError(t, db.Create(&instrumentedRow{Name: "a"}).Error)
	var rows []instrumentedRow
	require.NoError(t, db.Find(&rows).Error)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	byName := map[string]metricdata.Metrics{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			byName[m.Name] = m
		}
	}

	total, ok := byName["db_query_total"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	ops := map[string]int64{}
	for _, dp := range total.DataPoints {
		op, _ := dp.Attributes.Value(AttrDBOperation)
		ops[op.AsString()] += dp.Value
	}
	assert.Equal(t, int64(1), ops["INSERT"])
	assert.Equal(t, int64(1), ops["SELECT"])
	_, hasSlow := byName["db_slow_query_total"]
	assert.False(t, hasSlow)
	assert.Contains(t, byName, "db_pool_connections_max")
}

func TestRegisterDBMetrics_DisabledReturnsNil(t *testing.T) {
	db := openTestDB(t)
	metrics, err := RegisterDBMetrics(db, &MeterProvider{}, DefaultDBMetricsConfig(), nil)
	require.NoError(t, err)
	assert.Nil(t, metrics)
}

func TestDBTracingPlugin_RecordsChildSpans(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	original := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(original) })

	db := openTestDB(t)
	cfg := DefaultDBTracingConfig()
	cfg.Enabled = true
	cfg.DBSystem = "sqlite"
	require.NoError(t, NewDBTracingPlugin(cfg, nil).RegisterOtelGorm(db))

	ctx, parent := tp.Tracer("test").Start(context.Background(), "parent")
	require.NoError(t, db.WithContext(ctx).Create(&instrumentedRow{Name: "b"}).Error)
	parent.End()

	ended := sr.Ended()
	require.GreaterOrEqual(t, len(ended), 2, "expected a gorm span under the parent")
	for _, span := range ended {
		if span.Name() != "parent" {
			assert.Equal(t, parent.SpanContext().TraceID(), span.SpanContext().TraceID())
		}
	}
}

func TestDBTracingPlugin_Disabled(t *testing.T) {
	db := openTestDB(t)
	assert.NoError(t, NewDBTracingPlugin(DefaultDBTracingConfig(), nil).RegisterOtelGorm(db))
}
