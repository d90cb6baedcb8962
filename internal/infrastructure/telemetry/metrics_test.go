package telemetry_test

import (
	"context"
	"testing"
	"time"

	applayaway "github.com/erp/layaway/internal/application/layaway"
	"github.com/erp/layaway/internal/infrastructure/config"
	"github.com/erp/layaway/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

var _ applayaway.Metrics = (*telemetry.LedgerMetrics)(nil)

func newTestMeterProvider(t *testing.T) (*telemetry.MeterProvider, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := telemetry.NewMeterProviderWithReader(reader)
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	return mp, reader
}

// collect returns every metric the reader has by name
func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func sumOf(t *testing.T, m metricdata.Metrics) int64 {
	t.Helper()
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "metric %s is not an int64 sum", m.Name)
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func TestNewMeterProvider_Disabled(t *testing.T) {
	mp, err := telemetry.NewMeterProvider(context.Background(), config.TelemetryConfig{
		Enabled:        true,
		MetricsEnabled: false,
	}, nil)
	require.NoError(t, err)

	assert.False(t, mp.IsEnabled())
	assert.NotNil(t, mp.Meter("test"))
	assert.NoError(t, mp.Shutdown(context.Background()))
}

func TestCounterAndHistogram(t *testing.T) {
	mp, reader := newTestMeterProvider(t)
	meter := mp.Meter("test")
	ctx := context.Background()

	counter, err := telemetry.NewCounter(meter, "test_total", "test counter", "{op}")
	require.NoError(t, err)
	counter.Inc(ctx)
	counter.Add(ctx, 4)

	histogram, err := telemetry.NewHistogram(meter, telemetry.HistogramOpts{
		Name:    "test_duration_seconds",
		Unit:    "s",
		Buckets: []float64{0.1, 1},
	})
	require.NoError(t, err)
	histogram.RecordDuration(ctx, 250*time.Millisecond)

	gauge, err := telemetry.NewGauge(meter, "test_gauge", "test gauge", "1")
	require.NoError(t, err)
	gauge.Record(ctx, 7)

	metrics := collect(t, reader)
	assert.Equal(t, int64(5), sumOf(t, metrics["test_total"]))

	hist, ok := metrics["test_duration_seconds"].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	assert.Equal(t, []float64{0.1, 1}, hist.DataPoints[0].Bounds)
	assert.Equal(t, uint64(1), hist.DataPoints[0].Count)
	assert.InDelta(t, 0.25, hist.DataPoints[0].Sum, 1e-9)

	g, ok := metrics["test_gauge"].Data.(metricdata.Gauge[int64])
	require.True(t, ok)
	assert.Equal(t, int64(7), g.DataPoints[0].Value)
}

func TestLedgerMetrics(t *testing.T) {
	mp, reader := newTestMeterProvider(t)
	m, err := telemetry.NewLedgerMetrics(mp.Meter("ledger"))
	require.NoError(t, err)

	ctx := context.Background()
	storeID := uuid.New()
	m.RecordOrderCreated(ctx, storeID, decimal.RequireFromString("120.00"))
	m.RecordPaymentApplied(ctx, storeID, decimal.RequireFromString("20.00"), false)
	m.RecordPaymentApplied(ctx, storeID, decimal.RequireFromString("100.00"), true)
	m.RecordOrderCancelled(ctx, storeID)
	m.RecordOrdersOverdue(ctx, 3)
	m.RecordOrdersOverdue(ctx, 0)
	m.RecordRefund(ctx, storeID, decimal.RequireFromString("5.00"))
	m.RecordVoid(ctx, storeID)
	m.RecordIdentifierRetries(ctx, "refund", 2)
	m.RecordIdentifierRetries(ctx, "refund", 0)
	m.RecordAuditDegraded(ctx, "payment_applied")

	metrics := collect(t, reader)
	assert.Equal(t, int64(1), sumOf(t, metrics["layaway_orders_created_total"]))
	assert.Equal(t, int64(2), sumOf(t, metrics["layaway_payments_applied_total"]))
	assert.Equal(t, int64(1), sumOf(t, metrics["layaway_orders_cancelled_total"]))
	assert.Equal(t, int64(3), sumOf(t, metrics["layaway_orders_overdue_total"]))
	assert.Equal(t, int64(1), sumOf(t, metrics["ledger_refunds_total"]))
	assert.Equal(t, int64(1), sumOf(t, metrics["ledger_voids_total"]))
	assert.Equal(t, int64(2), sumOf(t, metrics["ledger_identifier_retries_total"]))
	assert.Equal(t, int64(1), sumOf(t, metrics["audit_degraded_total"]))

	payments := metrics["layaway_payments_applied_total"].Data.(metricdata.Sum[int64])
	assert.Len(t, payments.DataPoints, 2, "completed and partial payments are separate series")
}
