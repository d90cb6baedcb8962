package telemetry

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric attribute keys of ledger instruments
var (
	AttrStoreID   = attribute.Key("store_id")
	AttrCompleted = attribute.Key("completed")
	AttrNamespace = attribute.Key("namespace")
	AttrAction    = attribute.Key("action")
)

// AmountBuckets are histogram boundaries for money amounts
var AmountBuckets = []float64{10, 50, 100, 250, 500, 1000, 2500, 5000, 10000}

// LedgerMetrics records installment-order and transaction business metrics.
type LedgerMetrics struct {
	ordersCreated      *Counter
	orderTotals        *Histogram
	paymentsApplied    *Counter
	paymentAmounts     *Histogram
	ordersCancelled    *Counter
	ordersOverdue      *Counter
	refunds            *Counter
	refundAmounts      *Histogram
	voids              *Counter
	identifierRetries  *Counter
	auditDegradedTotal *Counter
}

// NewLedgerMetrics creates the ledger instruments on meter.
func NewLedgerMetrics(meter metric.Meter) (*LedgerMetrics, error) {
	m := &LedgerMetrics{}
	var err error

	counters := []struct {
		dst  **Counter
		name string
		desc string
		unit string
	}{
		{&m.ordersCreated, "layaway_orders_created_total", "Installment orders created", "{order}"},
		{&m.paymentsApplied, "layaway_payments_applied_total", "Installment payments applied", "{payment}"},
		{&m.ordersCancelled, "layaway_orders_cancelled_total", "Installment orders cancelled", "{order}"},
		{&m.ordersOverdue, "layaway_orders_overdue_total", "Orders flagged overdue", "{order}"},
		{&m.refunds, "ledger_refunds_total", "Refund transactions recorded", "{transaction}"},
		{&m.voids, "ledger_voids_total", "Transactions voided", "{transaction}"},
		{&m.identifierRetries, "ledger_identifier_retries_total", "Identifier collisions retried", "{retry}"},
		{&m.auditDegradedTotal, "audit_degraded_total", "Audit entries written after commit or lost", "{entry}"},
	}
	for _, c := range counters {
		if *c.dst, err = NewCounter(meter, c.name, c.desc, c.unit); err != nil {
			return nil, err
		}
	}

	histograms := []struct {
		dst  **Histogram
		name string
		desc string
	}{
		{&m.orderTotals, "layaway_order_total_amount", "Order totals"},
		{&m.paymentAmounts, "layaway_payment_amount", "Installment payment amounts"},
		{&m.refundAmounts, "ledger_refund_amount", "Refund amounts"},
	}
	for _, h := range histograms {
		if *h.dst, err = NewHistogram(meter, HistogramOpts{
			Name:        h.name,
			Description: h.desc,
			Unit:        "{currency}",
			Buckets:     AmountBuckets,
		}); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *LedgerMetrics) RecordOrderCreated(ctx context.Context, storeID uuid.UUID, total decimal.Decimal) {
	attr := AttrStoreID.String(storeID.String())
	m.ordersCreated.Inc(ctx, attr)
	m.orderTotals.Record(ctx, total.InexactFloat64(), attr)
}

func (m *LedgerMetrics) RecordPaymentApplied(ctx context.Context, storeID uuid.UUID, amount decimal.Decimal, completed bool) {
	attr := AttrStoreID.String(storeID.String())
	m.paymentsApplied.Inc(ctx, attr, AttrCompleted.Bool(completed))
	m.paymentAmounts.Record(ctx, amount.InexactFloat64(), attr)
}

func (m *LedgerMetrics) RecordOrderCancelled(ctx context.Context, storeID uuid.UUID) {
	m.ordersCancelled.Inc(ctx, AttrStoreID.String(storeID.String()))
}

func (m *LedgerMetrics) RecordOrdersOverdue(ctx context.Context, count int) {
	if count > 0 {
		m.ordersOverdue.Add(ctx, int64(count))
	}
}

func (m *LedgerMetrics) RecordRefund(ctx context.Context, storeID uuid.UUID, amount decimal.Decimal) {
	attr := AttrStoreID.String(storeID.String())
	m.refunds.Inc(ctx, attr)
	m.refundAmounts.Record(ctx, amount.InexactFloat64(), attr)
}

func (m *LedgerMetrics) RecordVoid(ctx context.Context, storeID uuid.UUID) {
	m.voids.Inc(ctx, AttrStoreID.String(storeID.String()))
}

func (m *LedgerMetrics) RecordIdentifierRetries(ctx context.Context, namespace string, retries int) {
	if retries > 0 {
		m.identifierRetries.Add(ctx, int64(retries), AttrNamespace.String(namespace))
	}
}

func (m *LedgerMetrics) RecordAuditDegraded(ctx context.Context, action string) {
	m.auditDegradedTotal.Inc(ctx, AttrAction.String(action))
}
