package layaway

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Metrics receives ledger business measurements
type Metrics interface {
	RecordOrderCreated(ctx context.Context, storeID uuid.UUID, total decimal.Decimal)
	RecordPaymentApplied(ctx context.Context, storeID uuid.UUID, amount decimal.Decimal, completed bool)
	RecordOrderCancelled(ctx context.Context, storeID uuid.UUID)
	RecordOrdersOverdue(ctx context.Context, count int)
	RecordRefund(ctx context.Context, storeID uuid.UUID, amount decimal.Decimal)
	RecordVoid(ctx context.Context, storeID uuid.UUID)
	RecordIdentifierRetries(ctx context.Context, namespace string, retries int)
	RecordAuditDegraded(ctx context.Context, action string)
}

// NoopMetrics discards every measurement
type NoopMetrics struct{}

func (NoopMetrics) RecordOrderCreated(context.Context, uuid.UUID, decimal.Decimal)         {}
func (NoopMetrics) RecordPaymentApplied(context.Context, uuid.UUID, decimal.Decimal, bool) {}
func (NoopMetrics) RecordOrderCancelled(context.Context, uuid.UUID)                        {}
func (NoopMetrics) RecordOrdersOverdue(context.Context, int)                               {}
func (NoopMetrics) RecordRefund(context.Context, uuid.UUID, decimal.Decimal)               {}
func (NoopMetrics) RecordVoid(context.Context, uuid.UUID)                                  {}
func (NoopMetrics) RecordIdentifierRetries(context.Context, string, int)                   {}
func (NoopMetrics) RecordAuditDegraded(context.Context, string)                            {}

var _ Metrics = NoopMetrics{}
