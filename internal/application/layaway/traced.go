package layaway

import (
	"context"

	"github.com/erp/layaway/internal/infrastructure/telemetry"
)

// CreateInstallmentOrder reserves stock, opens the order under a fresh order
// number and logs the deposit.
func (s *LedgerService) CreateInstallmentOrder(ctx context.Context, req CreateOrderRequest) (*CreateOrderResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "layaway", "create_order",
		telemetry.SpanAttrStoreID, req.StoreID.String(),
		telemetry.SpanAttrItemCount, len(req.Items),
		telemetry.SpanAttrAmount, req.DepositAmount.String(),
	)
	defer span.End()

	var (
		result *CreateOrderResult
		err    error
	)
	telemetry.WithProfilingLabels(ctx, telemetry.OperationLabels("create_order", nil), func(c context.Context) {
		result, err = s.createInstallmentOrder(c, req)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttributes(span,
		telemetry.SpanAttrOrderID, result.OrderID.String(),
		telemetry.SpanAttrOrderNumber, result.OrderNumber,
	)
	return result, nil
}

// ApplyInstallmentPayment applies a payment against the order balance. The balance
// is reduced by a conditional update, so of two concurrent payments that together
// exceed the balance only one lands.
func (s *LedgerService) ApplyInstallmentPayment(ctx context.Context, req ApplyPaymentRequest) (*ApplyPaymentResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "layaway", "apply_payment",
		telemetry.SpanAttrStoreID, req.StoreID.String(),
		telemetry.SpanAttrOrderID, req.OrderID.String(),
		telemetry.SpanAttrAmount, req.Amount.String(),
		telemetry.SpanAttrPaymentMethod, string(req.Method),
	)
	defer span.End()

	var (
		result *ApplyPaymentResult
		err    error
	)
	telemetry.WithProfilingLabels(ctx, telemetry.OperationLabels("apply_payment", nil), func(c context.Context) {
		result, err = s.applyInstallmentPayment(c, req)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTransactionNumber, result.TransactionNumber,
		telemetry.SpanAttrOrderStatus, string(result.NewStatus),
	)
	return result, nil
}

// CancelOrder cancels an open order and returns its reserved stock. No monetary
// transaction is logged.
func (s *LedgerService) CancelOrder(ctx context.Context, req CancelOrderRequest) (*CancelOrderResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "layaway", "cancel_order",
		telemetry.SpanAttrStoreID, req.StoreID.String(),
		telemetry.SpanAttrOrderID, req.OrderID.String(),
	)
	defer span.End()

	result, err := s.cancelOrder(ctx, req)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return result, nil
}

// MarkOverdue flags up to limit active orders whose due date has passed
func (s *LedgerService) MarkOverdue(ctx context.Context, limit int) (*MarkOverdueResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "layaway", "mark_overdue", "limit", limit)
	defer span.End()

	var (
		result *MarkOverdueResult
		err    error
	)
	telemetry.WithProfilingLabels(ctx, telemetry.OperationLabels("mark_overdue", nil), func(c context.Context) {
		result, err = s.markOverdue(c, limit)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttributes(span, "flagged", result.Flagged)
	return result, nil
}
