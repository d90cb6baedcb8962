package ledger

import (
	"context"

	"github.com/erp/layaway/internal/infrastructure/telemetry"
)

// RefundTransaction logs a full refund of a transaction. A transaction is refunded
// at most once; the storage layer rejects a second refund racing this one. When the
// original belongs to an installment order, the refunded amount goes back onto the
// order balance.
func (s *TransactionService) RefundTransaction(ctx context.Context, req RefundRequest) (*RefundResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "ledger", "refund",
		telemetry.SpanAttrStoreID, req.StoreID.String(),
		telemetry.SpanAttrTransactionID, req.TransactionID.String(),
	)
	defer span.End()

	var (
		result *RefundResult
		err    error
	)
	telemetry.WithProfilingLabels(ctx, telemetry.OperationLabels("refund", nil), func(c context.Context) {
		result, err = s.refundTransaction(c, req)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrTransactionNumber, result.RefundTransactionNumber)
	return result, nil
}

// VoidTransaction marks a transaction as disregarded. The row and its amount stay.
func (s *TransactionService) VoidTransaction(ctx context.Context, req VoidRequest) (*VoidResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "ledger", "void",
		telemetry.SpanAttrStoreID, req.StoreID.String(),
		telemetry.SpanAttrTransactionID, req.TransactionID.String(),
	)
	defer span.End()

	result, err := s.voidTransaction(ctx, req)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return result, nil
}
