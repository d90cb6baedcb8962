package ledger

import "github.com/erp/layaway/internal/domain/shared"

// Transaction log error kinds
var (
	ErrTransactionNotFound     = shared.NewDomainError("TRANSACTION_NOT_FOUND", "Transaction not found")
	ErrAlreadyRefunded         = shared.NewDomainError("TRANSACTION_ALREADY_REFUNDED", "Transaction has already been refunded")
	ErrRefundNotRefundable     = shared.NewDomainError("REFUND_NOT_REFUNDABLE", "A refund cannot itself be refunded")
	ErrTransactionVoided       = shared.NewDomainError("TRANSACTION_VOIDED", "A voided transaction cannot be refunded")
	ErrAlreadyVoided           = shared.NewDomainError("TRANSACTION_ALREADY_VOIDED", "Transaction is already voided")
	ErrNotVoidable             = shared.NewDomainError("TRANSACTION_NOT_VOIDABLE", "Refund transactions cannot be voided")
	ErrInvalidTransactionType  = shared.NewDomainError("INVALID_TRANSACTION_TYPE", "Unknown transaction type")
	ErrInvalidTransactionInput = shared.NewDomainError("INVALID_TRANSACTION", "Transaction is invalid")
)
