package layaway

import (
	"fmt"

	"github.com/erp/layaway/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Ledger engine error kinds
var (
	ErrInvalidAmount        = shared.NewDomainError("INVALID_AMOUNT", "Amount is invalid")
	ErrEmptyItemList        = shared.NewDomainError("EMPTY_ITEM_LIST", "Order must contain at least one item")
	ErrInvalidQuantity      = shared.NewDomainError("INVALID_QUANTITY", "Item quantity must be greater than zero")
	ErrInvalidCustomer      = shared.NewDomainError("INVALID_CUSTOMER", "Customer name is required")
	ErrInvalidPaymentMethod = shared.NewDomainError("INVALID_PAYMENT_METHOD", "Unsupported payment method")
	ErrOrderNotFound        = shared.NewDomainError("ORDER_NOT_FOUND", "Installment order not found")
	ErrOrderTerminal        = shared.NewDomainError("ORDER_TERMINAL", "Order is completed or cancelled")
	ErrAmountExceedsBalance = shared.NewDomainError("AMOUNT_EXCEEDS_BALANCE", "Payment amount exceeds the remaining balance")
	ErrInvalidTransition    = shared.NewDomainError("INVALID_STATE_TRANSITION", "Order status transition is not allowed")
	ErrStateDiverged        = shared.NewDomainError("ORDER_STATE_DIVERGED", "Stored order state does not match the computed transition")
)

func invalidAmount(format string, args ...any) *shared.DomainError {
	return &shared.DomainError{Code: ErrInvalidAmount.Code, Message: fmt.Sprintf(format, args...)}
}

func orderTerminal(status OrderStatus) *shared.DomainError {
	return ErrOrderTerminal.WithDetail("status", string(status))
}

// NewAmountExceedsBalanceError reports the attempted amount against the balance it was checked against
func NewAmountExceedsBalanceError(amount, balance decimal.Decimal) *shared.DomainError {
	return &shared.DomainError{
		Code:    ErrAmountExceedsBalance.Code,
		Message: fmt.Sprintf("Payment amount %s exceeds remaining balance %s", amount.StringFixed(2), balance.StringFixed(2)),
		Details: map[string]any{
			"amount":            amount.StringFixed(2),
			"balance_remaining": balance.StringFixed(2),
		},
	}
}
