package layaway

import (
	"time"

	"github.com/erp/layaway/internal/domain/shared"
	"github.com/erp/layaway/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentMethod is how the customer paid
type PaymentMethod string

const (
	PaymentMethodCash         PaymentMethod = "cash"
	PaymentMethodCard         PaymentMethod = "card"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodOther        PaymentMethod = "other"
)

// IsValid checks if the payment method is supported
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodCard, PaymentMethodBankTransfer, PaymentMethodOther:
		return true
	}
	return false
}

// String returns the string representation
func (m PaymentMethod) String() string {
	return string(m)
}

// Payment is one application of funds against an order. Payments are immutable;
// corrections go through refunds.
type Payment struct {
	shared.BaseEntity
	StoreID       uuid.UUID
	OrderID       uuid.UUID
	TransactionID uuid.UUID
	Amount        decimal.Decimal
	Method        PaymentMethod
	Reference     string
	Notes         string
	ProcessedBy   uuid.UUID
}

// NewPaymentInput carries the attributes of a payment
type NewPaymentInput struct {
	StoreID     uuid.UUID
	OrderID     uuid.UUID
	Amount      valueobject.Money
	Method      PaymentMethod
	Reference   string
	Notes       string
	ProcessedBy uuid.UUID
	At          time.Time
}

// NewPayment validates and creates a payment record
func NewPayment(in NewPaymentInput) (*Payment, error) {
	if !in.Amount.IsPositive() {
		return nil, invalidAmount("Payment amount must be positive")
	}
	if !in.Method.IsValid() {
		return nil, ErrInvalidPaymentMethod.WithDetail("method", string(in.Method))
	}
	return &Payment{
		BaseEntity:  shared.NewBaseEntity(in.At),
		StoreID:     in.StoreID,
		OrderID:     in.OrderID,
		Amount:      in.Amount.Decimal(),
		Method:      in.Method,
		Reference:   in.Reference,
		Notes:       in.Notes,
		ProcessedBy: in.ProcessedBy,
	}, nil
}

// LinkTransaction records the ledger transaction that logged this payment
func (p *Payment) LinkTransaction(id uuid.UUID) {
	p.TransactionID = id
}
