package ledger

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType tags which Detail variant a transaction carries
type TransactionType string

const (
	TypeSale         TransactionType = "sale"
	TypeLaybyPayment TransactionType = "layby_payment"
	TypeLaybyDeposit TransactionType = "layby_deposit"
	TypeRefund       TransactionType = "refund"
	TypeAdjustment   TransactionType = "adjustment"
	TypeOther        TransactionType = "other"
)

// AllTypes lists every transaction type
func AllTypes() []TransactionType {
	return []TransactionType{TypeSale, TypeLaybyPayment, TypeLaybyDeposit, TypeRefund, TypeAdjustment, TypeOther}
}

// IsValid checks if the type is known
func (t TransactionType) IsValid() bool {
	for _, v := range AllTypes() {
		if v == t {
			return true
		}
	}
	return false
}

// String returns the string representation
func (t TransactionType) String() string {
	return string(t)
}

// Detail is the type-specific part of a transaction. The set of implementations is
// closed: every variant lives in this file.
type Detail interface {
	Type() TransactionType
	isDetail()
}

// SaleDetail is a plain point-of-sale checkout
type SaleDetail struct {
	ItemCount int `json:"item_count"`
}

// LaybyDepositDetail is the deposit taken when an installment order opens
type LaybyDepositDetail struct {
	OrderID      uuid.UUID       `json:"order_id"`
	OrderNumber  string          `json:"order_number"`
	OrderTotal   decimal.Decimal `json:"order_total"`
	BalanceAfter decimal.Decimal `json:"balance_after"`
}

// LaybyPaymentDetail is an installment payment against an order
type LaybyPaymentDetail struct {
	OrderID      uuid.UUID       `json:"order_id"`
	OrderNumber  string          `json:"order_number"`
	PaymentID    uuid.UUID       `json:"payment_id"`
	BalanceAfter decimal.Decimal `json:"balance_after"`
}

// RefundDetail points at the transaction being refunded
type RefundDetail struct {
	OriginalID     uuid.UUID       `json:"original_id"`
	OriginalNumber string          `json:"original_number"`
	OriginalType   TransactionType `json:"original_type"`
}

// AdjustmentDetail is a manual correction
type AdjustmentDetail struct {
	Reason string `json:"reason"`
}

// OtherDetail covers entries with no dedicated variant
type OtherDetail struct {
	Label string `json:"label"`
}

func (SaleDetail) Type() TransactionType         { return TypeSale }
func (LaybyDepositDetail) Type() TransactionType { return TypeLaybyDeposit }
func (LaybyPaymentDetail) Type() TransactionType { return TypeLaybyPayment }
func (RefundDetail) Type() TransactionType       { return TypeRefund }
func (AdjustmentDetail) Type() TransactionType   { return TypeAdjustment }
func (OtherDetail) Type() TransactionType        { return TypeOther }

func (SaleDetail) isDetail()         {}
func (LaybyDepositDetail) isDetail() {}
func (LaybyPaymentDetail) isDetail() {}
func (RefundDetail) isDetail()       {}
func (AdjustmentDetail) isDetail()   {}
func (OtherDetail) isDetail()        {}

// OrderIDOf returns the installment order a detail belongs to, if any
func OrderIDOf(d Detail) (uuid.UUID, bool) {
	switch v := d.(type) {
	case LaybyDepositDetail:
		return v.OrderID, true
	case LaybyPaymentDetail:
		return v.OrderID, true
	case SaleDetail, RefundDetail, AdjustmentDetail, OtherDetail:
		return uuid.Nil, false
	}
	return uuid.Nil, false
}
