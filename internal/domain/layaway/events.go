package layaway

import (
	"github.com/erp/layaway/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event type constants
const (
	EventTypeOrderCreated   = "LayawayOrderCreated"
	EventTypePaymentApplied = "LayawayPaymentApplied"
	EventTypeOrderCompleted = "LayawayOrderCompleted"
	EventTypeOrderCancelled = "LayawayOrderCancelled"
)

// OrderCreatedEvent is raised when an installment order is opened
type OrderCreatedEvent struct {
	shared.BaseDomainEvent
	OrderID          uuid.UUID       `json:"order_id"`
	OrderNumber      string          `json:"order_number"`
	CustomerName     string          `json:"customer_name"`
	CustomerContact  string          `json:"customer_contact"`
	TotalAmount      decimal.Decimal `json:"total_amount"`
	DepositAmount    decimal.Decimal `json:"deposit_amount"`
	BalanceRemaining decimal.Decimal `json:"balance_remaining"`
}

// NewOrderCreatedEvent creates an OrderCreatedEvent
func NewOrderCreatedEvent(o *Order) *OrderCreatedEvent {
	return &OrderCreatedEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent(EventTypeOrderCreated, AggregateTypeOrder, o.ID, o.StoreID),
		OrderID:          o.ID,
		OrderNumber:      o.OrderNumber,
		CustomerName:     o.Customer.Name,
		CustomerContact:  o.Customer.Contact,
		TotalAmount:      o.TotalAmount,
		DepositAmount:    o.DepositAmount,
		BalanceRemaining: o.BalanceRemaining,
	}
}

// PaymentAppliedEvent is raised after a payment reduced the balance
type PaymentAppliedEvent struct {
	shared.BaseDomainEvent
	OrderID          uuid.UUID       `json:"order_id"`
	OrderNumber      string          `json:"order_number"`
	Amount           decimal.Decimal `json:"amount"`
	BalanceRemaining decimal.Decimal `json:"balance_remaining"`
	Status           OrderStatus     `json:"status"`
}

// NewPaymentAppliedEvent creates a PaymentAppliedEvent
func NewPaymentAppliedEvent(o *Order, amount decimal.Decimal) *PaymentAppliedEvent {
	return &PaymentAppliedEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent(EventTypePaymentApplied, AggregateTypeOrder, o.ID, o.StoreID),
		OrderID:          o.ID,
		OrderNumber:      o.OrderNumber,
		Amount:           amount,
		BalanceRemaining: o.BalanceRemaining,
		Status:           o.Status,
	}
}

// OrderCompletedEvent is raised when the balance reaches zero
type OrderCompletedEvent struct {
	shared.BaseDomainEvent
	OrderID         uuid.UUID       `json:"order_id"`
	OrderNumber     string          `json:"order_number"`
	CustomerName    string          `json:"customer_name"`
	CustomerContact string          `json:"customer_contact"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
}

// NewOrderCompletedEvent creates an OrderCompletedEvent
func NewOrderCompletedEvent(o *Order) *OrderCompletedEvent {
	return &OrderCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderCompleted, AggregateTypeOrder, o.ID, o.StoreID),
		OrderID:         o.ID,
		OrderNumber:     o.OrderNumber,
		CustomerName:    o.Customer.Name,
		CustomerContact: o.Customer.Contact,
		TotalAmount:     o.TotalAmount,
	}
}

// OrderCancelledEvent is raised when an order is cancelled
type OrderCancelledEvent struct {
	shared.BaseDomainEvent
	OrderID          uuid.UUID       `json:"order_id"`
	OrderNumber      string          `json:"order_number"`
	Reason           string          `json:"reason"`
	BalanceRemaining decimal.Decimal `json:"balance_remaining"`
}

// NewOrderCancelledEvent creates an OrderCancelledEvent
func NewOrderCancelledEvent(o *Order) *OrderCancelledEvent {
	return &OrderCancelledEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent(EventTypeOrderCancelled, AggregateTypeOrder, o.ID, o.StoreID),
		OrderID:          o.ID,
		OrderNumber:      o.OrderNumber,
		Reason:           o.CancelReason,
		BalanceRemaining: o.BalanceRemaining,
	}
}
