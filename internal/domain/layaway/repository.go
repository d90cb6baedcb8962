package layaway

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BalanceChange is the state an order reached after an atomic balance update
type BalanceChange struct {
	OrderID          uuid.UUID
	OrderNumber      string
	BalanceRemaining decimal.Decimal
	Status           OrderStatus
	Version          int
}

// OrderFilter narrows order listings
type OrderFilter struct {
	Status    OrderStatus
	SortBy    string
	SortOrder string
	Page      int
	PageSize  int
}

// OrderRepository persists installment orders
type OrderRepository interface {
	// FindByID loads an order with its items. Returns ErrOrderNotFound when missing.
	FindByID(ctx context.Context, storeID, id uuid.UUID) (*Order, error)
	// Create inserts a new order and its items. A lost race on the order number
	// surfaces as identifier.ErrCollision.
	Create(ctx context.Context, order *Order) error
	// DeductBalance atomically subtracts amount when the order accepts payments and
	// balance_remaining >= amount, completing the order when the balance reaches zero.
	DeductBalance(ctx context.Context, storeID, orderID uuid.UUID, amount decimal.Decimal, at time.Time) (*BalanceChange, error)
	// RestoreBalance atomically adds amount back, bounded by total_amount.
	RestoreBalance(ctx context.Context, storeID, orderID uuid.UUID, amount decimal.Decimal, at time.Time) (*BalanceChange, error)
	// Cancel moves an order in one of the payable statuses to cancelled.
	Cancel(ctx context.Context, storeID, orderID uuid.UUID, reason string, at time.Time) error
	// MarkOverdue flags active orders whose due date is before now and returns them.
	MarkOverdue(ctx context.Context, now time.Time, limit int) ([]*Order, error)
	// List returns a page of orders for a store
	List(ctx context.Context, storeID uuid.UUID, filter OrderFilter) ([]*Order, int64, error)
}

// PaymentRepository persists payments
type PaymentRepository interface {
	Create(ctx context.Context, payment *Payment) error
	FindByOrder(ctx context.Context, storeID, orderID uuid.UUID) ([]*Payment, error)
}
