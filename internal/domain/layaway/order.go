// Package layaway models installment orders: a deposit up front and partial payments
// against the remaining balance until the order is paid off.
package layaway

import (
	"strings"
	"time"

	"github.com/erp/layaway/internal/domain/shared"
	"github.com/erp/layaway/internal/domain/shared/valueobject"
	"github.com/erp/layaway/internal/domain/stock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AggregateTypeOrder is the aggregate type name used by events and audit entries
const AggregateTypeOrder = "LayawayOrder"

// OrderStatus represents the lifecycle state of an installment order
type OrderStatus string

const (
	OrderStatusActive    OrderStatus = "active"
	OrderStatusOverdue   OrderStatus = "overdue"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// IsValid checks if the status is a known value
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusActive, OrderStatusOverdue, OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no further payments are accepted
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled
}

// CanAcceptPayment reports whether a payment may be applied
func (s OrderStatus) CanAcceptPayment() bool {
	return s == OrderStatusActive || s == OrderStatusOverdue
}

// PayableStatuses lists statuses that accept payments
func PayableStatuses() []OrderStatus {
	return []OrderStatus{OrderStatusActive, OrderStatusOverdue}
}

// String returns the string representation
func (s OrderStatus) String() string {
	return string(s)
}

// Customer identifies who the order is being held for
type Customer struct {
	ID      *uuid.UUID
	Name    string
	Contact string
}

// OrderItem is a line of the order. UnitPrice is a snapshot taken at order time.
type OrderItem struct {
	ID          uuid.UUID
	OrderID     uuid.UUID
	ProductID   uuid.UUID
	ProductName string
	Quantity    int
	UnitPrice   decimal.Decimal
	TotalPrice  decimal.Decimal
}

// ItemInput describes a requested order line
type ItemInput struct {
	ProductID   uuid.UUID
	ProductName string
	Quantity    int
	UnitPrice   valueobject.Money
}

// Order is the installment order aggregate root. Only the ledger engine mutates its
// monetary fields.
type Order struct {
	shared.StoreAggregateRoot
	OrderNumber      string
	Customer         Customer
	TotalAmount      decimal.Decimal
	DepositAmount    decimal.Decimal
	BalanceRemaining decimal.Decimal
	TaxAmount        decimal.Decimal
	Status           OrderStatus
	DueDate          *time.Time
	Notes            string
	Items            []OrderItem
	CompletedAt      *time.Time
	CancelledAt      *time.Time
	CancelReason     string
}

// NewOrderInput carries everything needed to open an order
type NewOrderInput struct {
	StoreID  uuid.UUID
	ActorID  uuid.UUID
	Customer Customer
	Items    []ItemInput
	Deposit  valueobject.Money
	DueDate  *time.Time
	Notes    string
	At       time.Time
}

// NewOrder validates the input and opens an order. The order number is assigned later,
// once a unique identifier has been allocated.
func NewOrder(in NewOrderInput) (*Order, error) {
	if len(in.Items) == 0 {
		return nil, ErrEmptyItemList
	}
	if strings.TrimSpace(in.Customer.Name) == "" {
		return nil, ErrInvalidCustomer
	}

	o := &Order{
		StoreAggregateRoot: shared.NewStoreAggregateRoot(in.StoreID, in.ActorID, in.At),
		Customer: Customer{
			ID:      in.Customer.ID,
			Name:    strings.TrimSpace(in.Customer.Name),
			Contact: strings.TrimSpace(in.Customer.Contact),
		},
		DueDate: in.DueDate,
		Notes:   in.Notes,
		Items:   make([]OrderItem, 0, len(in.Items)),
	}

	total := valueobject.Zero()
	for _, it := range in.Items {
		if it.ProductID == uuid.Nil {
			return nil, shared.NewDomainError("INVALID_PRODUCT", "Order item requires a product")
		}
		if it.Quantity <= 0 {
			return nil, ErrInvalidQuantity.WithDetail("product_id", it.ProductID.String())
		}
		if it.UnitPrice.IsNegative() {
			return nil, invalidAmount("Unit price for product %s cannot be negative", it.ProductID)
		}
		line := it.UnitPrice.MulInt(it.Quantity)
		total = total.Add(line)
		o.Items = append(o.Items, OrderItem{
			ID:          uuid.New(),
			OrderID:     o.ID,
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice.Decimal(),
			TotalPrice:  line.Decimal(),
		})
	}

	if !total.IsPositive() {
		return nil, invalidAmount("Order total must be positive")
	}
	if in.Deposit.IsNegative() {
		return nil, invalidAmount("Deposit cannot be negative")
	}
	if in.Deposit.GreaterThan(total) {
		return nil, invalidAmount("Deposit %s exceeds order total %s", in.Deposit, total)
	}

	o.TotalAmount = total.Decimal()
	o.DepositAmount = in.Deposit.Decimal()
	o.BalanceRemaining = total.Sub(in.Deposit).Decimal()
	o.Status = OrderStatusActive
	if o.BalanceRemaining.IsZero() {
		o.Status = OrderStatusCompleted
		completed := in.At
		o.CompletedAt = &completed
	}

	return o, nil
}

// AssignNumber sets the human-readable order number and raises the creation events
func (o *Order) AssignNumber(number string) {
	o.OrderNumber = number
	o.AddDomainEvent(NewOrderCreatedEvent(o))
	if o.Status == OrderStatusCompleted {
		o.AddDomainEvent(NewOrderCompletedEvent(o))
	}
}

// ApplyTax records the tax portion contained in the order total
func (o *Order) ApplyTax(tax decimal.Decimal) {
	o.TaxAmount = tax
}

// ReservationLines returns the stock to reserve for this order
func (o *Order) ReservationLines() []stock.ReservationLine {
	lines := make([]stock.ReservationLine, 0, len(o.Items))
	for _, it := range o.Items {
		lines = append(lines, stock.ReservationLine{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	return lines
}

// CheckPayment validates a payment against this snapshot of the order without mutating it
func (o *Order) CheckPayment(amount valueobject.Money) error {
	if !amount.IsPositive() {
		return invalidAmount("Payment amount must be positive")
	}
	if !o.Status.CanAcceptPayment() {
		return orderTerminal(o.Status)
	}
	if amount.Decimal().GreaterThan(o.BalanceRemaining) {
		return NewAmountExceedsBalanceError(amount.Decimal(), o.BalanceRemaining)
	}
	return nil
}

// ApplyPayment reduces the balance and moves the status accordingly:
// zero balance completes the order, a remaining balance leaves it (or returns it to) active.
func (o *Order) ApplyPayment(amount valueobject.Money, at time.Time) error {
	if err := o.CheckPayment(amount); err != nil {
		return err
	}

	o.BalanceRemaining = o.BalanceRemaining.Sub(amount.Decimal())
	o.settleStatus(at)
	o.Touch(at)
	o.IncrementVersion()
	o.AddDomainEvent(NewPaymentAppliedEvent(o, amount.Decimal()))
	if o.Status == OrderStatusCompleted {
		o.AddDomainEvent(NewOrderCompletedEvent(o))
	}
	return nil
}

// RestoreBalance adds a refunded amount back to the balance. A completed order reopens;
// a cancelled order keeps its status.
func (o *Order) RestoreBalance(amount valueobject.Money, at time.Time) error {
	if !amount.IsPositive() {
		return invalidAmount("Restored amount must be positive")
	}
	restored := o.BalanceRemaining.Add(amount.Decimal())
	if restored.GreaterThan(o.TotalAmount) {
		return invalidAmount("Restored balance %s would exceed order total %s", restored.StringFixed(2), o.TotalAmount.StringFixed(2))
	}
	o.BalanceRemaining = restored
	if o.Status == OrderStatusCompleted {
		o.Status = OrderStatusActive
		o.CompletedAt = nil
	}
	o.Touch(at)
	o.IncrementVersion()
	return nil
}

// ReplayPayment runs ApplyPayment from the state a stored conditional deduction
// started from and checks that the aggregate lands where storage did. The stored
// row may have moved since the order was read, so the snapshot balance is not used.
func (o *Order) ReplayPayment(amount valueobject.Money, stored *BalanceChange, at time.Time) error {
	o.BalanceRemaining = stored.BalanceRemaining.Add(amount.Decimal())
	if err := o.ApplyPayment(amount, at); err != nil {
		return err
	}
	return o.reconcile(stored)
}

// ReplayRestore runs RestoreBalance from the state a stored restore started from.
// A restore only reopens completed orders, and an order is completed exactly when
// its balance is zero, so the prior status follows from the stored one.
func (o *Order) ReplayRestore(amount valueobject.Money, stored *BalanceChange, at time.Time) error {
	o.BalanceRemaining = stored.BalanceRemaining.Sub(amount.Decimal())
	o.Status = stored.Status
	if stored.Status == OrderStatusActive && o.BalanceRemaining.IsZero() {
		o.Status = OrderStatusCompleted
	}
	if err := o.RestoreBalance(amount, at); err != nil {
		return err
	}
	return o.reconcile(stored)
}

func (o *Order) reconcile(stored *BalanceChange) error {
	if !o.BalanceRemaining.Equal(stored.BalanceRemaining) || o.Status != stored.Status {
		return ErrStateDiverged.
			WithDetail("order_number", o.OrderNumber).
			WithDetail("computed_status", string(o.Status)).
			WithDetail("stored_status", string(stored.Status))
	}
	o.Version = stored.Version
	return nil
}

// Cancel moves an open order to cancelled. Cancelled is terminal.
func (o *Order) Cancel(reason string, at time.Time) error {
	if o.Status.IsTerminal() {
		return orderTerminal(o.Status)
	}
	o.Status = OrderStatusCancelled
	o.CancelReason = reason
	o.CancelledAt = &at
	o.Touch(at)
	o.IncrementVersion()
	o.AddDomainEvent(NewOrderCancelledEvent(o))
	return nil
}

// IsPastDue reports whether an active order has passed its due date
func (o *Order) IsPastDue(now time.Time) bool {
	return o.Status == OrderStatusActive && o.DueDate != nil && o.DueDate.Before(now)
}

// MarkOverdue moves an active order past its due date to overdue
func (o *Order) MarkOverdue(now time.Time) error {
	if !o.IsPastDue(now) {
		return ErrInvalidTransition.WithDetail("status", string(o.Status))
	}
	o.Status = OrderStatusOverdue
	o.Touch(now)
	o.IncrementVersion()
	return nil
}

func (o *Order) settleStatus(at time.Time) {
	if o.BalanceRemaining.IsZero() {
		o.Status = OrderStatusCompleted
		o.CompletedAt = &at
		return
	}
	o.Status = OrderStatusActive
}

// PaidAmount returns the total paid so far, deposit included
func (o *Order) PaidAmount() decimal.Decimal {
	return o.TotalAmount.Sub(o.BalanceRemaining)
}
