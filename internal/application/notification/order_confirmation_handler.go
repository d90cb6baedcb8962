// Package notification turns order events into customer-facing confirmation messages.
// Delivery itself belongs to a Dispatcher.
package notification

import (
	"context"
	"fmt"

	"github.com/erp/layaway/internal/domain/layaway"
	"github.com/erp/layaway/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Kind distinguishes confirmation messages
type Kind string

const (
	KindOrderOpened    Kind = "order_opened"
	KindOrderCompleted Kind = "order_completed"
)

// Message is an order confirmation ready for delivery
type Message struct {
	StoreID         uuid.UUID       `json:"store_id"`
	OrderID         uuid.UUID       `json:"order_id"`
	OrderNumber     string          `json:"order_number"`
	Kind            Kind            `json:"kind"`
	CustomerName    string          `json:"customer_name"`
	CustomerContact string          `json:"customer_contact"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	DepositAmount   decimal.Decimal `json:"deposit_amount,omitempty"`
	Balance         decimal.Decimal `json:"balance"`
	Body            string          `json:"body"`
}

// Dispatcher delivers a message to the customer over some channel
type Dispatcher interface {
	Dispatch(ctx context.Context, msg Message) error
}

// OrderConfirmationHandler sends a confirmation when an order is opened and when it
// is paid off. Orders without a customer contact are skipped.
type OrderConfirmationHandler struct {
	dispatcher Dispatcher
	logger     *zap.Logger
}

// NewOrderConfirmationHandler creates a new handler
func NewOrderConfirmationHandler(dispatcher Dispatcher, logger *zap.Logger) *OrderConfirmationHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderConfirmationHandler{dispatcher: dispatcher, logger: logger}
}

// EventTypes returns the event types this handler is interested in
func (h *OrderConfirmationHandler) EventTypes() []string {
	return []string{layaway.EventTypeOrderCreated, layaway.EventTypeOrderCompleted}
}

// Handle builds and dispatches the confirmation for event
func (h *OrderConfirmationHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	var msg Message
	switch e := event.(type) {
	case *layaway.OrderCreatedEvent:
		msg = Message{
			StoreID:         e.StoreID(),
			OrderID:         e.OrderID,
			OrderNumber:     e.OrderNumber,
			Kind:            KindOrderOpened,
			CustomerName:    e.CustomerName,
			CustomerContact: e.CustomerContact,
			TotalAmount:     e.TotalAmount,
			DepositAmount:   e.DepositAmount,
			Balance:         e.BalanceRemaining,
		}
		msg.Body = fmt.Sprintf("Hi %s, your layaway order %s is confirmed. Total %s, paid %s, balance %s.",
			e.CustomerName, e.OrderNumber, e.TotalAmount.StringFixed(2), e.DepositAmount.StringFixed(2), e.BalanceRemaining.StringFixed(2))
	case *layaway.OrderCompletedEvent:
		msg = Message{
			StoreID:         e.StoreID(),
			OrderID:         e.OrderID,
			OrderNumber:     e.OrderNumber,
			Kind:            KindOrderCompleted,
			CustomerName:    e.CustomerName,
			CustomerContact: e.CustomerContact,
			TotalAmount:     e.TotalAmount,
			Balance:         decimal.Zero,
		}
		msg.Body = fmt.Sprintf("Hi %s, layaway order %s is fully paid (%s). It is ready for pickup.",
			e.CustomerName, e.OrderNumber, e.TotalAmount.StringFixed(2))
	default:
		return fmt.Errorf("unexpected event type: %s", event.EventType())
	}

	if msg.CustomerContact == "" {
		h.logger.Debug("no customer contact, confirmation skipped",
			zap.String("order_number", msg.OrderNumber),
			zap.String("kind", string(msg.Kind)),
		)
		return nil
	}
	if err := h.dispatcher.Dispatch(ctx, msg); err != nil {
		return fmt.Errorf("dispatch %s confirmation for %s: %w", msg.Kind, msg.OrderNumber, err)
	}
	return nil
}

var _ shared.EventHandler = (*OrderConfirmationHandler)(nil)
