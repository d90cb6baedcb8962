package layaway

import (
	"time"

	"github.com/erp/layaway/internal/domain/layaway"
	"github.com/erp/layaway/internal/domain/ledger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateOrderItem is a requested order line
type CreateOrderItem struct {
	ProductID   uuid.UUID
	ProductName string
	Quantity    int
	UnitPrice   decimal.Decimal
}

// CreateOrderRequest opens an installment order
type CreateOrderRequest struct {
	StoreID         uuid.UUID
	ActorID         uuid.UUID
	CustomerID      *uuid.UUID
	CustomerName    string
	CustomerContact string
	Items           []CreateOrderItem
	DepositAmount   decimal.Decimal
	PaymentMethod   layaway.PaymentMethod
	DueDate         *time.Time
	Notes           string
}

// ApplyPaymentRequest applies an installment payment
type ApplyPaymentRequest struct {
	StoreID   uuid.UUID
	OrderID   uuid.UUID
	ActorID   uuid.UUID
	Amount    decimal.Decimal
	Method    layaway.PaymentMethod
	Reference string
	Notes     string
}

// CancelOrderRequest cancels an open order
type CancelOrderRequest struct {
	StoreID uuid.UUID
	OrderID uuid.UUID
	ActorID uuid.UUID
	Reason  string
}

// OrderListFilter narrows order listings
type OrderListFilter struct {
	Status    layaway.OrderStatus
	SortBy    string
	SortOrder string
	Page      int
	PageSize  int
}

// OrderItemResponse is an order line in API responses
type OrderItemResponse struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TotalPrice  decimal.Decimal `json:"total_price"`
}

// OrderResponse represents an installment order in API responses
type OrderResponse struct {
	ID               uuid.UUID           `json:"id"`
	StoreID          uuid.UUID           `json:"store_id"`
	OrderNumber      string              `json:"order_number"`
	CustomerID       *uuid.UUID          `json:"customer_id,omitempty"`
	CustomerName     string              `json:"customer_name"`
	CustomerContact  string              `json:"customer_contact,omitempty"`
	TotalAmount      decimal.Decimal     `json:"total_amount"`
	DepositAmount    decimal.Decimal     `json:"deposit_amount"`
	BalanceRemaining decimal.Decimal     `json:"balance_remaining"`
	PaidAmount       decimal.Decimal     `json:"paid_amount"`
	TaxAmount        decimal.Decimal     `json:"tax_amount"`
	Status           layaway.OrderStatus `json:"status"`
	DueDate          *time.Time          `json:"due_date,omitempty"`
	Notes            string              `json:"notes,omitempty"`
	Items            []OrderItemResponse `json:"items,omitempty"`
	CompletedAt      *time.Time          `json:"completed_at,omitempty"`
	CancelledAt      *time.Time          `json:"cancelled_at,omitempty"`
	CancelReason     string              `json:"cancel_reason,omitempty"`
	CreatedBy        uuid.UUID           `json:"created_by"`
	CreatedAt        time.Time           `json:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at"`
	Version          int                 `json:"version"`
}

// PaymentResponse represents a payment in API responses
type PaymentResponse struct {
	ID            uuid.UUID             `json:"id"`
	OrderID       uuid.UUID             `json:"order_id"`
	TransactionID uuid.UUID             `json:"transaction_id"`
	Amount        decimal.Decimal       `json:"amount"`
	Method        layaway.PaymentMethod `json:"method"`
	Reference     string                `json:"reference,omitempty"`
	Notes         string                `json:"notes,omitempty"`
	ProcessedBy   uuid.UUID             `json:"processed_by"`
	CreatedAt     time.Time             `json:"created_at"`
}

// OrderDetailResponse is an order with its payments
type OrderDetailResponse struct {
	OrderResponse
	Payments []PaymentResponse `json:"payments"`
}

// CreateOrderResult is returned by CreateInstallmentOrder
type CreateOrderResult struct {
	OrderID                  uuid.UUID           `json:"order_id"`
	OrderNumber              string              `json:"order_number"`
	BalanceRemaining         decimal.Decimal     `json:"balance_remaining"`
	Status                   layaway.OrderStatus `json:"status"`
	DepositTransactionID     uuid.UUID           `json:"deposit_transaction_id"`
	DepositTransactionNumber string              `json:"deposit_transaction_number"`
	Order                    OrderResponse       `json:"order"`
	Warnings                 []string            `json:"-"`
}

// ApplyPaymentResult is returned by ApplyInstallmentPayment
type ApplyPaymentResult struct {
	PaymentID         uuid.UUID           `json:"payment_id"`
	TransactionID     uuid.UUID           `json:"transaction_id"`
	TransactionNumber string              `json:"transaction_number"`
	NewBalance        decimal.Decimal     `json:"new_balance"`
	NewStatus         layaway.OrderStatus `json:"new_status"`
	Warnings          []string            `json:"-"`
}

// CancelOrderResult is returned by CancelOrder
type CancelOrderResult struct {
	Order    OrderResponse `json:"order"`
	Warnings []string      `json:"-"`
}

// ToOrderResponse converts a domain Order to its response form
func ToOrderResponse(o *layaway.Order) OrderResponse {
	items := make([]OrderItemResponse, len(o.Items))
	for i, it := range o.Items {
		items[i] = OrderItemResponse{
			ID:          it.ID,
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			TotalPrice:  it.TotalPrice,
		}
	}
	return OrderResponse{
		ID:               o.ID,
		StoreID:          o.StoreID,
		OrderNumber:      o.OrderNumber,
		CustomerID:       o.Customer.ID,
		CustomerName:     o.Customer.Name,
		CustomerContact:  o.Customer.Contact,
		TotalAmount:      o.TotalAmount,
		DepositAmount:    o.DepositAmount,
		BalanceRemaining: o.BalanceRemaining,
		PaidAmount:       o.PaidAmount(),
		TaxAmount:        o.TaxAmount,
		Status:           o.Status,
		DueDate:          o.DueDate,
		Notes:            o.Notes,
		Items:            items,
		CompletedAt:      o.CompletedAt,
		CancelledAt:      o.CancelledAt,
		CancelReason:     o.CancelReason,
		CreatedBy:        o.CreatedBy,
		CreatedAt:        o.CreatedAt,
		UpdatedAt:        o.UpdatedAt,
		Version:          o.Version,
	}
}

// ToPaymentResponse converts a domain Payment to its response form
func ToPaymentResponse(p *layaway.Payment) PaymentResponse {
	return PaymentResponse{
		ID:            p.ID,
		OrderID:       p.OrderID,
		TransactionID: p.TransactionID,
		Amount:        p.Amount,
		Method:        p.Method,
		Reference:     p.Reference,
		Notes:         p.Notes,
		ProcessedBy:   p.ProcessedBy,
		CreatedAt:     p.CreatedAt,
	}
}

// orderRef is the ledger reference of an order
func orderRef(o *layaway.Order) ledger.EntityRef {
	return ledger.EntityRef{ID: o.ID, Type: ledger.ReferenceTypeLayawayOrder}
}
