package handler

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateOrderItemInput is an order line in the create request
// @Description Order line for a new installment order
type CreateOrderItemInput struct {
	ProductID   string          `json:"product_id" binding:"required,uuid" example:"550e8400-e29b-41d4-a716-446655440002"`
	ProductName string          `json:"product_name" binding:"max=200" example:"Oak dining table"`
	Quantity    int             `json:"quantity" example:"1"`
	UnitPrice   decimal.Decimal `json:"unit_price" swaggertype:"string" example:"450.00"`
}

// CreateOrderRequest opens an installment order
// @Description Request body for creating an installment order
type CreateOrderRequest struct {
	CustomerID      *string                `json:"customer_id" binding:"omitempty,uuid" example:"550e8400-e29b-41d4-a716-446655440001"`
	CustomerName    string                 `json:"customer_name" binding:"max=200" example:"Jane Doe"`
	CustomerContact string                 `json:"customer_contact" binding:"max=200" example:"+61 400 000 000"`
	Items           []CreateOrderItemInput `json:"items" binding:"dive"`
	DepositAmount   decimal.Decimal        `json:"deposit_amount" swaggertype:"string" example:"100.00"`
	PaymentMethod   string                 `json:"payment_method" example:"cash"`
	DueDate         *time.Time             `json:"due_date" example:"2026-12-01T00:00:00Z"`
	Notes           string                 `json:"notes" binding:"max=1000" example:"Hold until December"`
}

// ApplyPaymentRequest applies an installment payment
// @Description Request body for an installment payment
type ApplyPaymentRequest struct {
	Amount    decimal.Decimal `json:"amount" swaggertype:"string" example:"50.00"`
	Method    string          `json:"method" example:"card"`
	Reference string          `json:"reference" binding:"max=100" example:"POS-1182"`
	Notes     string          `json:"notes" binding:"max=1000"`
}

// CancelOrderRequest cancels an open order
// @Description Request body for cancelling an installment order
type CancelOrderRequest struct {
	Reason string `json:"reason" binding:"max=500" example:"Customer changed their mind"`
}
