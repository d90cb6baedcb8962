package models

import (
	"time"

	"github.com/erp/layaway/internal/domain/layaway"
	"github.com/erp/layaway/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LayawayOrderModel is the persistence model for the installment Order aggregate root.
type LayawayOrderModel struct {
	AggregateModel
	StoreID          uuid.UUID               `gorm:"type:uuid;not null;uniqueIndex:uq_layaway_orders_store_order_number,priority:1;index:idx_layaway_orders_store_status,priority:1"`
	CreatedBy        uuid.UUID               `gorm:"type:uuid;not null"`
	OrderNumber      string                  `gorm:"type:varchar(50);not null;uniqueIndex:uq_layaway_orders_store_order_number,priority:2"`
	CustomerID       *uuid.UUID              `gorm:"type:uuid;index"`
	CustomerName     string                  `gorm:"type:varchar(200);not null"`
	CustomerContact  string                  `gorm:"type:varchar(200)"`
	TotalAmount      decimal.Decimal         `gorm:"type:decimal(18,4);not null;check:chk_layaway_orders_deposit,deposit_amount >= 0 AND deposit_amount <= total_amount"`
	DepositAmount    decimal.Decimal         `gorm:"type:decimal(18,4);not null;default:0"`
	BalanceRemaining decimal.Decimal         `gorm:"type:decimal(18,4);not null;check:chk_layaway_orders_balance,balance_remaining >= 0 AND balance_remaining <= total_amount"`
	TaxAmount        decimal.Decimal         `gorm:"type:decimal(18,4);not null;default:0"`
	Status           layaway.OrderStatus     `gorm:"type:varchar(20);not null;default:'active';index:idx_layaway_orders_store_status,priority:2"`
	DueDate          *time.Time              `gorm:"index"`
	Notes            string                  `gorm:"type:text"`
	Items            []LayawayOrderItemModel `gorm:"foreignKey:OrderID;references:ID"`
	CompletedAt      *time.Time
	CancelledAt      *time.Time
	CancelReason     string `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (LayawayOrderModel) TableName() string {
	return "layaway_orders"
}

// ToDomain converts the persistence model to a domain Order.
func (m *LayawayOrderModel) ToDomain() *layaway.Order {
	order := &layaway.Order{
		OrderNumber: m.OrderNumber,
		Customer: layaway.Customer{
			ID:      m.CustomerID,
			Name:    m.CustomerName,
			Contact: m.CustomerContact,
		},
		TotalAmount:      m.TotalAmount,
		DepositAmount:    m.DepositAmount,
		BalanceRemaining: m.BalanceRemaining,
		TaxAmount:        m.TaxAmount,
		Status:           m.Status,
		DueDate:          m.DueDate,
		Notes:            m.Notes,
		CompletedAt:      m.CompletedAt,
		CancelledAt:      m.CancelledAt,
		CancelReason:     m.CancelReason,
		Items:            make([]layaway.OrderItem, 0, len(m.Items)),
	}
	m.PopulateStoreAggregateRoot(&order.StoreAggregateRoot, m.StoreID, m.CreatedBy)
	for i := range m.Items {
		order.Items = append(order.Items, m.Items[i].ToDomain())
	}
	return order
}

// FromDomain populates the persistence model from a domain Order.
func (m *LayawayOrderModel) FromDomain(o *layaway.Order) {
	m.FromDomainAggregateRoot(o.BaseAggregateRoot)
	m.StoreID = o.StoreID
	m.CreatedBy = o.CreatedBy
	m.OrderNumber = o.OrderNumber
	m.CustomerID = o.Customer.ID
	m.CustomerName = o.Customer.Name
	m.CustomerContact = o.Customer.Contact
	m.TotalAmount = o.TotalAmount
	m.DepositAmount = o.DepositAmount
	m.BalanceRemaining = o.BalanceRemaining
	m.TaxAmount = o.TaxAmount
	m.Status = o.Status
	m.DueDate = o.DueDate
	m.Notes = o.Notes
	m.CompletedAt = o.CompletedAt
	m.CancelledAt = o.CancelledAt
	m.CancelReason = o.CancelReason
	m.Items = make([]LayawayOrderItemModel, len(o.Items))
	for i := range o.Items {
		m.Items[i].FromDomain(&o.Items[i], o.StoreID, o.CreatedAt)
	}
}

// LayawayOrderModelFromDomain creates a new persistence model from a domain Order.
func LayawayOrderModelFromDomain(o *layaway.Order) *LayawayOrderModel {
	m := &LayawayOrderModel{}
	m.FromDomain(o)
	return m
}

// LayawayOrderItemModel is the persistence model for an order line.
type LayawayOrderItemModel struct {
	BaseModel
	StoreID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	OrderID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductName string          `gorm:"type:varchar(200)"`
	Quantity    int             `gorm:"not null;check:chk_layaway_order_items_quantity,quantity > 0"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	TotalPrice  decimal.Decimal `gorm:"type:decimal(18,4);not null"`
}

// TableName returns the table name for GORM
func (LayawayOrderItemModel) TableName() string {
	return "layaway_order_items"
}

// ToDomain converts the persistence model to a domain OrderItem.
func (m *LayawayOrderItemModel) ToDomain() layaway.OrderItem {
	return layaway.OrderItem{
		ID:          m.ID,
		OrderID:     m.OrderID,
		ProductID:   m.ProductID,
		ProductName: m.ProductName,
		Quantity:    m.Quantity,
		UnitPrice:   m.UnitPrice,
		TotalPrice:  m.TotalPrice,
	}
}

// FromDomain populates the persistence model from a domain OrderItem.
func (m *LayawayOrderItemModel) FromDomain(it *layaway.OrderItem, storeID uuid.UUID, at time.Time) {
	m.ID = it.ID
	m.CreatedAt = at
	m.UpdatedAt = at
	m.StoreID = storeID
	m.OrderID = it.OrderID
	m.ProductID = it.ProductID
	m.ProductName = it.ProductName
	m.Quantity = it.Quantity
	m.UnitPrice = it.UnitPrice
	m.TotalPrice = it.TotalPrice
}

// LayawayPaymentModel is the persistence model for a Payment.
type LayawayPaymentModel struct {
	BaseModel
	StoreID       uuid.UUID             `gorm:"type:uuid;not null;index:idx_layaway_payments_store_order,priority:1"`
	OrderID       uuid.UUID             `gorm:"type:uuid;not null;index:idx_layaway_payments_store_order,priority:2"`
	TransactionID uuid.UUID             `gorm:"type:uuid;not null;index"`
	Amount        decimal.Decimal       `gorm:"type:decimal(18,4);not null;check:chk_layaway_payments_amount,amount > 0"`
	Method        layaway.PaymentMethod `gorm:"type:varchar(20);not null"`
	Reference     string                `gorm:"type:varchar(200)"`
	Notes         string                `gorm:"type:text"`
	ProcessedBy   uuid.UUID             `gorm:"type:uuid;not null"`
}

// TableName returns the table name for GORM
func (LayawayPaymentModel) TableName() string {
	return "layaway_payments"
}

// ToDomain converts the persistence model to a domain Payment.
func (m *LayawayPaymentModel) ToDomain() *layaway.Payment {
	return &layaway.Payment{
		BaseEntity:    shared.BaseEntity{ID: m.ID, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		StoreID:       m.StoreID,
		OrderID:       m.OrderID,
		TransactionID: m.TransactionID,
		Amount:        m.Amount,
		Method:        m.Method,
		Reference:     m.Reference,
		Notes:         m.Notes,
		ProcessedBy:   m.ProcessedBy,
	}
}

// LayawayPaymentModelFromDomain creates a new persistence model from a domain Payment.
func LayawayPaymentModelFromDomain(p *layaway.Payment) *LayawayPaymentModel {
	m := &LayawayPaymentModel{
		StoreID:       p.StoreID,
		OrderID:       p.OrderID,
		TransactionID: p.TransactionID,
		Amount:        p.Amount,
		Method:        p.Method,
		Reference:     p.Reference,
		Notes:         p.Notes,
		ProcessedBy:   p.ProcessedBy,
	}
	m.FromDomainBaseEntity(p.BaseEntity)
	return m
}
