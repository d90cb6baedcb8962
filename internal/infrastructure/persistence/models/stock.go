package models

import (
	"time"

	"github.com/erp/layaway/internal/domain/stock"
	"github.com/google/uuid"
)

// ProductStockModel is the on-hand counter of a product in a store. Only the stock
// reserver writes Stock.
type ProductStockModel struct {
	StoreID   uuid.UUID `gorm:"type:uuid;primaryKey"`
	ProductID uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name      string    `gorm:"type:varchar(200)"`
	Stock     int       `gorm:"not null;default:0;check:chk_product_stocks_stock,stock >= 0"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ProductStockModel) TableName() string {
	return "product_stocks"
}

// ToDomain converts the persistence model to a domain stock Level.
func (m *ProductStockModel) ToDomain() stock.Level {
	return stock.Level{StoreID: m.StoreID, ProductID: m.ProductID, Name: m.Name, OnHand: m.Stock}
}
