package models

import (
	"time"

	"github.com/erp/layaway/internal/domain/store"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StoreTaxConfigModel is the persistence model for a store's tax configuration.
type StoreTaxConfigModel struct {
	StoreID   uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Rate      decimal.Decimal `gorm:"type:decimal(9,6);not null;default:0"`
	Inclusive bool            `gorm:"not null;default:true"`
	Label     string          `gorm:"type:varchar(50)"`
	UpdatedAt time.Time       `gorm:"not null"`
	UpdatedBy uuid.UUID       `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (StoreTaxConfigModel) TableName() string {
	return "store_tax_configs"
}

// ToDomain converts the persistence model to a domain TaxConfig.
func (m *StoreTaxConfigModel) ToDomain() *store.TaxConfig {
	return &store.TaxConfig{
		StoreID:   m.StoreID,
		Rate:      m.Rate,
		Inclusive: m.Inclusive,
		Label:     m.Label,
		UpdatedAt: m.UpdatedAt,
		UpdatedBy: m.UpdatedBy,
	}
}

// StoreTaxConfigModelFromDomain creates a new persistence model from a domain TaxConfig.
func StoreTaxConfigModelFromDomain(c *store.TaxConfig) *StoreTaxConfigModel {
	return &StoreTaxConfigModel{
		StoreID:   c.StoreID,
		Rate:      c.Rate,
		Inclusive: c.Inclusive,
		Label:     c.Label,
		UpdatedAt: c.UpdatedAt,
		UpdatedBy: c.UpdatedBy,
	}
}
