// Package store holds per-store settings consumed by the ledger.
package store

import (
	"context"
	"time"

	"github.com/erp/layaway/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrInvalidTaxRate is returned for rates outside [0, 1)
var ErrInvalidTaxRate = shared.NewDomainError("INVALID_TAX_RATE", "Tax rate must be between 0 and 1")

// TaxConfig is a store's tax setting. Rate is a fraction, e.g. 0.15 for 15%.
type TaxConfig struct {
	StoreID   uuid.UUID
	Rate      decimal.Decimal
	Inclusive bool
	Label     string
	UpdatedAt time.Time
	UpdatedBy uuid.UUID
}

// DefaultTaxConfig is used for stores that never configured tax
func DefaultTaxConfig(storeID uuid.UUID) *TaxConfig {
	return &TaxConfig{StoreID: storeID, Rate: decimal.Zero, Inclusive: true, Label: "Tax"}
}

// Validate checks the rate range
func (c *TaxConfig) Validate() error {
	if c.Rate.IsNegative() || c.Rate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return ErrInvalidTaxRate
	}
	return nil
}

// TaxPortion returns the tax contained in (inclusive) or added on top of (exclusive) a
// total, rounded to cents
func (c *TaxConfig) TaxPortion(total decimal.Decimal) decimal.Decimal {
	if c == nil || c.Rate.IsZero() {
		return decimal.Zero
	}
	if c.Inclusive {
		return total.Mul(c.Rate).Div(decimal.NewFromInt(1).Add(c.Rate)).Round(2)
	}
	return total.Mul(c.Rate).Round(2)
}

// TaxConfigRepository persists tax configs
type TaxConfigRepository interface {
	// FindByStore returns nil, nil when the store has no config
	FindByStore(ctx context.Context, storeID uuid.UUID) (*TaxConfig, error)
	Save(ctx context.Context, cfg *TaxConfig) error
}

// TaxConfigCache caches configs per store. Invalidate must be called whenever the
// underlying config changes.
type TaxConfigCache interface {
	Get(ctx context.Context, storeID uuid.UUID) (*TaxConfig, bool)
	Set(ctx context.Context, cfg *TaxConfig)
	Invalidate(ctx context.Context, storeID uuid.UUID)
}
