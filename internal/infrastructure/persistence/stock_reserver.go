package persistence

import (
	"context"
	"fmt"

	"github.com/erp/layaway/internal/domain/shared"
	"github.com/erp/layaway/internal/domain/stock"
	"github.com/erp/layaway/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStockReserver implements stock.Reserver with conditional decrements on
// product_stocks. Lines are applied in product order inside one savepoint, so a
// failing line rolls back the lines before it.
type GormStockReserver struct {
	db    *gorm.DB
	clock shared.Clock
}

// NewGormStockReserver creates a new GormStockReserver
func NewGormStockReserver(db *gorm.DB, clock shared.Clock) *GormStockReserver {
	if clock == nil {
		clock = shared.SystemClock{}
	}
	return &GormStockReserver{db: db, clock: clock}
}

// Reserve decrements every line or none of them
func (r *GormStockReserver) Reserve(ctx context.Context, storeID uuid.UUID, lines []stock.ReservationLine) error {
	if err := stock.Validate(lines); err != nil {
		return err
	}
	now := r.clock.Now()
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, line := range stock.Consolidate(lines) {
			result := tx.Model(&models.ProductStockModel{}).
				Where("store_id = ? AND product_id = ? AND stock >= ?", storeID, line.ProductID, line.Quantity).
				Updates(map[string]any{
					"stock":      gorm.Expr("stock - ?", line.Quantity),
					"updated_at": now,
				})
			if result.Error != nil {
				return fmt.Errorf("reserve stock for product %s: %w", line.ProductID, result.Error)
			}
			if result.RowsAffected == 0 {
				available, err := r.onHand(tx, storeID, line.ProductID)
				if err != nil {
					return err
				}
				return stock.NewUnavailableError(line.ProductID, line.Quantity, available)
			}
		}
		return nil
	})
}

// Release returns reserved quantities to stock
func (r *GormStockReserver) Release(ctx context.Context, storeID uuid.UUID, lines []stock.ReservationLine) error {
	if err := stock.Validate(lines); err != nil {
		return err
	}
	now := r.clock.Now()
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, line := range stock.Consolidate(lines) {
			err := tx.Model(&models.ProductStockModel{}).
				Where("store_id = ? AND product_id = ?", storeID, line.ProductID).
				Updates(map[string]any{
					"stock":      gorm.Expr("stock + ?", line.Quantity),
					"updated_at": now,
				}).Error
			if err != nil {
				return fmt.Errorf("release stock for product %s: %w", line.ProductID, err)
			}
		}
		return nil
	})
}

// SetLevel creates or overwrites a product's stock counter
func (r *GormStockReserver) SetLevel(ctx context.Context, level stock.Level) error {
	row := models.ProductStockModel{
		StoreID:   level.StoreID,
		ProductID: level.ProductID,
		Name:      level.Name,
		Stock:     level.OnHand,
		UpdatedAt: r.clock.Now(),
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "store_id"}, {Name: "product_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "stock", "updated_at"}),
		}).
		Create(&row).Error
}

// Levels returns the counters of the given products. Missing products are omitted.
func (r *GormStockReserver) Levels(ctx context.Context, storeID uuid.UUID, productIDs ...uuid.UUID) ([]stock.Level, error) {
	query := r.db.WithContext(ctx).Where("store_id = ?", storeID)
	if len(productIDs) > 0 {
		query = query.Where("product_id IN ?", productIDs)
	}
	var rows []models.ProductStockModel
	if err := query.Order("product_id").Find(&rows).Error; err != nil {
		return nil, err
	}
	levels := make([]stock.Level, len(rows))
	for i := range rows {
		levels[i] = rows[i].ToDomain()
	}
	return levels, nil
}

func (r *GormStockReserver) onHand(tx *gorm.DB, storeID, productID uuid.UUID) (int, error) {
	var rows []models.ProductStockModel
	if err := tx.Where("store_id = ? AND product_id = ?", storeID, productID).Limit(1).Find(&rows).Error; err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].Stock, nil
}

// Ensure GormStockReserver implements the interface
var _ stock.Reserver = (*GormStockReserver)(nil)
