package persistence

import (
	"context"
	"fmt"

	"github.com/erp/layaway/internal/domain/store"
	"github.com/erp/layaway/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormTaxConfigRepository implements store.TaxConfigRepository using GORM
type GormTaxConfigRepository struct {
	db *gorm.DB
}

// NewGormTaxConfigRepository creates a new GormTaxConfigRepository
func NewGormTaxConfigRepository(db *gorm.DB) *GormTaxConfigRepository {
	return &GormTaxConfigRepository{db: db}
}

// FindByStore returns the store's config, or nil when none was saved
func (r *GormTaxConfigRepository) FindByStore(ctx context.Context, storeID uuid.UUID) (*store.TaxConfig, error) {
	var rows []models.StoreTaxConfigModel
	if err := r.db.WithContext(ctx).Where("store_id = ?", storeID).Limit(1).Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0].ToDomain(), nil
}

// Save upserts the store's config
func (r *GormTaxConfigRepository) Save(ctx context.Context, cfg *store.TaxConfig) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "store_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"rate", "inclusive", "label", "updated_at", "updated_by"}),
		}).
		Create(models.StoreTaxConfigModelFromDomain(cfg)).Error
	if err != nil {
		return fmt.Errorf("save tax config: %w", err)
	}
	return nil
}

// Ensure GormTaxConfigRepository implements the interface
var _ store.TaxConfigRepository = (*GormTaxConfigRepository)(nil)
