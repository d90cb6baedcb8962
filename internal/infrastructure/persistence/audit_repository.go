package persistence

import (
	"context"

	"github.com/erp/layaway/internal/domain/audit"
	"github.com/erp/layaway/internal/domain/shared"
	"github.com/erp/layaway/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormAuditRepository implements audit.Repository using GORM
type GormAuditRepository struct {
	db *gorm.DB
}

// NewGormAuditRepository creates a new GormAuditRepository
func NewGormAuditRepository(db *gorm.DB) *GormAuditRepository {
	return &GormAuditRepository{db: db}
}

// Append inserts entries inside a savepoint. A failure leaves an enclosing
// transaction usable so the caller can decide whether to degrade or abort.
func (r *GormAuditRepository) Append(ctx context.Context, entries ...*audit.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	rows := make([]*models.AuditEntryModel, len(entries))
	for i, e := range entries {
		rows[i] = models.AuditEntryModelFromDomain(e)
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&rows).Error
	})
	if err != nil {
		return audit.ErrRecordFailed.WithDetail("cause", err.Error())
	}
	return nil
}

// History returns an entity's entries, newest first
func (r *GormAuditRepository) History(ctx context.Context, storeID, entityID uuid.UUID, limit, offset int) ([]*audit.Entry, error) {
	if limit <= 0 || limit > shared.MaxPageSize {
		limit = shared.MaxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	var rows []models.AuditEntryModel
	err := r.db.WithContext(ctx).
		Where("store_id = ? AND entity_id = ?", storeID, entityID).
		Order("performed_at DESC, id").
		Offset(offset).
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toAuditEntries(rows), nil
}

// Range returns a store's entries within [From, To), oldest first
func (r *GormAuditRepository) Range(ctx context.Context, q audit.Query) ([]*audit.Entry, error) {
	query := r.db.WithContext(ctx).Where("store_id = ?", q.StoreID)
	if q.EntityID != nil {
		query = query.Where("entity_id = ?", *q.EntityID)
	}
	if q.From != nil {
		query = query.Where("performed_at >= ?", *q.From)
	}
	if q.To != nil {
		query = query.Where("performed_at < ?", *q.To)
	}
	if q.Offset > 0 {
		query = query.Offset(q.Offset)
	}
	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}
	var rows []models.AuditEntryModel
	if err := query.Order("performed_at, id").Find(&rows).Error; err != nil {
		return nil, err
	}
	return toAuditEntries(rows), nil
}

func toAuditEntries(rows []models.AuditEntryModel) []*audit.Entry {
	entries := make([]*audit.Entry, len(rows))
	for i := range rows {
		entries[i] = rows[i].ToDomain()
	}
	return entries
}

// Ensure GormAuditRepository implements the interface
var _ audit.Repository = (*GormAuditRepository)(nil)
