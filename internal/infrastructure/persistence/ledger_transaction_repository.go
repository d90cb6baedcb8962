package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/erp/layaway/internal/domain/identifier"
	"github.com/erp/layaway/internal/domain/ledger"
	"github.com/erp/layaway/internal/domain/shared"
	"github.com/erp/layaway/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormLedgerTransactionRepository implements ledger.Repository using GORM.
// Only notes and the void columns are ever updated after insert.
type GormLedgerTransactionRepository struct {
	db *gorm.DB
}

// NewGormLedgerTransactionRepository creates a new GormLedgerTransactionRepository
func NewGormLedgerTransactionRepository(db *gorm.DB) *GormLedgerTransactionRepository {
	return &GormLedgerTransactionRepository{db: db}
}

// Append inserts a transaction inside a savepoint and maps unique violations to
// the domain errors callers retry or report.
func (r *GormLedgerTransactionRepository) Append(ctx context.Context, tx *ledger.Transaction) error {
	model, err := models.LedgerTransactionModelFromDomain(tx)
	if err != nil {
		return err
	}
	err = r.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		return db.Create(model).Error
	})
	switch {
	case err == nil:
		return nil
	case isUniqueViolationOn(err, "refund_of"):
		return ledger.ErrAlreadyRefunded.WithDetail("original_id", model.RefundOfID.String())
	case isUniqueViolationOn(err, "transaction_number"):
		return identifier.ErrCollision
	default:
		return fmt.Errorf("append ledger transaction: %w", err)
	}
}

// FindByID loads a transaction of a store
func (r *GormLedgerTransactionRepository) FindByID(ctx context.Context, storeID, id uuid.UUID) (*ledger.Transaction, error) {
	var model models.LedgerTransactionModel
	err := r.db.WithContext(ctx).
		Where("id = ? AND store_id = ?", id, storeID).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ledger.ErrTransactionNotFound
		}
		return nil, err
	}
	return model.ToDomain()
}

// FindRefundOf returns the refund issued against originalID, or nil
func (r *GormLedgerTransactionRepository) FindRefundOf(ctx context.Context, storeID, originalID uuid.UUID) (*ledger.Transaction, error) {
	var rows []models.LedgerTransactionModel
	err := r.db.WithContext(ctx).
		Where("store_id = ? AND refund_of_id = ?", storeID, originalID).
		Limit(1).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0].ToDomain()
}

// SaveNotes writes the notes column
func (r *GormLedgerTransactionRepository) SaveNotes(ctx context.Context, tx *ledger.Transaction) error {
	result := r.db.WithContext(ctx).
		Model(&models.LedgerTransactionModel{}).
		Where("id = ? AND store_id = ?", tx.ID, tx.StoreID).
		Updates(map[string]any{
			"notes":      tx.Notes,
			"updated_at": tx.UpdatedAt,
		})
	if result.Error != nil {
		return fmt.Errorf("save transaction notes: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ledger.ErrTransactionNotFound
	}
	return nil
}

// MarkVoided writes the void marker once. A transaction voided concurrently by
// another caller reports ErrAlreadyVoided.
func (r *GormLedgerTransactionRepository) MarkVoided(ctx context.Context, tx *ledger.Transaction) error {
	if tx.Void == nil {
		return shared.ErrInvalidState.WithDetail("reason", "transaction has no void marker")
	}
	result := r.db.WithContext(ctx).
		Model(&models.LedgerTransactionModel{}).
		Where("id = ? AND store_id = ? AND voided_at IS NULL", tx.ID, tx.StoreID).
		Updates(map[string]any{
			"notes":       tx.Notes,
			"updated_at":  tx.UpdatedAt,
			"void_reason": tx.Void.Reason,
			"voided_at":   tx.Void.At,
			"voided_by":   tx.Void.By,
		})
	if result.Error != nil {
		return fmt.Errorf("void transaction: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ledger.ErrAlreadyVoided
	}
	return nil
}

// List returns a page of a store's transactions in the order they were logged
func (r *GormLedgerTransactionRepository) List(ctx context.Context, storeID uuid.UUID, filter ledger.Filter) ([]*ledger.Transaction, int64, error) {
	page, pageSize := shared.NormalizePage(filter.Page, filter.PageSize)

	scoped := func() *gorm.DB {
		query := r.db.WithContext(ctx).Model(&models.LedgerTransactionModel{}).Where("store_id = ?", storeID)
		if filter.Type != "" {
			query = query.Where("type = ?", filter.Type)
		}
		if filter.Reference != nil && !filter.Reference.IsZero() {
			query = query.Where("reference_type = ? AND reference_id = ?", filter.Reference.Type, filter.Reference.ID)
		}
		if filter.From != nil {
			query = query.Where("created_at >= ?", *filter.From)
		}
		if filter.To != nil {
			query = query.Where("created_at < ?", *filter.To)
		}
		if !filter.IncludeVoided {
			query = query.Where("voided_at IS NULL")
		}
		return query
	}

	var total int64
	if err := scoped().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.LedgerTransactionModel
	err := scoped().
		Order("created_at, transaction_number").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}

	txs := make([]*ledger.Transaction, 0, len(rows))
	for i := range rows {
		tx, err := rows[i].ToDomain()
		if err != nil {
			return nil, 0, fmt.Errorf("decode transaction %s: %w", rows[i].TransactionNumber, err)
		}
		txs = append(txs, tx)
	}
	return txs, total, nil
}

// Ensure GormLedgerTransactionRepository implements the interface
var _ ledger.Repository = (*GormLedgerTransactionRepository)(nil)
