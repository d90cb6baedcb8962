package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/erp/layaway/internal/domain/identifier"
	"github.com/erp/layaway/internal/domain/layaway"
	"github.com/erp/layaway/internal/domain/shared"
	"github.com/erp/layaway/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormLayawayOrderRepository implements layaway.OrderRepository using GORM.
// Balance and status changes are single conditional UPDATE statements so the
// database arbitrates concurrent payments on the same order.
type GormLayawayOrderRepository struct {
	db *gorm.DB
}

// NewGormLayawayOrderRepository creates a new GormLayawayOrderRepository
func NewGormLayawayOrderRepository(db *gorm.DB) *GormLayawayOrderRepository {
	return &GormLayawayOrderRepository{db: db}
}

// FindByID loads an order and its items
func (r *GormLayawayOrderRepository) FindByID(ctx context.Context, storeID, id uuid.UUID) (*layaway.Order, error) {
	var model models.LayawayOrderModel
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at, id") }).
		Where("id = ? AND store_id = ?", id, storeID).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, layaway.ErrOrderNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Create inserts the order and its items. It runs in its own savepoint so a lost
// race on the order number leaves the enclosing transaction usable.
func (r *GormLayawayOrderRepository) Create(ctx context.Context, order *layaway.Order) error {
	model := models.LayawayOrderModelFromDomain(order)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(model).Error
	})
	if err == nil {
		return nil
	}
	if isUniqueViolationOn(err, "order_number") {
		return identifier.ErrCollision
	}
	return fmt.Errorf("create layaway order: %w", err)
}

// DeductBalance subtracts amount when the order is payable and covers it. A zero
// remaining balance completes the order in the same statement.
func (r *GormLayawayOrderRepository) DeductBalance(
	ctx context.Context,
	storeID, orderID uuid.UUID,
	amount decimal.Decimal,
	at time.Time,
) (*layaway.BalanceChange, error) {
	result := r.db.WithContext(ctx).
		Model(&models.LayawayOrderModel{}).
		Where("id = ? AND store_id = ? AND status IN ? AND balance_remaining >= ?",
			orderID, storeID, layaway.PayableStatuses(), amount).
		Updates(map[string]any{
			"balance_remaining": gorm.Expr("balance_remaining - ?", amount),
			"completed_at":      gorm.Expr("CASE WHEN balance_remaining = ? THEN ? ELSE completed_at END", amount, at),
			"status": gorm.Expr("CASE WHEN balance_remaining = ? THEN ? ELSE ? END",
				amount, layaway.OrderStatusCompleted, layaway.OrderStatusActive),
			"updated_at": at,
			"version":    gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		if isCheckViolation(result.Error) {
			return nil, shared.ErrConcurrencyConflict
		}
		return nil, fmt.Errorf("deduct order balance: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, shared.ErrConcurrencyConflict
	}
	return r.balanceState(ctx, storeID, orderID)
}

// RestoreBalance adds amount back as long as the balance stays within the order
// total. A completed order reopens; any other status is kept.
func (r *GormLayawayOrderRepository) RestoreBalance(
	ctx context.Context,
	storeID, orderID uuid.UUID,
	amount decimal.Decimal,
	at time.Time,
) (*layaway.BalanceChange, error) {
	result := r.db.WithContext(ctx).
		Model(&models.LayawayOrderModel{}).
		Where("id = ? AND store_id = ? AND balance_remaining + ? <= total_amount", orderID, storeID, amount).
		Updates(map[string]any{
			"balance_remaining": gorm.Expr("balance_remaining + ?", amount),
			"completed_at":      gorm.Expr("CASE WHEN status = ? THEN NULL ELSE completed_at END", layaway.OrderStatusCompleted),
			"status": gorm.Expr("CASE WHEN status = ? THEN ? ELSE status END",
				layaway.OrderStatusCompleted, layaway.OrderStatusActive),
			"updated_at": at,
			"version":    gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return nil, fmt.Errorf("restore order balance: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, shared.ErrConcurrencyConflict
	}
	return r.balanceState(ctx, storeID, orderID)
}

// Cancel moves a payable order to cancelled
func (r *GormLayawayOrderRepository) Cancel(ctx context.Context, storeID, orderID uuid.UUID, reason string, at time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&models.LayawayOrderModel{}).
		Where("id = ? AND store_id = ? AND status IN ?", orderID, storeID, layaway.PayableStatuses()).
		Updates(map[string]any{
			"status":        layaway.OrderStatusCancelled,
			"cancel_reason": reason,
			"cancelled_at":  at,
			"updated_at":    at,
			"version":       gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return fmt.Errorf("cancel layaway order: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// MarkOverdue flags up to limit active orders whose due date has passed. Each
// order is flipped by its own conditional update, so an order paid off between
// the scan and the update is left alone.
func (r *GormLayawayOrderRepository) MarkOverdue(ctx context.Context, now time.Time, limit int) ([]*layaway.Order, error) {
	if limit <= 0 {
		limit = shared.MaxPageSize
	}
	var candidates []models.LayawayOrderModel
	err := r.db.WithContext(ctx).
		Where("status = ? AND due_date IS NOT NULL AND due_date < ?", layaway.OrderStatusActive, now).
		Order("due_date").
		Limit(limit).
		Find(&candidates).Error
	if err != nil {
		return nil, fmt.Errorf("find overdue candidates: %w", err)
	}

	flagged := make([]*layaway.Order, 0, len(candidates))
	for i := range candidates {
		order := candidates[i].ToDomain()
		if err := order.MarkOverdue(now); err != nil {
			continue
		}
		result := r.db.WithContext(ctx).
			Model(&models.LayawayOrderModel{}).
			Where("id = ? AND status = ? AND due_date < ?", order.ID, layaway.OrderStatusActive, now).
			Updates(map[string]any{
				"status":     order.Status,
				"updated_at": order.UpdatedAt,
				"version":    gorm.Expr("version + 1"),
			})
		if result.Error != nil {
			return flagged, fmt.Errorf("mark order %s overdue: %w", order.ID, result.Error)
		}
		if result.RowsAffected == 1 {
			flagged = append(flagged, order)
		}
	}
	return flagged, nil
}

// List returns a page of a store's orders, newest first unless the filter
// names a whitelisted sort column
func (r *GormLayawayOrderRepository) List(ctx context.Context, storeID uuid.UUID, filter layaway.OrderFilter) ([]*layaway.Order, int64, error) {
	page, pageSize := shared.NormalizePage(filter.Page, filter.PageSize)

	scoped := func() *gorm.DB {
		query := r.db.WithContext(ctx).Model(&models.LayawayOrderModel{}).Where("store_id = ?", storeID)
		if filter.Status != "" {
			query = query.Where("status = ?", filter.Status)
		}
		return query
	}

	var total int64
	if err := scoped().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.LayawayOrderModel
	err := scoped().
		Preload("Items").
		Order(orderClause(filter.SortBy, filter.SortOrder, LayawayOrderSortFields, "created_at")).
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}

	orders := make([]*layaway.Order, len(rows))
	for i := range rows {
		orders[i] = rows[i].ToDomain()
	}
	return orders, total, nil
}

func (r *GormLayawayOrderRepository) balanceState(ctx context.Context, storeID, orderID uuid.UUID) (*layaway.BalanceChange, error) {
	var row models.LayawayOrderModel
	err := r.db.WithContext(ctx).
		Select("id", "order_number", "balance_remaining", "status", "version").
		Where("id = ? AND store_id = ?", orderID, storeID).
		First(&row).Error
	if err != nil {
		return nil, fmt.Errorf("read order balance: %w", err)
	}
	return &layaway.BalanceChange{
		OrderID:          row.ID,
		OrderNumber:      row.OrderNumber,
		BalanceRemaining: row.BalanceRemaining,
		Status:           row.Status,
		Version:          row.Version,
	}, nil
}

// Ensure GormLayawayOrderRepository implements the interface
var _ layaway.OrderRepository = (*GormLayawayOrderRepository)(nil)

// GormLayawayPaymentRepository implements layaway.PaymentRepository using GORM
type GormLayawayPaymentRepository struct {
	db *gorm.DB
}

// NewGormLayawayPaymentRepository creates a new GormLayawayPaymentRepository
func NewGormLayawayPaymentRepository(db *gorm.DB) *GormLayawayPaymentRepository {
	return &GormLayawayPaymentRepository{db: db}
}

// Create inserts a payment
func (r *GormLayawayPaymentRepository) Create(ctx context.Context, payment *layaway.Payment) error {
	if err := r.db.WithContext(ctx).Create(models.LayawayPaymentModelFromDomain(payment)).Error; err != nil {
		return fmt.Errorf("create layaway payment: %w", err)
	}
	return nil
}

// FindByOrder lists an order's payments in the order they were taken
func (r *GormLayawayPaymentRepository) FindByOrder(ctx context.Context, storeID, orderID uuid.UUID) ([]*layaway.Payment, error) {
	var rows []models.LayawayPaymentModel
	err := r.db.WithContext(ctx).
		Where("store_id = ? AND order_id = ?", storeID, orderID).
		Order("created_at, id").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	payments := make([]*layaway.Payment, len(rows))
	for i := range rows {
		payments[i] = rows[i].ToDomain()
	}
	return payments, nil
}

// Ensure GormLayawayPaymentRepository implements the interface
var _ layaway.PaymentRepository = (*GormLayawayPaymentRepository)(nil)
