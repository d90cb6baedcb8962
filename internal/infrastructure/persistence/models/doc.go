// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer free from ORM
// concerns; each model carries ToDomain/FromDomain mappers used by the repositories.
//
// Structure:
// - base.go: shared persistence fields
// - layaway.go: installment orders, their items and payments
// - ledger.go: the store-wide transaction log
// - audit.go: audit trail entries
// - stock.go: product stock counters
// - store.go: per-store tax configuration
// - outbox.go: outbox pattern model for event delivery
package models

// All returns every model, in dependency order, for AutoMigrate in tests
func All() []any {
	return []any{
		&LayawayOrderModel{},
		&LayawayOrderItemModel{},
		&LayawayPaymentModel{},
		&LedgerTransactionModel{},
		&AuditEntryModel{},
		&ProductStockModel{},
		&StoreTaxConfigModel{},
		&OutboxEntryModel{},
	}
}
