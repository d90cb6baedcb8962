package layaway

import (
	"context"

	"github.com/erp/layaway/internal/domain/audit"
	"github.com/erp/layaway/internal/domain/identifier"
	"github.com/erp/layaway/internal/domain/layaway"
	"github.com/erp/layaway/internal/domain/ledger"
	"github.com/erp/layaway/internal/domain/shared"
	"github.com/erp/layaway/internal/domain/stock"
)

// TransactionScope defines the interface for executing operations within a transaction.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	// If the function succeeds, the transaction is committed.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to the ledger repositories within a transaction.
// All repositories returned share the same underlying database transaction.
//
// Identifiers is bound to the transaction as well, so probing sees rows inserted
// earlier in the same unit of work. Events writes to the outbox, so domain events
// are delivered only if the unit of work commits.
type TransactionalRepositories interface {
	Orders() layaway.OrderRepository
	Payments() layaway.PaymentRepository
	Transactions() ledger.Repository
	Audit() audit.Repository
	Stock() stock.Reserver
	Identifiers() identifier.Generator
	Events() shared.EventPublisher
}
