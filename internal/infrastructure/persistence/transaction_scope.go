package persistence

import (
	"context"

	applayaway "github.com/erp/layaway/internal/application/layaway"
	"github.com/erp/layaway/internal/domain/audit"
	"github.com/erp/layaway/internal/domain/identifier"
	"github.com/erp/layaway/internal/domain/layaway"
	"github.com/erp/layaway/internal/domain/ledger"
	"github.com/erp/layaway/internal/domain/shared"
	"github.com/erp/layaway/internal/domain/stock"
	"gorm.io/gorm"
)

// TxEventWriter stores domain events with the transaction that produced them
type TxEventWriter interface {
	PublishWithTx(ctx context.Context, tx *gorm.DB, events ...shared.DomainEvent) error
}

// GormTransactionScope implements TransactionScope using GORM transactions.
// It provides atomic execution of multiple repository operations.
type GormTransactionScope struct {
	db           *gorm.DB
	clock        shared.Clock
	events       TxEventWriter
	generatorOpt []GeneratorOption
}

// ScopeOption configures a GormTransactionScope
type ScopeOption func(*GormTransactionScope)

// WithScopeClock sets the clock handed to the generator and the stock reserver
func WithScopeClock(clock shared.Clock) ScopeOption {
	return func(s *GormTransactionScope) {
		s.clock = clock
	}
}

// WithEventWriter routes domain events raised inside the scope to w
func WithEventWriter(w TxEventWriter) ScopeOption {
	return func(s *GormTransactionScope) {
		s.events = w
	}
}

// WithGeneratorOptions passes options to the identifier generator
func WithGeneratorOptions(opts ...GeneratorOption) ScopeOption {
	return func(s *GormTransactionScope) {
		s.generatorOpt = append(s.generatorOpt, opts...)
	}
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB, opts ...ScopeOption) *GormTransactionScope {
	s := &GormTransactionScope{db: db, clock: shared.SystemClock{}}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
// If the function succeeds, the transaction is committed.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos applayaway.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := &gormTransactionalRepositories{tx: tx, scope: s}
		return fn(repos)
	})
}

// gormTransactionalRepositories provides access to all repositories within a transaction.
type gormTransactionalRepositories struct {
	tx    *gorm.DB
	scope *GormTransactionScope
}

// Orders returns the order repository scoped to the current transaction.
func (r *gormTransactionalRepositories) Orders() layaway.OrderRepository {
	return NewGormLayawayOrderRepository(r.tx)
}

// Payments returns the payment repository scoped to the current transaction.
func (r *gormTransactionalRepositories) Payments() layaway.PaymentRepository {
	return NewGormLayawayPaymentRepository(r.tx)
}

// Transactions returns the transaction log scoped to the current transaction.
func (r *gormTransactionalRepositories) Transactions() ledger.Repository {
	return NewGormLedgerTransactionRepository(r.tx)
}

// Audit returns the audit repository scoped to the current transaction.
func (r *gormTransactionalRepositories) Audit() audit.Repository {
	return NewGormAuditRepository(r.tx)
}

// Stock returns the stock reserver scoped to the current transaction.
func (r *gormTransactionalRepositories) Stock() stock.Reserver {
	return NewGormStockReserver(r.tx, r.scope.clock)
}

// Identifiers returns a generator that scans through the current transaction.
func (r *gormTransactionalRepositories) Identifiers() identifier.Generator {
	return NewGormIdentifierGenerator(r.tx, r.scope.clock, r.scope.generatorOpt...)
}

// Events returns a publisher that writes to the outbox of the current transaction.
func (r *gormTransactionalRepositories) Events() shared.EventPublisher {
	return txPublisher{tx: r.tx, writer: r.scope.events}
}

type txPublisher struct {
	tx     *gorm.DB
	writer TxEventWriter
}

func (p txPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	if p.writer == nil || len(events) == 0 {
		return nil
	}
	return p.writer.PublishWithTx(ctx, p.tx, events...)
}

// Ensure GormTransactionScope implements TransactionScope
var _ applayaway.TransactionScope = (*GormTransactionScope)(nil)

// Ensure gormTransactionalRepositories implements TransactionalRepositories
var _ applayaway.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
