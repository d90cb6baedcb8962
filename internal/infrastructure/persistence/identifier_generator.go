package persistence

import (
	"context"
	"fmt"
	"hash/fnv"

	"github.com/erp/layaway/internal/domain/identifier"
	"github.com/erp/layaway/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// scanWindow is how many consecutive candidates are checked per query
const scanWindow = 16

// maxScanWindows bounds the upward scan before giving up on a hint
const maxScanWindows = 64

type numberColumn struct {
	table  string
	column string
}

// namespaceColumns maps a namespace to the column that holds its identifiers.
// Refunds share the transaction log and therefore its uniqueness constraint.
var namespaceColumns = map[string]numberColumn{
	identifier.OrderNamespace.Name:       {table: "layaway_orders", column: "order_number"},
	identifier.TransactionNamespace.Name: {table: "ledger_transactions", column: "transaction_number"},
	identifier.RefundNamespace.Name:      {table: "ledger_transactions", column: "transaction_number"},
}

// GormIdentifierGenerator proposes identifiers by counting the day's rows and
// probing upward for a free sequence. On postgres it first takes a transaction
// scoped advisory lock per store and namespace, which serialises allocation among
// transactions that run the generator on their own handle. The unique constraint
// remains the authority: a lost race still surfaces as identifier.ErrCollision at
// insert time.
type GormIdentifierGenerator struct {
	db            *gorm.DB
	clock         shared.Clock
	advisoryLocks bool
}

// GeneratorOption configures a GormIdentifierGenerator
type GeneratorOption func(*GormIdentifierGenerator)

// WithAdvisoryLocks toggles the postgres advisory lock
func WithAdvisoryLocks(enabled bool) GeneratorOption {
	return func(g *GormIdentifierGenerator) {
		g.advisoryLocks = enabled
	}
}

// NewGormIdentifierGenerator creates a generator reading through db
func NewGormIdentifierGenerator(db *gorm.DB, clock shared.Clock, opts ...GeneratorOption) *GormIdentifierGenerator {
	if clock == nil {
		clock = shared.SystemClock{}
	}
	g := &GormIdentifierGenerator{db: db, clock: clock, advisoryLocks: true}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate returns the first free identifier of the day at or above the day's row count
func (g *GormIdentifierGenerator) Generate(ctx context.Context, storeID uuid.UUID, ns identifier.Namespace) (string, error) {
	if err := ns.Validate(); err != nil {
		return "", err
	}
	target, ok := namespaceColumns[ns.Name]
	if !ok {
		return "", fmt.Errorf("no storage registered for identifier namespace %q", ns.Name)
	}

	db := g.db.WithContext(ctx)
	if g.advisoryLocks && db.Dialector.Name() == "postgres" {
		if err := db.Exec("SELECT pg_advisory_xact_lock(?)", advisoryKey(storeID, ns)).Error; err != nil {
			return "", fmt.Errorf("lock identifier namespace: %w", err)
		}
	}

	day := g.clock.Now()
	dayPrefix := ns.DayPrefix(day)

	var count int64
	err := db.Table(target.table).
		Where("store_id = ? AND "+target.column+" LIKE ?", storeID, dayPrefix+"%").
		Count(&count).Error
	if err != nil {
		return "", fmt.Errorf("count %s identifiers: %w", ns.Name, err)
	}

	seq := int(count) + 1
	for w := 0; w < maxScanWindows; w++ {
		candidates := make([]string, scanWindow)
		for i := range candidates {
			candidates[i] = ns.Format(day, seq+i)
		}
		var taken []string
		err := db.Table(target.table).
			Where("store_id = ? AND "+target.column+" IN ?", storeID, candidates).
			Pluck(target.column, &taken).Error
		if err != nil {
			return "", fmt.Errorf("scan %s identifiers: %w", ns.Name, err)
		}
		used := make(map[string]struct{}, len(taken))
		for _, t := range taken {
			used[t] = struct{}{}
		}
		for _, c := range candidates {
			if _, exists := used[c]; !exists {
				return c, nil
			}
		}
		seq += scanWindow
	}
	return "", identifier.ErrCollision.WithDetail("namespace", ns.Name)
}

// advisoryKey folds store and namespace into the bigint key space of pg advisory locks
func advisoryKey(storeID uuid.UUID, ns identifier.Namespace) int64 {
	h := fnv.New64a()
	_, _ = h.Write(storeID[:])
	_, _ = h.Write([]byte(ns.Name))
	return int64(h.Sum64())
}

// Ensure GormIdentifierGenerator implements the interface
var _ identifier.Generator = (*GormIdentifierGenerator)(nil)
