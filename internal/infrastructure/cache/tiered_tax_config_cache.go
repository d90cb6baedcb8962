package cache

import (
	"context"
	"sync/atomic"

	"github.com/erp/layaway/internal/domain/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Invalidator broadcasts invalidations to other instances
type Invalidator interface {
	Publish(ctx context.Context, storeID uuid.UUID) error
	Subscribe(ctx context.Context, callback func(InvalidationMessage)) error
	Close() error
}

// TieredTaxConfigCache reads through a local L1 to a shared L2. Invalidate clears
// both tiers here and broadcasts so peers clear their L1.
type TieredTaxConfigCache struct {
	l1          *InMemoryTaxConfigCache
	l2          store.TaxConfigCache
	invalidator Invalidator
	logger      *zap.Logger

	l1Hits int64
	l2Hits int64
	misses int64
}

// NewTieredTaxConfigCache creates a tiered cache. invalidator may be nil.
func NewTieredTaxConfigCache(l1 *InMemoryTaxConfigCache, l2 store.TaxConfigCache, invalidator Invalidator, logger *zap.Logger) *TieredTaxConfigCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TieredTaxConfigCache{l1: l1, l2: l2, invalidator: invalidator, logger: logger}
}

// StartInvalidationSubscription drops L1 entries announced by peers. It blocks;
// run it in a goroutine.
func (c *TieredTaxConfigCache) StartInvalidationSubscription(ctx context.Context) error {
	if c.invalidator == nil {
		return nil
	}
	return c.invalidator.Subscribe(ctx, c.handleInvalidation)
}

func (c *TieredTaxConfigCache) handleInvalidation(msg InvalidationMessage) {
	c.l1.Invalidate(context.Background(), msg.StoreID)
	c.logger.Debug("tax config invalidated by peer",
		zap.String("store_id", msg.StoreID.String()),
		zap.String("origin", msg.Origin))
}

// Get tries L1, then L2, populating L1 on an L2 hit
func (c *TieredTaxConfigCache) Get(ctx context.Context, storeID uuid.UUID) (*store.TaxConfig, bool) {
	if cfg, ok := c.l1.Get(ctx, storeID); ok {
		atomic.AddInt64(&c.l1Hits, 1)
		return cfg, true
	}
	if cfg, ok := c.l2.Get(ctx, storeID); ok {
		atomic.AddInt64(&c.l2Hits, 1)
		c.l1.Set(ctx, cfg)
		return cfg, true
	}
	atomic.AddInt64(&c.misses, 1)
	return nil, false
}

// Set writes both tiers
func (c *TieredTaxConfigCache) Set(ctx context.Context, cfg *store.TaxConfig) {
	c.l2.Set(ctx, cfg)
	c.l1.Set(ctx, cfg)
}

// Invalidate clears both tiers and tells peers to clear theirs
func (c *TieredTaxConfigCache) Invalidate(ctx context.Context, storeID uuid.UUID) {
	c.l2.Invalidate(ctx, storeID)
	c.l1.Invalidate(ctx, storeID)
	if c.invalidator != nil {
		if err := c.invalidator.Publish(ctx, storeID); err != nil {
			c.logger.Warn("failed to publish tax config invalidation",
				zap.String("store_id", storeID.String()),
				zap.Error(err))
		}
	}
}

// GetStats returns L1 hits, L2 hits and misses
func (c *TieredTaxConfigCache) GetStats() (l1Hits, l2Hits, misses int64) {
	return atomic.LoadInt64(&c.l1Hits), atomic.LoadInt64(&c.l2Hits), atomic.LoadInt64(&c.misses)
}

// Close stops the L1 cleanup and the invalidation subscription
func (c *TieredTaxConfigCache) Close() error {
	if c.invalidator != nil {
		_ = c.invalidator.Close()
	}
	return c.l1.Close()
}

var _ store.TaxConfigCache = (*TieredTaxConfigCache)(nil)
