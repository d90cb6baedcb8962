package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/erp/layaway/internal/domain/shared"
	"github.com/erp/layaway/internal/domain/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultCleanupInterval = 30 * time.Second
	defaultTaxConfigTTL    = 5 * time.Minute
)

// cacheEntry wraps a cached value with expiration time
type cacheEntry struct {
	value     store.TaxConfig
	expiresAt time.Time
}

// InMemoryTaxConfigCache caches tax configs per store in process memory.
// It is used alone on single-instance deployments and as L1 in front of Redis.
type InMemoryTaxConfigCache struct {
	entries sync.Map // map[uuid.UUID]*cacheEntry
	ttl     time.Duration
	clock   shared.Clock
	logger  *zap.Logger
	stopCh  chan struct{}
	stopped int32

	hits   int64
	misses int64
}

// InMemoryOption configures an InMemoryTaxConfigCache
type InMemoryOption func(*InMemoryTaxConfigCache)

// WithTTL sets how long entries live
func WithTTL(ttl time.Duration) InMemoryOption {
	return func(c *InMemoryTaxConfigCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithInMemoryLogger sets the logger for the cache
func WithInMemoryLogger(logger *zap.Logger) InMemoryOption {
	return func(c *InMemoryTaxConfigCache) {
		c.logger = logger
	}
}

// WithClock sets the time source used for expiry
func WithClock(clock shared.Clock) InMemoryOption {
	return func(c *InMemoryTaxConfigCache) {
		c.clock = clock
	}
}

// NewInMemoryTaxConfigCache creates the cache and starts its cleanup goroutine.
// Call Close to stop it.
func NewInMemoryTaxConfigCache(opts ...InMemoryOption) *InMemoryTaxConfigCache {
	c := &InMemoryTaxConfigCache{
		ttl:    defaultTaxConfigTTL,
		clock:  shared.SystemClock{},
		logger: zap.NewNop(),
		stopCh: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}

	go c.cleanupExpired()

	return c
}

// Get returns a copy of the cached config
func (c *InMemoryTaxConfigCache) Get(_ context.Context, storeID uuid.UUID) (*store.TaxConfig, bool) {
	if value, ok := c.entries.Load(storeID); ok {
		entry := value.(*cacheEntry)
		if c.clock.Now().Before(entry.expiresAt) {
			atomic.AddInt64(&c.hits, 1)
			cfg := entry.value
			return &cfg, true
		}
		c.entries.Delete(storeID)
	}
	atomic.AddInt64(&c.misses, 1)
	c.logger.Debug("tax config cache miss", zap.String("store_id", storeID.String()))
	return nil, false
}

// Set stores a copy of cfg
func (c *InMemoryTaxConfigCache) Set(_ context.Context, cfg *store.TaxConfig) {
	if cfg == nil {
		return
	}
	c.entries.Store(cfg.StoreID, &cacheEntry{value: *cfg, expiresAt: c.clock.Now().Add(c.ttl)})
}

// Invalidate drops the store's entry
func (c *InMemoryTaxConfigCache) Invalidate(_ context.Context, storeID uuid.UUID) {
	c.entries.Delete(storeID)
	c.logger.Debug("tax config cache invalidated", zap.String("store_id", storeID.String()))
}

// InvalidateAll drops every entry
func (c *InMemoryTaxConfigCache) InvalidateAll() {
	c.entries.Range(func(key, _ any) bool {
		c.entries.Delete(key)
		return true
	})
}

// Close stops the cleanup goroutine. Safe to call more than once.
func (c *InMemoryTaxConfigCache) Close() error {
	if atomic.CompareAndSwapInt32(&c.stopped, 0, 1) {
		close(c.stopCh)
	}
	return nil
}

// GetStats returns hit and miss counts
func (c *InMemoryTaxConfigCache) GetStats() (hits, misses int64) {
	return atomic.LoadInt64(&c.hits), atomic.LoadInt64(&c.misses)
}

// Count returns the number of entries, expired ones included until cleanup runs
func (c *InMemoryTaxConfigCache) Count() int {
	n := 0
	c.entries.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

func (c *InMemoryTaxConfigCache) cleanupExpired() {
	ticker := time.NewTicker(defaultCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			func() {
				defer func() {
					if r := recover(); r != nil {
						c.logger.Error("panic in tax config cache cleanup", zap.Any("panic", r))
					}
				}()
				c.doCleanup()
			}()
		}
	}
}

func (c *InMemoryTaxConfigCache) doCleanup() {
	now := c.clock.Now()
	removed := 0
	c.entries.Range(func(key, value any) bool {
		if !now.Before(value.(*cacheEntry).expiresAt) {
			c.entries.Delete(key)
			removed++
		}
		return true
	})
	if removed > 0 {
		c.logger.Debug("cleaned up expired tax config entries", zap.Int("removed", removed))
	}
}

var _ store.TaxConfigCache = (*InMemoryTaxConfigCache)(nil)
