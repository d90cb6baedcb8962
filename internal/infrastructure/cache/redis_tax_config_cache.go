package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/erp/layaway/internal/domain/store"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const taxConfigKeyPrefix = "layaway:tax_config:"

// RedisTaxConfigCache caches tax configs in Redis so every instance shares them.
// Redis failures degrade to cache misses; the repository stays the source of truth.
type RedisTaxConfigCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisTaxConfigCache creates a cache on an existing client. The caller owns the client.
func NewRedisTaxConfigCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisTaxConfigCache {
	if ttl <= 0 {
		ttl = defaultTaxConfigTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisTaxConfigCache{client: client, ttl: ttl, logger: logger}
}

func taxConfigKey(storeID uuid.UUID) string {
	return taxConfigKeyPrefix + storeID.String()
}

// Get retrieves a config from Redis
func (c *RedisTaxConfigCache) Get(ctx context.Context, storeID uuid.UUID) (*store.TaxConfig, bool) {
	key := taxConfigKey(storeID)
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		c.logger.Warn("failed to read tax config from redis",
			zap.String("store_id", storeID.String()),
			zap.Error(err))
		return nil, false
	}

	var cfg store.TaxConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		c.logger.Error("failed to unmarshal cached tax config",
			zap.String("store_id", storeID.String()),
			zap.Error(err))
		_ = c.client.Del(ctx, key)
		return nil, false
	}
	return &cfg, true
}

// Set stores a config with the cache TTL
func (c *RedisTaxConfigCache) Set(ctx context.Context, cfg *store.TaxConfig) {
	if cfg == nil {
		return
	}
	data, err := json.Marshal(cfg)
	if err != nil {
		c.logger.Error("failed to marshal tax config", zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, taxConfigKey(cfg.StoreID), data, c.ttl).Err(); err != nil {
		c.logger.Warn("failed to cache tax config in redis",
			zap.String("store_id", cfg.StoreID.String()),
			zap.Error(err))
	}
}

// Invalidate deletes the store's key
func (c *RedisTaxConfigCache) Invalidate(ctx context.Context, storeID uuid.UUID) {
	if err := c.client.Del(ctx, taxConfigKey(storeID)).Err(); err != nil {
		c.logger.Error("failed to invalidate tax config in redis",
			zap.String("store_id", storeID.String()),
			zap.Error(err))
	}
}

var _ store.TaxConfigCache = (*RedisTaxConfigCache)(nil)
