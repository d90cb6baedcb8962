package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/layaway/internal/domain/shared"
	"github.com/erp/layaway/internal/domain/store"
	"github.com/erp/layaway/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// l1TTL bounds how stale a peer's local copy can be if an invalidation is lost
const l1TTL = 30 * time.Second

// NewRedisClient connects and pings Redis
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// TaxConfigCache is the cache handed to the tax config service plus its teardown
type TaxConfigCache interface {
	store.TaxConfigCache
	Close() error
}

// NewTaxConfigCache builds the configured backend. The redis backend is tiered with
// Pub/Sub invalidation; client must be non-nil for it.
func NewTaxConfigCache(cfg config.TaxCacheConfig, client *redis.Client, logger *zap.Logger) (TaxConfigCache, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch cfg.Backend {
	case "", "memory":
		return NewInMemoryTaxConfigCache(WithTTL(cfg.TTL), WithInMemoryLogger(logger)), nil
	case "redis":
		if client == nil {
			return nil, fmt.Errorf("tax config cache: redis backend needs a client")
		}
		l1 := NewInMemoryTaxConfigCache(WithTTL(min(cfg.TTL, l1TTL)), WithInMemoryLogger(logger))
		l2 := NewRedisTaxConfigCache(client, cfg.TTL, logger)
		return NewTieredTaxConfigCache(l1, l2, NewRedisInvalidator(client, "", logger), logger), nil
	default:
		return nil, fmt.Errorf("tax config cache: unknown backend %q", cfg.Backend)
	}
}

// NewIdempotencyStore returns a Redis store when a client is available, else an
// in-memory one. In-memory stores do not share state across instances, so a
// notification may be sent once per instance.
func NewIdempotencyStore(client *redis.Client, logger *zap.Logger) shared.IdempotencyStore {
	if client != nil {
		return NewRedisIdempotencyStore(client, "")
	}
	if logger != nil {
		logger.Warn("redis disabled, using in-memory idempotency store")
	}
	return NewInMemoryIdempotencyStore()
}
