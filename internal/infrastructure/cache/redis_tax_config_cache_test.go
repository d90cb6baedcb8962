package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/erp/layaway/internal/infrastructure/config"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func redisClientForTest(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("redis unavailable: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRedisTaxConfigCache(t *testing.T) {
	client := redisClientForTest(t)
	ctx := context.Background()
	c := NewRedisTaxConfigCache(client, time.Minute, nil)
	storeID := uuid.New()
	t.Cleanup(func() { c.Invalidate(ctx, storeID) })

	_, ok := c.Get(ctx, storeID)
	assert.False(t, ok)

	c.Set(ctx, newTestConfig(storeID, "0.15"))
	got, ok := c.Get(ctx, storeID)
	require.True(t, ok)
	assert.Equal(t, storeID, got.StoreID)
	assert.Equal(t, "0.15", got.Rate.String())

	ttl, err := client.TTL(ctx, taxConfigKey(storeID)).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	c.Invalidate(ctx, storeID)
	_, ok = c.Get(ctx, storeID)
	assert.False(t, ok)

	t.Run("corrupt entry is dropped", func(t *testing.T) {
		require.NoError(t, client.Set(ctx, taxConfigKey(storeID), "{not json", time.Minute).Err())
		_, ok := c.Get(ctx, storeID)
		assert.False(t, ok)
		n, err := client.Exists(ctx, taxConfigKey(storeID)).Result()
		require.NoError(t, err)
		assert.Zero(t, n)
	})
}

func TestRedisIdempotencyStore(t *testing.T) {
	client := redisClientForTest(t)
	ctx := context.Background()
	s := NewRedisIdempotencyStore(client, "test:idempotency:"+uuid.NewString()+":")

	isNew, err := s.MarkProcessed(ctx, "evt", time.Minute)
	require.NoError(t, err)
	assert.True(t, isNew)

	isNew, err = s.MarkProcessed(ctx, "evt", time.Minute)
	require.NoError(t, err)
	assert.False(t, isNew)

	processed, err := s.IsProcessed(ctx, "evt")
	require.NoError(t, err)
	assert.True(t, processed)
}

func TestNewTaxConfigCache_Backends(t *testing.T) {
	c, err := NewTaxConfigCache(configFor("memory"), nil, nil)
	require.NoError(t, err)
	_, isMemory := c.(*InMemoryTaxConfigCache)
	assert.True(t, isMemory)
	require.NoError(t, c.Close())

	_, err = NewTaxConfigCache(configFor("redis"), nil, nil)
	assert.Error(t, err, "redis backend without a client")

	_, err = NewTaxConfigCache(configFor("memcached"), nil, nil)
	assert.Error(t, err)
}

func configFor(backend string) config.TaxCacheConfig {
	return config.TaxCacheConfig{TTL: time.Minute, Backend: backend}
}
