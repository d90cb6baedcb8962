package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/erp/layaway/internal/domain/shared"
	"github.com/redis/go-redis/v9"
)

// TokenBlacklist holds the JTIs of revoked access tokens. The identity provider
// writes into the same keyspace when a session is ended.
type TokenBlacklist interface {
	// AddToBlacklist revokes jti until ttl elapses
	AddToBlacklist(ctx context.Context, jti string, ttl time.Duration) error
	// IsBlacklisted checks if jti has been revoked
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
}

// DefaultBlacklistKeyPrefix is the Redis key prefix for revoked JTIs
const DefaultBlacklistKeyPrefix = "token:blacklist:jti:"

// RedisTokenBlacklist implements TokenBlacklist using Redis
type RedisTokenBlacklist struct {
	client    redis.UniversalClient
	keyPrefix string
}

// NewRedisTokenBlacklist creates a token blacklist over an existing Redis client
func NewRedisTokenBlacklist(client redis.UniversalClient, keyPrefix string) *RedisTokenBlacklist {
	if keyPrefix == "" {
		keyPrefix = DefaultBlacklistKeyPrefix
	}
	return &RedisTokenBlacklist{client: client, keyPrefix: keyPrefix}
}

// AddToBlacklist adds a token's JTI to the blacklist
func (b *RedisTokenBlacklist) AddToBlacklist(ctx context.Context, jti string, ttl time.Duration) error {
	if err := b.client.Set(ctx, b.keyPrefix+jti, "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to add token to blacklist: %w", err)
	}
	return nil
}

// IsBlacklisted checks if a token's JTI is in the blacklist
func (b *RedisTokenBlacklist) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	exists, err := b.client.Exists(ctx, b.keyPrefix+jti).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check token blacklist: %w", err)
	}
	return exists > 0, nil
}

var _ TokenBlacklist = (*RedisTokenBlacklist)(nil)

// InMemoryTokenBlacklist keeps revoked JTIs in process memory.
// It is not shared between instances.
type InMemoryTokenBlacklist struct {
	mu      sync.Mutex
	expires map[string]time.Time
	clock   shared.Clock
}

// NewInMemoryTokenBlacklist creates a new in-memory token blacklist
func NewInMemoryTokenBlacklist(clock shared.Clock) *InMemoryTokenBlacklist {
	if clock == nil {
		clock = shared.SystemClock{}
	}
	return &InMemoryTokenBlacklist{expires: make(map[string]time.Time), clock: clock}
}

// AddToBlacklist adds a token's JTI to the in-memory blacklist
func (b *InMemoryTokenBlacklist) AddToBlacklist(_ context.Context, jti string, ttl time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.expires[jti] = b.clock.Now().Add(ttl)
	return nil
}

// IsBlacklisted checks if a token's JTI is blacklisted and not yet expired
func (b *InMemoryTokenBlacklist) IsBlacklisted(_ context.Context, jti string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	expiration, exists := b.expires[jti]
	if !exists {
		return false, nil
	}
	if b.clock.Now().After(expiration) {
		delete(b.expires, jti)
		return false, nil
	}
	return true, nil
}

var _ TokenBlacklist = (*InMemoryTokenBlacklist)(nil)
