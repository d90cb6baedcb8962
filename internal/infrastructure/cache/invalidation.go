package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	defaultInvalidationChannel = "layaway:tax_config:invalidate"
	defaultCloseTimeout        = 5 * time.Second
)

// InvalidationMessage tells other instances to drop their local copy of a store's config
type InvalidationMessage struct {
	StoreID   uuid.UUID `json:"store_id"`
	Origin    string    `json:"origin"`
	Timestamp int64     `json:"timestamp"`
}

// RedisInvalidator broadcasts tax config invalidations over Redis Pub/Sub
type RedisInvalidator struct {
	client    *redis.Client
	channel   string
	origin    string
	logger    *zap.Logger
	cancelFn  context.CancelFunc
	doneCh    chan struct{}
	doneOnce  sync.Once
	mu        sync.Mutex
	isRunning bool
}

// NewRedisInvalidator creates an invalidator. origin identifies this instance so its
// own messages can be skipped.
func NewRedisInvalidator(client *redis.Client, channel string, logger *zap.Logger) *RedisInvalidator {
	if channel == "" {
		channel = defaultInvalidationChannel
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisInvalidator{
		client:  client,
		channel: channel,
		origin:  uuid.NewString(),
		logger:  logger,
		doneCh:  make(chan struct{}),
	}
}

// Origin returns the instance id stamped on published messages
func (i *RedisInvalidator) Origin() string {
	return i.origin
}

// Publish announces that a store's config changed
func (i *RedisInvalidator) Publish(ctx context.Context, storeID uuid.UUID) error {
	data, err := json.Marshal(InvalidationMessage{
		StoreID:   storeID,
		Origin:    i.origin,
		Timestamp: time.Now().UnixNano(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal invalidation: %w", err)
	}
	if err := i.client.Publish(ctx, i.channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish invalidation: %w", err)
	}
	return nil
}

// Subscribe blocks delivering messages from other instances to callback until ctx
// is cancelled or Close is called.
func (i *RedisInvalidator) Subscribe(ctx context.Context, callback func(InvalidationMessage)) error {
	i.mu.Lock()
	if i.isRunning {
		i.mu.Unlock()
		return fmt.Errorf("subscription already running")
	}
	i.isRunning = true
	subCtx, cancel := context.WithCancel(ctx)
	i.cancelFn = cancel
	i.mu.Unlock()

	defer func() {
		i.mu.Lock()
		i.isRunning = false
		i.mu.Unlock()
		i.markDone()
	}()

	pubsub := i.client.Subscribe(subCtx, i.channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(subCtx); err != nil {
		return fmt.Errorf("failed to subscribe to channel: %w", err)
	}
	i.logger.Info("subscribed to tax config invalidations", zap.String("channel", i.channel))

	ch := pubsub.Channel()
	for {
		select {
		case <-subCtx.Done():
			return subCtx.Err()
		case msg, ok := <-ch:
			if !ok {
				i.logger.Warn("tax config invalidation channel closed")
				return nil
			}
			var m InvalidationMessage
			if err := json.Unmarshal([]byte(msg.Payload), &m); err != nil {
				i.logger.Error("failed to unmarshal invalidation",
					zap.String("payload", msg.Payload),
					zap.Error(err))
				continue
			}
			if m.Origin == i.origin {
				continue
			}
			callback(m)
		}
	}
}

func (i *RedisInvalidator) markDone() {
	i.doneOnce.Do(func() {
		close(i.doneCh)
	})
}

// Close stops a running subscription and waits for it to return
func (i *RedisInvalidator) Close() error {
	i.mu.Lock()
	cancelFn := i.cancelFn
	i.mu.Unlock()

	if cancelFn != nil {
		cancelFn()
		select {
		case <-i.doneCh:
		case <-time.After(defaultCloseTimeout):
			i.logger.Warn("timeout waiting for invalidation subscription to stop")
		}
	}
	return nil
}
