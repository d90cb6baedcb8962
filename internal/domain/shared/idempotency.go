package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers processed event IDs so at-least-once delivery does not
// notify twice
type IdempotencyStore interface {
	// MarkProcessed returns true if the event was newly marked, false if already seen
	MarkProcessed(ctx context.Context, eventID string, ttl time.Duration) (bool, error)
	IsProcessed(ctx context.Context, eventID string) (bool, error)
	Close() error
}

// DefaultIdempotencyTTL is how long processed event IDs are remembered
const DefaultIdempotencyTTL = 24 * time.Hour
