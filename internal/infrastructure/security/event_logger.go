package security

import (
	"sync"
	"time"

	"github.com/erp/layaway/internal/domain/shared"
	"go.uber.org/zap"
)

// EventType classifies a security event
type EventType string

const (
	EventRateLimited    EventType = "rate_limited"
	EventAuthFailed     EventType = "auth_failed"
	EventStoreMismatch  EventType = "store_mismatch"
	EventTokenMalformed EventType = "token_malformed"
)

// DefaultEventCapacity is the number of events kept in memory
const DefaultEventCapacity = 500

// Event is one recorded security event
type Event struct {
	Type      EventType `json:"type"`
	ClientIP  string    `json:"client_ip"`
	Path      string    `json:"path"`
	StoreID   string    `json:"store_id,omitempty"`
	ActorID   string    `json:"actor_id,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
	At        time.Time `json:"at"`
}

// EventLogger writes security events to zap and keeps the most recent ones
// in a fixed-size ring for operators.
type EventLogger struct {
	mu     sync.Mutex
	ring   []Event
	next   int
	full   bool
	total  uint64
	clock  shared.Clock
	logger *zap.Logger
}

// NewEventLogger creates an EventLogger holding at most capacity events
func NewEventLogger(capacity int, clock shared.Clock, logger *zap.Logger) *EventLogger {
	if capacity <= 0 {
		capacity = DefaultEventCapacity
	}
	if clock == nil {
		clock = shared.SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventLogger{
		ring:   make([]Event, capacity),
		clock:  clock,
		logger: logger.Named("security"),
	}
}

// Record stores the event, stamping it when At is zero
func (l *EventLogger) Record(e Event) {
	if e.At.IsZero() {
		e.At = l.clock.Now()
	}

	l.mu.Lock()
	l.ring[l.next] = e
	l.next = (l.next + 1) % len(l.ring)
	if l.next == 0 {
		l.full = true
	}
	l.total++
	l.mu.Unlock()

	l.logger.Warn("security event",
		zap.String("type", string(e.Type)),
		zap.String("client_ip", e.ClientIP),
		zap.String("path", e.Path),
		zap.String("store_id", e.StoreID),
		zap.String("actor_id", e.ActorID),
		zap.String("request_id", e.RequestID),
		zap.String("detail", e.Detail),
	)
}

// Recent returns up to n events, newest first. n <= 0 returns all retained events.
func (l *EventLogger) Recent(n int) []Event {
	l.mu.Lock()
	defer l.mu.Unlock()

	size := l.next
	if l.full {
		size = len(l.ring)
	}
	if n <= 0 || n > size {
		n = size
	}
	out := make([]Event, 0, n)
	for i := 1; i <= n; i++ {
		idx := (l.next - i + len(l.ring)) % len(l.ring)
		out = append(out, l.ring[idx])
	}
	return out
}

// Total returns the number of events recorded since the last Reset, including evicted ones
func (l *EventLogger) Total() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.total
}

// Reset clears every retained event
func (l *EventLogger) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.ring {
		l.ring[i] = Event{}
	}
	l.next = 0
	l.full = false
	l.total = 0
}
