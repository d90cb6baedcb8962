// Package security holds request throttling and the security event log.
package security

import (
	"sync"
	"time"

	"github.com/erp/layaway/internal/domain/shared"
	"golang.org/x/time/rate"
)

// LimiterConfig holds configuration for the Limiter
type LimiterConfig struct {
	Requests int           // Requests allowed per window
	Window   time.Duration // Window the requests are spread over
	EntryTTL time.Duration // How long an idle key keeps its bucket
}

// DefaultLimiterConfig returns 100 requests per minute
func DefaultLimiterConfig() LimiterConfig {
	return LimiterConfig{
		Requests: 100,
		Window:   time.Minute,
		EntryTTL: 10 * time.Minute,
	}
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter keeps one token bucket per key. Buckets refill continuously at
// Requests/Window with a burst of Requests. All time is read from the injected
// clock, so the limiter can be driven deterministically.
type Limiter struct {
	mu      sync.Mutex
	entries map[string]*limiterEntry
	limit   rate.Limit
	burst   int
	ttl     time.Duration
	clock   shared.Clock

	stopCh  chan struct{}
	stopped bool
}

// NewLimiter creates a Limiter. Call Close to stop its cleanup goroutine.
func NewLimiter(cfg LimiterConfig, clock shared.Clock) *Limiter {
	def := DefaultLimiterConfig()
	if cfg.Requests <= 0 {
		cfg.Requests = def.Requests
	}
	if cfg.Window <= 0 {
		cfg.Window = def.Window
	}
	if cfg.EntryTTL <= 0 {
		cfg.EntryTTL = def.EntryTTL
	}
	if clock == nil {
		clock = shared.SystemClock{}
	}
	l := &Limiter{
		entries: make(map[string]*limiterEntry),
		limit:   perWindow(cfg.Requests, cfg.Window),
		burst:   cfg.Requests,
		ttl:     cfg.EntryTTL,
		clock:   clock,
		stopCh:  make(chan struct{}),
	}
	go l.cleanupLoop(cfg.EntryTTL / 2)
	return l
}

func perWindow(requests int, window time.Duration) rate.Limit {
	return rate.Limit(float64(requests) / window.Seconds())
}

// Allow consumes one token from key's bucket
func (l *Limiter) Allow(key string) bool {
	now := l.clock.Now()
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.entry(key, now).limiter.AllowN(now, 1)
}

// Remaining returns the whole tokens left in key's bucket
func (l *Limiter) Remaining(key string) int {
	now := l.clock.Now()
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.entries[key]
	if !ok {
		return l.burst
	}
	tokens := int(e.limiter.TokensAt(now))
	if tokens < 0 {
		return 0
	}
	return tokens
}

// Limit returns the burst size, the most requests a fresh key may make at once
func (l *Limiter) Limit() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.burst
}

// Reconfigure changes the rate of every bucket, keeping the tokens they hold
func (l *Limiter) Reconfigure(requests int, window time.Duration) {
	if requests <= 0 || window <= 0 {
		return
	}
	now := l.clock.Now()
	l.mu.Lock()
	defer l.mu.Unlock()
	l.limit = perWindow(requests, window)
	l.burst = requests
	for _, e := range l.entries {
		e.limiter.SetLimitAt(now, l.limit)
		e.limiter.SetBurstAt(now, l.burst)
	}
}

// Reset drops key's bucket so its next request starts full
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	delete(l.entries, key)
	l.mu.Unlock()
}

// ResetAll drops every bucket
func (l *Limiter) ResetAll() {
	l.mu.Lock()
	l.entries = make(map[string]*limiterEntry)
	l.mu.Unlock()
}

// Size returns the number of tracked keys
func (l *Limiter) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Close stops the cleanup goroutine and drops every bucket. It is safe to call twice.
func (l *Limiter) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.stopped {
		return
	}
	l.stopped = true
	close(l.stopCh)
	l.entries = make(map[string]*limiterEntry)
}

// entry must be called with mu held
func (l *Limiter) entry(key string, now time.Time) *limiterEntry {
	e, ok := l.entries[key]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.entries[key] = e
	}
	e.lastSeen = now
	return e
}

func (l *Limiter) cleanupLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.cleanup()
		case <-l.stopCh:
			return
		}
	}
}

// cleanup removes keys idle for longer than the entry TTL
func (l *Limiter) cleanup() {
	cutoff := l.clock.Now().Add(-l.ttl)
	l.mu.Lock()
	defer l.mu.Unlock()
	for key, e := range l.entries {
		if e.lastSeen.Before(cutoff) {
			delete(l.entries, key)
		}
	}
}
