// Package scheduler runs background jobs of the ledger.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	applayaway "github.com/erp/layaway/internal/application/layaway"
	"github.com/erp/layaway/internal/infrastructure/config"
	"go.uber.org/zap"
)

// ErrInvalidConfig is returned when configuration is invalid
var ErrInvalidConfig = errors.New("invalid scheduler configuration")

// OverdueSweeper flags active orders whose due date has passed
type OverdueSweeper interface {
	MarkOverdue(ctx context.Context, limit int) (*applayaway.MarkOverdueResult, error)
}

// OverdueCheckerConfig holds configuration for the overdue checker
type OverdueCheckerConfig struct {
	// Enabled determines if the checker is active
	Enabled bool

	// Interval between sweeps
	Interval time.Duration

	// BatchSize is the most orders flagged by one MarkOverdue call
	BatchSize int

	// MaxBatches bounds the calls made in one sweep
	MaxBatches int

	// SweepTimeout is the maximum time for one sweep
	SweepTimeout time.Duration
}

// DefaultOverdueCheckerConfig returns default configuration
func DefaultOverdueCheckerConfig() OverdueCheckerConfig {
	return OverdueCheckerConfig{
		Enabled:      true,
		Interval:     15 * time.Minute,
		BatchSize:    200,
		MaxBatches:   50,
		SweepTimeout: 5 * time.Minute,
	}
}

// OverdueCheckerConfigFrom maps the scheduler section of the service config
func OverdueCheckerConfigFrom(cfg config.SchedulerConfig) OverdueCheckerConfig {
	out := DefaultOverdueCheckerConfig()
	out.Enabled = cfg.OverdueEnabled
	if cfg.OverdueInterval > 0 {
		out.Interval = cfg.OverdueInterval
	}
	if cfg.OverdueBatchSize > 0 {
		out.BatchSize = cfg.OverdueBatchSize
	}
	return out
}

// Validate checks the configuration
func (c OverdueCheckerConfig) Validate() error {
	if c.Interval <= 0 || c.BatchSize <= 0 || c.MaxBatches <= 0 || c.SweepTimeout <= 0 {
		return ErrInvalidConfig
	}
	return nil
}

// SweepResult summarises one sweep
type SweepResult struct {
	Flagged  int
	Batches  int
	Degraded bool
}

// OverdueChecker periodically moves past-due active orders to overdue
type OverdueChecker struct {
	sweeper   OverdueSweeper
	logger    *zap.Logger
	config    OverdueCheckerConfig
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewOverdueChecker creates a new overdue checker
func NewOverdueChecker(sweeper OverdueSweeper, logger *zap.Logger, config OverdueCheckerConfig) *OverdueChecker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OverdueChecker{
		sweeper: sweeper,
		logger:  logger,
		config:  config,
	}
}

// Start starts the checker loop
func (s *OverdueChecker) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	if !s.config.Enabled {
		s.mu.Unlock()
		s.logger.Info("Overdue checker is disabled")
		return nil
	}
	if err := s.config.Validate(); err != nil {
		s.mu.Unlock()
		return err
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.run(ctx)

	s.logger.Info("Overdue checker started",
		zap.Duration("interval", s.config.Interval),
		zap.Int("batch_size", s.config.BatchSize),
	)
	return nil
}

// Stop gracefully stops the checker
func (s *OverdueChecker) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Overdue checker stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Overdue checker stop timed out")
		return ctx.Err()
	}
}

// IsRunning reports whether the loop is active
func (s *OverdueChecker) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

func (s *OverdueChecker) run(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("Overdue checker loop stopping")
			return
		case <-ticker.C:
			if _, err := s.Sweep(ctx); err != nil && ctx.Err() == nil {
				s.logger.Error("Overdue sweep failed", zap.Error(err))
			}
		}
	}
}

// Sweep calls MarkOverdue in batches until a batch comes back short or the
// batch limit is reached.
func (s *OverdueChecker) Sweep(ctx context.Context) (*SweepResult, error) {
	sweepCtx, cancel := context.WithTimeout(ctx, s.config.SweepTimeout)
	defer cancel()

	startTime := time.Now()
	result := &SweepResult{}
	for result.Batches < s.config.MaxBatches {
		batch, err := s.sweeper.MarkOverdue(sweepCtx, s.config.BatchSize)
		if err != nil {
			return result, err
		}
		result.Batches++
		result.Flagged += batch.Flagged
		if len(batch.Warnings) > 0 {
			result.Degraded = true
		}
		if batch.Flagged < s.config.BatchSize {
			break
		}
	}

	if result.Flagged > 0 || result.Degraded {
		s.logger.Info("Overdue sweep completed",
			zap.Duration("duration", time.Since(startTime)),
			zap.Int("flagged", result.Flagged),
			zap.Int("batches", result.Batches),
			zap.Bool("audit_degraded", result.Degraded),
		)
	}
	return result, nil
}
