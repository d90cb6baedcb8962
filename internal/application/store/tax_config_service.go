// Package store manages per-store settings used by the ledger.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/layaway/internal/domain/shared"
	"github.com/erp/layaway/internal/domain/store"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// UpdateTaxConfigRequest replaces a store's tax configuration
type UpdateTaxConfigRequest struct {
	StoreID   uuid.UUID
	ActorID   uuid.UUID
	Rate      decimal.Decimal
	Inclusive bool
	Label     string
}

// TaxConfigResponse represents a tax configuration in API responses
type TaxConfigResponse struct {
	StoreID   uuid.UUID       `json:"store_id"`
	Rate      decimal.Decimal `json:"rate"`
	Inclusive bool            `json:"inclusive"`
	Label     string          `json:"label"`
	UpdatedAt *time.Time      `json:"updated_at,omitempty"`
}

// TaxConfigService reads and updates store tax settings through a cache. Every
// update invalidates the cached entry after the write succeeds.
type TaxConfigService struct {
	repo   store.TaxConfigRepository
	cache  store.TaxConfigCache
	clock  shared.Clock
	logger *zap.Logger
}

// NewTaxConfigService creates a new TaxConfigService. cache may be nil.
func NewTaxConfigService(repo store.TaxConfigRepository, cache store.TaxConfigCache, logger *zap.Logger) *TaxConfigService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TaxConfigService{repo: repo, cache: cache, clock: shared.SystemClock{}, logger: logger}
}

// SetClock overrides the time source
func (s *TaxConfigService) SetClock(clock shared.Clock) {
	if clock != nil {
		s.clock = clock
	}
}

// TaxConfigFor returns the store's config, or the zero-rate default when none is set
func (s *TaxConfigService) TaxConfigFor(ctx context.Context, storeID uuid.UUID) (*store.TaxConfig, error) {
	if s.cache != nil {
		if cfg, ok := s.cache.Get(ctx, storeID); ok {
			return cfg, nil
		}
	}
	cfg, err := s.repo.FindByStore(ctx, storeID)
	if err != nil {
		return nil, fmt.Errorf("load tax config: %w", err)
	}
	if cfg == nil {
		cfg = store.DefaultTaxConfig(storeID)
	}
	if s.cache != nil {
		s.cache.Set(ctx, cfg)
	}
	return cfg, nil
}

// GetTaxConfig returns the store's config in response form
func (s *TaxConfigService) GetTaxConfig(ctx context.Context, storeID uuid.UUID) (*TaxConfigResponse, error) {
	cfg, err := s.TaxConfigFor(ctx, storeID)
	if err != nil {
		return nil, err
	}
	return toTaxConfigResponse(cfg), nil
}

// UpdateTaxConfig validates and saves a config, then drops the cached copy
func (s *TaxConfigService) UpdateTaxConfig(ctx context.Context, req UpdateTaxConfigRequest) (*TaxConfigResponse, error) {
	cfg := &store.TaxConfig{
		StoreID:   req.StoreID,
		Rate:      req.Rate,
		Inclusive: req.Inclusive,
		Label:     req.Label,
		UpdatedAt: s.clock.Now(),
		UpdatedBy: req.ActorID,
	}
	if cfg.Label == "" {
		cfg.Label = "Tax"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, cfg); err != nil {
		return nil, fmt.Errorf("save tax config: %w", err)
	}
	if s.cache != nil {
		s.cache.Invalidate(ctx, req.StoreID)
	}
	s.logger.Info("tax config updated",
		zap.String("store_id", req.StoreID.String()),
		zap.String("rate", cfg.Rate.String()),
		zap.Bool("inclusive", cfg.Inclusive),
	)
	return toTaxConfigResponse(cfg), nil
}

func toTaxConfigResponse(cfg *store.TaxConfig) *TaxConfigResponse {
	resp := &TaxConfigResponse{
		StoreID:   cfg.StoreID,
		Rate:      cfg.Rate,
		Inclusive: cfg.Inclusive,
		Label:     cfg.Label,
	}
	if !cfg.UpdatedAt.IsZero() {
		updated := cfg.UpdatedAt
		resp.UpdatedAt = &updated
	}
	return resp
}
