package store_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	appstore "github.com/erp/layaway/internal/application/store"
	"github.com/erp/layaway/internal/domain/shared"
	"github.com/erp/layaway/internal/domain/store"
	"github.com/erp/layaway/internal/infrastructure/cache"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRepository struct {
	mu      sync.Mutex
	configs map[uuid.UUID]store.TaxConfig
	reads   int
	failing bool
}

func newCountingRepository() *countingRepository {
	return &countingRepository{configs: make(map[uuid.UUID]store.TaxConfig)}
}

func (r *countingRepository) FindByStore(_ context.Context, storeID uuid.UUID) (*store.TaxConfig, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reads++
	if r.failing {
		return nil, errors.New("connection refused")
	}
	cfg, ok := r.configs[storeID]
	if !ok {
		return nil, nil
	}
	return &cfg, nil
}

func (r *countingRepository) Save(_ context.Context, cfg *store.TaxConfig) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.configs[cfg.StoreID] = *cfg
	return nil
}

func TestTaxConfigService_DefaultsAndCaches(t *testing.T) {
	repo := newCountingRepository()
	c := cache.NewInMemoryTaxConfigCache()
	defer c.Close()
	svc := appstore.NewTaxConfigService(repo, c, nil)
	storeID := uuid.New()

	got, err := svc.GetTaxConfig(context.Background(), storeID)
	require.NoError(t, err)
	assert.True(t, got.Rate.IsZero())
	assert.Equal(t, "Tax", got.Label)
	assert.Nil(t, got.UpdatedAt)

	_, err = svc.TaxConfigFor(context.Background(), storeID)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.reads, "second read is served from the cache")
}

func TestTaxConfigService_UpdateInvalidates(t *testing.T) {
	repo := newCountingRepository()
	c := cache.NewInMemoryTaxConfigCache(cache.WithTTL(time.Hour))
	defer c.Close()
	svc := appstore.NewTaxConfigService(repo, c, nil)
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	svc.SetClock(shared.NewFakeClock(now))
	storeID, actor := uuid.New(), uuid.New()

	_, err := svc.TaxConfigFor(context.Background(), storeID)
	require.NoError(t, err)

	resp, err := svc.UpdateTaxConfig(context.Background(), appstore.UpdateTaxConfigRequest{
		StoreID:   storeID,
		ActorID:   actor,
		Rate:      decimal.RequireFromString("0.15"),
		Inclusive: true,
		Label:     "VAT",
	})
	require.NoError(t, err)
	require.NotNil(t, resp.UpdatedAt)
	assert.Equal(t, now, *resp.UpdatedAt)

	cfg, err := svc.TaxConfigFor(context.Background(), storeID)
	require.NoError(t, err)
	assert.Equal(t, "0.15", cfg.Rate.String(), "updated config is visible at once despite the long TTL")
	assert.Equal(t, "VAT", cfg.Label)
	assert.Equal(t, actor, cfg.UpdatedBy)
	assert.Equal(t, 2, repo.reads)
}

func TestTaxConfigService_UpdateValidation(t *testing.T) {
	svc := appstore.NewTaxConfigService(newCountingRepository(), nil, nil)

	_, err := svc.UpdateTaxConfig(context.Background(), appstore.UpdateTaxConfigRequest{
		StoreID: uuid.New(),
		Rate:    decimal.NewFromInt(1),
	})
	assert.ErrorIs(t, err, store.ErrInvalidTaxRate)

	resp, err := svc.UpdateTaxConfig(context.Background(), appstore.UpdateTaxConfigRequest{
		StoreID: uuid.New(),
		Rate:    decimal.RequireFromString("0.05"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Tax", resp.Label)
}

func TestTaxConfigService_RepositoryFailure(t *testing.T) {
	repo := newCountingRepository()
	repo.failing = true
	svc := appstore.NewTaxConfigService(repo, nil, nil)

	_, err := svc.TaxConfigFor(context.Background(), uuid.New())
	assert.ErrorContains(t, err, "connection refused")
}
