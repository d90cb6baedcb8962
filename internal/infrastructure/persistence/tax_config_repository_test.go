package persistence

import (
	"context"
	"testing"

	"github.com/erp/layaway/internal/domain/store"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormTaxConfigRepository(t *testing.T) {
	db := setupLedgerTestDB(t)
	repo := NewGormTaxConfigRepository(db)
	ctx := context.Background()
	storeID := uuid.New()

	missing, err := repo.FindByStore(ctx, storeID)
	require.NoError(t, err)
	assert.Nil(t, missing)

	cfg := &store.TaxConfig{StoreID: storeID, Rate: decimal.RequireFromString("0.15"), Inclusive: true, Label: "VAT", UpdatedAt: testDay}
	require.NoError(t, repo.Save(ctx, cfg))

	cfg.Rate = decimal.RequireFromString("0.1")
	cfg.Inclusive = false
	require.NoError(t, repo.Save(ctx, cfg))

	found, err := repo.FindByStore(ctx, storeID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.True(t, decimal.RequireFromString("0.1").Equal(found.Rate))
	assert.False(t, found.Inclusive)
	assert.Equal(t, "VAT", found.Label)
}
