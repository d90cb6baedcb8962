package persistence

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/erp/layaway/internal/domain/shared"
	"github.com/erp/layaway/internal/domain/stock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func seedStock(t *testing.T, r *GormStockReserver, storeID uuid.UUID, onHand map[uuid.UUID]int) {
	t.Helper()
	for productID, qty := range onHand {
		require.NoError(t, r.SetLevel(context.Background(), stock.Level{
			StoreID:   storeID,
			ProductID: productID,
			Name:      "product",
			OnHand:    qty,
		}))
	}
}

func levelsByProduct(t *testing.T, r *GormStockReserver, storeID uuid.UUID) map[uuid.UUID]int {
	t.Helper()
	levels, err := r.Levels(context.Background(), storeID)
	require.NoError(t, err)
	out := make(map[uuid.UUID]int, len(levels))
	for _, l := range levels {
		out[l.ProductID] = l.OnHand
	}
	return out
}

func TestGormStockReserver_Reserve(t *testing.T) {
	db := setupLedgerTestDB(t)
	clock := shared.NewFakeClock(testDay)
	reserver := NewGormStockReserver(db, clock)
	ctx := context.Background()
	storeID := uuid.New()
	p, q := uuid.New(), uuid.New()
	seedStock(t, reserver, storeID, map[uuid.UUID]int{p: 2, q: 10})

	t.Run("all lines succeed", func(t *testing.T) {
		err := reserver.Reserve(ctx, storeID, []stock.ReservationLine{
			{ProductID: p, Quantity: 1},
			{ProductID: q, Quantity: 4},
		})
		require.NoError(t, err)
		assert.Equal(t, map[uuid.UUID]int{p: 1, q: 6}, levelsByProduct(t, reserver, storeID))
	})

	t.Run("one short line leaves every counter untouched", func(t *testing.T) {
		err := reserver.Reserve(ctx, storeID, []stock.ReservationLine{
			{ProductID: q, Quantity: 1},
			{ProductID: p, Quantity: 3},
		})
		require.ErrorIs(t, err, stock.ErrStockUnavailable)
		offending, ok := stock.UnavailableProductID(err)
		require.True(t, ok)
		assert.Equal(t, p, offending)
		assert.Equal(t, map[uuid.UUID]int{p: 1, q: 6}, levelsByProduct(t, reserver, storeID))
	})

	t.Run("duplicate lines are reserved as their sum", func(t *testing.T) {
		err := reserver.Reserve(ctx, storeID, []stock.ReservationLine{
			{ProductID: q, Quantity: 4},
			{ProductID: q, Quantity: 3},
		})
		require.ErrorIs(t, err, stock.ErrStockUnavailable)
		assert.Equal(t, 6, levelsByProduct(t, reserver, storeID)[q])
	})

	t.Run("unknown product is unavailable", func(t *testing.T) {
		err := reserver.Reserve(ctx, storeID, []stock.ReservationLine{{ProductID: uuid.New(), Quantity: 1}})
		assert.ErrorIs(t, err, stock.ErrStockUnavailable)
	})

	t.Run("release returns stock", func(t *testing.T) {
		require.NoError(t, reserver.Release(ctx, storeID, []stock.ReservationLine{{ProductID: p, Quantity: 1}}))
		assert.Equal(t, 2, levelsByProduct(t, reserver, storeID)[p])
	})

	t.Run("empty batch is rejected", func(t *testing.T) {
		assert.Error(t, reserver.Reserve(ctx, storeID, nil))
	})
}

func TestGormStockReserver_DecrementIsConditional(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: mockDB, DriverName: "postgres"}), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	reserver := NewGormStockReserver(gormDB, shared.NewFakeClock(testDay))
	storeID, productID := uuid.New(), uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "product_stocks" SET "stock"=stock - \$1,"updated_at"=\$2 ` +
		`WHERE store_id = \$3 AND product_id = \$4 AND stock >= \$5`).
		WithArgs(3, testDay, storeID, productID, 3).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT \* FROM "product_stocks" WHERE store_id = \$1 AND product_id = \$2`).
		WillReturnRows(sqlmock.NewRows([]string{"store_id", "product_id", "name", "stock"}).
			AddRow(storeID, productID, "P", 2))
	mock.ExpectRollback()

	err = reserver.Reserve(context.Background(), storeID, []stock.ReservationLine{{ProductID: productID, Quantity: 3}})
	require.ErrorIs(t, err, stock.ErrStockUnavailable)
	de, ok := shared.AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, 2, de.Details["available"])
	assert.NoError(t, mock.ExpectationsWereMet())
}
