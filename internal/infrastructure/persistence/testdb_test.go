package persistence

import (
	"testing"
	"time"

	"github.com/erp/layaway/internal/domain/layaway"
	"github.com/erp/layaway/internal/domain/shared/valueobject"
	"github.com/erp/layaway/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// setupLedgerTestDB opens an in-memory sqlite database with the ledger schema.
// A single connection keeps every statement on the same in-memory database.
func setupLedgerTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

var testDay = time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)

func newTestOrder(t *testing.T, storeID uuid.UUID, total, deposit string) *layaway.Order {
	t.Helper()
	o, err := layaway.NewOrder(layaway.NewOrderInput{
		StoreID:  storeID,
		ActorID:  uuid.New(),
		Customer: layaway.Customer{Name: "Ana Diaz", Contact: "555-0100"},
		Items: []layaway.ItemInput{{
			ProductID:   uuid.New(),
			ProductName: "Armchair",
			Quantity:    1,
			UnitPrice:   valueobject.MustMoney(total),
		}},
		Deposit: valueobject.MustMoney(deposit),
		At:      testDay,
	})
	require.NoError(t, err)
	return o
}
