package persistence

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newMockDatabase(t *testing.T) (*Database, sqlmock.Sqlmock) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: mockDB, DriverName: "postgres"}), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	return &Database{DB: gormDB}, mock
}

func TestDatabase_PingStatsClose(t *testing.T) {
	db, mock := newMockDatabase(t)

	require.NoError(t, db.Ping())

	stats, err := db.Stats()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, stats.OpenConnections, 0)

	mock.ExpectClose()
	require.NoError(t, db.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDatabase_WithStore(t *testing.T) {
	db, _ := newMockDatabase(t)

	assert.Panics(t, func() { db.WithStore("") })

	var rows []map[string]any
	stmt := db.WithStore("store-1").Session(&gorm.Session{DryRun: true}).Table("layaway_orders").Find(&rows).Statement
	assert.Contains(t, stmt.SQL.String(), "store_id = $1")
	assert.Equal(t, []any{"store-1"}, stmt.Vars)
}
