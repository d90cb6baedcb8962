package persistence

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestIsDuplicateKeyErr(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"gorm translated", gorm.ErrDuplicatedKey, true},
		{"pgconn unique", &pgconn.PgError{Code: "23505"}, true},
		{"pgconn wrapped", fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"}), true},
		{"pgconn other", &pgconn.PgError{Code: "40001"}, false},
		{"pq unique", &pq.Error{Code: "23505"}, true},
		{"sqlite unique", sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintUnique}, true},
		{"sqlite check", sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintCheck}, false},
		{"plain message", errors.New("UNIQUE constraint failed: t.c"), true},
		{"unrelated", errors.New("connection reset"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsDuplicateKeyErr(tt.err))
		})
	}
}

func TestIsUniqueViolationOn(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "uq_layaway_orders_store_order_number"}
	assert.True(t, isUniqueViolationOn(pgErr, "order_number"))
	assert.False(t, isUniqueViolationOn(pgErr, "refund_of"))

	pqErr := &pq.Error{Code: "23505", Constraint: "uq_ledger_transactions_store_refund_of"}
	assert.True(t, isUniqueViolationOn(pqErr, "refund_of"))

	lite := errors.New("UNIQUE constraint failed: ledger_transactions.store_id, ledger_transactions.transaction_number")
	assert.True(t, isUniqueViolationOn(lite, "transaction_number"))
	assert.False(t, isUniqueViolationOn(lite, "refund_of"))

	assert.False(t, isUniqueViolationOn(errors.New("boom order_number"), "order_number"))
}

func TestIsCheckViolation(t *testing.T) {
	assert.True(t, isCheckViolation(&pgconn.PgError{Code: "23514"}))
	assert.True(t, isCheckViolation(errors.New("CHECK constraint failed: chk_layaway_orders_balance")))
	assert.False(t, isCheckViolation(&pgconn.PgError{Code: "23505"}))
	assert.False(t, isCheckViolation(nil))
}
