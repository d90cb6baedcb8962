package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Filter narrows transaction listings
type Filter struct {
	Type      TransactionType
	Reference *EntityRef
	From      *time.Time
	To        *time.Time
	// IncludeVoided keeps voided transactions in the result
	IncludeVoided bool
	Page          int
	PageSize      int
}

// Repository is the append-only store for transactions. It exposes no way to change
// amount, type, or reference after insert.
type Repository interface {
	// Append inserts a transaction. A lost race on the transaction number surfaces as
	// identifier.ErrCollision; a second refund of the same original as ErrAlreadyRefunded.
	Append(ctx context.Context, tx *Transaction) error
	FindByID(ctx context.Context, storeID, id uuid.UUID) (*Transaction, error)
	// FindRefundOf returns the refund of the given original, or nil when none exists
	FindRefundOf(ctx context.Context, storeID, originalID uuid.UUID) (*Transaction, error)
	// SaveNotes persists the notes column only
	SaveNotes(ctx context.Context, tx *Transaction) error
	// MarkVoided persists the void marker and notes of a not-yet-voided transaction
	MarkVoided(ctx context.Context, tx *Transaction) error
	List(ctx context.Context, storeID uuid.UUID, filter Filter) ([]*Transaction, int64, error)
}
