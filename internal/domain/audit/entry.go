// Package audit holds the append-only history of changes to ledger entities.
package audit

import (
	"context"
	"time"

	"github.com/erp/layaway/internal/domain/shared"
	"github.com/google/uuid"
)

// ActionType describes what happened to the entity
type ActionType string

const (
	ActionCreated        ActionType = "created"
	ActionPaymentApplied ActionType = "payment_applied"
	ActionRefunded       ActionType = "refunded"
	ActionVoided         ActionType = "voided"
	ActionNoteUpdated    ActionType = "note_updated"
	ActionPrinted        ActionType = "printed"
	ActionCancelled      ActionType = "cancelled"
	ActionStatusChanged  ActionType = "status_changed"
)

// EntityType names the kind of entity an entry is attached to
type EntityType string

const (
	EntityOrder       EntityType = "layaway_order"
	EntityTransaction EntityType = "ledger_transaction"
)

// Values is a structured snapshot of the fields an action touched
type Values map[string]any

// Entry is one immutable, attributable history record
type Entry struct {
	ID          uuid.UUID
	StoreID     uuid.UUID
	EntityID    uuid.UUID
	EntityType  EntityType
	Action      ActionType
	Description string
	OldValues   Values
	NewValues   Values
	PerformedBy uuid.UUID
	PerformedAt time.Time
}

// Record describes an entry to append. Recording does no business validation.
type Record struct {
	StoreID     uuid.UUID
	EntityID    uuid.UUID
	EntityType  EntityType
	Action      ActionType
	Description string
	OldValues   Values
	NewValues   Values
	Actor       uuid.UUID
	At          time.Time
}

// NewEntry stamps a record into an entry
func NewEntry(r Record) *Entry {
	return &Entry{
		ID:          uuid.New(),
		StoreID:     r.StoreID,
		EntityID:    r.EntityID,
		EntityType:  r.EntityType,
		Action:      r.Action,
		Description: r.Description,
		OldValues:   r.OldValues,
		NewValues:   r.NewValues,
		PerformedBy: r.Actor,
		PerformedAt: r.At,
	}
}

// ErrRecordFailed wraps storage failures while writing an entry
var ErrRecordFailed = shared.NewDomainError("AUDIT_RECORD_FAILED", "Audit entry could not be recorded")

// Query narrows history reads
type Query struct {
	StoreID  uuid.UUID
	EntityID *uuid.UUID
	From     *time.Time
	To       *time.Time
	Limit    int
	Offset   int
}

// Repository appends and reads entries. There is no update or delete.
type Repository interface {
	Append(ctx context.Context, entries ...*Entry) error
	// History returns entries for an entity ordered by PerformedAt descending
	History(ctx context.Context, storeID, entityID uuid.UUID, limit, offset int) ([]*Entry, error)
	// Range returns entries of a store in [From, To) ordered by PerformedAt ascending
	Range(ctx context.Context, q Query) ([]*Entry, error)
}
