package audit

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestNewEntry_CopiesRecord(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	r := Record{
		StoreID:     uuid.New(),
		EntityID:    uuid.New(),
		EntityType:  EntityTransaction,
		Action:      ActionVoided,
		Description: "voided",
		OldValues:   Values{"voided": false},
		NewValues:   Values{"voided": true},
		Actor:       uuid.New(),
		At:          at,
	}

	e := NewEntry(r)

	assert.NotEqual(t, uuid.Nil, e.ID)
	assert.Equal(t, r.StoreID, e.StoreID)
	assert.Equal(t, r.EntityID, e.EntityID)
	assert.Equal(t, ActionVoided, e.Action)
	assert.Equal(t, r.Actor, e.PerformedBy)
	assert.Equal(t, at, e.PerformedAt)
	assert.Equal(t, true, e.NewValues["voided"])
	assert.NotEqual(t, e.ID, NewEntry(r).ID)
}
