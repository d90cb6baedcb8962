package models

import (
	"time"

	"github.com/erp/layaway/internal/domain/audit"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// AuditEntryModel is the persistence model for audit trail entries. Rows are only
// ever inserted.
type AuditEntryModel struct {
	ID          uuid.UUID         `gorm:"type:uuid;primary_key"`
	StoreID     uuid.UUID         `gorm:"type:uuid;not null;index:idx_audit_entries_store_entity_time,priority:1"`
	EntityID    uuid.UUID         `gorm:"type:uuid;not null;index:idx_audit_entries_store_entity_time,priority:2"`
	EntityType  audit.EntityType  `gorm:"type:varchar(50);not null"`
	Action      audit.ActionType  `gorm:"type:varchar(30);not null"`
	Description string            `gorm:"type:text"`
	OldValues   datatypes.JSONMap
	NewValues   datatypes.JSONMap
	PerformedBy uuid.UUID `gorm:"type:uuid;not null"`
	PerformedAt time.Time `gorm:"not null;index:idx_audit_entries_store_entity_time,priority:3,sort:desc"`
}

// TableName returns the table name for GORM
func (AuditEntryModel) TableName() string {
	return "audit_entries"
}

// ToDomain converts the persistence model to a domain Entry.
func (m *AuditEntryModel) ToDomain() *audit.Entry {
	return &audit.Entry{
		ID:          m.ID,
		StoreID:     m.StoreID,
		EntityID:    m.EntityID,
		EntityType:  m.EntityType,
		Action:      m.Action,
		Description: m.Description,
		OldValues:   audit.Values(m.OldValues),
		NewValues:   audit.Values(m.NewValues),
		PerformedBy: m.PerformedBy,
		PerformedAt: m.PerformedAt,
	}
}

// AuditEntryModelFromDomain creates a new persistence model from a domain Entry.
func AuditEntryModelFromDomain(e *audit.Entry) *AuditEntryModel {
	return &AuditEntryModel{
		ID:          e.ID,
		StoreID:     e.StoreID,
		EntityID:    e.EntityID,
		EntityType:  e.EntityType,
		Action:      e.Action,
		Description: e.Description,
		OldValues:   datatypes.JSONMap(e.OldValues),
		NewValues:   datatypes.JSONMap(e.NewValues),
		PerformedBy: e.PerformedBy,
		PerformedAt: e.PerformedAt,
	}
}
