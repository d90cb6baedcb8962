package audit

import (
	"context"
	"time"

	"github.com/erp/layaway/internal/domain/audit"
	"github.com/erp/layaway/internal/domain/shared"
	"github.com/google/uuid"
)

// EntryResponse represents an audit entry in API responses
type EntryResponse struct {
	ID          uuid.UUID        `json:"id"`
	StoreID     uuid.UUID        `json:"store_id"`
	EntityID    uuid.UUID        `json:"entity_id"`
	EntityType  audit.EntityType `json:"entity_type"`
	Action      audit.ActionType `json:"action"`
	Description string           `json:"description,omitempty"`
	OldValues   audit.Values     `json:"old_values,omitempty"`
	NewValues   audit.Values     `json:"new_values,omitempty"`
	PerformedBy uuid.UUID        `json:"performed_by"`
	PerformedAt time.Time        `json:"performed_at"`
}

// ToEntryResponse converts a domain Entry to its response form
func ToEntryResponse(e *audit.Entry) EntryResponse {
	return EntryResponse{
		ID:          e.ID,
		StoreID:     e.StoreID,
		EntityID:    e.EntityID,
		EntityType:  e.EntityType,
		Action:      e.Action,
		Description: e.Description,
		OldValues:   e.OldValues,
		NewValues:   e.NewValues,
		PerformedBy: e.PerformedBy,
		PerformedAt: e.PerformedAt,
	}
}

// HistoryService reads the audit trail of single entities
type HistoryService struct {
	repo audit.Repository
}

// NewHistoryService creates a new HistoryService
func NewHistoryService(repo audit.Repository) *HistoryService {
	return &HistoryService{repo: repo}
}

// ListTransactionHistory returns a page of an entity's entries, newest first.
// Entries are never changed, so paging with the same arguments is repeatable.
func (s *HistoryService) ListTransactionHistory(ctx context.Context, storeID, entityID uuid.UUID, page, pageSize int) ([]EntryResponse, error) {
	if entityID == uuid.Nil {
		return nil, shared.ErrInvalidInput.WithDetail("entity_id", "required")
	}
	page, pageSize = shared.NormalizePage(page, pageSize)
	entries, err := s.repo.History(ctx, storeID, entityID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, err
	}
	out := make([]EntryResponse, len(entries))
	for i, e := range entries {
		out[i] = ToEntryResponse(e)
	}
	return out, nil
}
