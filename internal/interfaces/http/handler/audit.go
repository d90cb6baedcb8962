package handler

import (
	"context"
	"time"

	appaudit "github.com/erp/layaway/internal/application/audit"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// HistoryReader lists the audit trail of an entity
type HistoryReader interface {
	ListTransactionHistory(ctx context.Context, storeID, entityID uuid.UUID, page, pageSize int) ([]appaudit.EntryResponse, error)
}

// AuditExporter writes a store's audit trail to object storage
type AuditExporter interface {
	ExportAuditTrail(ctx context.Context, req appaudit.ExportRequest) (*appaudit.ExportResult, error)
}

// ExportAuditRequest selects the window of an audit export
// @Description Export window, half-open [from, to)
type ExportAuditRequest struct {
	From time.Time `json:"from" binding:"required" example:"2026-09-01T00:00:00Z"`
	To   time.Time `json:"to" binding:"required" example:"2026-10-01T00:00:00Z"`
}

// AuditHandler handles audit trail endpoints
type AuditHandler struct {
	BaseHandler
	history  HistoryReader
	exporter AuditExporter
}

// NewAuditHandler creates a new AuditHandler. exporter is nil when object
// storage is not configured.
func NewAuditHandler(history HistoryReader, exporter AuditExporter) *AuditHandler {
	return &AuditHandler{history: history, exporter: exporter}
}

// History godoc
// @ID           listAuditEntityHistory
// @Summary      Audit history of an order or transaction
// @Description  Newest first
// @Tags         audit
// @Produce      json
// @Param        id        path  string true  "Entity ID"
// @Param        page      query int    false "Page" default(1)
// @Param        page_size query int    false "Page size" default(20)
// @Success      200 {object} APIResponse[[]appaudit.EntryResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /audit/entities/{id}/history [get]
func (h *AuditHandler) History(c *gin.Context) {
	storeID, _, ok := h.storeAndActor(c)
	if !ok {
		return
	}
	entityID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	page, pageSize := pagination(c)
	entries, err := h.history.ListTransactionHistory(c.Request.Context(), storeID, entityID, page, pageSize)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, entries)
}

// Export godoc
// @ID           exportAuditTrail
// @Summary      Export the audit trail as JSON lines
// @Description  Writes the entries of the window to object storage and returns a presigned link
// @Tags         audit
// @Accept       json
// @Produce      json
// @Param        request body ExportAuditRequest true "Window"
// @Success      200 {object} APIResponse[appaudit.ExportResult]
// @Failure      400 {object} ErrorResponse
// @Failure      503 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /audit/exports [post]
func (h *AuditHandler) Export(c *gin.Context) {
	storeID, _, ok := h.storeAndActor(c)
	if !ok {
		return
	}
	if h.exporter == nil {
		h.Unavailable(c, "Audit export storage is not configured")
		return
	}
	var req ExportAuditRequest
	if !h.BindJSON(c, &req) {
		return
	}
	result, err := h.exporter.ExportAuditTrail(c.Request.Context(), appaudit.ExportRequest{
		StoreID: storeID,
		From:    req.From,
		To:      req.To,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
