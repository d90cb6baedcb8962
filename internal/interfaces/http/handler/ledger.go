package handler

import (
	"context"
	"time"

	appledger "github.com/erp/layaway/internal/application/ledger"
	"github.com/erp/layaway/internal/domain/ledger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// TransactionService is the transaction log API used by TransactionHandler
type TransactionService interface {
	RefundTransaction(ctx context.Context, req appledger.RefundRequest) (*appledger.RefundResult, error)
	VoidTransaction(ctx context.Context, req appledger.VoidRequest) (*appledger.VoidResult, error)
	AppendNote(ctx context.Context, req appledger.NoteRequest) (*appledger.NoteResult, error)
	MarkPrinted(ctx context.Context, storeID, transactionID, actorID uuid.UUID) error
	ListTransactions(ctx context.Context, storeID uuid.UUID, filter appledger.TransactionListFilter) ([]appledger.TransactionResponse, int64, error)
	ActiveBalance(ctx context.Context, storeID uuid.UUID, q appledger.BalanceQuery) (*appledger.BalanceResponse, error)
}

// TransactionHandler handles transaction log endpoints
type TransactionHandler struct {
	BaseHandler
	service TransactionService
}

// NewTransactionHandler creates a new TransactionHandler
func NewTransactionHandler(service TransactionService) *TransactionHandler {
	return &TransactionHandler{service: service}
}

type parsedTransactionQuery struct {
	txnType       ledger.TransactionType
	referenceType string
	referenceID   *uuid.UUID
	from, to      *time.Time
	includeVoided bool
}

func (h *TransactionHandler) bindQuery(c *gin.Context) (parsedTransactionQuery, bool) {
	var q TransactionQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BadRequest(c, err.Error())
		return parsedTransactionQuery{}, false
	}
	out := parsedTransactionQuery{
		txnType:       ledger.TransactionType(q.Type),
		referenceType: q.ReferenceType,
		includeVoided: q.IncludeVoided,
	}
	if q.ReferenceID != "" {
		id := uuid.MustParse(q.ReferenceID)
		out.referenceID = &id
	}
	if q.From != "" {
		from, _ := time.Parse(time.RFC3339, q.From)
		out.from = &from
	}
	if q.To != "" {
		to, _ := time.Parse(time.RFC3339, q.To)
		out.to = &to
	}
	return out, true
}

// ListTransactions godoc
// @ID           listLedgerTransactions
// @Summary      List logged transactions
// @Description  Voided transactions are hidden unless include_voided is set
// @Tags         ledger
// @Produce      json
// @Param        type           query string false "Transaction type"
// @Param        reference_type query string false "Reference type" example(layaway_order)
// @Param        reference_id   query string false "Reference ID"
// @Param        from           query string false "Created at or after (RFC3339)"
// @Param        to             query string false "Created before (RFC3339)"
// @Param        include_voided query bool   false "Include voided transactions"
// @Param        page           query int    false "Page" default(1)
// @Param        page_size      query int    false "Page size" default(20)
// @Success      200 {object} APIResponse[[]appledger.TransactionResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /ledger/transactions [get]
func (h *TransactionHandler) ListTransactions(c *gin.Context) {
	storeID, _, ok := h.storeAndActor(c)
	if !ok {
		return
	}
	q, ok := h.bindQuery(c)
	if !ok {
		return
	}
	page, pageSize := pagination(c)
	txns, total, err := h.service.ListTransactions(c.Request.Context(), storeID, appledger.TransactionListFilter{
		Type:          q.txnType,
		ReferenceType: q.referenceType,
		ReferenceID:   q.referenceID,
		From:          q.from,
		To:            q.to,
		IncludeVoided: q.includeVoided,
		Page:          page,
		PageSize:      pageSize,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, txns, total, page, pageSize)
}

// ActiveBalance godoc
// @ID           getLedgerActiveBalance
// @Summary      Sum of non-voided transactions
// @Tags         ledger
// @Produce      json
// @Param        reference_type query string false "Reference type"
// @Param        reference_id   query string false "Reference ID"
// @Param        from           query string false "Created at or after (RFC3339)"
// @Param        to             query string false "Created before (RFC3339)"
// @Success      200 {object} APIResponse[appledger.BalanceResponse]
// @Security     BearerAuth
// @Router       /ledger/transactions/balance [get]
func (h *TransactionHandler) ActiveBalance(c *gin.Context) {
	storeID, _, ok := h.storeAndActor(c)
	if !ok {
		return
	}
	q, ok := h.bindQuery(c)
	if !ok {
		return
	}
	balance, err := h.service.ActiveBalance(c.Request.Context(), storeID, appledger.BalanceQuery{
		ReferenceType: q.referenceType,
		ReferenceID:   q.referenceID,
		From:          q.from,
		To:            q.to,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, balance)
}

// Refund godoc
// @ID           refundLedgerTransaction
// @Summary      Refund a transaction in full
// @Description  Logs a refund transaction and restores the balance of a referenced order
// @Tags         ledger
// @Produce      json
// @Param        id path string true "Transaction ID"
// @Success      201 {object} APIResponse[appledger.RefundResult]
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /ledger/transactions/{id}/refund [post]
func (h *TransactionHandler) Refund(c *gin.Context) {
	storeID, actorID, ok := h.storeAndActor(c)
	if !ok {
		return
	}
	txnID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	result, err := h.service.RefundTransaction(c.Request.Context(), appledger.RefundRequest{
		StoreID:       storeID,
		TransactionID: txnID,
		ActorID:       actorID,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result, result.Warnings)
}

// Void godoc
// @ID           voidLedgerTransaction
// @Summary      Void a transaction
// @Tags         ledger
// @Accept       json
// @Produce      json
// @Param        id      path string                 true  "Transaction ID"
// @Param        request body VoidTransactionRequest false "Reason"
// @Success      200 {object} APIResponse[appledger.VoidResult]
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /ledger/transactions/{id}/void [post]
func (h *TransactionHandler) Void(c *gin.Context) {
	storeID, actorID, ok := h.storeAndActor(c)
	if !ok {
		return
	}
	txnID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req VoidTransactionRequest
	if c.Request.ContentLength != 0 && !h.BindJSON(c, &req) {
		return
	}
	result, err := h.service.VoidTransaction(c.Request.Context(), appledger.VoidRequest{
		StoreID:       storeID,
		TransactionID: txnID,
		ActorID:       actorID,
		Reason:        req.Reason,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithWarnings(c, result, result.Warnings)
}

// AppendNote godoc
// @ID           appendLedgerTransactionNote
// @Summary      Append a note to a transaction
// @Tags         ledger
// @Accept       json
// @Produce      json
// @Param        id      path string            true "Transaction ID"
// @Param        request body AppendNoteRequest true "Note"
// @Success      200 {object} APIResponse[appledger.NoteResult]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /ledger/transactions/{id}/notes [post]
func (h *TransactionHandler) AppendNote(c *gin.Context) {
	storeID, actorID, ok := h.storeAndActor(c)
	if !ok {
		return
	}
	txnID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req AppendNoteRequest
	if !h.BindJSON(c, &req) {
		return
	}
	result, err := h.service.AppendNote(c.Request.Context(), appledger.NoteRequest{
		StoreID:       storeID,
		TransactionID: txnID,
		ActorID:       actorID,
		Note:          req.Note,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithWarnings(c, result, result.Warnings)
}

// MarkPrinted godoc
// @ID           markLedgerTransactionPrinted
// @Summary      Record that a receipt was printed
// @Tags         ledger
// @Param        id path string true "Transaction ID"
// @Success      204
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /ledger/transactions/{id}/printed [post]
func (h *TransactionHandler) MarkPrinted(c *gin.Context) {
	storeID, actorID, ok := h.storeAndActor(c)
	if !ok {
		return
	}
	txnID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.service.MarkPrinted(c.Request.Context(), storeID, txnID, actorID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
