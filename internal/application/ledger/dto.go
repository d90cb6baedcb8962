package ledger

import (
	"time"

	"github.com/erp/layaway/internal/domain/ledger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RefundRequest refunds a logged transaction in full
type RefundRequest struct {
	StoreID       uuid.UUID
	TransactionID uuid.UUID
	ActorID       uuid.UUID
}

// VoidRequest voids a logged transaction
type VoidRequest struct {
	StoreID       uuid.UUID
	TransactionID uuid.UUID
	ActorID       uuid.UUID
	Reason        string
}

// NoteRequest appends a clarification to a transaction's notes
type NoteRequest struct {
	StoreID       uuid.UUID
	TransactionID uuid.UUID
	ActorID       uuid.UUID
	Note          string
}

// TransactionListFilter narrows transaction listings
type TransactionListFilter struct {
	Type          ledger.TransactionType
	ReferenceType string
	ReferenceID   *uuid.UUID
	From          *time.Time
	To            *time.Time
	IncludeVoided bool
	Page          int
	PageSize      int
}

// BalanceQuery selects the transactions summed by ActiveBalance
type BalanceQuery struct {
	ReferenceType string
	ReferenceID   *uuid.UUID
	From          *time.Time
	To            *time.Time
}

// VoidResponse describes the void marker of a transaction
type VoidResponse struct {
	At     time.Time `json:"at"`
	By     uuid.UUID `json:"by"`
	Reason string    `json:"reason,omitempty"`
}

// TransactionResponse represents a logged transaction in API responses
type TransactionResponse struct {
	ID                uuid.UUID              `json:"id"`
	StoreID           uuid.UUID              `json:"store_id"`
	TransactionNumber string                 `json:"transaction_number"`
	Type              ledger.TransactionType `json:"type"`
	Amount            decimal.Decimal        `json:"amount"`
	PaymentMethod     string                 `json:"payment_method,omitempty"`
	ReferenceType     string                 `json:"reference_type,omitempty"`
	ReferenceID       *uuid.UUID             `json:"reference_id,omitempty"`
	CustomerID        *uuid.UUID             `json:"customer_id,omitempty"`
	CustomerName      string                 `json:"customer_name,omitempty"`
	Description       string                 `json:"description,omitempty"`
	Notes             string                 `json:"notes,omitempty"`
	ProcessedBy       uuid.UUID              `json:"processed_by"`
	RefundOf          *uuid.UUID             `json:"refund_of,omitempty"`
	Void              *VoidResponse          `json:"void,omitempty"`
	CreatedAt         time.Time              `json:"created_at"`
}

// RefundResult is returned by RefundTransaction
type RefundResult struct {
	RefundTransactionID     uuid.UUID           `json:"refund_transaction_id"`
	RefundTransactionNumber string              `json:"refund_transaction_number"`
	Refund                  TransactionResponse `json:"refund"`
	// OrderBalance is the restored balance when the refund targeted an installment order
	OrderBalance *decimal.Decimal `json:"order_balance,omitempty"`
	Warnings     []string         `json:"-"`
}

// VoidResult is returned by VoidTransaction
type VoidResult struct {
	Success     bool                `json:"success"`
	Transaction TransactionResponse `json:"transaction"`
	Warnings    []string            `json:"-"`
}

// NoteResult is returned by AppendNote
type NoteResult struct {
	Transaction TransactionResponse `json:"transaction"`
	Warnings    []string            `json:"-"`
}

// BalanceResponse is the active balance of a set of transactions
type BalanceResponse struct {
	Balance      decimal.Decimal `json:"balance"`
	Transactions int             `json:"transactions"`
}

// ToTransactionResponse converts a domain Transaction to its response form
func ToTransactionResponse(t *ledger.Transaction) TransactionResponse {
	resp := TransactionResponse{
		ID:                t.ID,
		StoreID:           t.StoreID,
		TransactionNumber: t.TransactionNumber,
		Type:              t.Type(),
		Amount:            t.Amount,
		PaymentMethod:     t.PaymentMethod,
		ReferenceType:     t.Reference.Type,
		CustomerID:        t.CustomerID,
		CustomerName:      t.CustomerName,
		Description:       t.Description,
		Notes:             t.Notes,
		ProcessedBy:       t.ProcessedBy,
		CreatedAt:         t.CreatedAt,
	}
	if t.Reference.ID != uuid.Nil {
		id := t.Reference.ID
		resp.ReferenceID = &id
	}
	if original, ok := t.RefundOf(); ok {
		resp.RefundOf = &original
	}
	if t.Void != nil {
		resp.Void = &VoidResponse{At: t.Void.At, By: t.Void.By, Reason: t.Void.Reason}
	}
	return resp
}

func (f BalanceQuery) toFilter() ledger.Filter {
	filter := ledger.Filter{From: f.From, To: f.To}
	if f.ReferenceID != nil {
		filter.Reference = &ledger.EntityRef{ID: *f.ReferenceID, Type: f.ReferenceType}
	}
	return filter
}

func (f TransactionListFilter) toFilter() ledger.Filter {
	filter := ledger.Filter{
		Type:          f.Type,
		From:          f.From,
		To:            f.To,
		IncludeVoided: f.IncludeVoided,
		Page:          f.Page,
		PageSize:      f.PageSize,
	}
	if f.ReferenceID != nil {
		filter.Reference = &ledger.EntityRef{ID: *f.ReferenceID, Type: f.ReferenceType}
	}
	return filter
}
