// Package ledger is the append-only transaction log shared by every order type.
package ledger

import (
	"fmt"
	"strings"
	"time"

	"github.com/erp/layaway/internal/domain/shared"
	"github.com/erp/layaway/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Reference types for EntityRef
const (
	ReferenceTypeLayawayOrder = "layaway_order"
	ReferenceTypeSale         = "sale"
)

// EntityRef weakly references the source entity of a transaction by id and type
type EntityRef struct {
	ID   uuid.UUID
	Type string
}

// IsZero reports whether no reference is set
func (r EntityRef) IsZero() bool {
	return r.ID == uuid.Nil && r.Type == ""
}

// VoidMarker describes a void. Voiding never deletes a transaction or changes its amount.
type VoidMarker struct {
	At     time.Time
	By     uuid.UUID
	Reason string
}

// Transaction is one immutable financial event in a store's log. Amount, type, and
// reference are fixed at creation; notes only grow.
type Transaction struct {
	shared.BaseEntity
	StoreID           uuid.UUID
	TransactionNumber string
	Amount            decimal.Decimal
	PaymentMethod     string
	Reference         EntityRef
	CustomerID        *uuid.UUID
	CustomerName      string
	Description       string
	Notes             string
	ProcessedBy       uuid.UUID
	Detail            Detail
	Void              *VoidMarker
}

// NewTransactionInput carries the shared fields of a transaction
type NewTransactionInput struct {
	StoreID       uuid.UUID
	Amount        valueobject.Money
	PaymentMethod string
	Reference     EntityRef
	CustomerID    *uuid.UUID
	CustomerName  string
	Description   string
	Notes         string
	ProcessedBy   uuid.UUID
	Detail        Detail
	At            time.Time
}

// NewTransaction validates and creates a transaction. The transaction number is
// assigned when the entry is appended to the log.
func NewTransaction(in NewTransactionInput) (*Transaction, error) {
	if in.Detail == nil || !in.Detail.Type().IsValid() {
		return nil, ErrInvalidTransactionType
	}
	if in.Amount.IsNegative() {
		return nil, &shared.DomainError{Code: ErrInvalidTransactionInput.Code, Message: "Transaction amount cannot be negative"}
	}
	if in.StoreID == uuid.Nil {
		return nil, &shared.DomainError{Code: ErrInvalidTransactionInput.Code, Message: "Transaction requires a store"}
	}
	return &Transaction{
		BaseEntity:    shared.NewBaseEntity(in.At),
		StoreID:       in.StoreID,
		Amount:        in.Amount.Decimal(),
		PaymentMethod: in.PaymentMethod,
		Reference:     in.Reference,
		CustomerID:    in.CustomerID,
		CustomerName:  in.CustomerName,
		Description:   in.Description,
		Notes:         in.Notes,
		ProcessedBy:   in.ProcessedBy,
		Detail:        in.Detail,
	}, nil
}

// Type returns the variant tag
func (t *Transaction) Type() TransactionType {
	return t.Detail.Type()
}

// IsVoided reports whether the transaction carries a void marker
func (t *Transaction) IsVoided() bool {
	return t.Void != nil
}

// SignedAmount is the amount's contribution to a balance: refunds count negative
func (t *Transaction) SignedAmount() decimal.Decimal {
	if t.Type() == TypeRefund {
		return t.Amount.Neg()
	}
	return t.Amount
}

// AssignNumber sets the store-unique transaction number
func (t *Transaction) AssignNumber(number string) {
	t.TransactionNumber = number
}

// FormatNoteLine renders an attributed, timestamped note line
func FormatNoteLine(at time.Time, actor uuid.UUID, text string) string {
	return fmt.Sprintf("[%s %s] %s", at.UTC().Format(time.RFC3339), actor, strings.TrimSpace(text))
}

// AppendNote adds a line to the notes. Existing notes are never rewritten.
func (t *Transaction) AppendNote(actor uuid.UUID, text string, at time.Time) error {
	if strings.TrimSpace(text) == "" {
		return &shared.DomainError{Code: ErrInvalidTransactionInput.Code, Message: "Note text is required"}
	}
	line := FormatNoteLine(at, actor, text)
	if t.Notes == "" {
		t.Notes = line
	} else {
		t.Notes = t.Notes + "\n" + line
	}
	t.Touch(at)
	return nil
}

// CanVoid checks whether the transaction may be voided
func (t *Transaction) CanVoid() error {
	if t.Type() == TypeRefund {
		return ErrNotVoidable
	}
	if t.IsVoided() {
		return ErrAlreadyVoided
	}
	return nil
}

// MarkVoided attaches the void marker and appends the matching note line. Irreversible.
func (t *Transaction) MarkVoided(actor uuid.UUID, reason string, at time.Time) error {
	if err := t.CanVoid(); err != nil {
		return err
	}
	t.Void = &VoidMarker{At: at, By: actor, Reason: reason}
	text := "VOIDED"
	if strings.TrimSpace(reason) != "" {
		text = "VOIDED: " + reason
	}
	return t.AppendNote(actor, text, at)
}

// CanRefund checks whether the transaction may be refunded. Whether it was already
// refunded is a property of the log, checked by the caller.
func (t *Transaction) CanRefund() error {
	if t.Type() == TypeRefund {
		return ErrRefundNotRefundable
	}
	if t.IsVoided() {
		return ErrTransactionVoided
	}
	return nil
}

// NewRefund builds the compensating refund transaction for t. The refund carries the
// same amount and reference as the original.
func (t *Transaction) NewRefund(actor uuid.UUID, at time.Time) (*Transaction, error) {
	if err := t.CanRefund(); err != nil {
		return nil, err
	}
	return NewTransaction(NewTransactionInput{
		StoreID:       t.StoreID,
		Amount:        valueobject.NewMoney(t.Amount),
		PaymentMethod: t.PaymentMethod,
		Reference:     t.Reference,
		CustomerID:    t.CustomerID,
		CustomerName:  t.CustomerName,
		Description:   fmt.Sprintf("Refund of %s", t.TransactionNumber),
		ProcessedBy:   actor,
		Detail: RefundDetail{
			OriginalID:     t.ID,
			OriginalNumber: t.TransactionNumber,
			OriginalType:   t.Type(),
		},
		At: at,
	})
}

// RefundOf returns the original transaction id when t is a refund
func (t *Transaction) RefundOf() (uuid.UUID, bool) {
	if d, ok := t.Detail.(RefundDetail); ok {
		return d.OriginalID, true
	}
	return uuid.Nil, false
}

// ActiveBalance sums the signed amounts of transactions that are not voided
func ActiveBalance(txs []*Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, tx := range txs {
		if tx.IsVoided() {
			continue
		}
		total = total.Add(tx.SignedAmount())
	}
	return total
}
