package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/erp/layaway/internal/domain/ledger"
	"github.com/erp/layaway/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// LedgerTransactionModel is the persistence model for the store-wide transaction log.
// The type-specific detail is stored as JSON next to the shared columns.
type LedgerTransactionModel struct {
	BaseModel
	StoreID           uuid.UUID              `gorm:"type:uuid;not null;uniqueIndex:uq_ledger_transactions_store_transaction_number,priority:1;uniqueIndex:uq_ledger_transactions_store_refund_of,priority:1,where:refund_of_id IS NOT NULL;index:idx_ledger_transactions_store_reference,priority:1"`
	TransactionNumber string                 `gorm:"type:varchar(50);not null;uniqueIndex:uq_ledger_transactions_store_transaction_number,priority:2"`
	Type              ledger.TransactionType `gorm:"type:varchar(20);not null;index"`
	Amount            decimal.Decimal        `gorm:"type:decimal(18,4);not null;check:chk_ledger_transactions_amount,amount >= 0"`
	PaymentMethod     string                 `gorm:"type:varchar(20)"`
	ReferenceID       *uuid.UUID             `gorm:"type:uuid;index:idx_ledger_transactions_store_reference,priority:3"`
	ReferenceType     string                 `gorm:"type:varchar(50);index:idx_ledger_transactions_store_reference,priority:2"`
	CustomerID        *uuid.UUID             `gorm:"type:uuid"`
	CustomerName      string                 `gorm:"type:varchar(200)"`
	Description       string                 `gorm:"type:varchar(500)"`
	Notes             string                 `gorm:"type:text"`
	ProcessedBy       uuid.UUID              `gorm:"type:uuid;not null"`
	Detail            datatypes.JSON
	RefundOfID        *uuid.UUID `gorm:"type:uuid;uniqueIndex:uq_ledger_transactions_store_refund_of,priority:2,where:refund_of_id IS NOT NULL"`
	VoidedAt          *time.Time
	VoidedBy          *uuid.UUID `gorm:"type:uuid"`
	VoidReason        string     `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (LedgerTransactionModel) TableName() string {
	return "ledger_transactions"
}

// ToDomain converts the persistence model to a domain Transaction.
func (m *LedgerTransactionModel) ToDomain() (*ledger.Transaction, error) {
	detail, err := DecodeDetail(m.Type, m.Detail)
	if err != nil {
		return nil, err
	}
	tx := &ledger.Transaction{
		BaseEntity:        shared.BaseEntity{ID: m.ID, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		StoreID:           m.StoreID,
		TransactionNumber: m.TransactionNumber,
		Amount:            m.Amount,
		PaymentMethod:     m.PaymentMethod,
		CustomerID:        m.CustomerID,
		CustomerName:      m.CustomerName,
		Description:       m.Description,
		Notes:             m.Notes,
		ProcessedBy:       m.ProcessedBy,
		Detail:            detail,
	}
	if m.ReferenceID != nil {
		tx.Reference = ledger.EntityRef{ID: *m.ReferenceID, Type: m.ReferenceType}
	}
	if m.VoidedAt != nil {
		marker := &ledger.VoidMarker{At: *m.VoidedAt, Reason: m.VoidReason}
		if m.VoidedBy != nil {
			marker.By = *m.VoidedBy
		}
		tx.Void = marker
	}
	return tx, nil
}

// LedgerTransactionModelFromDomain creates a new persistence model from a domain Transaction.
func LedgerTransactionModelFromDomain(tx *ledger.Transaction) (*LedgerTransactionModel, error) {
	detail, err := json.Marshal(tx.Detail)
	if err != nil {
		return nil, fmt.Errorf("encode %s detail: %w", tx.Type(), err)
	}
	m := &LedgerTransactionModel{
		StoreID:           tx.StoreID,
		TransactionNumber: tx.TransactionNumber,
		Type:              tx.Type(),
		Amount:            tx.Amount,
		PaymentMethod:     tx.PaymentMethod,
		ReferenceType:     tx.Reference.Type,
		CustomerID:        tx.CustomerID,
		CustomerName:      tx.CustomerName,
		Description:       tx.Description,
		Notes:             tx.Notes,
		ProcessedBy:       tx.ProcessedBy,
		Detail:            datatypes.JSON(detail),
	}
	m.FromDomainBaseEntity(tx.BaseEntity)
	if tx.Reference.ID != uuid.Nil {
		ref := tx.Reference.ID
		m.ReferenceID = &ref
	}
	if orig, ok := tx.RefundOf(); ok {
		m.RefundOfID = &orig
	}
	if tx.Void != nil {
		at, by := tx.Void.At, tx.Void.By
		m.VoidedAt = &at
		m.VoidedBy = &by
		m.VoidReason = tx.Void.Reason
	}
	return m, nil
}

// DecodeDetail rebuilds the detail variant named by the type tag
func DecodeDetail(t ledger.TransactionType, raw []byte) (ledger.Detail, error) {
	var (
		detail ledger.Detail
		err    error
	)
	switch t {
	case ledger.TypeSale:
		detail, err = decodeInto[ledger.SaleDetail](raw)
	case ledger.TypeLaybyDeposit:
		detail, err = decodeInto[ledger.LaybyDepositDetail](raw)
	case ledger.TypeLaybyPayment:
		detail, err = decodeInto[ledger.LaybyPaymentDetail](raw)
	case ledger.TypeRefund:
		detail, err = decodeInto[ledger.RefundDetail](raw)
	case ledger.TypeAdjustment:
		detail, err = decodeInto[ledger.AdjustmentDetail](raw)
	case ledger.TypeOther:
		detail, err = decodeInto[ledger.OtherDetail](raw)
	default:
		return nil, ledger.ErrInvalidTransactionType.WithDetail("type", string(t))
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s detail: %w", t, err)
	}
	return detail, nil
}

func decodeInto[T ledger.Detail](raw []byte) (ledger.Detail, error) {
	var v T
	if len(raw) == 0 || string(raw) == "null" {
		return v, nil
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}
