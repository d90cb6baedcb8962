// Package ledger serves the transaction log: refunds, voids, notes, and the
// reporting reads built on it.
package ledger

import (
	"context"
	"fmt"
	"time"

	appaudit "github.com/erp/layaway/internal/application/audit"
	applayaway "github.com/erp/layaway/internal/application/layaway"
	"github.com/erp/layaway/internal/domain/audit"
	"github.com/erp/layaway/internal/domain/identifier"
	"github.com/erp/layaway/internal/domain/layaway"
	"github.com/erp/layaway/internal/domain/ledger"
	"github.com/erp/layaway/internal/domain/shared"
	"github.com/erp/layaway/internal/domain/shared/valueobject"
	"github.com/erp/layaway/internal/infrastructure/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Config holds the identifier settings used for refunds
type Config struct {
	RefundNamespace       identifier.Namespace
	MaxIdentifierAttempts int
}

// DefaultConfig returns the standard refund namespace and retry ceiling
func DefaultConfig() Config {
	return Config{
		RefundNamespace:       identifier.RefundNamespace,
		MaxIdentifierAttempts: identifier.DefaultMaxAttempts,
	}
}

// TransactionService handles operations on already logged transactions
type TransactionService struct {
	scope    applayaway.TransactionScope
	txnRepo  ledger.Repository
	recorder *appaudit.Recorder
	metrics  applayaway.Metrics
	clock    shared.Clock
	logger   *zap.Logger
	cfg      Config
}

// NewTransactionService creates a new TransactionService
func NewTransactionService(
	scope applayaway.TransactionScope,
	txnRepo ledger.Repository,
	recorder *appaudit.Recorder,
	cfg Config,
) *TransactionService {
	if cfg.MaxIdentifierAttempts <= 0 {
		cfg.MaxIdentifierAttempts = identifier.DefaultMaxAttempts
	}
	return &TransactionService{
		scope:    scope,
		txnRepo:  txnRepo,
		recorder: recorder,
		metrics:  applayaway.NoopMetrics{},
		clock:    shared.SystemClock{},
		logger:   zap.NewNop(),
		cfg:      cfg,
	}
}

// SetMetrics sets the business metrics sink
func (s *TransactionService) SetMetrics(metrics applayaway.Metrics) {
	if metrics != nil {
		s.metrics = metrics
	}
}

// SetClock overrides the time source
func (s *TransactionService) SetClock(clock shared.Clock) {
	if clock != nil {
		s.clock = clock
	}
}

// SetLogger sets the service logger
func (s *TransactionService) SetLogger(l *zap.Logger) {
	if l != nil {
		s.logger = l
	}
}

func (s *TransactionService) refundTransaction(ctx context.Context, req RefundRequest) (*RefundResult, error) {
	now := s.clock.Now()
	var (
		refund       *ledger.Transaction
		orderBalance *decimal.Decimal
		pending      []*audit.Entry
		tries        int
	)
	err := s.scope.Execute(ctx, func(repos applayaway.TransactionalRepositories) error {
		original, err := repos.Transactions().FindByID(ctx, req.StoreID, req.TransactionID)
		if err != nil {
			return err
		}
		if err := original.CanRefund(); err != nil {
			return err
		}
		existing, err := repos.Transactions().FindRefundOf(ctx, req.StoreID, original.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			return ledger.ErrAlreadyRefunded.WithDetail("refund_transaction_number", existing.TransactionNumber)
		}

		refund, err = original.NewRefund(req.ActorID, now)
		if err != nil {
			return err
		}
		tries, err = applayaway.AppendTransaction(ctx, repos, refund, s.cfg.RefundNamespace, s.cfg.MaxIdentifierAttempts)
		if err != nil {
			return err
		}

		entries := []*audit.Entry{
			audit.NewEntry(audit.Record{
				StoreID:     req.StoreID,
				EntityID:    original.ID,
				EntityType:  audit.EntityTransaction,
				Action:      audit.ActionRefunded,
				Description: fmt.Sprintf("Transaction %s refunded by %s", original.TransactionNumber, refund.TransactionNumber),
				NewValues: audit.Values{
					"refund_transaction_id":     refund.ID.String(),
					"refund_transaction_number": refund.TransactionNumber,
					"amount":                    refund.Amount.StringFixed(2),
				},
				Actor: req.ActorID,
				At:    now,
			}),
			audit.NewEntry(audit.Record{
				StoreID:     req.StoreID,
				EntityID:    refund.ID,
				EntityType:  audit.EntityTransaction,
				Action:      audit.ActionCreated,
				Description: fmt.Sprintf("Refund %s logged for %s", refund.TransactionNumber, original.TransactionNumber),
				NewValues: audit.Values{
					"transaction_number": refund.TransactionNumber,
					"type":               string(refund.Type()),
					"amount":             refund.Amount.StringFixed(2),
					"refund_of":          original.ID.String(),
				},
				Actor: req.ActorID,
				At:    now,
			}),
		}

		if orderID, ok := ledger.OrderIDOf(original.Detail); ok && original.Amount.IsPositive() {
			entry, balance, err := s.restoreOrderBalance(ctx, repos, req, orderID, refund, now)
			if err != nil {
				return err
			}
			orderBalance = &balance
			entries = append(entries, entry)
		}

		pending = s.recorder.WithinTx(ctx, repos.Audit(), entries...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if tries > 0 {
		s.metrics.RecordIdentifierRetries(ctx, s.cfg.RefundNamespace.Name, tries)
	}
	s.metrics.RecordRefund(ctx, req.StoreID, refund.Amount)
	warnings := s.recorder.AfterCommit(ctx, pending)

	s.log(ctx).Info("transaction refunded",
		zap.String("transaction_id", req.TransactionID.String()),
		zap.String("refund_number", refund.TransactionNumber),
	)

	return &RefundResult{
		RefundTransactionID:     refund.ID,
		RefundTransactionNumber: refund.TransactionNumber,
		Refund:                  ToTransactionResponse(refund),
		OrderBalance:            orderBalance,
		Warnings:                warnings,
	}, nil
}

// restoreOrderBalance puts a refunded amount back on the order it was paid against
func (s *TransactionService) restoreOrderBalance(
	ctx context.Context,
	repos applayaway.TransactionalRepositories,
	req RefundRequest,
	orderID uuid.UUID,
	refund *ledger.Transaction,
	now time.Time,
) (*audit.Entry, decimal.Decimal, error) {
	order, err := repos.Orders().FindByID(ctx, req.StoreID, orderID)
	if err != nil {
		return nil, decimal.Zero, err
	}
	statusBefore, balanceBefore := order.Status, order.BalanceRemaining
	change, err := repos.Orders().RestoreBalance(ctx, req.StoreID, orderID, refund.Amount, now)
	if err != nil {
		return nil, decimal.Zero, fmt.Errorf("restore balance of order %s: %w", order.OrderNumber, err)
	}
	if err := order.ReplayRestore(valueobject.NewMoney(refund.Amount), change, now); err != nil {
		return nil, decimal.Zero, err
	}
	entry := audit.NewEntry(audit.Record{
		StoreID:     req.StoreID,
		EntityID:    order.ID,
		EntityType:  audit.EntityOrder,
		Action:      audit.ActionRefunded,
		Description: fmt.Sprintf("Refund %s returned %s to order %s", refund.TransactionNumber, refund.Amount.StringFixed(2), order.OrderNumber),
		OldValues: audit.Values{
			"balance_remaining": balanceBefore.StringFixed(2),
			"status":            string(statusBefore),
		},
		NewValues: audit.Values{
			"balance_remaining":         order.BalanceRemaining.StringFixed(2),
			"status":                    string(order.Status),
			"refund_transaction_number": refund.TransactionNumber,
		},
		Actor: req.ActorID,
		At:    now,
	})
	if statusBefore == layaway.OrderStatusCompleted && order.Status == layaway.OrderStatusActive {
		s.log(ctx).Info("completed order reopened by refund",
			zap.String("order_id", order.ID.String()),
			zap.String("refund_number", refund.TransactionNumber),
		)
	}
	return entry, order.BalanceRemaining, nil
}

// voidTransaction adds only the void marker and a note line
func (s *TransactionService) voidTransaction(ctx context.Context, req VoidRequest) (*VoidResult, error) {
	now := s.clock.Now()
	var (
		txn     *ledger.Transaction
		pending []*audit.Entry
	)
	err := s.scope.Execute(ctx, func(repos applayaway.TransactionalRepositories) error {
		var err error
		txn, err = repos.Transactions().FindByID(ctx, req.StoreID, req.TransactionID)
		if err != nil {
			return err
		}
		if err := txn.CanVoid(); err != nil {
			return err
		}
		// a voided original drops out of the balance while its refund still counts
		refund, err := repos.Transactions().FindRefundOf(ctx, req.StoreID, txn.ID)
		if err != nil {
			return err
		}
		if refund != nil {
			return ledger.ErrAlreadyRefunded.WithDetail("refund_transaction_number", refund.TransactionNumber)
		}
		if err := txn.MarkVoided(req.ActorID, req.Reason, now); err != nil {
			return err
		}
		if err := repos.Transactions().MarkVoided(ctx, txn); err != nil {
			return err
		}
		pending = s.recorder.WithinTx(ctx, repos.Audit(), audit.NewEntry(audit.Record{
			StoreID:     req.StoreID,
			EntityID:    txn.ID,
			EntityType:  audit.EntityTransaction,
			Action:      audit.ActionVoided,
			Description: fmt.Sprintf("Transaction %s voided", txn.TransactionNumber),
			OldValues:   audit.Values{"voided": false},
			NewValues: audit.Values{
				"voided": true,
				"reason": req.Reason,
				"amount": txn.Amount.StringFixed(2),
			},
			Actor: req.ActorID,
			At:    now,
		}))
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordVoid(ctx, req.StoreID)
	return &VoidResult{
		Success:     true,
		Transaction: ToTransactionResponse(txn),
		Warnings:    s.recorder.AfterCommit(ctx, pending),
	}, nil
}

// AppendNote adds an attributed, timestamped line to a transaction's notes
func (s *TransactionService) AppendNote(ctx context.Context, req NoteRequest) (*NoteResult, error) {
	now := s.clock.Now()
	var (
		txn     *ledger.Transaction
		pending []*audit.Entry
	)
	err := s.scope.Execute(ctx, func(repos applayaway.TransactionalRepositories) error {
		var err error
		txn, err = repos.Transactions().FindByID(ctx, req.StoreID, req.TransactionID)
		if err != nil {
			return err
		}
		before := txn.Notes
		if err := txn.AppendNote(req.ActorID, req.Note, now); err != nil {
			return err
		}
		if err := repos.Transactions().SaveNotes(ctx, txn); err != nil {
			return err
		}
		pending = s.recorder.WithinTx(ctx, repos.Audit(), audit.NewEntry(audit.Record{
			StoreID:     req.StoreID,
			EntityID:    txn.ID,
			EntityType:  audit.EntityTransaction,
			Action:      audit.ActionNoteUpdated,
			Description: fmt.Sprintf("Note added to transaction %s", txn.TransactionNumber),
			OldValues:   audit.Values{"notes": before},
			NewValues:   audit.Values{"notes": txn.Notes},
			Actor:       req.ActorID,
			At:          now,
		}))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &NoteResult{
		Transaction: ToTransactionResponse(txn),
		Warnings:    s.recorder.AfterCommit(ctx, pending),
	}, nil
}

// MarkPrinted records that a receipt for the transaction was printed
func (s *TransactionService) MarkPrinted(ctx context.Context, storeID, transactionID, actorID uuid.UUID) error {
	txn, err := s.txnRepo.FindByID(ctx, storeID, transactionID)
	if err != nil {
		return err
	}
	return s.recorder.Record(ctx, audit.NewEntry(audit.Record{
		StoreID:     storeID,
		EntityID:    txn.ID,
		EntityType:  audit.EntityTransaction,
		Action:      audit.ActionPrinted,
		Description: fmt.Sprintf("Receipt for transaction %s printed", txn.TransactionNumber),
		Actor:       actorID,
		At:          s.clock.Now(),
	}))
}

// GetTransaction returns a single transaction
func (s *TransactionService) GetTransaction(ctx context.Context, storeID, transactionID uuid.UUID) (*TransactionResponse, error) {
	txn, err := s.txnRepo.FindByID(ctx, storeID, transactionID)
	if err != nil {
		return nil, err
	}
	resp := ToTransactionResponse(txn)
	return &resp, nil
}

// ListTransactions returns a page of a store's transactions
func (s *TransactionService) ListTransactions(ctx context.Context, storeID uuid.UUID, filter TransactionListFilter) ([]TransactionResponse, int64, error) {
	if filter.Type != "" && !filter.Type.IsValid() {
		return nil, 0, ledger.ErrInvalidTransactionType.WithDetail("type", string(filter.Type))
	}
	txns, total, err := s.txnRepo.List(ctx, storeID, filter.toFilter())
	if err != nil {
		return nil, 0, err
	}
	out := make([]TransactionResponse, len(txns))
	for i, t := range txns {
		out[i] = ToTransactionResponse(t)
	}
	return out, total, nil
}

// ActiveBalance sums the signed amounts of the non-voided transactions matching q
func (s *TransactionService) ActiveBalance(ctx context.Context, storeID uuid.UUID, q BalanceQuery) (*BalanceResponse, error) {
	filter := q.toFilter()
	filter.PageSize = shared.MaxPageSize

	var all []*ledger.Transaction
	for page := 1; ; page++ {
		filter.Page = page
		txns, total, err := s.txnRepo.List(ctx, storeID, filter)
		if err != nil {
			return nil, err
		}
		all = append(all, txns...)
		if len(txns) == 0 || int64(len(all)) >= total {
			break
		}
	}
	return &BalanceResponse{
		Balance:      ledger.ActiveBalance(all),
		Transactions: len(all),
	}, nil
}

func (s *TransactionService) log(ctx context.Context) *zap.Logger {
	return logger.WithTraceContext(ctx, s.logger)
}
