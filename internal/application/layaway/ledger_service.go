// Package layaway runs the installment order ledger: opening orders, applying
// payments, cancelling, and flagging overdue orders.
package layaway

import (
	"context"
	"errors"
	"fmt"

	appaudit "github.com/erp/layaway/internal/application/audit"
	"github.com/erp/layaway/internal/domain/audit"
	"github.com/erp/layaway/internal/domain/identifier"
	"github.com/erp/layaway/internal/domain/layaway"
	"github.com/erp/layaway/internal/domain/ledger"
	"github.com/erp/layaway/internal/domain/shared"
	"github.com/erp/layaway/internal/domain/shared/valueobject"
	"github.com/erp/layaway/internal/domain/store"
	"github.com/erp/layaway/internal/infrastructure/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// TaxConfigProvider resolves a store's tax configuration
type TaxConfigProvider interface {
	TaxConfigFor(ctx context.Context, storeID uuid.UUID) (*store.TaxConfig, error)
}

// Config holds the identifier settings of the ledger
type Config struct {
	OrderNamespace        identifier.Namespace
	TransactionNamespace  identifier.Namespace
	MaxIdentifierAttempts int
}

// DefaultConfig returns the standard namespaces and retry ceiling
func DefaultConfig() Config {
	return Config{
		OrderNamespace:        identifier.OrderNamespace,
		TransactionNamespace:  identifier.TransactionNamespace,
		MaxIdentifierAttempts: identifier.DefaultMaxAttempts,
	}
}

// LedgerService is the only path that changes an order's monetary fields. Every
// mutation runs as one unit of work: stock, order, payment, transaction log, audit
// trail and outbox events land together or not at all.
type LedgerService struct {
	scope       TransactionScope
	orderRepo   layaway.OrderRepository
	paymentRepo layaway.PaymentRepository
	recorder    *appaudit.Recorder
	taxes       TaxConfigProvider
	metrics     Metrics
	clock       shared.Clock
	logger      *zap.Logger
	cfg         Config
}

// NewLedgerService creates a new LedgerService
func NewLedgerService(
	scope TransactionScope,
	orderRepo layaway.OrderRepository,
	paymentRepo layaway.PaymentRepository,
	recorder *appaudit.Recorder,
	cfg Config,
) *LedgerService {
	if cfg.MaxIdentifierAttempts <= 0 {
		cfg.MaxIdentifierAttempts = identifier.DefaultMaxAttempts
	}
	return &LedgerService{
		scope:       scope,
		orderRepo:   orderRepo,
		paymentRepo: paymentRepo,
		recorder:    recorder,
		metrics:     NoopMetrics{},
		clock:       shared.SystemClock{},
		logger:      zap.NewNop(),
		cfg:         cfg,
	}
}

// SetTaxConfigProvider enables tax portion tracking on new orders
func (s *LedgerService) SetTaxConfigProvider(provider TaxConfigProvider) {
	s.taxes = provider
}

// SetMetrics sets the business metrics sink
func (s *LedgerService) SetMetrics(metrics Metrics) {
	if metrics != nil {
		s.metrics = metrics
	}
}

// SetClock overrides the time source
func (s *LedgerService) SetClock(clock shared.Clock) {
	if clock != nil {
		s.clock = clock
	}
}

// SetLogger sets the service logger
func (s *LedgerService) SetLogger(l *zap.Logger) {
	if l != nil {
		s.logger = l
	}
}

func (s *LedgerService) createInstallmentOrder(ctx context.Context, req CreateOrderRequest) (*CreateOrderResult, error) {
	method := req.PaymentMethod
	if method == "" {
		method = layaway.PaymentMethodCash
	}
	if !method.IsValid() {
		return nil, layaway.ErrInvalidPaymentMethod.WithDetail("method", string(method))
	}
	deposit, err := moneyOf(req.DepositAmount)
	if err != nil {
		return nil, err
	}
	items := make([]layaway.ItemInput, len(req.Items))
	for i, it := range req.Items {
		price, err := moneyOf(it.UnitPrice)
		if err != nil {
			return nil, err
		}
		items[i] = layaway.ItemInput{
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			UnitPrice:   price,
		}
	}

	now := s.clock.Now()
	order, err := layaway.NewOrder(layaway.NewOrderInput{
		StoreID: req.StoreID,
		ActorID: req.ActorID,
		Customer: layaway.Customer{
			ID:      req.CustomerID,
			Name:    req.CustomerName,
			Contact: req.CustomerContact,
		},
		Items:   items,
		Deposit: deposit,
		DueDate: req.DueDate,
		Notes:   req.Notes,
		At:      now,
	})
	if err != nil {
		return nil, err
	}
	if s.taxes != nil {
		cfg, err := s.taxes.TaxConfigFor(ctx, req.StoreID)
		if err != nil {
			return nil, fmt.Errorf("load tax config: %w", err)
		}
		order.ApplyTax(cfg.TaxPortion(order.TotalAmount))
	}

	var (
		depositTxn *ledger.Transaction
		pending    []*audit.Entry
		orderTries int
		txnTries   int
	)
	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		if err := repos.Stock().Reserve(ctx, order.StoreID, order.ReservationLines()); err != nil {
			return err
		}

		number, retries, err := identifier.Assign(ctx, repos.Identifiers(), order.StoreID, s.cfg.OrderNamespace, s.cfg.MaxIdentifierAttempts,
			func(candidate string) error {
				order.OrderNumber = candidate
				return repos.Orders().Create(ctx, order)
			})
		orderTries = retries
		if err != nil {
			return err
		}
		order.AssignNumber(number)

		depositTxn, err = ledger.NewTransaction(ledger.NewTransactionInput{
			StoreID:       order.StoreID,
			Amount:        deposit,
			PaymentMethod: string(method),
			Reference:     orderRef(order),
			CustomerID:    order.Customer.ID,
			CustomerName:  order.Customer.Name,
			Description:   fmt.Sprintf("Deposit for installment order %s", number),
			ProcessedBy:   req.ActorID,
			Detail: ledger.LaybyDepositDetail{
				OrderID:      order.ID,
				OrderNumber:  number,
				OrderTotal:   order.TotalAmount,
				BalanceAfter: order.BalanceRemaining,
			},
			At: now,
		})
		if err != nil {
			return err
		}
		txnTries, err = AppendTransaction(ctx, repos, depositTxn, s.cfg.TransactionNamespace, s.cfg.MaxIdentifierAttempts)
		if err != nil {
			return err
		}

		if err := repos.Events().Publish(ctx, order.GetDomainEvents()...); err != nil {
			return fmt.Errorf("publish order events: %w", err)
		}

		pending = s.recorder.WithinTx(ctx, repos.Audit(),
			audit.NewEntry(audit.Record{
				StoreID:     order.StoreID,
				EntityID:    order.ID,
				EntityType:  audit.EntityOrder,
				Action:      audit.ActionCreated,
				Description: fmt.Sprintf("Installment order %s opened with deposit %s", number, deposit),
				NewValues: audit.Values{
					"order_number":      number,
					"total_amount":      order.TotalAmount.StringFixed(2),
					"deposit_amount":    order.DepositAmount.StringFixed(2),
					"balance_remaining": order.BalanceRemaining.StringFixed(2),
					"tax_amount":        order.TaxAmount.StringFixed(2),
					"status":            string(order.Status),
				},
				Actor: req.ActorID,
				At:    now,
			}),
			audit.NewEntry(audit.Record{
				StoreID:     order.StoreID,
				EntityID:    depositTxn.ID,
				EntityType:  audit.EntityTransaction,
				Action:      audit.ActionCreated,
				Description: fmt.Sprintf("Deposit %s logged for order %s", depositTxn.TransactionNumber, number),
				NewValues:   transactionValues(depositTxn),
				Actor:       req.ActorID,
				At:          now,
			}),
		)
		return nil
	})
	if err != nil {
		return nil, err
	}
	order.ClearDomainEvents()

	s.recordRetries(ctx, s.cfg.OrderNamespace, orderTries)
	s.recordRetries(ctx, s.cfg.TransactionNamespace, txnTries)
	s.metrics.RecordOrderCreated(ctx, order.StoreID, order.TotalAmount)
	warnings := s.recorder.AfterCommit(ctx, pending)

	s.log(ctx).Info("installment order created",
		zap.String("order_id", order.ID.String()),
		zap.String("order_number", order.OrderNumber),
		zap.String("status", order.Status.String()),
	)

	return &CreateOrderResult{
		OrderID:                  order.ID,
		OrderNumber:              order.OrderNumber,
		BalanceRemaining:         order.BalanceRemaining,
		Status:                   order.Status,
		DepositTransactionID:     depositTxn.ID,
		DepositTransactionNumber: depositTxn.TransactionNumber,
		Order:                    ToOrderResponse(order),
		Warnings:                 warnings,
	}, nil
}

func (s *LedgerService) applyInstallmentPayment(ctx context.Context, req ApplyPaymentRequest) (*ApplyPaymentResult, error) {
	amount, err := moneyOf(req.Amount)
	if err != nil {
		return nil, err
	}
	if !amount.IsPositive() {
		return nil, layaway.ErrInvalidAmount.WithDetail("amount", amount.String())
	}
	if !req.Method.IsValid() {
		return nil, layaway.ErrInvalidPaymentMethod.WithDetail("method", string(req.Method))
	}

	now := s.clock.Now()
	var (
		result  *ApplyPaymentResult
		pending []*audit.Entry
		tries   int
	)
	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		order, err := repos.Orders().FindByID(ctx, req.StoreID, req.OrderID)
		if err != nil {
			return err
		}
		if err := order.CheckPayment(amount); err != nil {
			return err
		}
		before := order.BalanceRemaining
		statusBefore := order.Status

		change, err := repos.Orders().DeductBalance(ctx, req.StoreID, req.OrderID, amount.Decimal(), now)
		if err != nil {
			if errors.Is(err, shared.ErrConcurrencyConflict) {
				return s.classifyLostPayment(ctx, repos, req, amount, err)
			}
			return err
		}
		if err := order.ReplayPayment(amount, change, now); err != nil {
			return err
		}

		payment, err := layaway.NewPayment(layaway.NewPaymentInput{
			StoreID:     req.StoreID,
			OrderID:     order.ID,
			Amount:      amount,
			Method:      req.Method,
			Reference:   req.Reference,
			Notes:       req.Notes,
			ProcessedBy: req.ActorID,
			At:          now,
		})
		if err != nil {
			return err
		}

		txn, err := ledger.NewTransaction(ledger.NewTransactionInput{
			StoreID:       req.StoreID,
			Amount:        amount,
			PaymentMethod: string(req.Method),
			Reference:     orderRef(order),
			CustomerID:    order.Customer.ID,
			CustomerName:  order.Customer.Name,
			Description:   fmt.Sprintf("Installment payment for order %s", order.OrderNumber),
			Notes:         req.Notes,
			ProcessedBy:   req.ActorID,
			Detail: ledger.LaybyPaymentDetail{
				OrderID:      order.ID,
				OrderNumber:  order.OrderNumber,
				PaymentID:    payment.ID,
				BalanceAfter: order.BalanceRemaining,
			},
			At: now,
		})
		if err != nil {
			return err
		}
		tries, err = AppendTransaction(ctx, repos, txn, s.cfg.TransactionNamespace, s.cfg.MaxIdentifierAttempts)
		if err != nil {
			return err
		}

		payment.LinkTransaction(txn.ID)
		if err := repos.Payments().Create(ctx, payment); err != nil {
			return err
		}

		if err := repos.Events().Publish(ctx, order.GetDomainEvents()...); err != nil {
			return fmt.Errorf("publish payment events: %w", err)
		}
		order.ClearDomainEvents()

		pending = s.recorder.WithinTx(ctx, repos.Audit(),
			audit.NewEntry(audit.Record{
				StoreID:     req.StoreID,
				EntityID:    order.ID,
				EntityType:  audit.EntityOrder,
				Action:      audit.ActionPaymentApplied,
				Description: fmt.Sprintf("Payment %s of %s applied to order %s", txn.TransactionNumber, amount, order.OrderNumber),
				OldValues: audit.Values{
					"balance_remaining": before.StringFixed(2),
					"status":            string(statusBefore),
				},
				NewValues: audit.Values{
					"balance_remaining":  order.BalanceRemaining.StringFixed(2),
					"status":             string(order.Status),
					"amount":             amount.String(),
					"payment_id":         payment.ID.String(),
					"transaction_number": txn.TransactionNumber,
				},
				Actor: req.ActorID,
				At:    now,
			}),
			audit.NewEntry(audit.Record{
				StoreID:     req.StoreID,
				EntityID:    txn.ID,
				EntityType:  audit.EntityTransaction,
				Action:      audit.ActionCreated,
				Description: fmt.Sprintf("Installment payment %s logged for order %s", txn.TransactionNumber, order.OrderNumber),
				NewValues:   transactionValues(txn),
				Actor:       req.ActorID,
				At:          now,
			}),
		)

		result = &ApplyPaymentResult{
			PaymentID:         payment.ID,
			TransactionID:     txn.ID,
			TransactionNumber: txn.TransactionNumber,
			NewBalance:        order.BalanceRemaining,
			NewStatus:         order.Status,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.recordRetries(ctx, s.cfg.TransactionNamespace, tries)
	s.metrics.RecordPaymentApplied(ctx, req.StoreID, amount.Decimal(), result.NewStatus == layaway.OrderStatusCompleted)
	result.Warnings = s.recorder.AfterCommit(ctx, pending)
	return result, nil
}

// classifyLostPayment explains why the conditional balance update matched no row.
// A balance drained by a concurrent payment reports AMOUNT_EXCEEDS_BALANCE, an order
// that was cancelled meanwhile reports ORDER_TERMINAL.
func (s *LedgerService) classifyLostPayment(
	ctx context.Context,
	repos TransactionalRepositories,
	req ApplyPaymentRequest,
	amount valueobject.Money,
	conflict error,
) error {
	current, err := repos.Orders().FindByID(ctx, req.StoreID, req.OrderID)
	if err != nil {
		return err
	}
	if amount.Decimal().GreaterThan(current.BalanceRemaining) {
		return layaway.NewAmountExceedsBalanceError(amount.Decimal(), current.BalanceRemaining)
	}
	if err := current.CheckPayment(amount); err != nil {
		return err
	}
	return conflict
}

func (s *LedgerService) cancelOrder(ctx context.Context, req CancelOrderRequest) (*CancelOrderResult, error) {
	now := s.clock.Now()
	var (
		order   *layaway.Order
		pending []*audit.Entry
	)
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		order, err = repos.Orders().FindByID(ctx, req.StoreID, req.OrderID)
		if err != nil {
			return err
		}
		statusBefore := order.Status
		if err := order.Cancel(req.Reason, now); err != nil {
			return err
		}
		if err := repos.Orders().Cancel(ctx, req.StoreID, req.OrderID, req.Reason, now); err != nil {
			if errors.Is(err, shared.ErrConcurrencyConflict) {
				current, ferr := repos.Orders().FindByID(ctx, req.StoreID, req.OrderID)
				if ferr != nil {
					return ferr
				}
				if current.Status.IsTerminal() {
					return layaway.ErrOrderTerminal.WithDetail("status", string(current.Status))
				}
			}
			return err
		}
		if err := repos.Stock().Release(ctx, req.StoreID, order.ReservationLines()); err != nil {
			return fmt.Errorf("release reserved stock: %w", err)
		}
		if err := repos.Events().Publish(ctx, order.GetDomainEvents()...); err != nil {
			return fmt.Errorf("publish cancel events: %w", err)
		}
		order.ClearDomainEvents()

		pending = s.recorder.WithinTx(ctx, repos.Audit(), audit.NewEntry(audit.Record{
			StoreID:     req.StoreID,
			EntityID:    order.ID,
			EntityType:  audit.EntityOrder,
			Action:      audit.ActionCancelled,
			Description: fmt.Sprintf("Order %s cancelled", order.OrderNumber),
			OldValues:   audit.Values{"status": string(statusBefore)},
			NewValues: audit.Values{
				"status":            string(order.Status),
				"reason":            req.Reason,
				"balance_remaining": order.BalanceRemaining.StringFixed(2),
			},
			Actor: req.ActorID,
			At:    now,
		}))
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordOrderCancelled(ctx, req.StoreID)
	return &CancelOrderResult{
		Order:    ToOrderResponse(order),
		Warnings: s.recorder.AfterCommit(ctx, pending),
	}, nil
}

// MarkOverdueResult summarises an overdue sweep
type MarkOverdueResult struct {
	Flagged  int
	Warnings []string
}

func (s *LedgerService) markOverdue(ctx context.Context, limit int) (*MarkOverdueResult, error) {
	now := s.clock.Now()
	var (
		flagged []*layaway.Order
		pending []*audit.Entry
	)
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		flagged, err = repos.Orders().MarkOverdue(ctx, now, limit)
		if err != nil {
			return err
		}
		entries := make([]*audit.Entry, 0, len(flagged))
		for _, o := range flagged {
			entries = append(entries, audit.NewEntry(audit.Record{
				StoreID:     o.StoreID,
				EntityID:    o.ID,
				EntityType:  audit.EntityOrder,
				Action:      audit.ActionStatusChanged,
				Description: fmt.Sprintf("Order %s is past its due date", o.OrderNumber),
				OldValues:   audit.Values{"status": string(layaway.OrderStatusActive)},
				NewValues:   audit.Values{"status": string(layaway.OrderStatusOverdue)},
				Actor:       uuid.Nil,
				At:          now,
			}))
		}
		pending = s.recorder.WithinTx(ctx, repos.Audit(), entries...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(flagged) > 0 {
		s.metrics.RecordOrdersOverdue(ctx, len(flagged))
	}
	return &MarkOverdueResult{
		Flagged:  len(flagged),
		Warnings: s.recorder.AfterCommit(ctx, pending),
	}, nil
}

// GetOrder returns an order with its payments
func (s *LedgerService) GetOrder(ctx context.Context, storeID, orderID uuid.UUID) (*OrderDetailResponse, error) {
	order, err := s.orderRepo.FindByID(ctx, storeID, orderID)
	if err != nil {
		return nil, err
	}
	payments, err := s.paymentRepo.FindByOrder(ctx, storeID, orderID)
	if err != nil {
		return nil, err
	}
	resp := &OrderDetailResponse{
		OrderResponse: ToOrderResponse(order),
		Payments:      make([]PaymentResponse, len(payments)),
	}
	for i, p := range payments {
		resp.Payments[i] = ToPaymentResponse(p)
	}
	return resp, nil
}

// ListOrders returns a page of a store's orders
func (s *LedgerService) ListOrders(ctx context.Context, storeID uuid.UUID, filter OrderListFilter) ([]OrderResponse, int64, error) {
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, 0, shared.ErrInvalidInput.WithDetail("status", string(filter.Status))
	}
	orders, total, err := s.orderRepo.List(ctx, storeID, layaway.OrderFilter{
		Status:    filter.Status,
		SortBy:    filter.SortBy,
		SortOrder: filter.SortOrder,
		Page:      filter.Page,
		PageSize:  filter.PageSize,
	})
	if err != nil {
		return nil, 0, err
	}
	out := make([]OrderResponse, len(orders))
	for i, o := range orders {
		out[i] = ToOrderResponse(o)
	}
	return out, total, nil
}

func (s *LedgerService) recordRetries(ctx context.Context, ns identifier.Namespace, retries int) {
	if retries == 0 {
		return
	}
	s.metrics.RecordIdentifierRetries(ctx, ns.Name, retries)
	s.log(ctx).Debug("identifier collisions retried",
		zap.String("namespace", ns.Name),
		zap.Int("retries", retries),
	)
}

func (s *LedgerService) log(ctx context.Context) *zap.Logger {
	return logger.WithTraceContext(ctx, s.logger)
}

// moneyOf accepts amounts with at most two decimal places; finer amounts are rejected, not rounded
func moneyOf(d decimal.Decimal) (valueobject.Money, error) {
	if !d.Equal(d.Round(2)) {
		return valueobject.Money{}, layaway.ErrInvalidAmount.WithDetail("amount", d.String())
	}
	return valueobject.NewMoney(d), nil
}

// transactionValues snapshots the immutable fields of a logged transaction
func transactionValues(txn *ledger.Transaction) audit.Values {
	return audit.Values{
		"transaction_number": txn.TransactionNumber,
		"type":               string(txn.Type()),
		"amount":             txn.Amount.StringFixed(2),
		"reference_type":     txn.Reference.Type,
		"reference_id":       txn.Reference.ID.String(),
	}
}
