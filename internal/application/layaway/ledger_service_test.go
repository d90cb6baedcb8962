package layaway_test

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	appaudit "github.com/erp/layaway/internal/application/audit"
	applayaway "github.com/erp/layaway/internal/application/layaway"
	"github.com/erp/layaway/internal/domain/audit"
	"github.com/erp/layaway/internal/domain/layaway"
	"github.com/erp/layaway/internal/domain/ledger"
	"github.com/erp/layaway/internal/domain/shared"
	"github.com/erp/layaway/internal/domain/stock"
	"github.com/erp/layaway/internal/domain/store"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedgerService_PaymentLifecycle(t *testing.T) {
	h := newLedgerHarness(t)
	ctx := context.Background()

	created := h.openOrder(t, "300.00", "100.00")
	assert.True(t, dec("200").Equal(created.BalanceRemaining))
	assert.Equal(t, layaway.OrderStatusActive, created.Status)
	assert.Equal(t, "LAY-20260314-0001", created.OrderNumber)
	assert.Equal(t, "TXN-20260314-0001", created.DepositTransactionNumber)
	assert.Empty(t, created.Warnings)

	h.clock.Advance(time.Hour)
	first, err := h.pay(created.OrderID, "150.00")
	require.NoError(t, err)
	assert.True(t, dec("50").Equal(first.NewBalance))
	assert.Equal(t, layaway.OrderStatusActive, first.NewStatus)
	assert.Equal(t, "TXN-20260314-0002", first.TransactionNumber)

	h.clock.Advance(time.Hour)
	second, err := h.pay(created.OrderID, "50.00")
	require.NoError(t, err)
	assert.True(t, second.NewBalance.IsZero())
	assert.Equal(t, layaway.OrderStatusCompleted, second.NewStatus)

	_, err = h.pay(created.OrderID, "0.01")
	assert.ErrorIs(t, err, layaway.ErrOrderTerminal)

	t.Run("order read model carries payments", func(t *testing.T) {
		detail, err := h.service.GetOrder(ctx, h.storeID, created.OrderID)
		require.NoError(t, err)
		assert.Equal(t, layaway.OrderStatusCompleted, detail.Status)
		assert.True(t, dec("300").Equal(detail.PaidAmount))
		require.Len(t, detail.Payments, 2)
		assert.Equal(t, first.TransactionID, detail.Payments[0].TransactionID)
		assert.NotNil(t, detail.CompletedAt)
	})

	t.Run("transaction log holds deposit and payments", func(t *testing.T) {
		txns, total, err := h.txns.List(ctx, h.storeID, ledger.Filter{
			Reference: &ledger.EntityRef{ID: created.OrderID, Type: ledger.ReferenceTypeLayawayOrder},
		})
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		assert.Equal(t, ledger.TypeLaybyDeposit, txns[0].Type())
		assert.Equal(t, ledger.TypeLaybyPayment, txns[1].Type())
		assert.True(t, dec("300").Equal(ledger.ActiveBalance(txns)))
	})

	t.Run("audit trail records every mutation", func(t *testing.T) {
		history, err := h.audits.History(ctx, h.storeID, created.OrderID, 10, 0)
		require.NoError(t, err)
		actions := make([]audit.ActionType, len(history))
		for i, e := range history {
			actions[i] = e.Action
		}
		assert.ElementsMatch(t, []audit.ActionType{
			audit.ActionCreated, audit.ActionPaymentApplied, audit.ActionPaymentApplied,
		}, actions)
		for _, e := range history {
			assert.Equal(t, h.actor, e.PerformedBy)
		}
	})

	t.Run("events are written to the outbox", func(t *testing.T) {
		assert.Equal(t, []string{
			layaway.EventTypeOrderCreated,
			layaway.EventTypePaymentApplied,
			layaway.EventTypePaymentApplied,
			layaway.EventTypeOrderCompleted,
		}, h.events.types())
	})
}

func TestLedgerService_FullDepositCompletesImmediately(t *testing.T) {
	h := newLedgerHarness(t)

	created := h.openOrder(t, "120.00", "120.00")
	assert.Equal(t, layaway.OrderStatusCompleted, created.Status)
	assert.True(t, created.BalanceRemaining.IsZero())
	assert.Equal(t, []string{layaway.EventTypeOrderCreated, layaway.EventTypeOrderCompleted}, h.events.types())

	_, err := h.pay(created.OrderID, "1.00")
	assert.ErrorIs(t, err, layaway.ErrOrderTerminal)
}

func TestLedgerService_StockUnavailableLeavesNothingBehind(t *testing.T) {
	h := newLedgerHarness(t)
	ctx := context.Background()

	p, q := uuid.New(), uuid.New()
	h.seedStock(t, p, 2)
	h.seedStock(t, q, 10)

	req := h.createRequest(q, 4, "10.00", "0")
	req.Items = append(req.Items, applayaway.CreateOrderItem{ProductID: p, ProductName: "Lamp", Quantity: 3, UnitPrice: dec("20.00")})

	_, err := h.service.CreateInstallmentOrder(ctx, req)
	require.ErrorIs(t, err, stock.ErrStockUnavailable)
	offending, ok := stock.UnavailableProductID(err)
	require.True(t, ok)
	assert.Equal(t, p, offending)

	assert.Equal(t, 2, h.onHand(t, p))
	assert.Equal(t, 10, h.onHand(t, q))

	orders, total, err := h.service.ListOrders(ctx, h.storeID, applayaway.OrderListFilter{})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, orders)

	_, txnTotal, err := h.txns.List(ctx, h.storeID, ledger.Filter{IncludeVoided: true})
	require.NoError(t, err)
	assert.Zero(t, txnTotal)
	assert.Empty(t, h.events.types())
}

func TestLedgerService_CreateValidation(t *testing.T) {
	h := newLedgerHarness(t)
	ctx := context.Background()
	productID := uuid.New()
	h.seedStock(t, productID, 5)

	tests := []struct {
		name    string
		mutate  func(*applayaway.CreateOrderRequest)
		wantErr error
	}{
		{
			name:    "empty item list",
			mutate:  func(r *applayaway.CreateOrderRequest) { r.Items = nil },
			wantErr: layaway.ErrEmptyItemList,
		},
		{
			name:    "zero quantity",
			mutate:  func(r *applayaway.CreateOrderRequest) { r.Items[0].Quantity = 0 },
			wantErr: layaway.ErrInvalidQuantity,
		},
		{
			name:    "deposit above total",
			mutate:  func(r *applayaway.CreateOrderRequest) { r.DepositAmount = dec("100.01") },
			wantErr: layaway.ErrInvalidAmount,
		},
		{
			name:    "negative deposit",
			mutate:  func(r *applayaway.CreateOrderRequest) { r.DepositAmount = dec("-1") },
			wantErr: layaway.ErrInvalidAmount,
		},
		{
			name:    "sub-cent price",
			mutate:  func(r *applayaway.CreateOrderRequest) { r.Items[0].UnitPrice = dec("10.005") },
			wantErr: layaway.ErrInvalidAmount,
		},
		{
			name:    "missing customer",
			mutate:  func(r *applayaway.CreateOrderRequest) { r.CustomerName = "  " },
			wantErr: layaway.ErrInvalidCustomer,
		},
		{
			name:    "unknown deposit method",
			mutate:  func(r *applayaway.CreateOrderRequest) { r.PaymentMethod = "crypto" },
			wantErr: layaway.ErrInvalidPaymentMethod,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := h.createRequest(productID, 1, "100.00", "10.00")
			tt.mutate(&req)
			_, err := h.service.CreateInstallmentOrder(ctx, req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	assert.Equal(t, 5, h.onHand(t, productID))
}

func TestLedgerService_PaymentValidation(t *testing.T) {
	h := newLedgerHarness(t)
	created := h.openOrder(t, "300.00", "100.00")

	_, err := h.pay(created.OrderID, "200.01")
	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, layaway.ErrAmountExceedsBalance.Code, de.Code)
	assert.Equal(t, "200.00", de.Details["balance_remaining"])

	_, err = h.pay(created.OrderID, "0")
	assert.ErrorIs(t, err, layaway.ErrInvalidAmount)

	_, err = h.pay(created.OrderID, "1.001")
	assert.ErrorIs(t, err, layaway.ErrInvalidAmount)

	_, err = h.pay(uuid.New(), "10")
	assert.ErrorIs(t, err, layaway.ErrOrderNotFound)

	_, err = h.service.ApplyInstallmentPayment(context.Background(), applayaway.ApplyPaymentRequest{
		StoreID: h.storeID, OrderID: created.OrderID, ActorID: h.actor, Amount: dec("10"), Method: "cheque",
	})
	assert.ErrorIs(t, err, layaway.ErrInvalidPaymentMethod)

	detail, err := h.service.GetOrder(context.Background(), h.storeID, created.OrderID)
	require.NoError(t, err)
	assert.True(t, dec("200").Equal(detail.BalanceRemaining))
	assert.Empty(t, detail.Payments)
}

func TestLedgerService_LostRaceReportsAmountExceedsBalance(t *testing.T) {
	h := newLedgerHarness(t)
	created := h.openOrder(t, "300.00", "100.00")

	// A competing payment lands between the snapshot read and the guarded update.
	var once sync.Once
	racing := decoratedScope{
		inner: h.scope,
		wrap: func(repos applayaway.TransactionalRepositories) applayaway.TransactionalRepositories {
			return overrideRepos{
				TransactionalRepositories: repos,
				orders: &racingOrders{
					OrderRepository: repos.Orders(),
					before: func(ctx context.Context, inner layaway.OrderRepository) {
						once.Do(func() {
							_, err := inner.DeductBalance(ctx, h.storeID, created.OrderID, dec("200"), testNow)
							require.NoError(t, err)
						})
					},
				},
			}
		},
	}
	svc := h.build(racing, h.audits)

	_, err := svc.ApplyInstallmentPayment(context.Background(), applayaway.ApplyPaymentRequest{
		StoreID: h.storeID, OrderID: created.OrderID, ActorID: h.actor, Amount: dec("200"), Method: layaway.PaymentMethodCash,
	})
	assert.ErrorIs(t, err, layaway.ErrAmountExceedsBalance)
}

type racingOrders struct {
	layaway.OrderRepository
	before func(ctx context.Context, inner layaway.OrderRepository)
}

func (o *racingOrders) DeductBalance(ctx context.Context, storeID, orderID uuid.UUID, amount decimal.Decimal, at time.Time) (*layaway.BalanceChange, error) {
	o.before(ctx, o.OrderRepository)
	return o.OrderRepository.DeductBalance(ctx, storeID, orderID, amount, at)
}

func TestLedgerService_ConcurrentPaymentsForWholeBalance(t *testing.T) {
	h := newLedgerHarness(t)
	created := h.openOrder(t, "300.00", "100.00")

	var (
		wg        sync.WaitGroup
		successes int
		mu        sync.Mutex
		failures  []error
	)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.pay(created.OrderID, "200.00")
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures = append(failures, err)
				return
			}
			successes++
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	require.Len(t, failures, 1)
	assert.True(t,
		errors.Is(failures[0], layaway.ErrAmountExceedsBalance) || errors.Is(failures[0], layaway.ErrOrderTerminal),
		"unexpected error: %v", failures[0])

	detail, err := h.service.GetOrder(context.Background(), h.storeID, created.OrderID)
	require.NoError(t, err)
	assert.True(t, detail.BalanceRemaining.IsZero())
	assert.Len(t, detail.Payments, 1)
}

func TestLedgerService_BalanceStaysWithinBounds(t *testing.T) {
	h := newLedgerHarness(t)
	created := h.openOrder(t, "500.00", "50.00")

	rng := rand.New(rand.NewPCG(7, 11))
	paid := dec("50")
	for i := 0; i < 40; i++ {
		amount := decimal.New(int64(rng.IntN(400)+1)*5, -1)
		h.clock.Advance(time.Minute)
		res, err := h.pay(created.OrderID, amount.StringFixed(2))
		if err == nil {
			paid = paid.Add(amount)
			assert.False(t, res.NewBalance.IsNegative())
			assert.True(t, res.NewBalance.LessThanOrEqual(dec("500")))
			assert.True(t, dec("500").Sub(paid).Equal(res.NewBalance))
			continue
		}
		assert.True(t, errors.Is(err, layaway.ErrAmountExceedsBalance) || errors.Is(err, layaway.ErrOrderTerminal), "unexpected error: %v", err)
	}

	detail, err := h.service.GetOrder(context.Background(), h.storeID, created.OrderID)
	require.NoError(t, err)
	assert.True(t, dec("500").Sub(paid).Equal(detail.BalanceRemaining))
	assert.Equal(t, detail.BalanceRemaining.IsZero(), detail.Status == layaway.OrderStatusCompleted)
}

func TestLedgerService_DegradedAudit(t *testing.T) {
	failInTx := func(repos applayaway.TransactionalRepositories) applayaway.TransactionalRepositories {
		return overrideRepos{TransactionalRepositories: repos, audit: failingAuditRepository{}}
	}

	t.Run("retry after commit recovers the entries", func(t *testing.T) {
		h := newLedgerHarness(t)
		productID := uuid.New()
		h.seedStock(t, productID, 1)
		svc := h.build(decoratedScope{inner: h.scope, wrap: failInTx}, h.audits)

		res, err := svc.CreateInstallmentOrder(context.Background(), h.createRequest(productID, 1, "80.00", "20.00"))
		require.NoError(t, err)
		assert.Empty(t, res.Warnings)

		history, err := h.audits.History(context.Background(), h.storeID, res.OrderID, 10, 0)
		require.NoError(t, err)
		assert.Len(t, history, 1)
		assert.Empty(t, h.observer.actions)
	})

	t.Run("persistent failure keeps the payment and warns", func(t *testing.T) {
		h := newLedgerHarness(t)
		created := h.openOrder(t, "300.00", "100.00")
		svc := h.build(decoratedScope{inner: h.scope, wrap: failInTx}, failingAuditRepository{})

		res, err := svc.ApplyInstallmentPayment(context.Background(), applayaway.ApplyPaymentRequest{
			StoreID: h.storeID, OrderID: created.OrderID, ActorID: h.actor, Amount: dec("100"), Method: layaway.PaymentMethodCash,
		})
		require.NoError(t, err)
		assert.Equal(t, []string{appaudit.WarningAuditDegraded}, res.Warnings)
		assert.True(t, dec("100").Equal(res.NewBalance))
		assert.ElementsMatch(t, []string{string(audit.ActionPaymentApplied), string(audit.ActionCreated)}, h.observer.actions)

		detail, err := h.service.GetOrder(context.Background(), h.storeID, created.OrderID)
		require.NoError(t, err)
		assert.True(t, dec("100").Equal(detail.BalanceRemaining))
	})
}

func TestLedgerService_CancelOrder(t *testing.T) {
	h := newLedgerHarness(t)
	ctx := context.Background()
	productID := uuid.New()
	h.seedStock(t, productID, 3)

	created, err := h.service.CreateInstallmentOrder(ctx, h.createRequest(productID, 2, "50.00", "10.00"))
	require.NoError(t, err)
	assert.Equal(t, 1, h.onHand(t, productID))

	h.clock.Advance(time.Hour)
	res, err := h.service.CancelOrder(ctx, applayaway.CancelOrderRequest{
		StoreID: h.storeID, OrderID: created.OrderID, ActorID: h.actor, Reason: "customer moved away",
	})
	require.NoError(t, err)
	assert.Equal(t, layaway.OrderStatusCancelled, res.Order.Status)
	assert.Equal(t, "customer moved away", res.Order.CancelReason)
	assert.Equal(t, 3, h.onHand(t, productID))

	_, err = h.pay(created.OrderID, "10")
	assert.ErrorIs(t, err, layaway.ErrOrderTerminal)

	_, err = h.service.CancelOrder(ctx, applayaway.CancelOrderRequest{StoreID: h.storeID, OrderID: created.OrderID, ActorID: h.actor})
	assert.ErrorIs(t, err, layaway.ErrOrderTerminal)
	assert.Equal(t, 3, h.onHand(t, productID))

	history, err := h.audits.History(ctx, h.storeID, created.OrderID, 10, 0)
	require.NoError(t, err)
	require.NotEmpty(t, history)
	assert.Equal(t, audit.ActionCancelled, history[0].Action)
}

func TestLedgerService_MarkOverdue(t *testing.T) {
	h := newLedgerHarness(t)
	ctx := context.Background()
	productID := uuid.New()
	h.seedStock(t, productID, 5)

	due := testNow.Add(24 * time.Hour)
	req := h.createRequest(productID, 1, "300.00", "100.00")
	req.DueDate = &due
	created, err := h.service.CreateInstallmentOrder(ctx, req)
	require.NoError(t, err)

	res, err := h.service.MarkOverdue(ctx, 100)
	require.NoError(t, err)
	assert.Zero(t, res.Flagged)

	h.clock.Advance(48 * time.Hour)
	res, err = h.service.MarkOverdue(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Flagged)

	detail, err := h.service.GetOrder(ctx, h.storeID, created.OrderID)
	require.NoError(t, err)
	assert.Equal(t, layaway.OrderStatusOverdue, detail.Status)

	paid, err := h.pay(created.OrderID, "50")
	require.NoError(t, err)
	assert.Equal(t, layaway.OrderStatusActive, paid.NewStatus)

	history, err := h.audits.History(ctx, h.storeID, created.OrderID, 10, 0)
	require.NoError(t, err)
	var changed int
	for _, e := range history {
		if e.Action == audit.ActionStatusChanged {
			changed++
			assert.Equal(t, "overdue", e.NewValues["status"])
		}
	}
	assert.Equal(t, 1, changed)
}

type fixedTaxes struct {
	cfg *store.TaxConfig
}

func (f fixedTaxes) TaxConfigFor(_ context.Context, storeID uuid.UUID) (*store.TaxConfig, error) {
	cfg := *f.cfg
	cfg.StoreID = storeID
	return &cfg, nil
}

func TestLedgerService_RecordsTaxPortion(t *testing.T) {
	h := newLedgerHarness(t)
	h.service.SetTaxConfigProvider(fixedTaxes{cfg: &store.TaxConfig{Rate: dec("0.15"), Inclusive: true}})

	created := h.openOrder(t, "115.00", "15.00")
	assert.True(t, dec("15").Equal(created.Order.TaxAmount))
	assert.True(t, dec("115").Equal(created.Order.TotalAmount))

	detail, err := h.service.GetOrder(context.Background(), h.storeID, created.OrderID)
	require.NoError(t, err)
	assert.True(t, dec("15").Equal(detail.TaxAmount))
}

func TestLedgerService_ListOrdersRejectsUnknownStatus(t *testing.T) {
	h := newLedgerHarness(t)
	_, _, err := h.service.ListOrders(context.Background(), h.storeID, applayaway.OrderListFilter{Status: "lost"})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}
