package layaway_test

import (
	"context"
	"sync"
	"testing"
	"time"

	appaudit "github.com/erp/layaway/internal/application/audit"
	applayaway "github.com/erp/layaway/internal/application/layaway"
	"github.com/erp/layaway/internal/domain/audit"
	"github.com/erp/layaway/internal/domain/layaway"
	"github.com/erp/layaway/internal/domain/shared"
	"github.com/erp/layaway/internal/domain/stock"
	"github.com/erp/layaway/internal/infrastructure/persistence"
	"github.com/erp/layaway/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var testNow = time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type recordingEventWriter struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func (w *recordingEventWriter) PublishWithTx(_ context.Context, _ *gorm.DB, events ...shared.DomainEvent) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.events = append(w.events, events...)
	return nil
}

func (w *recordingEventWriter) types() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, len(w.events))
	for i, e := range w.events {
		out[i] = e.EventType()
	}
	return out
}

type countingObserver struct {
	mu      sync.Mutex
	actions []string
}

func (o *countingObserver) RecordAuditDegraded(_ context.Context, action string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.actions = append(o.actions, action)
}

// failingAuditRepository refuses every write
type failingAuditRepository struct{}

func (failingAuditRepository) Append(context.Context, ...*audit.Entry) error {
	return audit.ErrRecordFailed.WithDetail("cause", "disk full")
}

func (failingAuditRepository) History(context.Context, uuid.UUID, uuid.UUID, int, int) ([]*audit.Entry, error) {
	return nil, nil
}

func (failingAuditRepository) Range(context.Context, audit.Query) ([]*audit.Entry, error) {
	return nil, nil
}

// overrideRepos swaps individual repositories of a unit of work
type overrideRepos struct {
	applayaway.TransactionalRepositories
	audit  audit.Repository
	orders layaway.OrderRepository
}

func (r overrideRepos) Audit() audit.Repository {
	if r.audit != nil {
		return r.audit
	}
	return r.TransactionalRepositories.Audit()
}

func (r overrideRepos) Orders() layaway.OrderRepository {
	if r.orders != nil {
		return r.orders
	}
	return r.TransactionalRepositories.Orders()
}

type decoratedScope struct {
	inner applayaway.TransactionScope
	wrap  func(applayaway.TransactionalRepositories) applayaway.TransactionalRepositories
}

func (s decoratedScope) Execute(ctx context.Context, fn func(applayaway.TransactionalRepositories) error) error {
	return s.inner.Execute(ctx, func(repos applayaway.TransactionalRepositories) error {
		return fn(s.wrap(repos))
	})
}

type ledgerHarness struct {
	db       *gorm.DB
	clock    *shared.FakeClock
	scope    *persistence.GormTransactionScope
	stock    *persistence.GormStockReserver
	orders   *persistence.GormLayawayOrderRepository
	payments *persistence.GormLayawayPaymentRepository
	txns     *persistence.GormLedgerTransactionRepository
	audits   *persistence.GormAuditRepository
	events   *recordingEventWriter
	observer *countingObserver
	service  *applayaway.LedgerService
	storeID  uuid.UUID
	actor    uuid.UUID
}

func newLedgerHarness(t *testing.T) *ledgerHarness {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(models.All()...))

	h := &ledgerHarness{
		db:       db,
		clock:    shared.NewFakeClock(testNow),
		orders:   persistence.NewGormLayawayOrderRepository(db),
		payments: persistence.NewGormLayawayPaymentRepository(db),
		txns:     persistence.NewGormLedgerTransactionRepository(db),
		audits:   persistence.NewGormAuditRepository(db),
		events:   &recordingEventWriter{},
		observer: &countingObserver{},
		storeID:  uuid.New(),
		actor:    uuid.New(),
	}
	h.stock = persistence.NewGormStockReserver(db, h.clock)
	h.scope = persistence.NewGormTransactionScope(db,
		persistence.WithScopeClock(h.clock),
		persistence.WithEventWriter(h.events),
	)
	h.service = h.build(h.scope, h.audits)
	return h
}

func (h *ledgerHarness) build(scope applayaway.TransactionScope, recorderRepo audit.Repository) *applayaway.LedgerService {
	recorder := appaudit.NewRecorder(recorderRepo, h.observer, zap.NewNop())
	svc := applayaway.NewLedgerService(scope, h.orders, h.payments, recorder, applayaway.DefaultConfig())
	svc.SetClock(h.clock)
	return svc
}

func (h *ledgerHarness) seedStock(t *testing.T, productID uuid.UUID, onHand int) {
	t.Helper()
	require.NoError(t, h.stock.SetLevel(context.Background(), stock.Level{
		StoreID:   h.storeID,
		ProductID: productID,
		Name:      "product",
		OnHand:    onHand,
	}))
}

func (h *ledgerHarness) onHand(t *testing.T, productID uuid.UUID) int {
	t.Helper()
	levels, err := h.stock.Levels(context.Background(), h.storeID, productID)
	require.NoError(t, err)
	require.Len(t, levels, 1)
	return levels[0].OnHand
}

// openOrder creates an order for one stocked product priced at total
func (h *ledgerHarness) openOrder(t *testing.T, total, deposit string) *applayaway.CreateOrderResult {
	t.Helper()
	productID := uuid.New()
	h.seedStock(t, productID, 5)
	res, err := h.service.CreateInstallmentOrder(context.Background(), h.createRequest(productID, 1, total, deposit))
	require.NoError(t, err)
	return res
}

func (h *ledgerHarness) createRequest(productID uuid.UUID, qty int, unitPrice, deposit string) applayaway.CreateOrderRequest {
	return applayaway.CreateOrderRequest{
		StoreID:         h.storeID,
		ActorID:         h.actor,
		CustomerName:    "Ana Diaz",
		CustomerContact: "555-0100",
		Items: []applayaway.CreateOrderItem{{
			ProductID:   productID,
			ProductName: "Armchair",
			Quantity:    qty,
			UnitPrice:   dec(unitPrice),
		}},
		DepositAmount: dec(deposit),
		PaymentMethod: layaway.PaymentMethodCash,
	}
}

func (h *ledgerHarness) pay(orderID uuid.UUID, amount string) (*applayaway.ApplyPaymentResult, error) {
	return h.service.ApplyInstallmentPayment(context.Background(), applayaway.ApplyPaymentRequest{
		StoreID: h.storeID,
		OrderID: orderID,
		ActorID: h.actor,
		Amount:  dec(amount),
		Method:  layaway.PaymentMethodCard,
	})
}
