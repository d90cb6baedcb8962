package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	applayaway "github.com/erp/layaway/internal/application/layaway"
	appledger "github.com/erp/layaway/internal/application/ledger"
	"github.com/erp/layaway/internal/interfaces/http/dto"
	"github.com/erp/layaway/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

var (
	testStoreID = uuid.MustParse("7d4c2f7e-3c1a-4d7b-9b55-1f0e2c7a0001")
	testActorID = uuid.MustParse("7d4c2f7e-3c1a-4d7b-9b55-1f0e2c7a0002")
)

// newTestRouter mimics the store context middleware with fixed ids
func newTestRouter() *gin.Engine {
	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(func(c *gin.Context) {
		c.Set(middleware.StoreIDKey, testStoreID.String())
		c.Set(middleware.ActorIDKey, testActorID.String())
	})
	return router
}

func doJSON(router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			reader = bytes.NewBufferString(b)
		default:
			payload, _ := json.Marshal(b)
			reader = bytes.NewBuffer(payload)
		}
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

// MockLayawayService implements LayawayService for testing
type MockLayawayService struct {
	mock.Mock
}

func (m *MockLayawayService) CreateInstallmentOrder(ctx context.Context, req applayaway.CreateOrderRequest) (*applayaway.CreateOrderResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*applayaway.CreateOrderResult), args.Error(1)
}

func (m *MockLayawayService) ApplyInstallmentPayment(ctx context.Context, req applayaway.ApplyPaymentRequest) (*applayaway.ApplyPaymentResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*applayaway.ApplyPaymentResult), args.Error(1)
}

func (m *MockLayawayService) CancelOrder(ctx context.Context, req applayaway.CancelOrderRequest) (*applayaway.CancelOrderResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*applayaway.CancelOrderResult), args.Error(1)
}

func (m *MockLayawayService) GetOrder(ctx context.Context, storeID, orderID uuid.UUID) (*applayaway.OrderDetailResponse, error) {
	args := m.Called(ctx, storeID, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*applayaway.OrderDetailResponse), args.Error(1)
}

func (m *MockLayawayService) ListOrders(ctx context.Context, storeID uuid.UUID, filter applayaway.OrderListFilter) ([]applayaway.OrderResponse, int64, error) {
	args := m.Called(ctx, storeID, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]applayaway.OrderResponse), args.Get(1).(int64), args.Error(2)
}

// MockTransactionService implements TransactionService for testing
type MockTransactionService struct {
	mock.Mock
}

func (m *MockTransactionService) RefundTransaction(ctx context.Context, req appledger.RefundRequest) (*appledger.RefundResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appledger.RefundResult), args.Error(1)
}

func (m *MockTransactionService) VoidTransaction(ctx context.Context, req appledger.VoidRequest) (*appledger.VoidResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appledger.VoidResult), args.Error(1)
}

func (m *MockTransactionService) AppendNote(ctx context.Context, req appledger.NoteRequest) (*appledger.NoteResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appledger.NoteResult), args.Error(1)
}

func (m *MockTransactionService) MarkPrinted(ctx context.Context, storeID, transactionID, actorID uuid.UUID) error {
	return m.Called(ctx, storeID, transactionID, actorID).Error(0)
}

func (m *MockTransactionService) ListTransactions(ctx context.Context, storeID uuid.UUID, filter appledger.TransactionListFilter) ([]appledger.TransactionResponse, int64, error) {
	args := m.Called(ctx, storeID, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]appledger.TransactionResponse), args.Get(1).(int64), args.Error(2)
}

func (m *MockTransactionService) ActiveBalance(ctx context.Context, storeID uuid.UUID, q appledger.BalanceQuery) (*appledger.BalanceResponse, error) {
	args := m.Called(ctx, storeID, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appledger.BalanceResponse), args.Error(1)
}
