package handler

import (
	"context"

	applayaway "github.com/erp/layaway/internal/application/layaway"
	"github.com/erp/layaway/internal/domain/layaway"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// LayawayService is the installment order API used by LayawayHandler
type LayawayService interface {
	CreateInstallmentOrder(ctx context.Context, req applayaway.CreateOrderRequest) (*applayaway.CreateOrderResult, error)
	ApplyInstallmentPayment(ctx context.Context, req applayaway.ApplyPaymentRequest) (*applayaway.ApplyPaymentResult, error)
	CancelOrder(ctx context.Context, req applayaway.CancelOrderRequest) (*applayaway.CancelOrderResult, error)
	GetOrder(ctx context.Context, storeID, orderID uuid.UUID) (*applayaway.OrderDetailResponse, error)
	ListOrders(ctx context.Context, storeID uuid.UUID, filter applayaway.OrderListFilter) ([]applayaway.OrderResponse, int64, error)
}

// LayawayHandler handles installment order endpoints
type LayawayHandler struct {
	BaseHandler
	service LayawayService
}

// NewLayawayHandler creates a new LayawayHandler
func NewLayawayHandler(service LayawayService) *LayawayHandler {
	return &LayawayHandler{service: service}
}

// CreateOrder godoc
// @ID           createLayawayOrder
// @Summary      Create an installment order
// @Description  Opens an order, logs the deposit transaction and reserves stock
// @Tags         layaway
// @Accept       json
// @Produce      json
// @Param        request body CreateOrderRequest true "Order"
// @Success      201 {object} APIResponse[applayaway.CreateOrderResult]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      503 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /layaway/orders [post]
func (h *LayawayHandler) CreateOrder(c *gin.Context) {
	storeID, actorID, ok := h.storeAndActor(c)
	if !ok {
		return
	}
	var req CreateOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}

	var customerID *uuid.UUID
	if req.CustomerID != nil {
		id := uuid.MustParse(*req.CustomerID)
		customerID = &id
	}
	items := make([]applayaway.CreateOrderItem, len(req.Items))
	for i, item := range req.Items {
		items[i] = applayaway.CreateOrderItem{
			ProductID:   uuid.MustParse(item.ProductID),
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
		}
	}

	result, err := h.service.CreateInstallmentOrder(c.Request.Context(), applayaway.CreateOrderRequest{
		StoreID:         storeID,
		ActorID:         actorID,
		CustomerID:      customerID,
		CustomerName:    req.CustomerName,
		CustomerContact: req.CustomerContact,
		Items:           items,
		DepositAmount:   req.DepositAmount,
		PaymentMethod:   layaway.PaymentMethod(req.PaymentMethod),
		DueDate:         req.DueDate,
		Notes:           req.Notes,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result, result.Warnings)
}

// ListOrders godoc
// @ID           listLayawayOrders
// @Summary      List installment orders
// @Tags         layaway
// @Produce      json
// @Param        status    query string false "Order status" Enums(active, overdue, completed, cancelled)
// @Param        sort_by   query string false "Sort column" Enums(created_at, updated_at, order_number, customer_name, status, total_amount, balance_remaining, due_date)
// @Param        sort_order query string false "Sort direction" Enums(asc, desc)
// @Param        page      query int    false "Page" default(1)
// @Param        page_size query int    false "Page size" default(20)
// @Success      200 {object} APIResponse[[]applayaway.OrderResponse]
// @Failure      401 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /layaway/orders [get]
func (h *LayawayHandler) ListOrders(c *gin.Context) {
	storeID, _, ok := h.storeAndActor(c)
	if !ok {
		return
	}
	page, pageSize := pagination(c)
	orders, total, err := h.service.ListOrders(c.Request.Context(), storeID, applayaway.OrderListFilter{
		Status:    layaway.OrderStatus(c.Query("status")),
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
		Page:      page,
		PageSize:  pageSize,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, orders, total, page, pageSize)
}

// GetOrder godoc
// @ID           getLayawayOrder
// @Summary      Get an installment order with its payments
// @Tags         layaway
// @Produce      json
// @Param        id path string true "Order ID"
// @Success      200 {object} APIResponse[applayaway.OrderDetailResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /layaway/orders/{id} [get]
func (h *LayawayHandler) GetOrder(c *gin.Context) {
	storeID, _, ok := h.storeAndActor(c)
	if !ok {
		return
	}
	orderID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	order, err := h.service.GetOrder(c.Request.Context(), storeID, orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// ApplyPayment godoc
// @ID           applyLayawayPayment
// @Summary      Apply an installment payment
// @Description  Reduces the balance and completes the order when it reaches zero
// @Tags         layaway
// @Accept       json
// @Produce      json
// @Param        id      path string              true "Order ID"
// @Param        request body ApplyPaymentRequest true "Payment"
// @Success      200 {object} APIResponse[applayaway.ApplyPaymentResult]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /layaway/orders/{id}/payments [post]
func (h *LayawayHandler) ApplyPayment(c *gin.Context) {
	storeID, actorID, ok := h.storeAndActor(c)
	if !ok {
		return
	}
	orderID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req ApplyPaymentRequest
	if !h.BindJSON(c, &req) {
		return
	}

	result, err := h.service.ApplyInstallmentPayment(c.Request.Context(), applayaway.ApplyPaymentRequest{
		StoreID:   storeID,
		OrderID:   orderID,
		ActorID:   actorID,
		Amount:    req.Amount,
		Method:    layaway.PaymentMethod(req.Method),
		Reference: req.Reference,
		Notes:     req.Notes,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithWarnings(c, result, result.Warnings)
}

// CancelOrder godoc
// @ID           cancelLayawayOrder
// @Summary      Cancel an installment order
// @Tags         layaway
// @Accept       json
// @Produce      json
// @Param        id      path string             true  "Order ID"
// @Param        request body CancelOrderRequest false "Reason"
// @Success      200 {object} APIResponse[applayaway.CancelOrderResult]
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /layaway/orders/{id}/cancel [post]
func (h *LayawayHandler) CancelOrder(c *gin.Context) {
	storeID, actorID, ok := h.storeAndActor(c)
	if !ok {
		return
	}
	orderID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req CancelOrderRequest
	if c.Request.ContentLength != 0 && !h.BindJSON(c, &req) {
		return
	}

	result, err := h.service.CancelOrder(c.Request.Context(), applayaway.CancelOrderRequest{
		StoreID: storeID,
		OrderID: orderID,
		ActorID: actorID,
		Reason:  req.Reason,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithWarnings(c, result, result.Warnings)
}
