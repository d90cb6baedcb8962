package handler

import (
	"context"

	appstore "github.com/erp/layaway/internal/application/store"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TaxConfigManager reads and replaces store tax settings
type TaxConfigManager interface {
	GetTaxConfig(ctx context.Context, storeID uuid.UUID) (*appstore.TaxConfigResponse, error)
	UpdateTaxConfig(ctx context.Context, req appstore.UpdateTaxConfigRequest) (*appstore.TaxConfigResponse, error)
}

// UpdateTaxConfigRequest replaces the tax configuration of the caller's store
// @Description Request body for the store tax configuration
type UpdateTaxConfigRequest struct {
	Rate      decimal.Decimal `json:"rate" binding:"decimal_gte0" swaggertype:"string" example:"0.10"`
	Inclusive bool            `json:"inclusive" example:"true"`
	Label     string          `json:"label" binding:"max=50" example:"GST"`
}

// StoreHandler handles store settings endpoints
type StoreHandler struct {
	BaseHandler
	taxConfig TaxConfigManager
}

// NewStoreHandler creates a new StoreHandler
func NewStoreHandler(taxConfig TaxConfigManager) *StoreHandler {
	return &StoreHandler{taxConfig: taxConfig}
}

// GetTaxConfig godoc
// @ID           getStoreTaxConfig
// @Summary      Get the store tax configuration
// @Tags         store
// @Produce      json
// @Success      200 {object} APIResponse[appstore.TaxConfigResponse]
// @Security     BearerAuth
// @Router       /store/tax-config [get]
func (h *StoreHandler) GetTaxConfig(c *gin.Context) {
	storeID, _, ok := h.storeAndActor(c)
	if !ok {
		return
	}
	cfg, err := h.taxConfig.GetTaxConfig(c.Request.Context(), storeID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, cfg)
}

// UpdateTaxConfig godoc
// @ID           updateStoreTaxConfig
// @Summary      Replace the store tax configuration
// @Description  Applies to orders created afterwards
// @Tags         store
// @Accept       json
// @Produce      json
// @Param        request body UpdateTaxConfigRequest true "Tax configuration"
// @Success      200 {object} APIResponse[appstore.TaxConfigResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /store/tax-config [put]
func (h *StoreHandler) UpdateTaxConfig(c *gin.Context) {
	storeID, actorID, ok := h.storeAndActor(c)
	if !ok {
		return
	}
	var req UpdateTaxConfigRequest
	if !h.BindJSON(c, &req) {
		return
	}
	cfg, err := h.taxConfig.UpdateTaxConfig(c.Request.Context(), appstore.UpdateTaxConfigRequest{
		StoreID:   storeID,
		ActorID:   actorID,
		Rate:      req.Rate,
		Inclusive: req.Inclusive,
		Label:     req.Label,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, cfg)
}
