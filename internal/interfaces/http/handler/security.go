package handler

import (
	"strconv"

	"github.com/erp/layaway/internal/infrastructure/security"
	"github.com/gin-gonic/gin"
)

// SecurityEventsResponse lists recent security events
// @Description Recent rate-limit and authentication events
type SecurityEventsResponse struct {
	Count  int              `json:"count" example:"3"`
	Events []security.Event `json:"events"`
}

// SecurityHandler exposes the in-memory security event log
type SecurityHandler struct {
	BaseHandler
	events *security.EventLogger
}

// NewSecurityHandler creates a new SecurityHandler
func NewSecurityHandler(events *security.EventLogger) *SecurityHandler {
	return &SecurityHandler{events: events}
}

// RecentEvents godoc
// @ID           listSecurityEvents
// @Summary      Recent security events
// @Description  Newest first; only events of the caller's store are returned
// @Tags         security
// @Produce      json
// @Param        limit query int false "Maximum events" default(50)
// @Success      200 {object} APIResponse[SecurityEventsResponse]
// @Security     BearerAuth
// @Router       /security/events [get]
func (h *SecurityHandler) RecentEvents(c *gin.Context) {
	storeID, _, ok := h.storeAndActor(c)
	if !ok {
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit < 1 {
		h.BadRequest(c, "limit must be a positive integer")
		return
	}

	recent := h.events.Recent(0)
	events := make([]security.Event, 0, limit)
	for _, e := range recent {
		if e.StoreID != storeID.String() {
			continue
		}
		events = append(events, e)
		if len(events) == limit {
			break
		}
	}
	h.Success(c, SecurityEventsResponse{Count: len(events), Events: events})
}
