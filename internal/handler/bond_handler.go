package handler

import (
	"net/http"
	"strconv"

	"github.com/yourorg/moex-data-service/internal/service"
	"github.com/yourorg/moex-data-service/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var bondCriteria = map[string]bool{
	"liquidity": true,
	"duration":  true,
	"discount":  true,
	"coupon":    true,
}

var yieldBands = map[string]bool{
	"short":  true,
	"medium": true,
	"long":   true,
}

var bondEventKinds = map[string]bool{
	"payment":   true,
	"repayment": true,
}

// BondHandler handles bond ranking and payment-schedule HTTP requests
type BondHandler struct {
	queryService *service.MarketQueryService
	eventService *service.BondEventService
	logger       *zap.Logger
}

// NewBondHandler creates a new bond handler
func NewBondHandler(queryService *service.MarketQueryService, eventService *service.BondEventService, logger *zap.Logger) *BondHandler {
	return &BondHandler{
		queryService: queryService,
		eventService: eventService,
		logger:       logger,
	}
}

// GetTop handles bond ranking requests
// GET /api/v1/bonds/top
func (h *BondHandler) GetTop(c *gin.Context) {
	criterion := c.DefaultQuery("criterion", "liquidity")
	if !bondCriteria[criterion] {
		utils.SendErrorResponse(c, http.StatusBadRequest, "Invalid ranking criterion")
		return
	}

	records, err := h.queryService.GetTopBonds(c.Request.Context(), criterion, parseLimit(c, 10))
	if err != nil {
		utils.SendErrorResponse(c, http.StatusInternalServerError, "Failed to get top bonds")
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": records})
}

// GetYields handles yield ranking requests within a maturity band
// GET /api/v1/bonds/yields
func (h *BondHandler) GetYields(c *gin.Context) {
	band := c.DefaultQuery("band", "short")
	if !yieldBands[band] {
		utils.SendErrorResponse(c, http.StatusBadRequest, "Invalid maturity band")
		return
	}

	records, err := h.queryService.GetTopYields(c.Request.Context(), band, parseLimit(c, 10))
	if err != nil {
		utils.SendErrorResponse(c, http.StatusInternalServerError, "Failed to get top yields")
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": records})
}

// GetEvents handles upcoming coupon payment and maturity requests
// GET /api/v1/bonds/events
func (h *BondHandler) GetEvents(c *gin.Context) {
	kind := c.DefaultQuery("kind", "payment")
	if !bondEventKinds[kind] {
		utils.SendErrorResponse(c, http.StatusBadRequest, "Invalid event kind")
		return
	}

	records, err := h.queryService.GetUpcomingBondEvents(c.Request.Context(), kind, parseLimit(c, 10))
	if err != nil {
		utils.SendErrorResponse(c, http.StatusInternalServerError, "Failed to get bond events")
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": records})
}

// GetPayments handles per-bond payment schedule requests
// GET /api/v1/bonds/:secid/payments
func (h *BondHandler) GetPayments(c *gin.Context) {
	secid := c.Param("secid")
	if secid == "" {
		utils.SendErrorResponse(c, http.StatusBadRequest, "Ticker is required")
		return
	}

	events, err := h.eventService.GetPayments(c.Request.Context(), secid)
	if err != nil {
		utils.SendErrorResponse(c, http.StatusInternalServerError, "Failed to get payment schedule")
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": events})
}

// parseLimit reads the limit query parameter, falling back to def
func parseLimit(c *gin.Context, def int) int {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(def)))
	if err != nil {
		return def
	}
	return limit
}
