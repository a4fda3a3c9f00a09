package handler

import (
	"net/http"

	"github.com/yourorg/moex-data-service/internal/service"
	"github.com/yourorg/moex-data-service/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var stockCriteria = map[string]bool{
	"volatility": true,
	"volume":     true,
	"rising":     true,
	"falling":    true,
}

// StockHandler handles stock ranking HTTP requests
type StockHandler struct {
	queryService *service.MarketQueryService
	logger       *zap.Logger
}

// NewStockHandler creates a new stock handler
func NewStockHandler(queryService *service.MarketQueryService, logger *zap.Logger) *StockHandler {
	return &StockHandler{
		queryService: queryService,
		logger:       logger,
	}
}

// GetTop handles stock ranking requests
// GET /api/v1/stocks/top
func (h *StockHandler) GetTop(c *gin.Context) {
	criterion := c.DefaultQuery("criterion", "volume")
	if !stockCriteria[criterion] {
		utils.SendErrorResponse(c, http.StatusBadRequest, "Invalid ranking criterion")
		return
	}
	limit := parseLimit(c, 10)

	records, err := h.queryService.GetTopStocks(c.Request.Context(), criterion, limit)
	if err != nil {
		utils.SendErrorResponse(c, http.StatusInternalServerError, "Failed to get top stocks")
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": records})
}
