package handler

import (
	"errors"
	"net/http"

	"github.com/yourorg/moex-data-service/internal/service"
	"github.com/yourorg/moex-data-service/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ChartHandler handles capitalization and candle chart HTTP requests
type ChartHandler struct {
	queryService *service.MarketQueryService
	logger       *zap.Logger
}

// NewChartHandler creates a new chart handler
func NewChartHandler(queryService *service.MarketQueryService, logger *zap.Logger) *ChartHandler {
	return &ChartHandler{
		queryService: queryService,
		logger:       logger,
	}
}

// GetCapitalization handles market capitalization chart requests
// GET /api/v1/capitalization
func (h *ChartHandler) GetCapitalization(c *gin.Context) {
	period := c.DefaultQuery("period", "1m")

	series, err := h.queryService.GetCapitalization(c.Request.Context(), period)
	if errors.Is(err, service.ErrInvalidPeriod) {
		utils.SendErrorResponse(c, http.StatusBadRequest, "Invalid period")
		return
	}
	if err != nil {
		utils.SendErrorResponse(c, http.StatusInternalServerError, "Failed to get capitalization")
		return
	}

	c.JSON(http.StatusOK, series)
}

// GetCandles handles daily candle chart requests for one ticker
// GET /api/v1/candles/:ticker
func (h *ChartHandler) GetCandles(c *gin.Context) {
	ticker := c.Param("ticker")
	if ticker == "" {
		utils.SendErrorResponse(c, http.StatusBadRequest, "Ticker is required")
		return
	}
	period := c.DefaultQuery("period", "all")

	series, err := h.queryService.GetCandles(c.Request.Context(), ticker, period)
	if errors.Is(err, service.ErrInvalidPeriod) {
		utils.SendErrorResponse(c, http.StatusBadRequest, "Invalid period")
		return
	}
	if err != nil {
		utils.SendErrorResponse(c, http.StatusInternalServerError, "Failed to get candles")
		return
	}

	c.JSON(http.StatusOK, series)
}
