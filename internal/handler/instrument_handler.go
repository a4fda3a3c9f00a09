package handler

import (
	"errors"
	"net/http"

	"github.com/yourorg/moex-data-service/internal/service"
	"github.com/yourorg/moex-data-service/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// InstrumentHandler handles generic instrument HTTP requests
type InstrumentHandler struct {
	queryService *service.MarketQueryService
	logger       *zap.Logger
}

// NewInstrumentHandler creates a new instrument handler
func NewInstrumentHandler(queryService *service.MarketQueryService, logger *zap.Logger) *InstrumentHandler {
	return &InstrumentHandler{
		queryService: queryService,
		logger:       logger,
	}
}

// GetPage handles paginated instrument listing
// GET /api/v1/instruments
func (h *InstrumentHandler) GetPage(c *gin.Context) {
	instrumentType := c.Query("type")
	params := utils.ParsePaginationParams(c, 20, 100)

	page, err := h.queryService.GetInstrumentPage(c.Request.Context(), instrumentType, params.Page, params.PerPage)
	if errors.Is(err, service.ErrInvalidInstrumentType) {
		utils.SendErrorResponse(c, http.StatusBadRequest, "Invalid instrument type")
		return
	}
	if err != nil {
		utils.SendErrorResponse(c, http.StatusInternalServerError, "Failed to get instruments")
		return
	}

	c.JSON(http.StatusOK, page)
}

// GetBySecid handles single instrument lookup
// GET /api/v1/instruments/:secid
func (h *InstrumentHandler) GetBySecid(c *gin.Context) {
	secid := c.Param("secid")
	if secid == "" {
		utils.SendErrorResponse(c, http.StatusBadRequest, "Ticker is required")
		return
	}

	record, err := h.queryService.GetInstrument(c.Request.Context(), secid)
	if err != nil {
		utils.SendErrorResponse(c, http.StatusInternalServerError, "Failed to get instrument")
		return
	}
	if record == nil {
		utils.SendErrorResponse(c, http.StatusNotFound, "Instrument not found")
		return
	}

	c.JSON(http.StatusOK, record)
}
