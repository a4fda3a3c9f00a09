package handler

import (
	"net/http"

	"github.com/yourorg/moex-data-service/internal/service"
	"github.com/yourorg/moex-data-service/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var indexCriteria = map[string]bool{
	"main":       true,
	"sector":     true,
	"rising":     true,
	"falling":    true,
	"volume":     true,
	"volatility": true,
}

// IndexHandler handles index ranking HTTP requests
type IndexHandler struct {
	queryService *service.MarketQueryService
	logger       *zap.Logger
}

// NewIndexHandler creates a new index handler
func NewIndexHandler(queryService *service.MarketQueryService, logger *zap.Logger) *IndexHandler {
	return &IndexHandler{
		queryService: queryService,
		logger:       logger,
	}
}

// GetTop handles index ranking requests
// GET /api/v1/indices/top
func (h *IndexHandler) GetTop(c *gin.Context) {
	criterion := c.DefaultQuery("criterion", "main")
	if !indexCriteria[criterion] {
		utils.SendErrorResponse(c, http.StatusBadRequest, "Invalid ranking criterion")
		return
	}

	records, err := h.queryService.GetTopIndexes(c.Request.Context(), criterion)
	if err != nil {
		utils.SendErrorResponse(c, http.StatusInternalServerError, "Failed to get top indices")
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": records})
}
