package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/yourorg/moex-data-service/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

// rankingTestRouter wires the ranking handlers over an unreachable backend:
// requests that fail validation must be rejected before any query runs.
func rankingTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)

	queryService := service.NewMarketQueryService(nil, nil, nil, time.UTC, zap.NewNop())

	stockHandler := NewStockHandler(queryService, zap.NewNop())
	bondHandler := NewBondHandler(queryService, nil, zap.NewNop())
	indexHandler := NewIndexHandler(queryService, zap.NewNop())
	instrumentHandler := NewInstrumentHandler(queryService, zap.NewNop())

	router := gin.New()
	router.GET("/api/v1/instruments", instrumentHandler.GetPage)
	router.GET("/api/v1/stocks/top", stockHandler.GetTop)
	router.GET("/api/v1/bonds/top", bondHandler.GetTop)
	router.GET("/api/v1/bonds/yields", bondHandler.GetYields)
	router.GET("/api/v1/bonds/events", bondHandler.GetEvents)
	router.GET("/api/v1/indices/top", indexHandler.GetTop)
	return router
}

func TestRankingValidationRejected(t *testing.T) {
	router := rankingTestRouter()

	cases := []struct {
		name string
		url  string
	}{
		{"unknown stock criterion", "/api/v1/stocks/top?criterion=alphabetical"},
		{"unknown bond criterion", "/api/v1/bonds/top?criterion=vibes"},
		{"unknown yield band", "/api/v1/bonds/yields?band=forever"},
		{"unknown event kind", "/api/v1/bonds/events?kind=party"},
		{"unknown index criterion", "/api/v1/indices/top?criterion=alphabetical"},
		{"unknown instrument type", "/api/v1/instruments?type=warrant"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, tc.url, nil)
			router.ServeHTTP(w, req)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}
