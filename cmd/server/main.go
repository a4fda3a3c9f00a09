package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/yourorg/moex-data-service/internal/client"
	"github.com/yourorg/moex-data-service/internal/config"
	"github.com/yourorg/moex-data-service/internal/handler"
	"github.com/yourorg/moex-data-service/internal/middleware"
	"github.com/yourorg/moex-data-service/internal/repository"
	"github.com/yourorg/moex-data-service/internal/service"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v4/stdlib"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig("config/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Set up logger
	logger, err := createLogger(cfg.Logging.Level)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	// Connect to database
	db, err := connectToDB(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	loc, err := time.LoadLocation(cfg.Scheduler.Timezone)
	if err != nil {
		logger.Fatal("Failed to load timezone",
			zap.String("timezone", cfg.Scheduler.Timezone),
			zap.Error(err))
	}

	// Initialize repositories
	instrumentRepo := repository.NewInstrumentRepository(db, logger)
	candleRepo := repository.NewCandleRepository(db, logger)
	capRepo := repository.NewCapitalizationRepository(db, logger)
	bondEventRepo := repository.NewBondEventRepository(db, logger)

	// Initialize clients
	moexClient := client.NewMOEXClient(cfg.Sources, cfg.HTTP, logger)

	// Initialize services
	queryService := service.NewMarketQueryService(instrumentRepo, candleRepo, capRepo, loc, logger)
	bondEventService := service.NewBondEventService(moexClient, bondEventRepo, logger)

	// Initialize handlers
	instrumentHandler := handler.NewInstrumentHandler(queryService, logger)
	stockHandler := handler.NewStockHandler(queryService, logger)
	bondHandler := handler.NewBondHandler(queryService, bondEventService, logger)
	indexHandler := handler.NewIndexHandler(queryService, logger)
	chartHandler := handler.NewChartHandler(queryService, logger)

	// Set up HTTP server with Gin
	router := setupRouter(
		instrumentHandler,
		stockHandler,
		bondHandler,
		indexHandler,
		chartHandler,
		logger,
	)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start the server in a goroutine
	go func() {
		logger.Info("Starting server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Create a deadline for server shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited properly")
}

func setupRouter(
	instrumentHandler *handler.InstrumentHandler,
	stockHandler *handler.StockHandler,
	bondHandler *handler.BondHandler,
	indexHandler *handler.IndexHandler,
	chartHandler *handler.ChartHandler,
	logger *zap.Logger,
) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.Logger(logger))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")
	{
		instruments := v1.Group("/instruments")
		{
			instruments.GET("", instrumentHandler.GetPage)
			instruments.GET("/:secid", instrumentHandler.GetBySecid)
		}

		v1.GET("/stocks/top", stockHandler.GetTop)

		bonds := v1.Group("/bonds")
		{
			bonds.GET("/top", bondHandler.GetTop)
			bonds.GET("/yields", bondHandler.GetYields)
			bonds.GET("/events", bondHandler.GetEvents)
			bonds.GET("/:secid/payments", bondHandler.GetPayments)
		}

		v1.GET("/indices/top", indexHandler.GetTop)
		v1.GET("/capitalization", chartHandler.GetCapitalization)
		v1.GET("/candles/:ticker", chartHandler.GetCandles)
	}

	return router
}

func createLogger(level string) (*zap.Logger, error) {
	// Parse log level
	var zapLevel zap.AtomicLevel
	switch level {
	case "debug":
		zapLevel = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		zapLevel = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		zapLevel = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zapLevel = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		zapLevel = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	// Create logger config
	config := zap.Config{
		Level:            zapLevel,
		Development:      false,
		Encoding:         "json",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	return config.Build()
}

func connectToDB(dbConfig config.DatabaseConfig) (*sqlx.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		dbConfig.Host,
		dbConfig.Port,
		dbConfig.User,
		dbConfig.Password,
		dbConfig.DBName,
		dbConfig.SSLMode,
	)

	db, err := sqlx.Connect("pgx", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(dbConfig.MaxOpenConns)
	db.SetMaxIdleConns(dbConfig.MaxIdleConns)
	db.SetConnMaxLifetime(dbConfig.ConnMaxLifetime)

	return db, nil
}
