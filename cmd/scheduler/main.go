package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/yourorg/moex-data-service/internal/client"
	"github.com/yourorg/moex-data-service/internal/config"
	"github.com/yourorg/moex-data-service/internal/kafka"
	"github.com/yourorg/moex-data-service/internal/repository"
	"github.com/yourorg/moex-data-service/internal/scheduler"
	"github.com/yourorg/moex-data-service/internal/service"

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
		logger.Fatal("Failed to load scheduler timezone",
			zap.String("timezone", cfg.Scheduler.Timezone),
			zap.Error(err))
	}

	// Initialize repositories
	instrumentRepo := repository.NewInstrumentRepository(db, logger)
	candleRepo := repository.NewCandleRepository(db, logger)
	capRepo := repository.NewCapitalizationRepository(db, logger)

	// Initialize clients
	moexClient := client.NewMOEXClient(cfg.Sources, cfg.HTTP, logger)
	cbrClient := client.NewCBRClient(cfg.Sources, cfg.HTTP, logger)

	// Initialize cycle-event producer
	producer := kafka.NewProducer(cfg.Kafka, logger)
	defer producer.Close()

	// Initialize services
	ingestService := service.NewIngestService(moexClient, cbrClient, instrumentRepo, capRepo, producer, logger)
	candleService := service.NewCandleIngestService(moexClient, candleRepo, loc, logger)

	// Register scheduled tasks
	sched := scheduler.New(loc, logger)
	tasks := map[string]scheduler.TaskFunc{
		"stocks":             ingestService.UpdateStocks,
		"bonds":              ingestService.UpdateBonds,
		"funds_tqtf":         fundsTask(ingestService, "TQTF"),
		"funds_tqif":         fundsTask(ingestService, "TQIF"),
		"indices":            ingestService.UpdateIndexes,
		"currencies":         ingestService.UpdateCurrencies,
		"capitalization":     ingestService.UpdateCapitalization,
		"stock_candles":      candleService.UpdateStockCandles,
		"bond_candles":       candleService.UpdateBondCandles,
		"index_candles":      candleService.UpdateIndexCandles,
		"funds_tqtf_candles": fundCandlesTask(candleService, "TQTF"),
		"funds_tqif_candles": fundCandlesTask(candleService, "TQIF"),
	}
	for name, run := range tasks {
		taskCfg, ok := cfg.Scheduler.Tasks[name]
		if !ok {
			logger.Warn("Task has no schedule configured, skipping", zap.String("task", name))
			continue
		}
		if taskCfg.Cron != "" {
			if err := sched.AddCron(name, taskCfg.Cron, taskCfg.MisfireGrace, run); err != nil {
				logger.Fatal("Invalid cron expression",
					zap.String("task", name),
					zap.String("cron", taskCfg.Cron),
					zap.Error(err))
			}
		} else {
			sched.AddInterval(name, taskCfg.Interval, taskCfg.MisfireGrace, run)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Scheduler.InitialLoad {
		logger.Info("Running initial load")
		sched.RunAll(ctx)
	}

	sched.Start(ctx)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down scheduler...")
	cancel()
	sched.Stop()
	logger.Info("Scheduler exited properly")
}

func fundsTask(s *service.IngestService, board string) scheduler.TaskFunc {
	return func(ctx context.Context) error {
		return s.UpdateFunds(ctx, board)
	}
}

func fundCandlesTask(s *service.CandleIngestService, board string) scheduler.TaskFunc {
	return func(ctx context.Context) error {
		return s.UpdateFundCandles(ctx, board)
	}
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
