package repository

import (
	"context"
	"time"

	"github.com/yourorg/moex-data-service/internal/model"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// CandleRepository handles database operations for daily candles
type CandleRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewCandleRepository creates a new candle repository
func NewCandleRepository(db *sqlx.DB, logger *zap.Logger) *CandleRepository {
	return &CandleRepository{
		db:     db,
		logger: logger,
	}
}

// buildCandleInsertSQL builds the candle insert statement. Candles are
// immutable once written: a duplicate (ticker, date) is a no-op, never an
// overwrite.
func buildCandleInsertSQL() string {
	return `
		INSERT INTO candles (ticker, date, close, volume)
		VALUES (:ticker, :date, :close, :volume)
		ON CONFLICT (ticker, date) DO NOTHING
	`
}

// InsertDailyCandles writes candles in batches
func (r *CandleRepository) InsertDailyCandles(ctx context.Context, candles []model.DailyCandle) error {
	if len(candles) == 0 {
		return nil
	}

	query := buildCandleInsertSQL()

	start := time.Now()
	for offset := 0; offset < len(candles); offset += UpsertBatchSize {
		end := offset + UpsertBatchSize
		if end > len(candles) {
			end = len(candles)
		}

		if _, err := r.db.NamedExecContext(ctx, query, candles[offset:end]); err != nil {
			r.logger.Error("Failed to insert candle batch",
				zap.Error(err),
				zap.Int("offset", offset))
			return err
		}
	}

	r.logger.Info("Inserted daily candles",
		zap.Int("candles", len(candles)),
		zap.Duration("elapsed", time.Since(start)))

	return nil
}

// GetCandles returns a ticker's candles ordered by date, optionally from a
// start date onwards
func (r *CandleRepository) GetCandles(ctx context.Context, ticker string, from *time.Time) ([]model.DailyCandle, error) {
	query := `
		SELECT ticker, date, close, volume
		FROM candles
		WHERE ticker = $1
	`

	args := []interface{}{ticker}
	if from != nil {
		query += " AND date >= $2"
		args = append(args, *from)
	}
	query += " ORDER BY date"

	var candles []model.DailyCandle
	err := r.db.SelectContext(ctx, &candles, query, args...)
	if err != nil {
		r.logger.Error("Failed to get candles",
			zap.Error(err),
			zap.String("ticker", ticker))
		return nil, err
	}

	return candles, nil
}
