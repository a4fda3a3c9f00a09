package service

import (
	"context"
	"time"

	"github.com/yourorg/moex-data-service/internal/model"
	"github.com/yourorg/moex-data-service/internal/normalize"

	"go.uber.org/zap"
)

type candleStore interface {
	InsertDailyCandles(ctx context.Context, candles []model.DailyCandle) error
}

// CandleIngestService derives one daily candle per instrument from the
// latest snapshot responses. Candle jobs run shortly after midnight, so
// the candle date is the previous trading day in the exchange timezone.
type CandleIngestService struct {
	moex    securitiesFetcher
	candles candleStore
	loc     *time.Location
	logger  *zap.Logger
	now     func() time.Time
}

// NewCandleIngestService creates a new daily-candle ingestion service
func NewCandleIngestService(moex securitiesFetcher, candles candleStore, loc *time.Location, logger *zap.Logger) *CandleIngestService {
	return &CandleIngestService{
		moex:    moex,
		candles: candles,
		loc:     loc,
		logger:  logger,
		now:     time.Now,
	}
}

// candleDate returns the previous calendar day at midnight in the
// exchange timezone
func (s *CandleIngestService) candleDate() time.Time {
	now := s.now().In(s.loc)
	y, m, d := now.AddDate(0, 0, -1).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, s.loc)
}

// UpdateStockCandles stores yesterday's stock candles
func (s *CandleIngestService) UpdateStockCandles(ctx context.Context) error {
	resp, err := s.moex.GetStocks(ctx)
	if err != nil {
		s.logger.Error("Failed to fetch stocks for candles", zap.Error(err))
		return err
	}
	candles, err := normalize.StockCandles(resp, s.candleDate(), s.logger)
	if err != nil {
		return err
	}
	return s.store(ctx, "stock_candles", candles)
}

// UpdateBondCandles stores yesterday's bond candles
func (s *CandleIngestService) UpdateBondCandles(ctx context.Context) error {
	resp, err := s.moex.GetBonds(ctx)
	if err != nil {
		s.logger.Error("Failed to fetch bonds for candles", zap.Error(err))
		return err
	}
	candles, err := normalize.BondCandles(resp, s.candleDate(), s.logger)
	if err != nil {
		return err
	}
	return s.store(ctx, "bond_candles", candles)
}

// UpdateIndexCandles stores index candles dated by the exchange trade date
func (s *CandleIngestService) UpdateIndexCandles(ctx context.Context) error {
	resp, err := s.moex.GetIndexes(ctx)
	if err != nil {
		s.logger.Error("Failed to fetch indices for candles", zap.Error(err))
		return err
	}
	candles, err := normalize.IndexCandles(resp, s.logger)
	if err != nil {
		return err
	}
	return s.store(ctx, "index_candles", candles)
}

// UpdateFundCandles stores yesterday's fund candles for one board
func (s *CandleIngestService) UpdateFundCandles(ctx context.Context, board string) error {
	resp, err := s.moex.GetFunds(ctx, board)
	if err != nil {
		s.logger.Error("Failed to fetch funds for candles",
			zap.String("board", board),
			zap.Error(err))
		return err
	}
	candles, err := normalize.FundCandles(resp, s.candleDate(), s.logger)
	if err != nil {
		return err
	}
	return s.store(ctx, "fund_candles_"+board, candles)
}

func (s *CandleIngestService) store(ctx context.Context, task string, candles []model.DailyCandle) error {
	if len(candles) == 0 {
		s.logger.Info("No candles to store", zap.String("task", task))
		return nil
	}
	if err := s.candles.InsertDailyCandles(ctx, candles); err != nil {
		s.logger.Error("Failed to store candles",
			zap.String("task", task),
			zap.Int("candles", len(candles)),
			zap.Error(err))
		return err
	}
	s.logger.Info("Stored daily candles",
		zap.String("task", task),
		zap.Int("candles", len(candles)))
	return nil
}
