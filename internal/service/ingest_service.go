package service

import (
	"context"
	"strings"
	"time"

	"github.com/yourorg/moex-data-service/internal/kafka"
	"github.com/yourorg/moex-data-service/internal/model"
	"github.com/yourorg/moex-data-service/internal/normalize"

	"go.uber.org/zap"
)

type securitiesFetcher interface {
	GetStocks(ctx context.Context) (*model.SecuritiesResponse, error)
	GetBonds(ctx context.Context) (*model.SecuritiesResponse, error)
	GetIndexes(ctx context.Context) (*model.SecuritiesResponse, error)
	GetFunds(ctx context.Context, board string) (*model.SecuritiesResponse, error)
	GetCapitalization(ctx context.Context) (*model.CapitalizationResponse, error)
}

type ratesFetcher interface {
	GetDailyRates(ctx context.Context) ([]model.InstrumentRecord, error)
}

type instrumentStore interface {
	Upsert(ctx context.Context, records []model.InstrumentRecord) error
}

type capitalizationStore interface {
	Upsert(ctx context.Context, snapshots []model.MarketCapSnapshot) error
}

type cyclePublisher interface {
	PublishCycle(ctx context.Context, event kafka.CycleEvent)
}

// IngestService runs the periodic fetch, normalize and upsert cycles that
// keep the market_data and market_caps tables current.
type IngestService struct {
	moex        securitiesFetcher
	cbr         ratesFetcher
	instruments instrumentStore
	caps        capitalizationStore
	events      cyclePublisher
	logger      *zap.Logger
}

// NewIngestService creates a new ingestion service
func NewIngestService(
	moex securitiesFetcher,
	cbr ratesFetcher,
	instruments instrumentStore,
	caps capitalizationStore,
	events cyclePublisher,
	logger *zap.Logger,
) *IngestService {
	return &IngestService{
		moex:        moex,
		cbr:         cbr,
		instruments: instruments,
		caps:        caps,
		events:      events,
		logger:      logger,
	}
}

// UpdateStocks refreshes TQBR stock records
func (s *IngestService) UpdateStocks(ctx context.Context) error {
	return s.runCycle(ctx, "stocks", func(ctx context.Context) (int, error) {
		resp, err := s.moex.GetStocks(ctx)
		if err != nil {
			return 0, err
		}
		records, err := normalize.Stocks(resp, s.logger)
		if err != nil {
			return 0, err
		}
		return len(records), s.instruments.Upsert(ctx, records)
	})
}

// UpdateBonds refreshes bond records across all bond boards
func (s *IngestService) UpdateBonds(ctx context.Context) error {
	return s.runCycle(ctx, "bonds", func(ctx context.Context) (int, error) {
		resp, err := s.moex.GetBonds(ctx)
		if err != nil {
			return 0, err
		}
		records, err := normalize.Bonds(resp, s.logger)
		if err != nil {
			return 0, err
		}
		return len(records), s.instruments.Upsert(ctx, records)
	})
}

// UpdateFunds refreshes fund records for one board (TQTF or TQIF)
func (s *IngestService) UpdateFunds(ctx context.Context, board string) error {
	return s.runCycle(ctx, "funds_"+strings.ToLower(board), func(ctx context.Context) (int, error) {
		resp, err := s.moex.GetFunds(ctx, board)
		if err != nil {
			return 0, err
		}
		records, err := normalize.Funds(resp, s.logger)
		if err != nil {
			return 0, err
		}
		return len(records), s.instruments.Upsert(ctx, records)
	})
}

// UpdateIndexes refreshes index records for the tracked boards
func (s *IngestService) UpdateIndexes(ctx context.Context) error {
	return s.runCycle(ctx, "indices", func(ctx context.Context) (int, error) {
		resp, err := s.moex.GetIndexes(ctx)
		if err != nil {
			return 0, err
		}
		records, err := normalize.Indices(resp, s.logger)
		if err != nil {
			return 0, err
		}
		return len(records), s.instruments.Upsert(ctx, records)
	})
}

// UpdateCurrencies refreshes official CBR exchange rates
func (s *IngestService) UpdateCurrencies(ctx context.Context) error {
	return s.runCycle(ctx, "currencies", func(ctx context.Context) (int, error) {
		records, err := s.cbr.GetDailyRates(ctx)
		if err != nil {
			return 0, err
		}
		return len(records), s.instruments.Upsert(ctx, records)
	})
}

// UpdateCapitalization refreshes the total market capitalization snapshot
func (s *IngestService) UpdateCapitalization(ctx context.Context) error {
	return s.runCycle(ctx, "capitalization", func(ctx context.Context) (int, error) {
		resp, err := s.moex.GetCapitalization(ctx)
		if err != nil {
			return 0, err
		}
		snapshots := normalize.Capitalization(resp)
		return len(snapshots), s.caps.Upsert(ctx, snapshots)
	})
}

// runCycle wraps one ingestion cycle with timing, logging and eventing.
// A failed cycle is logged and reported, leaving previously stored data
// untouched for the next scheduled attempt.
func (s *IngestService) runCycle(ctx context.Context, task string, run func(ctx context.Context) (int, error)) error {
	start := time.Now()
	records, err := run(ctx)
	elapsed := time.Since(start)

	event := kafka.CycleEvent{
		Task:       task,
		Records:    records,
		DurationMs: elapsed.Milliseconds(),
		Status:     "ok",
	}
	if err != nil {
		event.Status = "error"
		s.logger.Error("Ingestion cycle failed",
			zap.String("task", task),
			zap.Duration("elapsed", elapsed),
			zap.Error(err))
	} else {
		s.logger.Info("Ingestion cycle completed",
			zap.String("task", task),
			zap.Int("records", records),
			zap.Duration("elapsed", elapsed))
	}

	if s.events != nil {
		s.events.PublishCycle(ctx, event)
	}
	return err
}
