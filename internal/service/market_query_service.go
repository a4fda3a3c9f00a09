package service

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/yourorg/moex-data-service/internal/model"
	"github.com/yourorg/moex-data-service/internal/repository"
	"github.com/yourorg/moex-data-service/internal/utils"

	"go.uber.org/zap"
)

// ErrInvalidPeriod is returned for an unrecognized chart period
var ErrInvalidPeriod = errors.New("invalid period")

// ErrInvalidInstrumentType is returned for an unknown instrument type
var ErrInvalidInstrumentType = errors.New("invalid instrument type")

var validInstrumentTypes = map[string]bool{
	model.TypeStock: true,
	model.TypeBond:  true,
	model.TypeFund:  true,
	model.TypeIndex: true,
	model.TypeForex: true,
}

type candleReader interface {
	GetCandles(ctx context.Context, ticker string, from *time.Time) ([]model.DailyCandle, error)
}

type capitalizationReader interface {
	GetSince(ctx context.Context, from time.Time) ([]model.MarketCapSnapshot, error)
}

// MarketQueryService answers read requests over the stored market data
type MarketQueryService struct {
	instruments *repository.InstrumentRepository
	candles     candleReader
	caps        capitalizationReader
	loc         *time.Location
	logger      *zap.Logger
	now         func() time.Time
}

// NewMarketQueryService creates a new query service
func NewMarketQueryService(
	instruments *repository.InstrumentRepository,
	candles candleReader,
	caps capitalizationReader,
	loc *time.Location,
	logger *zap.Logger,
) *MarketQueryService {
	return &MarketQueryService{
		instruments: instruments,
		candles:     candles,
		caps:        caps,
		loc:         loc,
		logger:      logger,
		now:         time.Now,
	}
}

// GetInstrumentPage returns one page of instruments of a type
func (s *MarketQueryService) GetInstrumentPage(ctx context.Context, instrumentType string, page, perPage int) (*model.InstrumentPage, error) {
	if !validInstrumentTypes[instrumentType] {
		return nil, ErrInvalidInstrumentType
	}
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	records, err := s.instruments.GetPage(ctx, instrumentType, page, perPage)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []model.InstrumentRecord{}
	}

	return &model.InstrumentPage{Items: records, Page: page, PerPage: perPage}, nil
}

// GetInstrument returns the latest snapshot for a ticker, or nil
func (s *MarketQueryService) GetInstrument(ctx context.Context, secid string) (*model.InstrumentRecord, error) {
	return s.instruments.GetBySecid(ctx, secid)
}

// GetTopStocks ranks stocks by a criterion
func (s *MarketQueryService) GetTopStocks(ctx context.Context, criterion string, limit int) ([]model.InstrumentRecord, error) {
	return s.instruments.GetTopStocks(ctx, criterion, normalizeLimit(limit))
}

// GetTopBonds ranks first-level bonds by a criterion
func (s *MarketQueryService) GetTopBonds(ctx context.Context, criterion string, limit int) ([]model.InstrumentRecord, error) {
	return s.instruments.GetTopBonds(ctx, criterion, normalizeLimit(limit))
}

// GetTopYields ranks bonds by effective yield within a maturity band
func (s *MarketQueryService) GetTopYields(ctx context.Context, band string, limit int) ([]model.InstrumentRecord, error) {
	return s.instruments.GetTopYields(ctx, band, normalizeLimit(limit))
}

// GetTopIndexes ranks the tracked main or sector indices
func (s *MarketQueryService) GetTopIndexes(ctx context.Context, criterion string) ([]model.InstrumentRecord, error) {
	return s.instruments.GetTopIndexes(ctx, criterion)
}

// GetUpcomingBondEvents lists bonds with the nearest coupon payment or
// maturity dates
func (s *MarketQueryService) GetUpcomingBondEvents(ctx context.Context, kind string, limit int) ([]model.InstrumentRecord, error) {
	return s.instruments.GetUpcomingBondEvents(ctx, kind, normalizeLimit(limit))
}

// GetCapitalization returns the capitalization series for a chart period.
// Long periods are downsampled to at most 50 points, endpoints preserved.
func (s *MarketQueryService) GetCapitalization(ctx context.Context, period string) (*model.CapitalizationSeries, error) {
	from, err := s.periodStart(period)
	if err != nil {
		return nil, err
	}
	if from == nil {
		// capitalization charts never serve the full history raw
		start := s.now().In(s.loc).AddDate(-1, 0, 0)
		from = &start
	}

	snapshots, err := s.caps.GetSince(ctx, *from)
	if err != nil {
		return nil, err
	}

	series := &model.CapitalizationSeries{Data: []model.CapPoint{}}
	if len(snapshots) == 0 {
		return series, nil
	}

	switch period {
	case "6m", "1y", "ytd":
		snapshots = utils.Downsample(snapshots, utils.CapitalizationMaxPoints)
	}

	first := snapshots[0].Cap
	last := snapshots[len(snapshots)-1].Cap
	current := last
	changeAbs := roundTo(last-first, 2)
	series.Current = &current
	series.ChangeAbs = &changeAbs
	if first != 0 {
		changePct := roundTo((last-first)/first*100, 2)
		series.ChangePct = &changePct
	}

	for _, snap := range snapshots {
		series.Data = append(series.Data, model.CapPoint{
			Date: snap.Date.Format("2006-01-02"),
			Cap:  snap.Cap,
		})
	}
	return series, nil
}

// GetCandles returns the candle series for one ticker and chart period.
// The unbounded "all" period is downsampled to at most 200 points.
func (s *MarketQueryService) GetCandles(ctx context.Context, ticker, period string) (*model.CandleSeries, error) {
	from, err := s.periodStart(period)
	if err != nil {
		return nil, err
	}

	candles, err := s.candles.GetCandles(ctx, ticker, from)
	if err != nil {
		return nil, err
	}

	series := &model.CandleSeries{Data: []model.CandlePoint{}}
	if len(candles) == 0 {
		return series, nil
	}

	if period == "all" {
		candles = utils.Downsample(candles, utils.CandlesMaxPoints)
	}

	first := candles[0].Close
	last := candles[len(candles)-1].Close
	if first != 0 {
		series.ChangePct = roundTo((last-first)/first*100, 2)
	}

	for _, c := range candles {
		series.Data = append(series.Data, model.CandlePoint{
			Date:   c.Date.Format("2006-01-02"),
			Close:  c.Close,
			Volume: c.Volume,
		})
	}
	return series, nil
}

// periodStart maps a chart period to its inclusive start date, nil for the
// unbounded "all" period
func (s *MarketQueryService) periodStart(period string) (*time.Time, error) {
	now := s.now().In(s.loc)

	var start time.Time
	switch period {
	case "1d":
		start = now.AddDate(0, 0, -1)
	case "1w":
		start = now.AddDate(0, 0, -7)
	case "1m":
		start = now.AddDate(0, -1, 0)
	case "6m":
		start = now.AddDate(0, -6, 0)
	case "1y":
		start = now.AddDate(-1, 0, 0)
	case "ytd":
		start = time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, s.loc)
	case "all":
		return nil, nil
	default:
		return nil, ErrInvalidPeriod
	}
	return &start, nil
}

func normalizeLimit(limit int) int {
	if limit < 1 || limit > 50 {
		return 10
	}
	return limit
}

func roundTo(value float64, places int) float64 {
	factor := math.Pow(10, float64(places))
	return math.Round(value*factor) / factor
}
