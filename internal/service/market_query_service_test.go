package service

import (
	"context"
	"testing"
	"time"

	"github.com/yourorg/moex-data-service/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeCandleReader struct {
	candles []model.DailyCandle
	from    *time.Time
}

func (f *fakeCandleReader) GetCandles(ctx context.Context, ticker string, from *time.Time) ([]model.DailyCandle, error) {
	f.from = from
	return f.candles, nil
}

type fakeCapReader struct {
	snapshots []model.MarketCapSnapshot
	from      time.Time
}

func (f *fakeCapReader) GetSince(ctx context.Context, from time.Time) ([]model.MarketCapSnapshot, error) {
	f.from = from
	return f.snapshots, nil
}

func newTestQueryService(candles *fakeCandleReader, caps *fakeCapReader) *MarketQueryService {
	s := NewMarketQueryService(nil, candles, caps, time.UTC, zap.NewNop())
	s.now = func() time.Time { return time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC) }
	return s
}

func dailySeries(n int, start time.Time) []model.DailyCandle {
	candles := make([]model.DailyCandle, n)
	for i := range candles {
		candles[i] = model.DailyCandle{
			Ticker: "SBER",
			Date:   start.AddDate(0, 0, i),
			Close:  100 + float64(i),
			Volume: int64(1000 + i),
		}
	}
	return candles
}

func TestGetCandlesAllDownsampled(t *testing.T) {
	candles := &fakeCandleReader{candles: dailySeries(500, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))}
	s := newTestQueryService(candles, &fakeCapReader{})

	series, err := s.GetCandles(context.Background(), "SBER", "all")
	require.NoError(t, err)

	// unbounded period means no from date and a bounded point count
	assert.Nil(t, candles.from)
	assert.LessOrEqual(t, len(series.Data), 200)
	assert.Equal(t, "2025-01-01", series.Data[0].Date)
	assert.Equal(t, candles.candles[499].Date.Format("2006-01-02"), series.Data[len(series.Data)-1].Date)

	// change over the whole series: 100 -> 599
	assert.InDelta(t, (599.0-100.0)/100.0*100, series.ChangePct, 0.01)
}

func TestGetCandlesBoundedPeriodNotDownsampled(t *testing.T) {
	candles := &fakeCandleReader{candles: dailySeries(300, time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC))}
	s := newTestQueryService(candles, &fakeCapReader{})

	series, err := s.GetCandles(context.Background(), "SBER", "1y")
	require.NoError(t, err)

	require.NotNil(t, candles.from)
	assert.Equal(t, "2025-08-28", candles.from.Format("2006-01-02"))
	assert.Len(t, series.Data, 300)
}

func TestGetCandlesInvalidPeriod(t *testing.T) {
	s := newTestQueryService(&fakeCandleReader{}, &fakeCapReader{})

	_, err := s.GetCandles(context.Background(), "SBER", "2centuries")
	assert.ErrorIs(t, err, ErrInvalidPeriod)
}

func TestGetCandlesEmptySeries(t *testing.T) {
	s := newTestQueryService(&fakeCandleReader{}, &fakeCapReader{})

	series, err := s.GetCandles(context.Background(), "SBER", "1m")
	require.NoError(t, err)
	assert.Empty(t, series.Data)
	assert.Zero(t, series.ChangePct)
}

func capSeries(n int, start time.Time) []model.MarketCapSnapshot {
	snapshots := make([]model.MarketCapSnapshot, n)
	for i := range snapshots {
		snapshots[i] = model.MarketCapSnapshot{
			Date: start.AddDate(0, 0, i),
			Cap:  1e13 + float64(i)*1e10,
		}
	}
	return snapshots
}

func TestGetCapitalizationStats(t *testing.T) {
	caps := &fakeCapReader{snapshots: capSeries(10, time.Date(2026, 8, 18, 0, 0, 0, 0, time.UTC))}
	s := newTestQueryService(&fakeCandleReader{}, caps)

	series, err := s.GetCapitalization(context.Background(), "1m")
	require.NoError(t, err)

	require.NotNil(t, series.Current)
	assert.Equal(t, 1e13+9e10, *series.Current)
	require.NotNil(t, series.ChangeAbs)
	assert.InDelta(t, 9e10, *series.ChangeAbs, 1)
	require.NotNil(t, series.ChangePct)
	assert.InDelta(t, 9e10/1e13*100, *series.ChangePct, 0.01)
	assert.Len(t, series.Data, 10)
}

func TestGetCapitalizationLongPeriodDownsampled(t *testing.T) {
	caps := &fakeCapReader{snapshots: capSeries(300, time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC))}
	s := newTestQueryService(&fakeCandleReader{}, caps)

	series, err := s.GetCapitalization(context.Background(), "1y")
	require.NoError(t, err)
	assert.LessOrEqual(t, len(series.Data), 50)
	assert.Equal(t, "2025-09-01", series.Data[0].Date)
}

func TestGetCapitalizationEmpty(t *testing.T) {
	s := newTestQueryService(&fakeCandleReader{}, &fakeCapReader{})

	series, err := s.GetCapitalization(context.Background(), "6m")
	require.NoError(t, err)
	assert.Empty(t, series.Data)
	assert.Nil(t, series.Current)
}

func TestGetInstrumentPageInvalidType(t *testing.T) {
	s := newTestQueryService(&fakeCandleReader{}, &fakeCapReader{})

	_, err := s.GetInstrumentPage(context.Background(), "warrant", 1, 20)
	assert.ErrorIs(t, err, ErrInvalidInstrumentType)
}

func TestPeriodStartYTD(t *testing.T) {
	s := newTestQueryService(&fakeCandleReader{}, &fakeCapReader{})

	from, err := s.periodStart("ytd")
	require.NoError(t, err)
	require.NotNil(t, from)
	assert.Equal(t, "2026-01-01", from.Format("2006-01-02"))
}
