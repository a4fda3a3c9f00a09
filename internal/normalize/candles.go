package normalize

import (
	"fmt"
	"time"

	"github.com/yourorg/moex-data-service/internal/model"

	"go.uber.org/zap"
)

// StockCandles derives previous-day candles from a stock response fetched
// after the trading day closed: LAST is the close, VOLTODAY the volume.
// Instruments that did not trade (null close or zero volume) are excluded
// rather than written as zero-volume candles.
func StockCandles(resp *model.SecuritiesResponse, date time.Time, logger *zap.Logger) ([]model.DailyCandle, error) {
	market := NewTable("marketdata", resp.Marketdata)
	if err := market.Require("SECID", "LAST", "VOLTODAY"); err != nil {
		return nil, err
	}

	candles := make([]model.DailyCandle, 0, len(market.Rows()))
	for _, row := range market.Rows() {
		secid := market.String(row, "SECID")
		last := market.Float(row, "LAST")
		if secid == nil || last == nil {
			continue
		}

		volume := market.Int64(row, "VOLTODAY")
		if volume == nil || *volume <= 0 {
			continue
		}

		candles = append(candles, model.DailyCandle{
			Ticker: *secid,
			Date:   date,
			Close:  *last,
			Volume: *volume,
		})
	}

	logger.Debug("Derived stock candles", zap.Int("candles", len(candles)))
	return candles, nil
}

// BondCandles derives previous-day bond candles: the close comes from PRICE
// in marketdata_yields, the volume from VALTODAY in marketdata, joined on
// (secid, boardid). Bonds without turnover are excluded.
func BondCandles(resp *model.SecuritiesResponse, date time.Time, logger *zap.Logger) ([]model.DailyCandle, error) {
	yields := NewTable("marketdata_yields", resp.MarketdataYields)
	if err := yields.Require("SECID", "BOARDID", "PRICE"); err != nil {
		return nil, err
	}

	market := NewTable("marketdata", resp.Marketdata)
	if err := market.Require("SECID", "BOARDID", "VALTODAY"); err != nil {
		return nil, err
	}

	volumeByKey := make(map[bondKey]int64, len(market.Rows()))
	for _, row := range market.Rows() {
		secid := market.String(row, "SECID")
		boardid := market.String(row, "BOARDID")
		if secid == nil || boardid == nil {
			continue
		}
		volume := market.Int64(row, "VALTODAY")
		if volume == nil || *volume < 0 {
			continue
		}
		volumeByKey[bondKey{*secid, *boardid}] = *volume
	}

	candles := make([]model.DailyCandle, 0, len(yields.Rows()))
	for _, row := range yields.Rows() {
		secid := yields.String(row, "SECID")
		boardid := yields.String(row, "BOARDID")
		price := yields.Float(row, "PRICE")
		if secid == nil || boardid == nil || price == nil {
			continue
		}

		volume := volumeByKey[bondKey{*secid, *boardid}]
		if volume <= 0 {
			continue
		}

		candles = append(candles, model.DailyCandle{
			Ticker: *secid,
			Date:   date,
			Close:  *price,
			Volume: volume,
		})
	}

	logger.Debug("Derived bond candles", zap.Int("candles", len(candles)))
	return candles, nil
}

// IndexCandles derives index candles. Unlike the other families, the trade
// date comes from the response's TRADEDATE column rather than the clock.
func IndexCandles(resp *model.SecuritiesResponse, logger *zap.Logger) ([]model.DailyCandle, error) {
	market := NewTable("marketdata", resp.Marketdata)
	if err := market.Require("SECID", "BOARDID", "TRADEDATE", "CURRENTVALUE", "VALTODAY"); err != nil {
		return nil, err
	}

	candles := make([]model.DailyCandle, 0, len(market.Rows()))
	for _, row := range market.Rows() {
		secid := market.String(row, "SECID")
		boardid := market.String(row, "BOARDID")
		if secid == nil || boardid == nil || !indexBoards[*boardid] {
			continue
		}

		date := market.Date(row, "TRADEDATE")
		value := market.Float(row, "CURRENTVALUE")
		if date == nil || value == nil {
			continue
		}

		volume := market.Int64(row, "VALTODAY")
		if volume == nil || *volume <= 0 {
			continue
		}

		candles = append(candles, model.DailyCandle{
			Ticker: *secid,
			Date:   *date,
			Close:  *value,
			Volume: *volume,
		})
	}

	logger.Debug("Derived index candles", zap.Int("candles", len(candles)))
	return candles, nil
}

// FundCandles derives previous-day fund candles. Funds have no single
// authoritative close column: CLOSEPRICE is used when present, LAST
// otherwise; at least one of the two columns must exist.
func FundCandles(resp *model.SecuritiesResponse, date time.Time, logger *zap.Logger) ([]model.DailyCandle, error) {
	market := NewTable("marketdata", resp.Marketdata)
	if err := market.Require("SECID", "VOLTODAY"); err != nil {
		return nil, err
	}
	if !market.Has("CLOSEPRICE") && !market.Has("LAST") {
		return nil, fmt.Errorf("%w: neither CLOSEPRICE nor LAST in section marketdata", ErrMissingColumn)
	}

	candles := make([]model.DailyCandle, 0, len(market.Rows()))
	for _, row := range market.Rows() {
		secid := market.String(row, "SECID")
		if secid == nil {
			continue
		}

		close := market.Float(row, "CLOSEPRICE")
		if close == nil {
			close = market.Float(row, "LAST")
		}
		if close == nil {
			continue
		}

		volume := market.Int64(row, "VOLTODAY")
		if volume == nil || *volume <= 0 {
			continue
		}

		candles = append(candles, model.DailyCandle{
			Ticker: *secid,
			Date:   date,
			Close:  *close,
			Volume: *volume,
		})
	}

	logger.Debug("Derived fund candles", zap.Int("candles", len(candles)))
	return candles, nil
}
