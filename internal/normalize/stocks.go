package normalize

import (
	"time"

	"github.com/yourorg/moex-data-service/internal/model"

	"go.uber.org/zap"
)

type stockRefInfo struct {
	shortname *string
	currency  *string
	listLevel *int
	prevPrice *float64
}

// Stocks converts a TQBR securities response into instrument records. The
// marketdata section drives; rows whose secid has no securities entry are
// not actively tradable this cycle and are dropped.
func Stocks(resp *model.SecuritiesResponse, logger *zap.Logger) ([]model.InstrumentRecord, error) {
	start := time.Now()

	sec := NewTable("securities", resp.Securities)
	if err := sec.Require("SECID"); err != nil {
		return nil, err
	}

	refBySecid := make(map[string]stockRefInfo, len(sec.Rows()))
	for _, row := range sec.Rows() {
		secid := sec.String(row, "SECID")
		if secid == nil {
			continue
		}
		refBySecid[*secid] = stockRefInfo{
			shortname: sec.String(row, "SHORTNAME"),
			currency:  sec.String(row, "CURRENCYID"),
			listLevel: sec.Int(row, "LISTLEVEL"),
			prevPrice: sec.Float(row, "PREVPRICE"),
		}
	}

	market := NewTable("marketdata", resp.Marketdata)
	if err := market.Require("SECID", "BOARDID"); err != nil {
		return nil, err
	}

	records := make([]model.InstrumentRecord, 0, len(market.Rows()))
	skipped := 0
	for _, row := range market.Rows() {
		secid := market.String(row, "SECID")
		boardid := market.String(row, "BOARDID")
		if secid == nil || boardid == nil {
			skipped++
			continue
		}

		ref, ok := refBySecid[*secid]
		if !ok {
			continue
		}

		rec := model.InstrumentRecord{
			Secid:                *secid,
			Boardid:              *boardid,
			InstrumentType:       model.TypeStock,
			Shortname:            ref.shortname,
			Currency:             ref.currency,
			ListLevel:            ref.listLevel,
			LastPrice:            market.Float(row, "LAST"),
			OpenPrice:            market.Float(row, "OPEN"),
			HighPrice:            market.Float(row, "HIGH"),
			LowPrice:             market.Float(row, "LOW"),
			Volume:               market.Int64(row, "VALTODAY"),
			TradesCount:          market.Int64(row, "NUMTRADES"),
			Capitalization:       market.Float(row, "ISSUECAPITALIZATION"),
			ChangeCapitalization: market.Float(row, "TRENDISSUECAPITALIZATION"),
		}

		rec.ChangeAbs, rec.ChangePercent = changeFields(rec.LastPrice, ref.prevPrice)
		rec.VolatilityPercent = volatilityPercent(rec.HighPrice, rec.LowPrice, rec.OpenPrice)

		records = append(records, rec)
	}

	logger.Info("Normalized stock response",
		zap.Int("records", len(records)),
		zap.Int("skipped_rows", skipped),
		zap.Duration("elapsed", time.Since(start)))

	return records, nil
}
