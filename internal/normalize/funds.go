package normalize

import (
	"time"

	"github.com/yourorg/moex-data-service/internal/model"

	"go.uber.org/zap"
)

// defaultFundCurrency is assumed when the securities section carries no
// face unit (SUR is the exchange's code for rubles).
const defaultFundCurrency = "SUR"

// Funds converts an ETF board response (TQTF or TQIF) into instrument
// records. Same two-section join as stocks, but the currency comes from
// FACEUNIT and capitalization fields are not reported for funds.
func Funds(resp *model.SecuritiesResponse, logger *zap.Logger) ([]model.InstrumentRecord, error) {
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
			currency:  sec.String(row, "FACEUNIT"),
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

		currency := ref.currency
		if currency == nil {
			def := defaultFundCurrency
			currency = &def
		}

		rec := model.InstrumentRecord{
			Secid:          *secid,
			Boardid:        *boardid,
			InstrumentType: model.TypeFund,
			Shortname:      ref.shortname,
			Currency:       currency,
			ListLevel:      ref.listLevel,
			LastPrice:      market.Float(row, "LAST"),
			OpenPrice:      market.Float(row, "OPEN"),
			HighPrice:      market.Float(row, "HIGH"),
			LowPrice:       market.Float(row, "LOW"),
			Volume:         market.Int64(row, "VALTODAY"),
			TradesCount:    market.Int64(row, "NUMTRADES"),
		}

		rec.ChangeAbs, rec.ChangePercent = changeFields(rec.LastPrice, ref.prevPrice)
		rec.VolatilityPercent = volatilityPercent(rec.HighPrice, rec.LowPrice, rec.OpenPrice)

		records = append(records, rec)
	}

	logger.Info("Normalized fund response",
		zap.Int("records", len(records)),
		zap.Int("skipped_rows", skipped),
		zap.Duration("elapsed", time.Since(start)))

	return records, nil
}
