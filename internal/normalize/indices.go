package normalize

import (
	"strings"
	"time"

	"github.com/yourorg/moex-data-service/internal/model"

	"go.uber.org/zap"
)

// indexBoards are the boards whose indices are tracked
var indexBoards = map[string]bool{
	"RTSI": true,
	"SNDX": true,
}

type indexRefInfo struct {
	shortname  *string
	currency   *string
	annualHigh *float64
	annualLow  *float64
}

// Indices converts the index market response into instrument records.
// Only the RTSI and SNDX boards are kept, and a row with a null or zero
// traded volume means the index did not trade this cycle and is dropped
// rather than stored as a zero.
func Indices(resp *model.SecuritiesResponse, logger *zap.Logger) ([]model.InstrumentRecord, error) {
	start := time.Now()

	sec := NewTable("securities", resp.Securities)
	if err := sec.Require("SECID", "BOARDID"); err != nil {
		return nil, err
	}

	refBySecid := make(map[string]indexRefInfo, len(sec.Rows()))
	for _, row := range sec.Rows() {
		secid := sec.String(row, "SECID")
		boardid := sec.String(row, "BOARDID")
		if secid == nil || boardid == nil || !indexBoards[*boardid] {
			continue
		}

		ref := indexRefInfo{
			shortname:  sec.String(row, "SHORTNAME"),
			currency:   sec.String(row, "CURRENCYID"),
			annualHigh: sec.Float(row, "ANNUALHIGH"),
			annualLow:  sec.Float(row, "ANNUALLOW"),
		}
		// Some index names carry an iNAV marker not meant for display
		if ref.shortname != nil && strings.Contains(*ref.shortname, "iNAV") {
			cleaned := strings.TrimSpace(strings.ReplaceAll(*ref.shortname, "iNAV", ""))
			ref.shortname = &cleaned
		}
		refBySecid[*secid] = ref
	}

	market := NewTable("marketdata", resp.Marketdata)
	if err := market.Require("SECID", "BOARDID"); err != nil {
		return nil, err
	}

	records := make([]model.InstrumentRecord, 0, len(market.Rows()))
	notTraded := 0
	for _, row := range market.Rows() {
		secid := market.String(row, "SECID")
		boardid := market.String(row, "BOARDID")
		if secid == nil || boardid == nil || !indexBoards[*boardid] {
			continue
		}

		ref, ok := refBySecid[*secid]
		if !ok {
			continue
		}

		volume := market.Int64(row, "VALTODAY")
		if volume == nil || *volume == 0 {
			notTraded++
			continue
		}

		rec := model.InstrumentRecord{
			Secid:          *secid,
			Boardid:        *boardid,
			InstrumentType: model.TypeIndex,
			Shortname:      ref.shortname,
			Currency:       ref.currency,
			AnnualHigh:     ref.annualHigh,
			AnnualLow:      ref.annualLow,
			LastPrice:      market.Float(row, "CURRENTVALUE"),
			OpenPrice:      market.Float(row, "OPENVALUE"),
			HighPrice:      market.Float(row, "HIGH"),
			LowPrice:       market.Float(row, "LOW"),
			Volume:         volume,
			Capitalization: market.Float(row, "CAPITALIZATION"),
			ChangeAbs:      market.Float(row, "LASTCHANGE"),
			ChangePercent:  market.Float(row, "LASTCHANGEPRC"),
		}

		// The feed sometimes omits the precomputed change fields; derive
		// them from the open value when possible.
		if rec.ChangeAbs == nil && rec.LastPrice != nil && rec.OpenPrice != nil {
			rec.ChangeAbs = round8(*rec.LastPrice - *rec.OpenPrice)
		}
		if rec.ChangePercent == nil && rec.LastPrice != nil && rec.OpenPrice != nil && *rec.OpenPrice != 0 {
			rec.ChangePercent = round6((*rec.LastPrice - *rec.OpenPrice) / *rec.OpenPrice * 100)
		}

		rec.VolatilityPercent = volatilityPercent(rec.HighPrice, rec.LowPrice, rec.OpenPrice)

		records = append(records, rec)
	}

	logger.Info("Normalized index response",
		zap.Int("records", len(records)),
		zap.Int("not_traded", notTraded),
		zap.Duration("elapsed", time.Since(start)))

	return records, nil
}
