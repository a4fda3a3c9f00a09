package normalize

import (
	"time"

	"github.com/yourorg/moex-data-service/internal/model"

	"go.uber.org/zap"
)

type bondYieldInfo struct {
	price        *float64
	durationDays *int
}

type bondMarketInfo struct {
	volume         *int64
	tradesCount    *int64
	effectiveYield *float64
}

type bondRefInfo struct {
	isin            *string
	shortname       *string
	listLevel       *int
	maturityDate    *time.Time
	couponPercent   *float64
	couponValue     *float64
	couponPeriod    *int
	nextCouponDate  *time.Time
	faceValue       *float64
	lotSize         *int
	currency        *string
	issueSize       *int64
	issueSizePlaced *int64
	accruedInterest *float64
	prevPrice       *float64
}

type bondKey struct {
	secid   string
	boardid string
}

// Bonds converts the three-section bond response into instrument records.
// marketdata_yields drives the join: one record per (secid, boardid) that
// also has a securities entry; marketdata contributes liquidity and yield.
func Bonds(resp *model.SecuritiesResponse, logger *zap.Logger) ([]model.InstrumentRecord, error) {
	start := time.Now()

	yields := NewTable("marketdata_yields", resp.MarketdataYields)
	if err := yields.Require("SECID", "BOARDID", "PRICE"); err != nil {
		return nil, err
	}

	yieldByKey := make(map[bondKey]bondYieldInfo, len(yields.Rows()))
	keys := make([]bondKey, 0, len(yields.Rows()))
	for _, row := range yields.Rows() {
		secid := yields.String(row, "SECID")
		boardid := yields.String(row, "BOARDID")
		if secid == nil || boardid == nil {
			continue
		}
		key := bondKey{*secid, *boardid}
		if _, seen := yieldByKey[key]; !seen {
			keys = append(keys, key)
		}
		yieldByKey[key] = bondYieldInfo{
			price:        yields.Float(row, "PRICE"),
			durationDays: yields.Int(row, "DURATION"),
		}
	}

	market := NewTable("marketdata", resp.Marketdata)
	if err := market.Require("SECID", "BOARDID"); err != nil {
		return nil, err
	}

	marketByKey := make(map[bondKey]bondMarketInfo, len(market.Rows()))
	for _, row := range market.Rows() {
		secid := market.String(row, "SECID")
		boardid := market.String(row, "BOARDID")
		if secid == nil || boardid == nil {
			continue
		}
		marketByKey[bondKey{*secid, *boardid}] = bondMarketInfo{
			volume:         market.Int64(row, "VALTODAY"),
			tradesCount:    market.Int64(row, "NUMTRADES"),
			effectiveYield: market.Float(row, "YIELD"),
		}
	}

	sec := NewTable("securities", resp.Securities)
	if err := sec.Require("SECID"); err != nil {
		return nil, err
	}

	refBySecid := make(map[string]bondRefInfo, len(sec.Rows()))
	for _, row := range sec.Rows() {
		secid := sec.String(row, "SECID")
		if secid == nil {
			continue
		}
		refBySecid[*secid] = bondRefInfo{
			isin:            sec.String(row, "ISIN"),
			shortname:       sec.String(row, "SHORTNAME"),
			listLevel:       sec.Int(row, "LISTLEVEL"),
			maturityDate:    sec.Date(row, "MATDATE"),
			couponPercent:   sec.Float(row, "COUPONPERCENT"),
			couponValue:     sec.Float(row, "COUPONVALUE"),
			couponPeriod:    sec.Int(row, "COUPONPERIOD"),
			nextCouponDate:  sec.Date(row, "NEXTCOUPON"),
			faceValue:       sec.Float(row, "FACEVALUE"),
			lotSize:         sec.Int(row, "LOTSIZE"),
			currency:        sec.String(row, "FACEUNIT"),
			issueSize:       sec.Int64(row, "ISSUESIZE"),
			issueSizePlaced: sec.Int64(row, "ISSUESIZEPLACED"),
			accruedInterest: sec.Float(row, "ACCRUEDINT"),
			prevPrice:       sec.Float(row, "PREVPRICE"),
		}
	}

	records := make([]model.InstrumentRecord, 0, len(keys))
	for _, key := range keys {
		ref, ok := refBySecid[key.secid]
		if !ok {
			continue
		}

		yield := yieldByKey[key]
		marketInfo := marketByKey[key]

		rec := model.InstrumentRecord{
			Secid:           key.secid,
			Boardid:         key.boardid,
			InstrumentType:  model.TypeBond,
			Isin:            ref.isin,
			Shortname:       ref.shortname,
			ListLevel:       ref.listLevel,
			Currency:        ref.currency,
			MaturityDate:    ref.maturityDate,
			CouponPercent:   clampNumeric(logger, ref.couponPercent),
			CouponValue:     ref.couponValue,
			CouponPeriod:    ref.couponPeriod,
			NextCouponDate:  ref.nextCouponDate,
			FaceValue:       ref.faceValue,
			LotSize:         ref.lotSize,
			IssueSize:       ref.issueSize,
			IssueSizePlaced: ref.issueSizePlaced,
			AccruedInterest: ref.accruedInterest,
			LastPrice:       yield.price,
			DurationDays:    yield.durationDays,
			Volume:          marketInfo.volume,
			TradesCount:     marketInfo.tradesCount,
			EffectiveYield:  clampNumeric(logger, marketInfo.effectiveYield),
		}

		changeAbs, changePct := changeFields(yield.price, ref.prevPrice)
		rec.ChangeAbs = changeAbs
		rec.ChangePercent = clampNumeric(logger, changePct)

		rec.FullPrice = dirtyPrice(yield.price, ref.accruedInterest, ref.faceValue)

		if yield.durationDays != nil && *yield.durationDays != 0 {
			rec.DurationYears = clampNumeric(logger, round6(float64(*yield.durationDays)/365.0))
		}

		records = append(records, rec)
	}

	logger.Info("Normalized bond response",
		zap.Int("records", len(records)),
		zap.Duration("elapsed", time.Since(start)))

	return records, nil
}

// dirtyPrice is the clean price plus accrued interest re-expressed in
// percent-of-face units. Nil when any operand is missing or face value is
// zero.
func dirtyPrice(clean, accrued, faceValue *float64) *float64 {
	if clean == nil || accrued == nil || faceValue == nil || *faceValue == 0 {
		return nil
	}
	return round8(*clean + *accrued / *faceValue * 100)
}
