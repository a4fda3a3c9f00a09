package model

import (
	"time"
)

// DailyCandle is one day's closing snapshot for a ticker. Primary key
// (ticker, date); candles are immutable once written.
type DailyCandle struct {
	Ticker string    `json:"ticker" db:"ticker"`
	Date   time.Time `json:"date" db:"date"`
	Close  float64   `json:"close" db:"close"`
	Volume int64     `json:"volume" db:"volume"`
}

// MarketCapSnapshot is the aggregate market capitalization for one calendar
// date. Reported multiple times a day; the latest value for the date wins.
type MarketCapSnapshot struct {
	Date time.Time `json:"date" db:"date"`
	Cap  float64   `json:"cap" db:"cap"`
}

// CandlePoint is one chart point of a candle series response
type CandlePoint struct {
	Date   string  `json:"date"`
	Close  float64 `json:"close"`
	Volume int64   `json:"volume"`
}

// CandleSeries is the charting view over daily candles
type CandleSeries struct {
	Data      []CandlePoint `json:"data"`
	ChangePct float64       `json:"change_pct"`
}

// CapPoint is one chart point of a capitalization series response
type CapPoint struct {
	Date string  `json:"date"`
	Cap  float64 `json:"cap"`
}

// CapitalizationSeries is the charting view over capitalization snapshots
type CapitalizationSeries struct {
	Current   *float64   `json:"current"`
	ChangeAbs *float64   `json:"change_abs"`
	ChangePct *float64   `json:"change_pct"`
	Data      []CapPoint `json:"data"`
}
