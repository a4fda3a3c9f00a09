package model

import (
	"time"
)

// Instrument types stored in market_data.instrument_type
const (
	TypeStock = "stock"
	TypeBond  = "bond"
	TypeFund  = "fund"
	TypeIndex = "index"
	TypeForex = "forex"
)

// InstrumentRecord is the latest known snapshot of a tradable instrument.
// (secid, boardid) is the natural key; every other column is nullable so a
// refresh that could not determine a field never erases a stored value.
type InstrumentRecord struct {
	Secid          string `json:"secid" db:"secid"`
	Boardid        string `json:"boardid" db:"boardid"`
	InstrumentType string `json:"instrument_type" db:"instrument_type"`

	Shortname *string `json:"shortname" db:"shortname"`
	Currency  *string `json:"currency" db:"currency"`
	ListLevel *int    `json:"list_level" db:"list_level"`

	LastPrice            *float64 `json:"last_price" db:"last_price"`
	OpenPrice            *float64 `json:"open_price" db:"open_price"`
	HighPrice            *float64 `json:"high_price" db:"high_price"`
	LowPrice             *float64 `json:"low_price" db:"low_price"`
	ChangeAbs            *float64 `json:"change_abs" db:"change_abs"`
	ChangePercent        *float64 `json:"change_percent" db:"change_percent"`
	Volume               *int64   `json:"volume" db:"volume"`
	TradesCount          *int64   `json:"trades_count" db:"trades_count"`
	VolatilityPercent    *float64 `json:"volatility_percent" db:"volatility_percent"`
	Capitalization       *float64 `json:"capitalization" db:"capitalization"`
	ChangeCapitalization *float64 `json:"change_capitalization" db:"change_capitalization"`

	// Index-only
	AnnualHigh *float64 `json:"annual_high,omitempty" db:"annual_high"`
	AnnualLow  *float64 `json:"annual_low,omitempty" db:"annual_low"`

	// Bond-only
	MaturityDate    *time.Time `json:"maturity_date,omitempty" db:"maturity_date"`
	CouponPercent   *float64   `json:"coupon_percent,omitempty" db:"coupon_percent"`
	CouponValue     *float64   `json:"coupon_value,omitempty" db:"coupon_value"`
	CouponPeriod    *int       `json:"coupon_period,omitempty" db:"coupon_period"`
	NextCouponDate  *time.Time `json:"next_coupon_date,omitempty" db:"next_coupon_date"`
	AccruedInterest *float64   `json:"accrued_interest,omitempty" db:"accrued_interest"`
	FullPrice       *float64   `json:"full_price,omitempty" db:"full_price"`
	EffectiveYield  *float64   `json:"effective_yield,omitempty" db:"effective_yield"`
	DurationDays    *int       `json:"duration_days,omitempty" db:"duration_days"`
	DurationYears   *float64   `json:"duration_years,omitempty" db:"duration_years"`
	FaceValue       *float64   `json:"face_value,omitempty" db:"face_value"`
	Isin            *string    `json:"isin,omitempty" db:"isin"`
	LotSize         *int       `json:"lot_size,omitempty" db:"lot_size"`
	IssueSize       *int64     `json:"issue_size,omitempty" db:"issue_size"`
	IssueSizePlaced *int64     `json:"issue_size_placed,omitempty" db:"issue_size_placed"`
}

// InstrumentPage is a paginated slice of instrument records
type InstrumentPage struct {
	Items   []InstrumentRecord `json:"items"`
	Page    int                `json:"page"`
	PerPage int                `json:"per_page"`
}
