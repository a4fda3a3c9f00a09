package model

import (
	"time"
)

// Bond cash-flow event kinds
const (
	EventCoupon       = "COUPON"
	EventOffer        = "OFFER"
	EventAmortization = "AMORTIZATION"
	EventMaturity     = "MATURITY"
)

// BondEvent is one entry of a bond's cash-flow schedule: a coupon payment, a
// tender/put offer, or an amortization/maturity payment. EventDate keeps the
// upstream ISO-8601 form so the merged list sorts lexicographically.
type BondEvent struct {
	EventType        string   `json:"event_type"`
	EventDate        string   `json:"event_date"`
	FaceValue        *float64 `json:"face_value"`
	PaymentAmount    *float64 `json:"payment_amount"`
	PaymentAmountRub *float64 `json:"payment_amount_rub"`
	PaymentPercent   *float64 `json:"payment_percent,omitempty"`
	RecordDate       *string  `json:"record_date,omitempty"`
	StartDate        *string  `json:"start_date,omitempty"`
	OfferStartDate   *string  `json:"offer_start_date,omitempty"`
	OfferEndDate     *string  `json:"offer_end_date,omitempty"`
	OfferPricePct    *float64 `json:"offer_price_percent,omitempty"`
	OfferStatus      *string  `json:"offer_status,omitempty"`
	Currency         *string  `json:"currency"`
	Source           string   `json:"source"`
}

// BondPaymentsCacheEntry is one row of the bond-event cache: the raw
// bondization payload for a secid plus its refresh time.
type BondPaymentsCacheEntry struct {
	Secid     string    `db:"secid"`
	Payload   []byte    `db:"payload"`
	UpdatedAt time.Time `db:"updated_at"`
}
