package normalize

import (
	"sort"
	"strings"

	"github.com/yourorg/moex-data-service/internal/model"
)

// BondEvents decomposes a bondization payload into coupon, offer and
// amortization/maturity events merged into one list sorted ascending by
// event date. Dates stay ISO-8601 strings, which sort correctly without
// parsing.
func BondEvents(resp *model.BondizationResponse) []model.BondEvent {
	events := make([]model.BondEvent, 0,
		len(resp.Coupons.Data)+len(resp.Offers.Data)+len(resp.Amortizations.Data))

	coupons := NewTable("coupons", resp.Coupons)
	for _, row := range coupons.Rows() {
		date := coupons.String(row, "coupondate")
		if date == nil {
			continue
		}
		events = append(events, model.BondEvent{
			EventType:        model.EventCoupon,
			EventDate:        *date,
			FaceValue:        coupons.Float(row, "facevalue"),
			PaymentAmount:    coupons.Float(row, "value"),
			PaymentAmountRub: coupons.Float(row, "value_rub"),
			PaymentPercent:   coupons.Float(row, "valueprc"),
			RecordDate:       coupons.String(row, "recorddate"),
			StartDate:        coupons.String(row, "startdate"),
			Currency:         coupons.String(row, "faceunit"),
			Source:           "coupon",
		})
	}

	offers := NewTable("offers", resp.Offers)
	for _, row := range offers.Rows() {
		date := offers.String(row, "offerdate")
		if date == nil {
			continue
		}
		value := offers.Float(row, "value")
		events = append(events, model.BondEvent{
			EventType:        model.EventOffer,
			EventDate:        *date,
			FaceValue:        offers.Float(row, "facevalue"),
			PaymentAmount:    value,
			PaymentAmountRub: value,
			OfferStartDate:   offers.String(row, "offerdatestart"),
			OfferEndDate:     offers.String(row, "offerdateend"),
			OfferPricePct:    offers.Float(row, "price"),
			OfferStatus:      offers.String(row, "offertype"),
			Currency:         offers.String(row, "faceunit"),
			Source:           "offer",
		})
	}

	amortizations := NewTable("amortizations", resp.Amortizations)
	for _, row := range amortizations.Rows() {
		date := amortizations.String(row, "amortdate")
		if date == nil {
			continue
		}

		// The source tags the final redemption "maturity"; everything else
		// is a partial amortization.
		eventType := model.EventAmortization
		if tag := amortizations.String(row, "data_source"); tag != nil && strings.EqualFold(*tag, "maturity") {
			eventType = model.EventMaturity
		}

		events = append(events, model.BondEvent{
			EventType:        eventType,
			EventDate:        *date,
			FaceValue:        amortizations.Float(row, "facevalue"),
			PaymentAmount:    amortizations.Float(row, "value"),
			PaymentAmountRub: amortizations.Float(row, "value_rub"),
			PaymentPercent:   amortizations.Float(row, "valueprc"),
			Currency:         amortizations.String(row, "faceunit"),
			Source:           "amortization",
		})
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].EventDate < events[j].EventDate
	})

	return events
}
