package normalize

import (
	"testing"

	"github.com/yourorg/moex-data-service/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bondizationResponse() *model.BondizationResponse {
	return &model.BondizationResponse{
		Coupons: model.ColumnTable{
			Columns: []string{"coupondate", "facevalue", "value", "value_rub", "valueprc", "recorddate", "startdate", "faceunit"},
			Data: [][]interface{}{
				{"2026-12-01", 1000.0, 42.38, 42.38, 8.5, "2026-11-28", "2026-06-02", "SUR"},
				{"2027-06-01", 1000.0, 42.38, 42.38, 8.5, nil, "2026-12-02", "SUR"},
			},
		},
		Offers: model.ColumnTable{
			Columns: []string{"offerdate", "offerdatestart", "offerdateend", "facevalue", "value", "price", "offertype", "faceunit"},
			Data: [][]interface{}{
				{"2027-03-15", "2027-03-01", "2027-03-10", 1000.0, 1000.0, 100.0, "Оферта", "SUR"},
			},
		},
		Amortizations: model.ColumnTable{
			Columns: []string{"amortdate", "facevalue", "value", "value_rub", "valueprc", "faceunit", "data_source"},
			Data: [][]interface{}{
				{"2028-06-01", 1000.0, 500.0, 500.0, 50.0, "SUR", "amortization"},
				{"2030-06-01", 500.0, 500.0, 500.0, 50.0, "SUR", "maturity"},
			},
		},
	}
}

func TestBondEventsMergedAndSorted(t *testing.T) {
	events := BondEvents(bondizationResponse())
	require.Len(t, events, 5)

	// ascending by event date across all three sections
	for i := 1; i < len(events); i++ {
		assert.LessOrEqual(t, events[i-1].EventDate, events[i].EventDate)
	}

	assert.Equal(t, model.EventCoupon, events[0].EventType)
	assert.Equal(t, "2026-12-01", events[0].EventDate)
	assert.Equal(t, model.EventOffer, events[1].EventType)
	assert.Equal(t, model.EventCoupon, events[2].EventType)
	assert.Equal(t, model.EventAmortization, events[3].EventType)
	assert.Equal(t, model.EventMaturity, events[4].EventType)
}

func TestBondEventsFieldMapping(t *testing.T) {
	events := BondEvents(bondizationResponse())
	require.Len(t, events, 5)

	coupon := events[0]
	require.NotNil(t, coupon.PaymentAmount)
	assert.Equal(t, 42.38, *coupon.PaymentAmount)
	require.NotNil(t, coupon.PaymentPercent)
	assert.Equal(t, 8.5, *coupon.PaymentPercent)
	require.NotNil(t, coupon.RecordDate)
	assert.Equal(t, "2026-11-28", *coupon.RecordDate)
	assert.Equal(t, "coupon", coupon.Source)

	offer := events[1]
	require.NotNil(t, offer.OfferPricePct)
	assert.Equal(t, 100.0, *offer.OfferPricePct)
	require.NotNil(t, offer.OfferStartDate)
	assert.Equal(t, "2027-03-01", *offer.OfferStartDate)
	assert.Equal(t, "offer", offer.Source)

	maturity := events[4]
	assert.Equal(t, model.EventMaturity, maturity.EventType)
	assert.Equal(t, "amortization", maturity.Source)
}

func TestBondEventsSkipUndatedRows(t *testing.T) {
	resp := bondizationResponse()
	resp.Coupons.Data = append(resp.Coupons.Data, []interface{}{nil, 1000.0, 42.38, 42.38, 8.5, nil, nil, "SUR"})

	events := BondEvents(resp)
	assert.Len(t, events, 5)
}

func TestBondEventsEmptyPayload(t *testing.T) {
	events := BondEvents(&model.BondizationResponse{})
	assert.Empty(t, events)
}
