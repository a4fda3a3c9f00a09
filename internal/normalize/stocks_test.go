package normalize

import (
	"testing"

	"github.com/yourorg/moex-data-service/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func stockResponse() *model.SecuritiesResponse {
	return &model.SecuritiesResponse{
		Securities: model.ColumnTable{
			Columns: []string{"SECID", "SHORTNAME", "CURRENCYID", "LISTLEVEL", "PREVPRICE"},
			Data: [][]interface{}{
				{"SBER", "Sberbank", "SUR", 1.0, 250.0},
				{"GAZP", "Gazprom", "SUR", 1.0, nil},
			},
		},
		Marketdata: model.ColumnTable{
			Columns: []string{"SECID", "BOARDID", "LAST", "OPEN", "HIGH", "LOW", "VALTODAY", "NUMTRADES", "ISSUECAPITALIZATION"},
			Data: [][]interface{}{
				{"SBER", "TQBR", 275.0, 251.0, 280.0, 249.0, 1000000.0, 5000.0, 6.0e12},
				{"GAZP", "TQBR", 130.0, 128.0, 131.0, 127.5, 500000.0, 2000.0, 3.0e12},
				{"DELISTED", "TQBR", 10.0, 10.0, 10.0, 10.0, 100.0, 1.0, nil},
			},
		},
	}
}

func TestStocksJoinAndDerivedFields(t *testing.T) {
	records, err := Stocks(stockResponse(), zap.NewNop())
	require.NoError(t, err)

	// the row without a securities entry is dropped
	require.Len(t, records, 2)

	sber := records[0]
	assert.Equal(t, "SBER", sber.Secid)
	assert.Equal(t, "TQBR", sber.Boardid)
	assert.Equal(t, model.TypeStock, sber.InstrumentType)
	require.NotNil(t, sber.Shortname)
	assert.Equal(t, "Sberbank", *sber.Shortname)
	require.NotNil(t, sber.LastPrice)
	assert.Equal(t, 275.0, *sber.LastPrice)

	require.NotNil(t, sber.ChangeAbs)
	assert.Equal(t, 25.0, *sber.ChangeAbs)
	require.NotNil(t, sber.ChangePercent)
	assert.Equal(t, 10.0, *sber.ChangePercent)

	require.NotNil(t, sber.VolatilityPercent)
	assert.InDelta(t, (280.0-249.0)/251.0*100, *sber.VolatilityPercent, 1e-6)

	require.NotNil(t, sber.Capitalization)
	assert.Equal(t, 6.0e12, *sber.Capitalization)

	// no previous price means no change fields, not zeros
	gazp := records[1]
	assert.Nil(t, gazp.ChangeAbs)
	assert.Nil(t, gazp.ChangePercent)
}

func TestStocksMissingRequiredColumn(t *testing.T) {
	resp := stockResponse()
	resp.Marketdata.Columns = []string{"SECID", "LAST"}

	_, err := Stocks(resp, zap.NewNop())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingColumn)
}

func TestStocksNullKeySkipped(t *testing.T) {
	resp := stockResponse()
	resp.Marketdata.Data = append(resp.Marketdata.Data, []interface{}{nil, "TQBR", 1.0, 1.0, 1.0, 1.0, 1.0, 1.0, nil})

	records, err := Stocks(resp, zap.NewNop())
	require.NoError(t, err)
	assert.Len(t, records, 2)
}
