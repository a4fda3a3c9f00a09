package client

import (
	"testing"

	"github.com/yourorg/moex-data-service/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
)

const ratesXML = `<?xml version="1.0" encoding="windows-1251"?>
<ValCurs Date="28.08.2026" name="Foreign Currency Market">
  <Valute ID="R01235">
    <NumCode>840</NumCode>
    <CharCode>USD</CharCode>
    <Nominal>1</Nominal>
    <Name>Доллар США</Name>
    <Value>81,4275</Value>
  </Valute>
  <Valute ID="R01239">
    <NumCode>978</NumCode>
    <CharCode>EUR</CharCode>
    <Nominal>1</Nominal>
    <Name>Евро</Name>
    <Value>94,9012</Value>
  </Valute>
  <Valute ID="R01999">
    <NumCode>999</NumCode>
    <CharCode>BAD</CharCode>
    <Nominal>1</Nominal>
    <Name>Broken</Name>
    <Value>not-a-number</Value>
  </Valute>
</ValCurs>`

func encodeWindows1251(t *testing.T, s string) string {
	t.Helper()
	encoded, err := charmap.Windows1251.NewEncoder().String(s)
	require.NoError(t, err)
	return encoded
}

func TestParseDailyRatesXML(t *testing.T) {
	records, err := ParseDailyRatesXML(encodeWindows1251(t, ratesXML))
	require.NoError(t, err)

	// the unparsable value is skipped, not fatal
	require.Len(t, records, 2)

	usd := records[0]
	assert.Equal(t, "USD", usd.Secid)
	assert.Equal(t, "CBR", usd.Boardid)
	assert.Equal(t, model.TypeForex, usd.InstrumentType)
	require.NotNil(t, usd.Shortname)
	assert.Equal(t, "Доллар США", *usd.Shortname)
	require.NotNil(t, usd.LastPrice)
	assert.Equal(t, 81.43, *usd.LastPrice)

	eur := records[1]
	assert.Equal(t, "EUR", eur.Secid)
	require.NotNil(t, eur.LastPrice)
	assert.Equal(t, 94.9, *eur.LastPrice)
}

func TestParseDailyRatesXMLMalformedDocument(t *testing.T) {
	_, err := ParseDailyRatesXML("<ValCurs><Valute>")
	require.Error(t, err)
}
