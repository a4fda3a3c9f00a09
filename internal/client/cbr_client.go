package client

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/yourorg/moex-data-service/internal/config"
	"github.com/yourorg/moex-data-service/internal/model"

	"go.uber.org/zap"
	"golang.org/x/text/encoding/charmap"
)

// CBRClient handles communication with the central-bank daily-rates feed
type CBRClient struct {
	*BaseClient
	logger *zap.Logger
}

// NewCBRClient creates a new central-bank feed client
func NewCBRClient(cfg config.SourcesConfig, httpCfg config.HTTPClientConfig, logger *zap.Logger) *CBRClient {
	return &CBRClient{
		BaseClient: NewBaseClient(cfg.CbrBaseURL, httpCfg, logger),
		logger:     logger,
	}
}

type cbrValute struct {
	CharCode string `xml:"CharCode"`
	Name     string `xml:"Name"`
	Value    string `xml:"Value"`
}

type cbrDocument struct {
	Valutes []cbrValute `xml:"Valute"`
}

// GetDailyRates fetches today's official currency rates and returns them as
// forex instrument records on the synthetic "CBR" board.
func (c *CBRClient) GetDailyRates(ctx context.Context) ([]model.InstrumentRecord, error) {
	body, err := c.GetText(ctx, "/scripts/XML_daily.asp", nil)
	if err != nil {
		return nil, err
	}

	rates, err := ParseDailyRatesXML(body)
	if err != nil {
		c.logger.Error("Failed to parse central-bank XML", zap.Error(err))
		return nil, err
	}

	return rates, nil
}

// ParseDailyRatesXML parses the central-bank XML document. Entries without a
// currency code or with an unparsable value are skipped, not fatal.
func ParseDailyRatesXML(body string) ([]model.InstrumentRecord, error) {
	decoder := xml.NewDecoder(strings.NewReader(body))
	// The feed declares windows-1251
	decoder.CharsetReader = func(charset string, input io.Reader) (io.Reader, error) {
		switch strings.ToLower(charset) {
		case "windows-1251":
			return charmap.Windows1251.NewDecoder().Reader(input), nil
		default:
			return input, nil
		}
	}

	var doc cbrDocument
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode rates document: %w", err)
	}

	records := make([]model.InstrumentRecord, 0, len(doc.Valutes))
	for _, valute := range doc.Valutes {
		if valute.CharCode == "" || valute.Value == "" {
			continue
		}

		// Values use a comma decimal separator
		value, err := strconv.ParseFloat(strings.ReplaceAll(valute.Value, ",", "."), 64)
		if err != nil {
			continue
		}
		value = roundTo(value, 2)

		name := valute.Name
		records = append(records, model.InstrumentRecord{
			Secid:          valute.CharCode,
			Boardid:        "CBR",
			InstrumentType: model.TypeForex,
			Shortname:      &name,
			LastPrice:      &value,
		})
	}

	return records, nil
}

func roundTo(v float64, places int) float64 {
	shift := 1.0
	for i := 0; i < places; i++ {
		shift *= 10
	}
	if v < 0 {
		return float64(int64(v*shift-0.5)) / shift
	}
	return float64(int64(v*shift+0.5)) / shift
}
