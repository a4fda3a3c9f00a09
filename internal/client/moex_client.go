package client

import (
	"context"
	"fmt"
	"net/url"

	"github.com/yourorg/moex-data-service/internal/config"
	"github.com/yourorg/moex-data-service/internal/model"

	"go.uber.org/zap"
)

// MOEXClient handles communication with the MOEX ISS API
type MOEXClient struct {
	*BaseClient
}

// NewMOEXClient creates a new MOEX ISS client
func NewMOEXClient(cfg config.SourcesConfig, httpCfg config.HTTPClientConfig, logger *zap.Logger) *MOEXClient {
	return &MOEXClient{
		BaseClient: NewBaseClient(cfg.MoexBaseURL, httpCfg, logger),
	}
}

// fetchSecurities fetches the column-oriented securities+marketdata response
// for an engine/market, optionally narrowed to one trading board.
func (c *MOEXClient) fetchSecurities(ctx context.Context, engine, market, board string) (*model.SecuritiesResponse, error) {
	var path string
	if board != "" {
		path = fmt.Sprintf("/engines/%s/markets/%s/boards/%s/securities.json", engine, market, board)
	} else {
		path = fmt.Sprintf("/engines/%s/markets/%s/securities.json", engine, market)
	}

	var resp model.SecuritiesResponse
	if err := c.GetJSON(ctx, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetStocks returns shares on the main board (TQBR)
func (c *MOEXClient) GetStocks(ctx context.Context) (*model.SecuritiesResponse, error) {
	return c.fetchSecurities(ctx, "stock", "shares", "TQBR")
}

// GetBonds returns the whole bond market
func (c *MOEXClient) GetBonds(ctx context.Context) (*model.SecuritiesResponse, error) {
	return c.fetchSecurities(ctx, "stock", "bonds", "")
}

// GetIndexes returns exchange indices
func (c *MOEXClient) GetIndexes(ctx context.Context) (*model.SecuritiesResponse, error) {
	return c.fetchSecurities(ctx, "stock", "index", "")
}

// GetFunds returns exchange-traded funds on the given board (TQTF or TQIF)
func (c *MOEXClient) GetFunds(ctx context.Context, board string) (*model.SecuritiesResponse, error) {
	return c.fetchSecurities(ctx, "stock", "shares", board)
}

// GetCapitalization returns the market-wide capitalization statistics
func (c *MOEXClient) GetCapitalization(ctx context.Context) (*model.CapitalizationResponse, error) {
	var resp model.CapitalizationResponse
	if err := c.GetJSON(ctx, "/statistics/engines/stock/capitalization.json", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetBondization returns the full cash-flow schedule for one bond
func (c *MOEXClient) GetBondization(ctx context.Context, secid string) (*model.BondizationResponse, error) {
	path := fmt.Sprintf("/securities/%s/bondization.json", url.PathEscape(secid))
	params := url.Values{}
	params.Add("limit", "unlimited")

	var resp model.BondizationResponse
	if err := c.GetJSON(ctx, path, params, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
