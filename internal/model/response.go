package model

// ColumnTable is one named section of a column-oriented ISS response: a
// parallel list of column names and positional data rows.
type ColumnTable struct {
	Columns []string        `json:"columns"`
	Data    [][]interface{} `json:"data"`
}

// SecuritiesResponse is the shape returned by the per-board securities
// endpoints (securities + marketdata, bonds additionally carry
// marketdata_yields).
type SecuritiesResponse struct {
	Securities       ColumnTable `json:"securities"`
	Marketdata       ColumnTable `json:"marketdata"`
	MarketdataYields ColumnTable `json:"marketdata_yields"`
}

// CapitalizationResponse is the shape of the capitalization statistics
// endpoint.
type CapitalizationResponse struct {
	Capitalization      ColumnTable `json:"capitalization"`
	IssueCapitalization ColumnTable `json:"issuecapitalization"`
}

// BondizationResponse is the bond cash-flow schedule payload.
type BondizationResponse struct {
	Coupons       ColumnTable `json:"coupons"`
	Offers        ColumnTable `json:"offers"`
	Amortizations ColumnTable `json:"amortizations"`
}
