package domain

import "github.com/shopspring/decimal"

// Quote is a point-in-time price snapshot for one symbol.
type Quote struct {
	Symbol        string          `json:"symbol"`
	Price         decimal.Decimal `json:"price"`
	Change        decimal.Decimal `json:"change"`
	ChangePercent decimal.Decimal `json:"changePercent"`
	Volume        int64           `json:"volume"`
	High          decimal.Decimal `json:"high"`
	Low           decimal.Decimal `json:"low"`
	Open          decimal.Decimal `json:"open"`
	PreviousClose decimal.Decimal `json:"previousClose"`
	Timestamp     string          `json:"timestamp"` // latest trading day, YYYY-MM-DD
}

// SymbolMatch is one search result from the symbol directory.
type SymbolMatch struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	Region   string `json:"region"`
	Currency string `json:"currency"`
}

// Candle is a single OHLCV bar, used for both intraday charts and
// daily history.
type Candle struct {
	Timestamp string          `json:"timestamp"`
	Open      decimal.Decimal `json:"open"`
	High      decimal.Decimal `json:"high"`
	Low       decimal.Decimal `json:"low"`
	Close     decimal.Decimal `json:"close"`
	Volume    int64           `json:"volume"`
}

// MarketOverview groups tracked symbols by daily movement.
type MarketOverview struct {
	Gainers    []Quote `json:"gainers"`
	Losers     []Quote `json:"losers"`
	MostActive []Quote `json:"mostActive"`
}
