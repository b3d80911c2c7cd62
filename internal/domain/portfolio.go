package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PortfolioSummary aggregates an account's cash and open positions.
// Holdings are valued at cost basis (shares × avg cost), not marked to
// the live quote; CurrentValue therefore equals Invested. See the
// summary endpoint documentation.
type PortfolioSummary struct {
	CashBalance         decimal.Decimal `json:"cashBalance"`
	Invested            decimal.Decimal `json:"invested"`
	CurrentValue        decimal.Decimal `json:"currentValue"`
	TotalPortfolioValue decimal.Decimal `json:"totalPortfolioValue"`
	TotalReturn         decimal.Decimal `json:"totalReturn"`
	StartingBalance     decimal.Decimal `json:"startingBalance"`
}

// RankedEntry is one row of the leaderboard.
type RankedEntry struct {
	Rank          int             `json:"rank"`
	Username      string          `json:"username"`
	TotalValue    decimal.Decimal `json:"totalValue"`
	ReturnPercent decimal.Decimal `json:"returnPercent"`
	TradeCount    int64           `json:"tradeCount"`
	MemberSince   time.Time       `json:"memberSince"`
}
