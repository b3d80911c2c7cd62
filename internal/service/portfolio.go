// Package service holds the read-side projections and supporting
// services built on top of the ledger store.
package service

import (
	"context"

	"vse_go/internal/domain"
	"vse_go/internal/infra/storage"

	"github.com/shopspring/decimal"
)

// PortfolioService is the read-only valuator over accounts and
// holdings. It never mutates state and is safe to call concurrently
// with trades.
type PortfolioService struct {
	store *storage.Storage
}

// NewPortfolioService is the constructor.
func NewPortfolioService(store *storage.Storage) *PortfolioService {
	return &PortfolioService{store: store}
}

// Holdings returns the account's open positions ordered by symbol.
func (s *PortfolioService) Holdings(ctx context.Context, accountID uint) ([]domain.Holding, error) {
	return s.store.ListHoldings(ctx, accountID)
}

// Transactions returns the account's most recent trades, newest first.
// limit falls back to 50 when not positive.
func (s *PortfolioService) Transactions(ctx context.Context, accountID uint, limit int) ([]domain.Transaction, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.store.ListTransactions(ctx, accountID, limit)
}

// Summarize computes the portfolio summary from a consistent snapshot
// of account and holdings. Positions are valued at cost basis, not the
// live quote.
func (s *PortfolioService) Summarize(ctx context.Context, accountID uint) (*domain.PortfolioSummary, error) {
	account, err := s.store.GetAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	holdings, err := s.store.ListHoldings(ctx, accountID)
	if err != nil {
		return nil, err
	}

	invested := decimal.Zero
	for _, h := range holdings {
		invested = invested.Add(h.AvgCost.Mul(decimal.NewFromInt(h.Shares)))
	}

	totalValue := account.CashBalance.Add(invested)

	return &domain.PortfolioSummary{
		CashBalance:         account.CashBalance,
		Invested:            invested,
		CurrentValue:        invested,
		TotalPortfolioValue: totalValue,
		TotalReturn:         returnPercent(totalValue, account.StartingBalance),
		StartingBalance:     account.StartingBalance,
	}, nil
}

// returnPercent is (total - starting) / starting × 100.
func returnPercent(totalValue, startingBalance decimal.Decimal) decimal.Decimal {
	if startingBalance.IsZero() {
		return decimal.Zero
	}
	return totalValue.Sub(startingBalance).
		Div(startingBalance).
		Mul(decimal.NewFromInt(100))
}
