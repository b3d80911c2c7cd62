package service

import (
	"context"
	"sort"

	"vse_go/internal/domain"
	"vse_go/internal/infra/storage"

	"github.com/shopspring/decimal"
)

// LeaderboardService ranks all accounts by total portfolio value.
// Rankings are recomputed on every call; there is no cached rank state.
type LeaderboardService struct {
	store *storage.Storage
}

// NewLeaderboardService is the constructor.
func NewLeaderboardService(store *storage.Storage) *LeaderboardService {
	return &LeaderboardService{store: store}
}

// Rank returns up to limit accounts ordered by descending total value
// (cash + holdings at cost basis). Ties keep account-id order, so the
// result is stable across calls.
func (s *LeaderboardService) Rank(ctx context.Context, limit int) ([]domain.RankedEntry, error) {
	if limit <= 0 {
		limit = 20
	}

	accounts, err := s.store.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}
	holdings, err := s.store.ListAllHoldings(ctx)
	if err != nil {
		return nil, err
	}

	invested := make(map[uint]decimal.Decimal, len(accounts))
	for _, h := range holdings {
		invested[h.AccountID] = invested[h.AccountID].Add(h.AvgCost.Mul(decimal.NewFromInt(h.Shares)))
	}

	entries := make([]domain.RankedEntry, 0, len(accounts))
	for _, a := range accounts {
		totalValue := a.CashBalance.Add(invested[a.ID])
		trades, err := s.store.CountTransactions(ctx, a.ID)
		if err != nil {
			return nil, err
		}
		entries = append(entries, domain.RankedEntry{
			Username:      a.Username,
			TotalValue:    totalValue,
			ReturnPercent: returnPercent(totalValue, a.StartingBalance).Round(2),
			TradeCount:    trades,
			MemberSince:   a.CreatedAt,
		})
	}

	// ListAccounts is id-ordered, so a stable sort keeps ties in
	// account-id order.
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].TotalValue.GreaterThan(entries[j].TotalValue)
	})

	for i := range entries {
		entries[i].Rank = i + 1
	}
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}
