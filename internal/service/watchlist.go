package service

import (
	"context"
	"fmt"
	"strings"

	"vse_go/internal/domain"
	"vse_go/internal/infra/storage"
)

// WatchlistService manages the per-account symbol watchlist.
type WatchlistService struct {
	store *storage.Storage
}

// NewWatchlistService is the constructor.
func NewWatchlistService(store *storage.Storage) *WatchlistService {
	return &WatchlistService{store: store}
}

// List returns the account's watched symbols, oldest first.
func (s *WatchlistService) List(ctx context.Context, accountID uint) ([]domain.WatchlistEntry, error) {
	return s.store.ListWatchlist(ctx, accountID)
}

// Add puts a symbol on the watchlist. Symbols are stored uppercased.
func (s *WatchlistService) Add(ctx context.Context, accountID uint, symbol string) (*domain.WatchlistEntry, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, fmt.Errorf("%w: symbol is required", domain.ErrInvalidOrder)
	}
	entry := &domain.WatchlistEntry{
		AccountID: accountID,
		Symbol:    symbol,
	}
	if err := s.store.AddWatch(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// Remove takes a symbol off the watchlist. Removing a symbol that is
// not watched is a no-op.
func (s *WatchlistService) Remove(ctx context.Context, accountID uint, symbol string) error {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	return s.store.RemoveWatch(ctx, accountID, symbol)
}
