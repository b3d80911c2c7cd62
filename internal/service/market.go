package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"vse_go/internal/domain"
)

// validIntervals are the intraday resolutions the chart endpoint accepts.
var validIntervals = map[string]bool{
	"1min":  true,
	"5min":  true,
	"15min": true,
	"30min": true,
	"60min": true,
}

// MarketService exposes the quote oracle to the API surface and builds
// the market overview from a fixed set of tracked symbols.
type MarketService struct {
	provider domain.QuoteProvider
	tracked  []string
}

// NewMarketService is the constructor. tracked is the symbol set used
// for the overview endpoint.
func NewMarketService(provider domain.QuoteProvider, tracked []string) *MarketService {
	return &MarketService{provider: provider, tracked: tracked}
}

// Quote returns the current quote for one symbol.
func (s *MarketService) Quote(ctx context.Context, symbol string) (*domain.Quote, error) {
	return s.provider.Quote(ctx, strings.ToUpper(strings.TrimSpace(symbol)))
}

// Search looks up symbols matching the query.
func (s *MarketService) Search(ctx context.Context, query string) ([]domain.SymbolMatch, error) {
	return s.provider.Search(ctx, query)
}

// Chart returns intraday candles at the given interval.
func (s *MarketService) Chart(ctx context.Context, symbol, interval string) ([]domain.Candle, error) {
	if !validIntervals[interval] {
		return nil, fmt.Errorf("%w: interval %q", domain.ErrInvalidOrder, interval)
	}
	return s.provider.Intraday(ctx, strings.ToUpper(strings.TrimSpace(symbol)), interval)
}

// History returns daily candles for roughly the last hundred sessions.
func (s *MarketService) History(ctx context.Context, symbol string) ([]domain.Candle, error) {
	return s.provider.DailyHistory(ctx, strings.ToUpper(strings.TrimSpace(symbol)))
}

// Overview quotes the tracked symbols and groups them into top
// gainers, losers and most active. Symbols that fail to quote are
// skipped rather than failing the whole overview.
func (s *MarketService) Overview(ctx context.Context) (*domain.MarketOverview, error) {
	quotes := make([]domain.Quote, 0, len(s.tracked))
	for _, symbol := range s.tracked {
		q, err := s.provider.Quote(ctx, symbol)
		if err != nil {
			slog.WarnContext(ctx, "overview quote failed",
				slog.String("symbol", symbol), slog.Any("error", err))
			continue
		}
		quotes = append(quotes, *q)
	}

	return &domain.MarketOverview{
		Gainers:    topBy(quotes, func(a, b domain.Quote) bool { return a.ChangePercent.GreaterThan(b.ChangePercent) }),
		Losers:     topBy(quotes, func(a, b domain.Quote) bool { return a.ChangePercent.LessThan(b.ChangePercent) }),
		MostActive: topBy(quotes, func(a, b domain.Quote) bool { return a.Volume > b.Volume }),
	}, nil
}

// topBy sorts a copy of quotes by less and returns the first five.
func topBy(quotes []domain.Quote, less func(a, b domain.Quote) bool) []domain.Quote {
	sorted := make([]domain.Quote, len(quotes))
	copy(sorted, quotes)
	sort.SliceStable(sorted, func(i, j int) bool { return less(sorted[i], sorted[j]) })
	if len(sorted) > 5 {
		sorted = sorted[:5]
	}
	return sorted
}
