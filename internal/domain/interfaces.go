package domain

import "context"

// QuoteProvider is the price oracle: given a symbol it returns the
// current quote. Implementations cache aggressively since upstream
// free tiers are rate limited.
type QuoteProvider interface {
	Quote(ctx context.Context, symbol string) (*Quote, error)
	Search(ctx context.Context, query string) ([]SymbolMatch, error)
	Intraday(ctx context.Context, symbol, interval string) ([]Candle, error)
	DailyHistory(ctx context.Context, symbol string) ([]Candle, error)
}

// TradeExecutor commits one order as an atomic unit of work.
type TradeExecutor interface {
	ExecuteTrade(ctx context.Context, order TradeOrder) (*TradeResult, error)
}
