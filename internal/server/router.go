package server

import (
	"log/slog"
	"net/http"
	"time"

	"vse_go/internal/domain"
	"vse_go/internal/infra"
	"vse_go/internal/service"

	"github.com/go-chi/chi/v5"
)

// Deps bundles everything the router needs.
type Deps struct {
	Auth           *service.AuthService
	Executor       domain.TradeExecutor
	Portfolio      *service.PortfolioService
	Leaderboard    *service.LeaderboardService
	Watchlist      *service.WatchlistService
	Market         *service.MarketService
	Logos          *infra.LogoDownloader
	StreamInterval time.Duration
	Logger         *slog.Logger
}

// NewRouter creates the chi router with all routes registered.
// Portfolio, trading and watchlist routes require a bearer token;
// market data and the leaderboard are public.
func NewRouter(d Deps) chi.Router {
	r := chi.NewRouter()
	r.Use(requestLogging(d.Logger))

	authH := NewAuthHandler(d.Auth)
	tradeH := NewTradeHandler(d.Executor, d.Portfolio)
	marketH := NewMarketHandler(d.Market, d.Logos)
	watchH := NewWatchlistHandler(d.Watchlist)
	boardH := NewLeaderboardHandler(d.Leaderboard)
	streamH := NewStreamHandler(d.Market, d.StreamInterval)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, infra.GlobalMetrics.Snapshot())
	})

	r.Route("/api", func(r chi.Router) {
		// Public routes.
		r.Post("/auth/register", authH.Register)
		r.Post("/auth/login", authH.Login)

		r.Get("/market/quote/{symbol}", marketH.Quote)
		r.Get("/market/search/{query}", marketH.Search)
		r.Get("/market/chart/{symbol}/{interval}", marketH.Chart)
		r.Get("/market/history/{symbol}", marketH.History)
		r.Get("/market/overview", marketH.Overview)
		r.Get("/market/stream", streamH.Stream)

		r.Get("/leaderboard", boardH.Rank)

		// Authenticated routes.
		r.Group(func(r chi.Router) {
			r.Use(requireAuth(d.Auth))

			r.Get("/auth/profile", authH.Profile)

			r.Post("/trade", tradeH.Execute)
			r.Get("/portfolio", tradeH.Portfolio)
			r.Get("/portfolio/summary", tradeH.Summary)
			r.Get("/transactions", tradeH.Transactions)

			r.Get("/watchlist", watchH.List)
			r.Post("/watchlist", watchH.Add)
			r.Delete("/watchlist/{symbol}", watchH.Remove)
		})
	})

	r.Get("/logos/{symbol}", marketH.Logo)

	return r
}
