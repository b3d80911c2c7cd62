package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"vse_go/internal/app"
	"vse_go/internal/engine"
	"vse_go/internal/infra/alphavantage"
	"vse_go/internal/server"
	"vse_go/internal/service"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to configuration file")
	flag.Parse()

	bootstrap := app.NewBootstrap()
	if err := bootstrap.Initialize(*configPath); err != nil {
		slog.Error("bootstrapping failed", slog.Any("error", err))
		os.Exit(1)
	}
	cfg := bootstrap.Config

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go bootstrap.SyncLogos(ctx)

	// Price oracle.
	oracle := alphavantage.NewClient(cfg.Market.APIKey, cfg.Market.BaseURL, cfg.QuoteTTL())

	// Core engine and services.
	executor := engine.NewExecutor(bootstrap.Storage, cfg.Trading.Commission, cfg.Trading.MaxRetries)
	authSvc := service.NewAuthService(bootstrap.Storage, cfg.Auth.JWTSecret, cfg.TokenTTL(), cfg.Trading.StartingBalance)
	portfolioSvc := service.NewPortfolioService(bootstrap.Storage)
	leaderboardSvc := service.NewLeaderboardService(bootstrap.Storage)
	watchlistSvc := service.NewWatchlistService(bootstrap.Storage)
	marketSvc := service.NewMarketService(oracle, cfg.Market.TrackedSymbols)

	router := server.NewRouter(server.Deps{
		Auth:           authSvc,
		Executor:       executor,
		Portfolio:      portfolioSvc,
		Leaderboard:    leaderboardSvc,
		Watchlist:      watchlistSvc,
		Market:         marketSvc,
		Logos:          bootstrap.Logos,
		StreamInterval: cfg.StreamInterval(),
		Logger:         slog.Default(),
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout(),
		WriteTimeout: cfg.WriteTimeout(),
	}

	go func() {
		slog.Info("server starting", slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", slog.Any("error", err))
	}

	slog.Info("server stopped")
}
