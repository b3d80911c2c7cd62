// Package app wires the application together at startup.
package app

import (
	"context"
	"log/slog"
	"sync"

	"vse_go/internal/infra"
	"vse_go/internal/infra/storage"
)

// Bootstrap orchestrates the application startup sequence.
type Bootstrap struct {
	Config  *infra.Config
	Storage *storage.Storage
	Logos   *infra.LogoDownloader
}

// NewBootstrap creates a new Bootstrap instance.
func NewBootstrap() *Bootstrap {
	return &Bootstrap{}
}

// Initialize performs core system initialization (config, logger, DB,
// logo cache).
func (b *Bootstrap) Initialize(configPath string) error {
	cfg, err := infra.LoadConfig(configPath)
	if err != nil {
		return err
	}
	b.Config = cfg

	logger := infra.NewLogger(cfg)
	slog.SetDefault(logger)

	store, err := storage.NewStorage(cfg.Storage.Path)
	if err != nil {
		return err
	}
	b.Storage = store
	slog.Info("database initialized", slog.String("path", cfg.Storage.Path))

	logos, err := infra.NewLogoDownloader("assets/logos", cfg.Market.LogoURLTemplate)
	if err != nil {
		return err
	}
	b.Logos = logos

	return nil
}

// SyncLogos pre-fetches logos for the tracked symbols in the
// background so the overview page renders without a fetch storm.
func (b *Bootstrap) SyncLogos(ctx context.Context) {
	var wg sync.WaitGroup
	semaphore := make(chan struct{}, 5) // Limit concurrent downloads

	for _, symbol := range b.Config.Market.TrackedSymbols {
		wg.Add(1)
		go func(sym string) {
			defer wg.Done()
			select {
			case <-ctx.Done():
				return
			case semaphore <- struct{}{}: // Acquire
			}
			defer func() { <-semaphore }() // Release

			if _, err := b.Logos.Download(sym); err != nil {
				slog.Warn("failed to download logo", slog.String("symbol", sym), slog.Any("error", err))
			}
		}(symbol)
	}

	wg.Wait()
	slog.Info("logo synchronization completed")
}
