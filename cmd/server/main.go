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
	"path/filepath"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"newsadvisor/internal/ai"
	"newsadvisor/internal/api"
	"newsadvisor/internal/config"
	"newsadvisor/internal/feeds"
	"newsadvisor/internal/pipeline"
	"newsadvisor/internal/portfolio"
	"newsadvisor/internal/storage"
)

func main() {
	configPath := flag.String("config", "config.toml", "path to config file")
	flag.Parse()

	// Load configuration (auto-creates default if missing).
	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Ensure the SQLite data directory exists before opening the store.
	if cfg.Storage.Driver == "sqlite" {
		if err := os.MkdirAll(filepath.Dir(cfg.Storage.Path), 0o755); err != nil {
			slog.Error("failed to create data directory", "error", err)
			os.Exit(1)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		slog.Error("failed to open store", "driver", cfg.Storage.Driver, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	provider, err := ai.NewProvider(ai.ProviderConfig{
		Provider: cfg.AI.Provider,
		APIKey:   cfg.AI.APIKey,
		Model:    cfg.AI.Model,
	})
	if err != nil {
		slog.Error("failed to create AI provider", "error", err)
		os.Exit(1)
	}
	slog.Info("AI provider configured", "provider", cfg.AI.Provider, "model", cfg.AI.Model)

	fetcher := feeds.NewFetcher(cfg.Feeds)

	// Broker access is optional: without a token, passes run without
	// portfolio context.
	var broker portfolio.Client
	var instruments map[string]string
	if cfg.Portfolio.AccessToken != "" {
		broker = portfolio.NewGrowwClient(cfg.Portfolio.BaseURL, cfg.Portfolio.AccessToken)
		if cfg.Portfolio.InstrumentsCSV != "" {
			instruments, err = portfolio.LoadInstruments(cfg.Portfolio.InstrumentsCSV)
			if err != nil {
				slog.Warn("failed to load instruments file, symbols will be used as names", "error", err)
			}
		}
	}

	p := pipeline.New(store, fetcher, provider, broker, instruments)
	scheduler := pipeline.NewScheduler(p, time.Duration(cfg.Scheduler.IntervalMinutes)*time.Minute)

	router := api.NewRouter(store)
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		scheduler.Run(gctx)
		return nil
	})

	g.Go(func() error {
		slog.Info("starting server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		slog.Error("shutdown with error", "error", err)
		os.Exit(1)
	}
	slog.Info("shutdown complete")
}
