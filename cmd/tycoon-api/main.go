package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tycoon/internal/api"
	"tycoon/internal/config"
	"tycoon/internal/db"
	"tycoon/internal/game"
	"tycoon/internal/store/memory"
	"tycoon/internal/store/postgres"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.LoadAPIFromEnv()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	var store game.Store
	if cfg.DatabaseURL == "" {
		logger.Warn("TYCOON_DATABASE_URL not set, using in-memory store")
		store = memory.New()
	} else {
		pool, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("db connect failed", "err", err)
			os.Exit(1)
		}
		defer pool.Close()
		pg := postgres.New(pool)
		if err := pg.EnsureSchema(ctx); err != nil {
			logger.Error("schema init failed", "err", err)
			os.Exit(1)
		}
		store = pg
	}

	market, err := restoreMarket(ctx, store, cfg.SeedPrices, logger)
	if err != nil {
		logger.Error("market init failed", "err", err)
		os.Exit(1)
	}

	gameSvc := game.NewService(store, market, logger)
	server := api.New(logger, gameSvc)
	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	logger.Info("tycoon api listening", "addr", cfg.Addr)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server failed", "err", err)
		os.Exit(1)
	}
}

// restoreMarket resumes the last persisted prices when history exists, so a
// restart does not reset the market; otherwise it seeds the base prices.
func restoreMarket(ctx context.Context, store game.Store, seed bool, logger *slog.Logger) (*game.Market, error) {
	prices, err := store.LatestPrices(ctx)
	if err != nil {
		return nil, err
	}
	if len(prices) > 0 {
		logger.Info("market restored from history", "companies", len(prices))
		base := game.BasePrices()
		for c, p := range base {
			if _, ok := prices[c]; !ok {
				prices[c] = p
			}
		}
		return game.NewMarket(prices), nil
	}
	if !seed {
		logger.Warn("price seeding disabled and no history found, using base prices anyway")
	}
	return game.NewMarket(game.BasePrices()), nil
}
