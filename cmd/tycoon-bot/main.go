package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"tycoon/internal/bot"
	"tycoon/internal/config"
	"tycoon/internal/db"
	"tycoon/internal/game"
	"tycoon/internal/store/memory"
	"tycoon/internal/store/postgres"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadBotFromEnv()
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}

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

	prices, err := store.LatestPrices(ctx)
	if err != nil {
		logger.Error("price restore failed", "err", err)
		os.Exit(1)
	}
	for c, p := range game.BasePrices() {
		if _, ok := prices[c]; !ok {
			prices[c] = p
		}
	}

	gameSvc := game.NewService(store, game.NewMarket(prices), logger)
	b, err := bot.New(cfg.DiscordToken, gameSvc, logger, cfg.CommandPrefix, cfg.InviteBaseURL)
	if err != nil {
		logger.Error("bot init failed", "err", err)
		os.Exit(1)
	}
	if err := b.Open(); err != nil {
		logger.Error("discord connect failed", "err", err)
		os.Exit(1)
	}
	defer b.Close()

	logger.Info("tycoon bot running", "prefix", cfg.CommandPrefix)
	<-ctx.Done()
	logger.Info("bot shutdown")
}
