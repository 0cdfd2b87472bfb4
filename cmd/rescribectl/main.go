package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"rescribe/internal/app"
	"rescribe/internal/config"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	r := &runner{
		build: func(ctx context.Context) (*app.App, error) {
			return app.Build(ctx, cfg, logger)
		},
		out: os.Stdout,
	}
	if err := newRootCommand(r).Execute(); err != nil {
		os.Exit(1)
	}
}
