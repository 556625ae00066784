package main

import (
	"context"
	"log/slog"
	"os"

	"railroad-api/internal/app"
	"railroad-api/internal/config"
	"railroad-api/internal/logger"
)

func main() {
	slog.SetDefault(logger.New(os.Stdout, "info", "pretty"))

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(logger.New(os.Stdout, cfg.LogLevel, cfg.LogFormat))

	application, err := app.New(context.Background(), cfg)
	if err != nil {
		slog.Error("failed to initialize application", "error", err)
		os.Exit(1)
	}

	if err := application.Run(); err != nil {
		slog.Error("application run failed", "error", err)
		os.Exit(1)
	}
}
