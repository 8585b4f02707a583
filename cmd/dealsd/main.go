package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/bradjohnson79/trendsinusa-sub002/internal/app"
	"github.com/bradjohnson79/trendsinusa-sub002/internal/config"
	"github.com/bradjohnson79/trendsinusa-sub002/internal/logging"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level)

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer application.Close()

	if err := application.Run(ctx); err != nil {
		logger.Error("service stopped", "error", err)
		os.Exit(1)
	}
}
