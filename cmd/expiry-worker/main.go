package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/resortstay/resort-booking/internal/di"
	"github.com/resortstay/resort-booking/pkg/config"
	"github.com/resortstay/resort-booking/pkg/logger"
)

// Standalone expiry worker for deployments that keep the sweep off the API
// instances.
func main() {
	if err := run(); err != nil {
		logger.Get().Fatal("worker exited", zap.Error(err))
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(&logger.Config{
		Level:       "info",
		ServiceName: cfg.App.Name + "-expiry-worker",
		Development: cfg.IsDevelopment(),
	}); err != nil {
		return fmt.Errorf("failed to init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	container, err := di.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer container.Close()

	container.ExpiryWorker.Run(ctx)
	return nil
}
