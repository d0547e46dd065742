package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/resortstay/resort-booking/internal/di"
	"github.com/resortstay/resort-booking/internal/handler"
	"github.com/resortstay/resort-booking/pkg/config"
	"github.com/resortstay/resort-booking/pkg/logger"
	"github.com/resortstay/resort-booking/pkg/middleware"
	"github.com/resortstay/resort-booking/pkg/telemetry"
)

func main() {
	if err := run(); err != nil {
		logger.Get().Fatal("server exited", zap.Error(err))
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(&logger.Config{
		Level:       logLevel(cfg),
		ServiceName: cfg.App.Name,
		Development: cfg.IsDevelopment(),
	}); err != nil {
		return fmt.Errorf("failed to init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	log := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	telemetryCfg := &telemetry.Config{
		Enabled:        cfg.OTel.Enabled,
		ServiceName:    cfg.OTel.ServiceName,
		ServiceVersion: cfg.App.Version,
		Environment:    cfg.App.Environment,
		CollectorAddr:  cfg.OTel.CollectorAddr,
		SampleRatio:    cfg.OTel.SampleRatio,
	}
	if _, err := telemetry.Init(ctx, telemetryCfg); err != nil {
		return fmt.Errorf("failed to init tracing: %w", err)
	}
	defer shutdownTelemetry()
	if err := telemetry.InitMetrics(ctx, telemetryCfg); err != nil {
		return fmt.Errorf("failed to init metrics: %w", err)
	}

	container, err := di.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer container.Close()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	handler.RegisterRoutes(router, handler.RouterDeps{
		Availability: container.AvailabilityHandler,
		Booking:      container.BookingHandler,
		AdminCatalog: container.AdminCatalogHandler,
		AdminUser:    container.AdminUserHandler,
		Guest:        container.GuestHandler,
		Health:       container.HealthHandler,
		Actors:       container.ActorRepo,
		HashAPIKey:   di.HashAPIKey,
		JWTSecret:    cfg.Auth.JWTSecret,
		RateLimit: middleware.RateLimiter(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.Server.RateLimitRPS,
			BurstSize:         cfg.Server.RateLimitBurst,
			RedisClient:       container.Redis.Client(),
			KeyPrefix:         "ratelimit:",
			EntryTTL:          time.Minute,
		}),
		Idempotency: middleware.Idempotency(middleware.IdempotencyConfig{
			Store: container.Redis.Client(),
		}),
		ServiceName: cfg.App.Name,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go container.ExpiryWorker.Run(ctx)

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func shutdownTelemetry() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := telemetry.Shutdown(ctx); err != nil {
		logger.Get().Warn("failed to shut down tracing", zap.Error(err))
	}
	if err := telemetry.ShutdownMetrics(ctx); err != nil {
		logger.Get().Warn("failed to shut down metrics", zap.Error(err))
	}
}

func logLevel(cfg *config.Config) string {
	if cfg.App.Debug {
		return "debug"
	}
	return "info"
}
