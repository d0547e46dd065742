package di

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/resortstay/resort-booking/internal/authz"
	"github.com/resortstay/resort-booking/internal/handler"
	"github.com/resortstay/resort-booking/internal/metrics"
	"github.com/resortstay/resort-booking/internal/repository"
	"github.com/resortstay/resort-booking/internal/service"
	"github.com/resortstay/resort-booking/internal/worker"
	"github.com/resortstay/resort-booking/pkg/config"
	"github.com/resortstay/resort-booking/pkg/database"
	"github.com/resortstay/resort-booking/pkg/redis"
	"github.com/resortstay/resort-booking/pkg/retry"
)

// Container wires configuration, infrastructure, repositories, services and
// handlers together.
type Container struct {
	Config *config.Config
	DB     *database.PostgresDB
	Redis  *redis.Client

	Engine *authz.Engine

	BookingRepo   repository.BookingRepository
	InventoryRepo repository.InventoryRepository
	RateRepo      repository.RateRepository
	CatalogRepo   repository.CatalogRepository
	ActorRepo     repository.ActorRepository
	GuestRepo     repository.GuestRepository

	PricingService      service.PricingService
	AvailabilityService service.AvailabilityService
	BookingService      service.BookingService
	Events              service.EventPublisher

	AvailabilityHandler *handler.AvailabilityHandler
	BookingHandler      *handler.BookingHandler
	AdminCatalogHandler *handler.AdminCatalogHandler
	AdminUserHandler    *handler.AdminUserHandler
	GuestHandler        *handler.GuestHandler
	HealthHandler       *handler.HealthHandler

	ExpiryWorker *worker.ExpiryWorker
}

// New builds the full dependency graph
func New(ctx context.Context, cfg *config.Config) (*Container, error) {
	c := &Container{Config: cfg}

	db, err := database.NewPostgres(ctx, &database.PostgresConfig{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		Database:        cfg.Database.DBName,
		SSLMode:         cfg.Database.SSLMode,
		MaxConns:        cfg.Database.MaxConns,
		MinConns:        cfg.Database.MinConns,
		MaxConnLifetime: cfg.Database.ConnMaxLifetime,
		MaxConnIdleTime: cfg.Database.ConnMaxIdleTime,
		EnableTracing:   cfg.OTel.Enabled,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	c.DB = db

	redisClient, err := redis.NewClient(ctx, &redis.Config{
		Host:         cfg.Redis.Host,
		Port:         cfg.Redis.Port,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	c.Redis = redisClient

	c.Engine = authz.NewEngine()

	pool := db.Pool()
	c.BookingRepo = repository.NewPostgresBookingRepository(pool)
	c.InventoryRepo = repository.NewPostgresInventoryRepository(pool)
	c.RateRepo = repository.NewPostgresRateRepository(pool)
	c.CatalogRepo = repository.NewPostgresCatalogRepository(pool)
	c.ActorRepo = repository.NewPostgresActorRepository(pool)
	c.GuestRepo = repository.NewPostgresGuestRepository(pool)

	bookingMetrics, err := metrics.NewBookingMetrics()
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	if cfg.Booking.EventStream != "" {
		dlq := retry.NewStreamDeadLetterSink(redisClient.Client(), cfg.App.Name)
		c.Events = service.NewRetryingEventPublisher(
			service.NewRedisEventPublisher(redisClient.Client(), cfg.Booking.EventStream),
			cfg.Booking.EventStream,
			nil,
			dlq,
		)
	} else {
		c.Events = service.NoopEventPublisher{}
	}

	c.PricingService = service.NewPricingService(c.RateRepo, c.CatalogRepo)
	c.AvailabilityService = service.NewAvailabilityService(
		c.CatalogRepo,
		c.InventoryRepo,
		c.PricingService,
		redisClient.Client(),
		cfg.Booking.SearchCacheTTL,
		bookingMetrics,
	)
	c.BookingService = service.NewBookingService(
		c.BookingRepo,
		c.CatalogRepo,
		c.GuestRepo,
		c.PricingService,
		c.Events,
		bookingMetrics,
		cfg.Booking.MaxUnitsPerBooking,
	)

	c.AvailabilityHandler = handler.NewAvailabilityHandler(c.AvailabilityService, c.PricingService)
	c.BookingHandler = handler.NewBookingHandler(c.BookingService)
	c.AdminCatalogHandler = handler.NewAdminCatalogHandler(c.Engine, c.ActorRepo, c.CatalogRepo, c.RateRepo, c.BookingService)
	c.AdminUserHandler = handler.NewAdminUserHandler(c.Engine, c.ActorRepo, c.CatalogRepo)
	c.GuestHandler = handler.NewGuestHandler(c.Engine, c.ActorRepo, c.GuestRepo)
	c.HealthHandler = handler.NewHealthHandler(db, redisClient)

	c.ExpiryWorker = worker.NewExpiryWorker(c.BookingService, cfg.Booking.HoldTTL)

	return c, nil
}

// HashAPIKey is the hash applied to integration API keys before lookup
func HashAPIKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// Close releases infrastructure connections
func (c *Container) Close() {
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
	if c.DB != nil {
		c.DB.Close()
	}
}
