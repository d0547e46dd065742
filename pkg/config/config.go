package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Auth     AuthConfig     `mapstructure:"auth"`
	OTel     OTelConfig     `mapstructure:"otel"`
	Booking  BookingConfig  `mapstructure:"booking"`
}

// AppConfig holds application-level settings
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"` // development, staging, production
	Debug       bool   `mapstructure:"debug"`
	Version     string `mapstructure:"version"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	// RateLimitRPS limits public API requests per second per client IP
	// (0 disables limiting).
	RateLimitRPS   int `mapstructure:"rate_limit_rps"`
	RateLimitBurst int `mapstructure:"rate_limit_burst"`
}

// DatabaseConfig holds PostgreSQL connection settings
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
}

// DSN returns the PostgreSQL connection string
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// Addr returns the Redis address
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// AuthConfig holds staff JWT settings
type AuthConfig struct {
	JWTSecret      string        `mapstructure:"jwt_secret"`
	AccessTokenTTL time.Duration `mapstructure:"access_token_ttl"`
	Issuer         string        `mapstructure:"issuer"`
}

// OTelConfig holds OpenTelemetry settings
type OTelConfig struct {
	Enabled       bool    `mapstructure:"enabled"`
	ServiceName   string  `mapstructure:"service_name"`
	CollectorAddr string  `mapstructure:"collector_addr"`
	SampleRatio   float64 `mapstructure:"sample_ratio"`
}

// BookingConfig holds booking workflow settings
type BookingConfig struct {
	// HoldTTL is how long a pending booking may hold inventory before the
	// expiry worker releases it.
	HoldTTL time.Duration `mapstructure:"hold_ttl"`
	// MaxUnitsPerBooking caps units reserved by a single booking.
	MaxUnitsPerBooking int `mapstructure:"max_units_per_booking"`
	// SearchCacheTTL is the TTL for cached availability search responses.
	SearchCacheTTL time.Duration `mapstructure:"search_cache_ttl"`
	// EventStream is the Redis stream booking events are published to.
	EventStream string `mapstructure:"event_stream"`
}

// Load loads configuration from environment variables and an optional .env file
func Load() (*Config, error) {
	return LoadWithPath(".env")
}

// LoadWithPath loads configuration from a specific .env path
func LoadWithPath(path string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(path)
	v.SetConfigType("env")

	// .env is optional, environment variables may carry everything
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			if !strings.Contains(err.Error(), "no such file") {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	cfg := &Config{}
	bindConfig(v, cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("APP_NAME", "resort-booking")
	v.SetDefault("APP_ENVIRONMENT", "development")
	v.SetDefault("APP_DEBUG", true)
	v.SetDefault("APP_VERSION", "1.0.0")

	// Server defaults
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", 8080)
	v.SetDefault("SERVER_READ_TIMEOUT", "30s")
	v.SetDefault("SERVER_WRITE_TIMEOUT", "30s")
	v.SetDefault("SERVER_IDLE_TIMEOUT", "120s")
	v.SetDefault("SERVER_RATE_LIMIT_RPS", 100)
	v.SetDefault("SERVER_RATE_LIMIT_BURST", 50)

	// Database defaults
	v.SetDefault("DATABASE_HOST", "localhost")
	v.SetDefault("DATABASE_PORT", 5432)
	v.SetDefault("DATABASE_USER", "postgres")
	v.SetDefault("DATABASE_PASSWORD", "postgres")
	v.SetDefault("DATABASE_DBNAME", "resort_booking")
	v.SetDefault("DATABASE_SSLMODE", "disable")
	v.SetDefault("DATABASE_MAX_CONNS", 50)
	v.SetDefault("DATABASE_MIN_CONNS", 5)
	v.SetDefault("DATABASE_CONN_MAX_LIFETIME", "1h")
	v.SetDefault("DATABASE_CONN_MAX_IDLE_TIME", "30m")

	// Redis defaults
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_POOL_SIZE", 100)
	v.SetDefault("REDIS_MIN_IDLE_CONNS", 10)
	v.SetDefault("REDIS_DIAL_TIMEOUT", "5s")
	v.SetDefault("REDIS_READ_TIMEOUT", "3s")
	v.SetDefault("REDIS_WRITE_TIMEOUT", "3s")

	// Auth defaults
	v.SetDefault("AUTH_JWT_SECRET", "")
	v.SetDefault("AUTH_ACCESS_TOKEN_TTL", "15m")
	v.SetDefault("AUTH_ISSUER", "resort-booking")

	// OTel defaults
	v.SetDefault("OTEL_ENABLED", false)
	v.SetDefault("OTEL_SERVICE_NAME", "resort-booking")
	v.SetDefault("OTEL_COLLECTOR_ADDR", "localhost:4317")
	v.SetDefault("OTEL_SAMPLE_RATIO", 1.0)

	// Booking defaults
	v.SetDefault("BOOKING_HOLD_TTL", "30m")
	v.SetDefault("BOOKING_MAX_UNITS_PER_BOOKING", 5)
	v.SetDefault("BOOKING_SEARCH_CACHE_TTL", "30s")
	v.SetDefault("BOOKING_EVENT_STREAM", "booking-events")
}

func bindConfig(v *viper.Viper, cfg *Config) {
	cfg.App = AppConfig{
		Name:        v.GetString("APP_NAME"),
		Environment: v.GetString("APP_ENVIRONMENT"),
		Debug:       v.GetBool("APP_DEBUG"),
		Version:     v.GetString("APP_VERSION"),
	}
	cfg.Server = ServerConfig{
		Host:         v.GetString("SERVER_HOST"),
		Port:         v.GetInt("SERVER_PORT"),
		ReadTimeout:  v.GetDuration("SERVER_READ_TIMEOUT"),
		WriteTimeout: v.GetDuration("SERVER_WRITE_TIMEOUT"),
		IdleTimeout:  v.GetDuration("SERVER_IDLE_TIMEOUT"),
		RateLimitRPS:   v.GetInt("SERVER_RATE_LIMIT_RPS"),
		RateLimitBurst: v.GetInt("SERVER_RATE_LIMIT_BURST"),
	}
	cfg.Database = DatabaseConfig{
		Host:            v.GetString("DATABASE_HOST"),
		Port:            v.GetInt("DATABASE_PORT"),
		User:            v.GetString("DATABASE_USER"),
		Password:        v.GetString("DATABASE_PASSWORD"),
		DBName:          v.GetString("DATABASE_DBNAME"),
		SSLMode:         v.GetString("DATABASE_SSLMODE"),
		MaxConns:        v.GetInt32("DATABASE_MAX_CONNS"),
		MinConns:        v.GetInt32("DATABASE_MIN_CONNS"),
		ConnMaxLifetime: v.GetDuration("DATABASE_CONN_MAX_LIFETIME"),
		ConnMaxIdleTime: v.GetDuration("DATABASE_CONN_MAX_IDLE_TIME"),
	}
	cfg.Redis = RedisConfig{
		Host:         v.GetString("REDIS_HOST"),
		Port:         v.GetInt("REDIS_PORT"),
		Password:     v.GetString("REDIS_PASSWORD"),
		DB:           v.GetInt("REDIS_DB"),
		PoolSize:     v.GetInt("REDIS_POOL_SIZE"),
		MinIdleConns: v.GetInt("REDIS_MIN_IDLE_CONNS"),
		DialTimeout:  v.GetDuration("REDIS_DIAL_TIMEOUT"),
		ReadTimeout:  v.GetDuration("REDIS_READ_TIMEOUT"),
		WriteTimeout: v.GetDuration("REDIS_WRITE_TIMEOUT"),
	}
	cfg.Auth = AuthConfig{
		JWTSecret:      v.GetString("AUTH_JWT_SECRET"),
		AccessTokenTTL: v.GetDuration("AUTH_ACCESS_TOKEN_TTL"),
		Issuer:         v.GetString("AUTH_ISSUER"),
	}
	cfg.OTel = OTelConfig{
		Enabled:       v.GetBool("OTEL_ENABLED"),
		ServiceName:   v.GetString("OTEL_SERVICE_NAME"),
		CollectorAddr: v.GetString("OTEL_COLLECTOR_ADDR"),
		SampleRatio:   v.GetFloat64("OTEL_SAMPLE_RATIO"),
	}
	cfg.Booking = BookingConfig{
		HoldTTL:            v.GetDuration("BOOKING_HOLD_TTL"),
		MaxUnitsPerBooking: v.GetInt("BOOKING_MAX_UNITS_PER_BOOKING"),
		SearchCacheTTL:     v.GetDuration("BOOKING_SEARCH_CACHE_TTL"),
		EventStream:        v.GetString("BOOKING_EVENT_STREAM"),
	}
}

// Validate checks that required configuration is present and sane
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.Database.DBName == "" {
		return fmt.Errorf("database name is required")
	}
	if c.IsProduction() && c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth jwt secret is required in production")
	}
	if c.Booking.HoldTTL <= 0 {
		return fmt.Errorf("booking hold ttl must be positive")
	}
	if c.Booking.MaxUnitsPerBooking <= 0 {
		return fmt.Errorf("booking max units per booking must be positive")
	}
	return nil
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}
