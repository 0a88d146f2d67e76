package main

import (
	"fmt"
	"time"

	"github.com/md-rashed-zaman/courtbook/libs/config"
	"github.com/md-rashed-zaman/courtbook/services/booking-service/internal/availability"
)

type Config struct {
	ServiceName string `envconfig:"SERVICE_NAME" default:"booking-service"`
	Port        string `envconfig:"PORT" default:"8083"`
	GRPCPort    string `envconfig:"GRPC_PORT" default:"9093"`

	DatabaseURL   string `envconfig:"DATABASE_URL" required:"true"`
	DBMaxConns    int32  `envconfig:"DB_MAX_CONNS" default:"10"`
	RunMigrations bool   `envconfig:"RUN_MIGRATIONS" default:"true"`

	RedisAddr     string        `envconfig:"REDIS_ADDR"`
	RedisPassword string        `envconfig:"REDIS_PASSWORD"`
	SlotCacheTTL  time.Duration `envconfig:"SLOT_CACHE_TTL" default:"30s"`

	KafkaBrokers string `envconfig:"KAFKA_BROKERS"`
	KafkaGroupID string `envconfig:"KAFKA_GROUP_ID" default:"booking-service"`

	Timezone           string        `envconfig:"TIMEZONE" default:"UTC"`
	MaxAdvanceDays     int           `envconfig:"MAX_ADVANCE_DAYS" default:"30"`
	MinDurationMinutes int           `envconfig:"MIN_DURATION_MINUTES" default:"60"`
	MaxDurationMinutes int           `envconfig:"MAX_DURATION_MINUTES" default:"180"`
	MaxPlayers         int           `envconfig:"MAX_PLAYERS" default:"4"`
	InitialStatus      string        `envconfig:"BOOKING_INITIAL_STATUS" default:"CONFIRMED"`
	SweepInterval      time.Duration `envconfig:"SWEEP_INTERVAL" default:"1m"`

	RateLimitRequests int           `envconfig:"RATE_LIMIT_REQUESTS" default:"120"`
	RateLimitWindow   time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"1m"`
	RateLimitFailOpen bool          `envconfig:"RATE_LIMIT_FAIL_OPEN" default:"true"`
	CORSOrigins       string        `envconfig:"CORS_ALLOWED_ORIGINS"`
	MaxBodyBytes      int64         `envconfig:"MAX_BODY_BYTES" default:"65536"`

	location *time.Location
	status   availability.Status
}

func loadConfig() (Config, error) {
	var cfg Config
	if err := config.Load("", &cfg); err != nil {
		return Config{}, err
	}
	if err := config.ValidPort("PORT", cfg.Port); err != nil {
		return Config{}, err
	}
	if err := config.ValidPort("GRPC_PORT", cfg.GRPCPort); err != nil {
		return Config{}, err
	}
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return Config{}, fmt.Errorf("TIMEZONE: %w", err)
	}
	cfg.location = loc

	status, err := availability.ParseStatus(cfg.InitialStatus)
	if err != nil || (status != availability.StatusPending && status != availability.StatusConfirmed) {
		return Config{}, fmt.Errorf("BOOKING_INITIAL_STATUS must be PENDING or CONFIRMED (got %q)", cfg.InitialStatus)
	}
	cfg.status = status

	if cfg.MinDurationMinutes > cfg.MaxDurationMinutes {
		return Config{}, fmt.Errorf("MIN_DURATION_MINUTES (%d) exceeds MAX_DURATION_MINUTES (%d)", cfg.MinDurationMinutes, cfg.MaxDurationMinutes)
	}
	return cfg, nil
}
