package main

import (
	"fmt"
	"strings"

	"github.com/md-rashed-zaman/courtbook/libs/config"
)

type Config struct {
	ServiceName string `envconfig:"SERVICE_NAME" default:"notification-service"`
	Port        string `envconfig:"PORT" default:"8085"`

	DatabaseURL   string `envconfig:"DATABASE_URL" required:"true"`
	DBMaxConns    int32  `envconfig:"DB_MAX_CONNS" default:"5"`
	RunMigrations bool   `envconfig:"RUN_MIGRATIONS" default:"true"`

	KafkaBrokers string `envconfig:"KAFKA_BROKERS" required:"true"`
	KafkaGroupID string `envconfig:"KAFKA_GROUP_ID" default:"notification-service"`

	VenueName string `envconfig:"VENUE_NAME"`

	// BookingGRPCAddr, when set, makes readiness depend on booking-service
	// reporting SERVING over grpc.health.v1.
	BookingGRPCAddr    string `envconfig:"BOOKING_GRPC_ADDR"`
	BookingGRPCService string `envconfig:"BOOKING_GRPC_SERVICE" default:"booking-service"`

	SMTPHost string `envconfig:"SMTP_HOST" default:"mailpit"`
	SMTPPort string `envconfig:"SMTP_PORT" default:"1025"`
	SMTPFrom string `envconfig:"SMTP_FROM" default:"no-reply@courtbook.local"`

	SMSProvider     string `envconfig:"SMS_PROVIDER" default:"noop"`
	SMSWebhookURL   string `envconfig:"SMS_WEBHOOK_URL"`
	SMSWebhookToken string `envconfig:"SMS_WEBHOOK_TOKEN"`
	SMSSenderID     string `envconfig:"SMS_SENDER_ID"`
}

func loadConfig() (Config, error) {
	var cfg Config
	if err := config.Load("", &cfg); err != nil {
		return Config{}, err
	}
	if err := config.ValidPort("PORT", cfg.Port); err != nil {
		return Config{}, err
	}
	if err := config.ValidPort("SMTP_PORT", cfg.SMTPPort); err != nil {
		return Config{}, err
	}
	cfg.SMSProvider = strings.ToLower(strings.TrimSpace(cfg.SMSProvider))
	switch cfg.SMSProvider {
	case "noop":
	case "webhook":
		if cfg.SMSWebhookURL == "" {
			return Config{}, fmt.Errorf("SMS_WEBHOOK_URL is required when SMS_PROVIDER=webhook")
		}
	default:
		return Config{}, fmt.Errorf("SMS_PROVIDER must be noop or webhook (got %q)", cfg.SMSProvider)
	}
	return cfg, nil
}
