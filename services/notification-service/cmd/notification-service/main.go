package main

import (
	"context"
	"net/http"
	"time"

	"github.com/md-rashed-zaman/courtbook/libs/db"
	"github.com/md-rashed-zaman/courtbook/libs/grpcx"
	"github.com/md-rashed-zaman/courtbook/libs/httpx"
	"github.com/md-rashed-zaman/courtbook/libs/inbox"
	"github.com/md-rashed-zaman/courtbook/libs/kafkax"
	otelx "github.com/md-rashed-zaman/courtbook/libs/otel"
	"github.com/md-rashed-zaman/courtbook/libs/runtime"
	"github.com/md-rashed-zaman/courtbook/services/notification-service/internal/email"
	"github.com/md-rashed-zaman/courtbook/services/notification-service/internal/notify"
	"github.com/md-rashed-zaman/courtbook/services/notification-service/internal/sms"
	"github.com/md-rashed-zaman/courtbook/services/notification-service/internal/storage"
	"github.com/md-rashed-zaman/courtbook/services/notification-service/migrations"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	cfg, err := loadConfig()
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(cfg.ServiceName)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(cfg.ServiceName))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	pool, err := db.Open(ctx, cfg.DatabaseURL, db.PoolConfig{MaxConns: cfg.DBMaxConns})
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	if cfg.RunMigrations {
		applied, err := migrations.Apply(ctx, pool)
		if err != nil {
			logger.Error("migrations failed", "err", err)
			panic(err)
		}
		if len(applied) > 0 {
			logger.Info("migrations applied", "versions", applied)
		}
	}

	var smsSender sms.Sender = sms.NewNoopSender()
	if cfg.SMSProvider == "webhook" {
		smsSender = sms.NewWebhookSender(cfg.SMSWebhookURL, cfg.SMSWebhookToken, cfg.SMSSenderID)
	}
	notifier := notify.New(
		email.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom),
		smsSender,
		storage.NewRepository(pool),
		logger,
		cfg.VenueName,
	)

	eventConsumer := kafkax.NewConsumer(logger, inbox.NewRepository(pool), kafkax.ConsumerConfig{
		Brokers: cfg.KafkaBrokers,
		GroupID: cfg.KafkaGroupID,
		Topics:  notify.Topics,
	}, notifier.Handle)
	go eventConsumer.Run(ctx)

	checks := []runtime.ReadyCheck{
		{Name: "db", Check: db.ReadyCheck(pool)},
		{Name: "kafka", Check: kafkax.ReadyCheck(cfg.KafkaBrokers)},
	}
	if cfg.BookingGRPCAddr != "" {
		conn, err := grpcx.Dial(cfg.BookingGRPCAddr, grpcx.DialOptions{})
		if err != nil {
			logger.Error("booking grpc dial failed", "err", err, "addr", cfg.BookingGRPCAddr)
			panic(err)
		}
		defer func() { _ = conn.Close() }()
		checks = append(checks, runtime.ReadyCheck{Name: "booking", Check: grpcx.HealthCheck(conn, cfg.BookingGRPCService)})
	}

	mux := runtime.NewBaseMuxWithReady(checks...)
	handler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
	)
	handler = otelhttp.NewHandler(handler, "notification")
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("http server stopped")
}
