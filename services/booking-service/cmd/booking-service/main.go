package main

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/md-rashed-zaman/courtbook/libs/db"
	"github.com/md-rashed-zaman/courtbook/libs/grpcx"
	"github.com/md-rashed-zaman/courtbook/libs/httpx"
	"github.com/md-rashed-zaman/courtbook/libs/inbox"
	"github.com/md-rashed-zaman/courtbook/libs/kafkax"
	otelx "github.com/md-rashed-zaman/courtbook/libs/otel"
	"github.com/md-rashed-zaman/courtbook/libs/runtime"
	"github.com/md-rashed-zaman/courtbook/services/booking-service/internal/consumer"
	"github.com/md-rashed-zaman/courtbook/services/booking-service/internal/grpcserver"
	"github.com/md-rashed-zaman/courtbook/services/booking-service/internal/handlers"
	"github.com/md-rashed-zaman/courtbook/services/booking-service/internal/outbox"
	"github.com/md-rashed-zaman/courtbook/services/booking-service/internal/slotcache"
	"github.com/md-rashed-zaman/courtbook/services/booking-service/internal/storage"
	"github.com/md-rashed-zaman/courtbook/services/booking-service/internal/sweeper"
	"github.com/md-rashed-zaman/courtbook/services/booking-service/migrations"
	"github.com/redis/go-redis/v9"
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

	// A nil client disables caching and falls back to the in-process limiter.
	var rdb redis.UniversalClient
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		defer func() { _ = rdb.Close() }()
	}
	if rdb == nil {
		logger.Warn("slot cache disabled (no REDIS_ADDR)")
	}
	cache := slotcache.New(rdb, cfg.SlotCacheTTL)

	outboxRepo := outbox.NewRepository(pool)
	bookingRepo := storage.NewBookingRepository(pool, outboxRepo)
	courtRepo := storage.NewCourtRepository(pool)

	outboxPublisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
		Brokers:   cfg.KafkaBrokers,
		PollEvery: 2 * time.Second,
		BatchSize: 50,
	})
	go outboxPublisher.Run(ctx)

	if len(kafkax.SplitBrokers(cfg.KafkaBrokers)) > 0 {
		eventConsumer := kafkax.NewConsumer(logger, inbox.NewRepository(pool), kafkax.ConsumerConfig{
			Brokers: cfg.KafkaBrokers,
			GroupID: cfg.KafkaGroupID,
			Topics:  outbox.Topics,
		}, consumer.InvalidateSlots(cache))
		go eventConsumer.Run(ctx)
	}

	statusSweeper := sweeper.New(bookingRepo, cache, logger, sweeper.Config{
		Interval: cfg.SweepInterval,
		Location: cfg.location,
	})
	go statusSweeper.Run(ctx)

	checks := []runtime.ReadyCheck{
		{Name: "db", Check: db.ReadyCheck(pool)},
		{Name: "redis", Check: cache.ReadyCheck},
	}
	if cfg.KafkaBrokers != "" {
		checks = append(checks, runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(cfg.KafkaBrokers)})
	}

	mux := runtime.NewBaseMuxWithReady(checks...)
	handlers.Register(mux,
		handlers.NewBookingHandler(bookingRepo, courtRepo, cache, logger, handlers.Options{
			Location:       cfg.location,
			MaxAdvanceDays: cfg.MaxAdvanceDays,
			MinDuration:    cfg.MinDurationMinutes,
			MaxDuration:    cfg.MaxDurationMinutes,
			MaxPlayers:     cfg.MaxPlayers,
			InitialStatus:  cfg.status,
		}),
		handlers.NewCourtHandler(courtRepo, logger),
	)

	var rateLimit httpx.Middleware
	if rdb != nil {
		rateLimit = httpx.NewRedisRateLimiter(rdb, cfg.RateLimitRequests, cfg.RateLimitWindow, "ratelimit:"+cfg.ServiceName).
			Middleware(logger, cfg.RateLimitFailOpen)
	} else {
		rateLimit = httpx.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow).Middleware()
	}

	httpHandler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithRecover(logger),
		httpx.WithAccessLog(logger),
		httpx.WithCORS(httpx.CORSPolicy{AllowedOrigins: httpx.SplitList(cfg.CORSOrigins)}),
		rateLimit,
		httpx.WithBodyLimit(cfg.MaxBodyBytes),
	)
	httpHandler = otelhttp.NewHandler(httpHandler, "booking")
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           httpHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
		}
	}()

	lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		logger.Error("grpc listen failed", "err", err)
	} else {
		grpcServer := grpcx.NewServer(logger)
		health := grpcserver.Register(grpcServer, logger, grpcserver.HealthConfig{Service: cfg.ServiceName}, checks...)
		go health.Run(ctx)
		go grpcx.Serve(ctx, logger, grpcServer, lis)
	}

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("http server stopped")
}
