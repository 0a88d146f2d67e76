// Package grpcserver exposes the booking service over gRPC. Today that is the
// standard health protocol, driven by the same checks as /readyz, plus server
// reflection for tooling.
package grpcserver

import (
	"context"
	"log/slog"
	"time"

	"github.com/md-rashed-zaman/courtbook/libs/runtime"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

type Health struct {
	server   *health.Server
	service  string
	checks   []runtime.ReadyCheck
	interval time.Duration
	timeout  time.Duration
	logger   *slog.Logger
	serving  bool
}

type HealthConfig struct {
	// Service is reported alongside the overall "" entry.
	Service  string
	Interval time.Duration
	Timeout  time.Duration
}

// Register installs health and reflection on srv. Status starts NOT_SERVING
// until the first round of checks passes.
func Register(srv *grpc.Server, logger *slog.Logger, cfg HealthConfig, checks ...runtime.ReadyCheck) *Health {
	if cfg.Interval <= 0 {
		cfg.Interval = 10 * time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Second
	}
	h := &Health{
		server:   health.NewServer(),
		service:  cfg.Service,
		checks:   checks,
		interval: cfg.Interval,
		timeout:  cfg.Timeout,
		logger:   logger,
	}
	h.set(healthpb.HealthCheckResponse_NOT_SERVING)
	healthpb.RegisterHealthServer(srv, h.server)
	reflection.Register(srv)
	return h
}

// Run refreshes the status until ctx is cancelled, then marks the service as
// shutting down so clients drain.
func (h *Health) Run(ctx context.Context) {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	h.Refresh(ctx)
	for {
		select {
		case <-ctx.Done():
			h.server.Shutdown()
			return
		case <-ticker.C:
			h.Refresh(ctx)
		}
	}
}

// Refresh runs the checks once and publishes the result.
func (h *Health) Refresh(ctx context.Context) {
	failures := runtime.RunChecks(ctx, h.timeout, h.checks...)
	serving := len(failures) == 0
	if serving != h.serving {
		if serving {
			h.logger.Info("grpc health serving")
		} else {
			h.logger.Warn("grpc health not serving", "failures", failures)
		}
	}
	h.serving = serving
	if serving {
		h.set(healthpb.HealthCheckResponse_SERVING)
		return
	}
	h.set(healthpb.HealthCheckResponse_NOT_SERVING)
}

func (h *Health) set(status healthpb.HealthCheckResponse_ServingStatus) {
	h.server.SetServingStatus("", status)
	if h.service != "" {
		h.server.SetServingStatus(h.service, status)
	}
}
