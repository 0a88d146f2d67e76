// Package sweeper moves stored booking statuses forward as their time window
// passes, so the persisted status matches what ComputeStatus reports.
package sweeper

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/courtbook/services/booking-service/internal/availability"
	"github.com/md-rashed-zaman/courtbook/services/booking-service/internal/model"
)

type Store interface {
	InTx(ctx context.Context, fn func(pgx.Tx) error) error
	LockUnsettled(ctx context.Context, tx pgx.Tx, through availability.Date, limit int) ([]model.Booking, error)
	SetStatus(ctx context.Context, tx pgx.Tx, b model.Booking, status availability.Status) error
}

type SlotInvalidator interface {
	Invalidate(ctx context.Context, courtID string, date availability.Date) error
}

type Worker struct {
	store     Store
	cache     SlotInvalidator
	logger    *slog.Logger
	loc       *time.Location
	interval  time.Duration
	batchSize int
	now       func() time.Time
}

type Config struct {
	Interval  time.Duration
	BatchSize int
	Location  *time.Location
}

func New(store Store, cache SlotInvalidator, logger *slog.Logger, cfg Config) *Worker {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &Worker{
		store:     store,
		cache:     cache,
		logger:    logger,
		loc:       cfg.Location,
		interval:  cfg.Interval,
		batchSize: cfg.BatchSize,
		now:       time.Now,
	}
}

func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := w.Sweep(ctx)
			if err != nil {
				w.logger.Error("status sweep failed", "err", err)
				continue
			}
			if n > 0 {
				w.logger.Info("status sweep", "updated", n)
			}
		}
	}
}

// Sweep settles one batch and returns how many bookings changed status.
func (w *Worker) Sweep(ctx context.Context) (int, error) {
	now := w.now().In(w.loc)
	var changed []model.Booking

	err := w.store.InTx(ctx, func(tx pgx.Tx) error {
		changed = changed[:0]
		bookings, err := w.store.LockUnsettled(ctx, tx, availability.DateOf(now), w.batchSize)
		if err != nil {
			return err
		}
		for _, b := range bookings {
			next := availability.ComputeStatus(b.Snapshot(), now, w.loc)
			if next == b.Status {
				continue
			}
			if err := w.store.SetStatus(ctx, tx, b, next); err != nil {
				return err
			}
			changed = append(changed, b)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	// Only completion frees a slot, but every change alters the cached snapshot.
	for _, b := range changed {
		if err := w.cache.Invalidate(ctx, b.CourtID, b.Date); err != nil {
			w.logger.Warn("slot cache invalidation failed", "err", err, "court_id", b.CourtID, "date", b.Date.String())
		}
	}
	return len(changed), nil
}
