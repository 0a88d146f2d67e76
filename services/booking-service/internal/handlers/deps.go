package handlers

import (
	"context"
	"log/slog"
	"time"

	"github.com/md-rashed-zaman/courtbook/services/booking-service/internal/availability"
	"github.com/md-rashed-zaman/courtbook/services/booking-service/internal/model"
)

// BookingStore is the persistence the booking endpoints need.
// storage.BookingRepository satisfies it.
type BookingStore interface {
	Create(ctx context.Context, b *model.Booking) (string, error)
	Update(ctx context.Context, id string, apply func(current model.Booking) (model.Booking, error)) (model.Booking, error)
	Cancel(ctx context.Context, id, reason string, guard func(current model.Booking) error) (model.Booking, error)
	Get(ctx context.Context, id string) (model.Booking, error)
	GetByIdempotencyKey(ctx context.Context, requesterID, key string) (model.Booking, error)
	ListBlocking(ctx context.Context, courtID string, date availability.Date) ([]model.Booking, error)
	ListByCourtDate(ctx context.Context, courtID string, date availability.Date) ([]model.Booking, error)
	ListByRequester(ctx context.Context, requesterID string, limit int) ([]model.Booking, error)
}

type CourtStore interface {
	Get(ctx context.Context, id string) (model.Court, error)
	List(ctx context.Context, activeOnly bool) ([]model.Court, error)
	Upsert(ctx context.Context, c model.Court) error
}

// SlotCache holds per court and day snapshots of blocking bookings.
type SlotCache interface {
	Get(ctx context.Context, courtID string, date availability.Date) ([]availability.ExistingBooking, bool, error)
	Set(ctx context.Context, courtID string, date availability.Date, bookings []availability.ExistingBooking) error
	Invalidate(ctx context.Context, courtID string, date availability.Date) error
}

type Options struct {
	// Location is the venue time zone; dates and times of day are read in it.
	Location       *time.Location
	MaxAdvanceDays int
	MinDuration    int
	MaxDuration    int
	MaxPlayers     int
	InitialStatus  availability.Status
	Now            func() time.Time
}

func (o Options) withDefaults() Options {
	if o.Location == nil {
		o.Location = time.UTC
	}
	if o.MaxAdvanceDays <= 0 {
		o.MaxAdvanceDays = availability.DefaultMaxAdvanceDays
	}
	if o.MinDuration <= 0 {
		o.MinDuration = availability.DefaultMinDurationMinutes
	}
	if o.MaxDuration <= 0 {
		o.MaxDuration = availability.DefaultMaxDurationMinutes
	}
	if o.MaxPlayers <= 0 {
		o.MaxPlayers = availability.DefaultMaxPlayers
	}
	if o.InitialStatus != availability.StatusPending {
		o.InitialStatus = availability.StatusConfirmed
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

func (o Options) validateOptions() []availability.ValidateOption {
	return []availability.ValidateOption{
		availability.WithMaxAdvanceDays(o.MaxAdvanceDays),
		availability.WithDurationBounds(o.MinDuration, o.MaxDuration),
		availability.WithMaxPlayers(o.MaxPlayers),
	}
}

func discardLogger(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.New(slog.DiscardHandler)
	}
	return l
}
