package model

import (
	"time"

	"github.com/md-rashed-zaman/courtbook/services/booking-service/internal/availability"
)

type Booking struct {
	ID           string
	CourtID      string
	RequesterID  string
	Date         availability.Date
	Start        availability.TimeOfDay
	End          availability.TimeOfDay
	Status       availability.Status
	Players      []availability.Player
	Notes        string
	CancelledAt  *time.Time
	CancelReason string
	CreatedAt    time.Time
	UpdatedAt    time.Time

	// IdempotencyKey is written on create and never read back.
	IdempotencyKey string
}

func (b Booking) Interval() availability.Interval {
	return availability.Interval{Start: b.Start, End: b.End}
}

// Snapshot converts the stored row into the engine's view of it.
func (b Booking) Snapshot() availability.ExistingBooking {
	return availability.ExistingBooking{
		ID:         b.ID,
		ResourceID: b.CourtID,
		Date:       b.Date,
		Interval:   b.Interval(),
		Status:     b.Status,
	}
}

func Snapshots(bookings []Booking) []availability.ExistingBooking {
	out := make([]availability.ExistingBooking, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, b.Snapshot())
	}
	return out
}
