package availability

import (
	"fmt"
	"strings"
	"time"
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusActive    Status = "ACTIVE"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
)

var statusAliases = map[string]Status{
	"pending":    StatusPending,
	"pendiente":  StatusPending,
	"confirmed":  StatusConfirmed,
	"confirmado": StatusConfirmed,
	"active":     StatusActive,
	"activo":     StatusActive,
	"completed":  StatusCompleted,
	"completado": StatusCompleted,
	"cancelled":  StatusCancelled,
	"canceled":   StatusCancelled,
	"cancelado":  StatusCancelled,
}

// ParseStatus accepts the canonical names and the display-language aliases
// used by the booking UI, case-insensitively.
func ParseStatus(s string) (Status, error) {
	if st, ok := statusAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return st, nil
	}
	return "", fmt.Errorf("unknown booking status %q", s)
}

// Terminal statuses never change again and never hold a court.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Blocking statuses hold the court and take part in conflict checks.
func (s Status) Blocking() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusActive:
		return true
	}
	return false
}

func StartDateTime(b ExistingBooking, loc *time.Location) time.Time {
	return b.Date.At(b.Interval.Start, loc)
}

func EndDateTime(b ExistingBooking, loc *time.Location) time.Time {
	return b.Date.At(b.Interval.End, loc)
}

// CanCancel: not yet started and not already finished or cancelled.
func CanCancel(b ExistingBooking, now time.Time, loc *time.Location) bool {
	return !b.Status.Terminal() && now.Before(StartDateTime(b, loc))
}

// CanEdit follows the same rule as CanCancel.
func CanEdit(b ExistingBooking, now time.Time, loc *time.Location) bool {
	return CanCancel(b, now, loc)
}

// ComputeStatus derives the status a booking should display at now.
func ComputeStatus(b ExistingBooking, now time.Time, loc *time.Location) Status {
	if b.Status == StatusCancelled {
		return StatusCancelled
	}
	start, end := StartDateTime(b, loc), EndDateTime(b, loc)
	switch {
	case !now.Before(end):
		return StatusCompleted
	case !now.Before(start):
		return StatusActive
	case b.Status == StatusPending:
		return StatusPending
	default:
		return StatusConfirmed
	}
}
