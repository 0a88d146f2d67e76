package availability

import (
	"fmt"
	"regexp"
	"strings"
)

type ErrorCode string

const (
	CodeRequired         ErrorCode = "REQUIRED"
	CodeInvalidDate      ErrorCode = "INVALID_DATE"
	CodeDateTooFar       ErrorCode = "DATE_TOO_FAR"
	CodeInvalidTimeRange ErrorCode = "INVALID_TIME_RANGE"
	CodeDurationTooShort ErrorCode = "DURATION_TOO_SHORT"
	CodeDurationTooLong  ErrorCode = "DURATION_TOO_LONG"
	CodeTooManyPlayers   ErrorCode = "TOO_MANY_PLAYERS"
	CodeInvalidEmail     ErrorCode = "INVALID_EMAIL"
)

const (
	DefaultMaxAdvanceDays     = 30
	DefaultMinDurationMinutes = 60
	DefaultMaxDurationMinutes = 180
	DefaultMaxPlayers         = 4
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type Player struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// BookingRequest is built from form input. Start and End are nil when the
// caller did not supply them.
type BookingRequest struct {
	ResourceID  string
	Date        Date
	Start       *TimeOfDay
	End         *TimeOfDay
	RequesterID string
	Players     []Player
	Notes       string
}

// Interval returns the requested interval and whether both ends are present.
func (r BookingRequest) Interval() (Interval, bool) {
	if r.Start == nil || r.End == nil {
		return Interval{}, false
	}
	return Interval{Start: *r.Start, End: *r.End}, true
}

type FieldError struct {
	Field   string    `json:"field"`
	Message string    `json:"message"`
	Code    ErrorCode `json:"code"`
}

type ValidationResult struct {
	Valid  bool         `json:"valid"`
	Errors []FieldError `json:"errors"`
}

// Has reports whether any error carries code.
func (r ValidationResult) Has(code ErrorCode) bool {
	for _, e := range r.Errors {
		if e.Code == code {
			return true
		}
	}
	return false
}

type validateOptions struct {
	maxAdvanceDays int
	minDuration    int
	maxDuration    int
	maxPlayers     int
}

type ValidateOption func(*validateOptions)

func WithMaxAdvanceDays(days int) ValidateOption {
	return func(o *validateOptions) { o.maxAdvanceDays = days }
}

func WithDurationBounds(minMinutes, maxMinutes int) ValidateOption {
	return func(o *validateOptions) {
		o.minDuration = minMinutes
		o.maxDuration = maxMinutes
	}
}

func WithMaxPlayers(n int) ValidateOption {
	return func(o *validateOptions) { o.maxPlayers = n }
}

// Validate checks every field and business rule and returns all violations
// together. It never fails; a bad request is reported through the result.
func Validate(req BookingRequest, today Date, opts ...ValidateOption) ValidationResult {
	o := validateOptions{
		maxAdvanceDays: DefaultMaxAdvanceDays,
		minDuration:    DefaultMinDurationMinutes,
		maxDuration:    DefaultMaxDurationMinutes,
		maxPlayers:     DefaultMaxPlayers,
	}
	for _, opt := range opts {
		opt(&o)
	}

	errs := make([]FieldError, 0)
	add := func(field, msg string, code ErrorCode) {
		errs = append(errs, FieldError{Field: field, Message: msg, Code: code})
	}

	if strings.TrimSpace(req.ResourceID) == "" {
		add("resourceId", "court is required", CodeRequired)
	}

	if req.Date.IsZero() {
		add("date", "date is required", CodeRequired)
	} else {
		if req.Date.Before(today) {
			add("date", "date cannot be in the past", CodeInvalidDate)
		}
		if req.Date.After(today.AddDays(o.maxAdvanceDays)) {
			add("date", fmt.Sprintf("date cannot be more than %d days ahead", o.maxAdvanceDays), CodeDateTooFar)
		}
	}

	if req.Start == nil {
		add("interval.start", "start time is required", CodeRequired)
	}
	if req.End == nil {
		add("interval.end", "end time is required", CodeRequired)
	}
	if iv, ok := req.Interval(); ok {
		if !iv.Start.Before(iv.End) {
			add("interval", "end time must be after start time", CodeInvalidTimeRange)
		} else {
			d := iv.Duration()
			if d < o.minDuration {
				add("interval", fmt.Sprintf("booking must last at least %d minutes", o.minDuration), CodeDurationTooShort)
			}
			if d > o.maxDuration {
				add("interval", fmt.Sprintf("booking cannot last more than %d minutes", o.maxDuration), CodeDurationTooLong)
			}
		}
	}

	if strings.TrimSpace(req.RequesterID) == "" {
		add("requesterId", "requester is required", CodeRequired)
	}

	if len(req.Players) > o.maxPlayers {
		add("players", fmt.Sprintf("at most %d players per booking", o.maxPlayers), CodeTooManyPlayers)
	}
	for i, p := range req.Players {
		if strings.TrimSpace(p.Name) == "" {
			add(fmt.Sprintf("players[%d].name", i), "player name is required", CodeRequired)
		}
		if email := strings.TrimSpace(p.Email); email != "" && !emailPattern.MatchString(email) {
			add(fmt.Sprintf("players[%d].email", i), "invalid email address", CodeInvalidEmail)
		}
	}

	return ValidationResult{Valid: len(errs) == 0, Errors: errs}
}

// HasTimeConflict reports whether req overlaps a blocking booking, ignoring the
// booking whose ID is excludeID (the stored version of a booking being edited).
// A request without a complete interval has nothing to conflict with.
func HasTimeConflict(req BookingRequest, existing []ExistingBooking, excludeID string) bool {
	iv, ok := req.Interval()
	if !ok {
		return false
	}
	others := existing
	if excludeID != "" {
		others = make([]ExistingBooking, 0, len(existing))
		for _, b := range existing {
			if b.ID != excludeID {
				others = append(others, b)
			}
		}
	}
	return !IsAvailable(iv, req.ResourceID, req.Date, others)
}
