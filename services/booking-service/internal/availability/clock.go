package availability

import (
	"errors"
	"fmt"
	"strconv"
)

const minutesPerDay = 24 * 60

var (
	ErrInvalidTime = errors.New("invalid time of day")
	ErrInvalidDate = errors.New("invalid date")
)

// ParseError reports a malformed "HH:MM" or "YYYY-MM-DD" input.
type ParseError struct {
	Input string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%v: %q", e.Err, e.Input)
}

func (e *ParseError) Unwrap() error { return e.Err }

// TimeOfDay is a wall-clock time in the venue's single operating timezone.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTime parses a zero-padded 24h "HH:MM" string.
func ParseTime(s string) (TimeOfDay, error) {
	if len(s) != 5 || s[2] != ':' || !isDigits(s[:2]) || !isDigits(s[3:]) {
		return TimeOfDay{}, &ParseError{Input: s, Err: ErrInvalidTime}
	}
	h, _ := strconv.Atoi(s[:2])
	m, _ := strconv.Atoi(s[3:])
	t := TimeOfDay{Hour: h, Minute: m}
	if !t.Valid() {
		return TimeOfDay{}, &ParseError{Input: s, Err: ErrInvalidTime}
	}
	return t, nil
}

// MustParseTime is ParseTime for literals known to be valid.
func MustParseTime(s string) TimeOfDay {
	t, err := ParseTime(s)
	if err != nil {
		panic(err)
	}
	return t
}

func (t TimeOfDay) Valid() bool {
	return t.Hour >= 0 && t.Hour <= 23 && t.Minute >= 0 && t.Minute <= 59
}

// ToMinutes projects t onto minutes since midnight. Ordering of TimeOfDay is
// defined by this projection.
func ToMinutes(t TimeOfDay) int {
	return t.Hour*60 + t.Minute
}

// FromMinutes is the inverse of ToMinutes, wrapping modulo 24h.
func FromMinutes(minutes int) TimeOfDay {
	m := wrapMinutes(minutes)
	return TimeOfDay{Hour: m / 60, Minute: m % 60}
}

// AddMinutes wraps around midnight instead of failing on overflow.
func AddMinutes(t TimeOfDay, n int) TimeOfDay {
	return FromMinutes(ToMinutes(t) + n)
}

// FormatTime renders minutes since midnight as "HH:MM".
func FormatTime(minutes int) string {
	t := FromMinutes(minutes)
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

func (t TimeOfDay) String() string {
	return FormatTime(ToMinutes(t))
}

func (t TimeOfDay) Compare(o TimeOfDay) int {
	a, b := ToMinutes(t), ToMinutes(o)
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func (t TimeOfDay) Before(o TimeOfDay) bool { return t.Compare(o) < 0 }

func (t TimeOfDay) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *TimeOfDay) UnmarshalText(b []byte) error {
	parsed, err := ParseTime(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

func wrapMinutes(m int) int {
	m %= minutesPerDay
	if m < 0 {
		m += minutesPerDay
	}
	return m
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}
