package availability

// ExistingBooking is the snapshot of a stored reservation the engine checks
// candidates against.
type ExistingBooking struct {
	ID         string
	ResourceID string
	Date       Date
	Interval   Interval
	Status     Status
}

// Overlaps reports whether two half-open intervals share any minute. Touching
// endpoints ([10:00,11:00) and [11:00,12:00)) do not overlap.
func Overlaps(a, b Interval) bool {
	return ToMinutes(a.Start) < ToMinutes(b.End) && ToMinutes(b.Start) < ToMinutes(a.End)
}

func blocks(b ExistingBooking, candidate Interval, resourceID string, date Date) bool {
	return b.ResourceID == resourceID &&
		b.Date == date &&
		b.Status.Blocking() &&
		Overlaps(b.Interval, candidate)
}

// IsAvailable reports whether no blocking booking on the same resource and
// date overlaps candidate.
func IsAvailable(candidate Interval, resourceID string, date Date, existing []ExistingBooking) bool {
	for _, b := range existing {
		if blocks(b, candidate, resourceID, date) {
			return false
		}
	}
	return true
}

// FilterAvailable keeps the candidates for which IsAvailable holds, in input
// order. existing is not modified.
func FilterAvailable(candidates []Interval, resourceID string, date Date, existing []ExistingBooking) []Interval {
	out := make([]Interval, 0, len(candidates))
	for _, c := range candidates {
		if IsAvailable(c, resourceID, date, existing) {
			out = append(out, c)
		}
	}
	return out
}

// Conflicts returns the bookings that make candidate unavailable.
func Conflicts(candidate Interval, resourceID string, date Date, existing []ExistingBooking) []ExistingBooking {
	var out []ExistingBooking
	for _, b := range existing {
		if blocks(b, candidate, resourceID, date) {
			out = append(out, b)
		}
	}
	return out
}
