package availability

import "iter"

// Interval is a half-open range [Start, End) on a single day.
type Interval struct {
	Start TimeOfDay `json:"start"`
	End   TimeOfDay `json:"end"`
}

func (i Interval) Valid() bool {
	return i.Start.Valid() && i.End.Valid() && i.Start.Before(i.End)
}

// Duration returns the interval length in minutes.
func (i Interval) Duration() int {
	return ToMinutes(i.End) - ToMinutes(i.Start)
}

func (i Interval) String() string {
	return i.Start.String() + "-" + i.End.String()
}

type OperatingHours struct {
	Open                TimeOfDay
	Close               TimeOfDay
	SlotDurationMinutes int
}

// Slots yields back-to-back intervals of SlotDurationMinutes starting at Open.
// A trailing slot that would end after Close is never produced. Degenerate
// hours (Open >= Close, non-positive duration) yield nothing.
func Slots(hours OperatingHours) iter.Seq[Interval] {
	return func(yield func(Interval) bool) {
		step := hours.SlotDurationMinutes
		open, closing := ToMinutes(hours.Open), ToMinutes(hours.Close)
		if step <= 0 || open >= closing {
			return
		}
		for c := open; c+step <= closing; c += step {
			if !yield(Interval{Start: FromMinutes(c), End: FromMinutes(c + step)}) {
				return
			}
		}
	}
}

// GenerateSlots materialises Slots. An empty result means no slot fits.
func GenerateSlots(hours OperatingHours) []Interval {
	var out []Interval
	for s := range Slots(hours) {
		out = append(out, s)
	}
	return out
}
