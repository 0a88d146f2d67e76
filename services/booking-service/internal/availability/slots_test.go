package availability

import (
	"reflect"
	"testing"
)

func hours(open, close string, d int) OperatingHours {
	return OperatingHours{Open: MustParseTime(open), Close: MustParseTime(close), SlotDurationMinutes: d}
}

func iv(start, end string) Interval {
	return Interval{Start: MustParseTime(start), End: MustParseTime(end)}
}

func TestGenerateSlots_DropsPartialTrailingSlot(t *testing.T) {
	slots := GenerateSlots(hours("08:00", "12:00", 90))
	want := []Interval{iv("08:00", "09:30"), iv("09:30", "11:00")}
	if !reflect.DeepEqual(slots, want) {
		t.Fatalf("expected %v, got %v", want, slots)
	}
}

func TestGenerateSlots_ExactFit(t *testing.T) {
	slots := GenerateSlots(hours("09:00", "12:00", 60))
	if len(slots) != 3 {
		t.Fatalf("expected 3 slots, got %d", len(slots))
	}
	if slots[2] != iv("11:00", "12:00") {
		t.Fatalf("expected last slot 11:00-12:00, got %s", slots[2])
	}
}

func TestGenerateSlots_Degenerate(t *testing.T) {
	cases := []OperatingHours{
		hours("12:00", "12:00", 60),
		hours("13:00", "12:00", 60),
		hours("08:00", "12:00", 0),
		hours("08:00", "12:00", -30),
		hours("08:00", "08:30", 60),
	}
	for _, c := range cases {
		if got := GenerateSlots(c); len(got) != 0 {
			t.Fatalf("expected no slots for %+v, got %v", c, got)
		}
	}
}

func TestGenerateSlots_DeterministicContainedDisjoint(t *testing.T) {
	h := hours("07:15", "23:00", 45)
	first := GenerateSlots(h)
	second := GenerateSlots(h)
	if !reflect.DeepEqual(first, second) {
		t.Fatal("expected identical output for identical input")
	}
	for i, s := range first {
		if s.Start.Before(h.Open) || h.Close.Before(s.End) {
			t.Fatalf("slot %s escapes operating hours", s)
		}
		for j, o := range first {
			if i != j && Overlaps(s, o) {
				t.Fatalf("slots %s and %s overlap", s, o)
			}
		}
	}
}

func TestSlots_StopsEarly(t *testing.T) {
	n := 0
	for range Slots(hours("08:00", "20:00", 60)) {
		n++
		if n == 2 {
			break
		}
	}
	if n != 2 {
		t.Fatalf("expected to stop after 2, got %d", n)
	}
}
