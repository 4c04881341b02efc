package app

import (
	"testing"
	"time"
)

// Israel switches to IDT (+03:00) on Friday 2025-03-28 at 02:00 and back
// to IST (+02:00) on Sunday 2025-10-26. The local shift hours never
// change; the UTC instants must.

func TestShiftBounds_Winter(t *testing.T) {
	loc := jerusalem(t)
	start, end, err := ShiftBounds("2025-01-15", loc, DefaultShiftHours)
	if err != nil {
		t.Fatalf("ShiftBounds: %v", err)
	}
	if want := time.Date(2025, 1, 15, 14, 0, 0, 0, time.UTC); !start.Equal(want) {
		t.Errorf("start = %v, want %v (16:00 IST)", start, want)
	}
	if want := time.Date(2025, 1, 16, 6, 0, 0, 0, time.UTC); !end.Equal(want) {
		t.Errorf("end = %v, want %v (08:00 IST)", end, want)
	}
}

func TestShiftBounds_Summer(t *testing.T) {
	loc := jerusalem(t)
	start, end, err := ShiftBounds("2025-06-10", loc, DefaultShiftHours)
	if err != nil {
		t.Fatalf("ShiftBounds: %v", err)
	}
	if want := time.Date(2025, 6, 10, 13, 0, 0, 0, time.UTC); !start.Equal(want) {
		t.Errorf("start = %v, want %v (16:00 IDT)", start, want)
	}
	if want := time.Date(2025, 6, 11, 5, 0, 0, 0, time.UTC); !end.Equal(want) {
		t.Errorf("end = %v, want %v (08:00 IDT)", end, want)
	}
}

func TestShiftBounds_AcrossSpringTransition(t *testing.T) {
	loc := jerusalem(t)

	// The day before the switch: starts in IST.
	before, _, err := ShiftBounds("2025-03-27", loc, DefaultShiftHours)
	if err != nil {
		t.Fatalf("ShiftBounds: %v", err)
	}
	// The day after: same wall-clock hour, one UTC hour earlier.
	after, _, err := ShiftBounds("2025-03-29", loc, DefaultShiftHours)
	if err != nil {
		t.Fatalf("ShiftBounds: %v", err)
	}
	offBefore := time.Date(2025, 3, 27, 16, 0, 0, 0, time.UTC).Sub(before)
	offAfter := time.Date(2025, 3, 29, 16, 0, 0, 0, time.UTC).Sub(after)
	if delta := offAfter - offBefore; delta != time.Hour {
		t.Errorf("DST delta = %v, want 1h (before offset %v, after %v)", delta, offBefore, offAfter)
	}

	// The shift of 2025-03-27 itself spans the switch night: it starts
	// at 16:00 IST and ends at 08:00 IDT, so it is an hour shorter.
	start, end, err := ShiftBounds("2025-03-27", loc, DefaultShiftHours)
	if err != nil {
		t.Fatalf("ShiftBounds: %v", err)
	}
	if got := end.Sub(start); got != 15*time.Hour {
		t.Errorf("transition-night shift length = %v, want 15h", got)
	}
}

func TestShiftBounds_AcrossAutumnTransition(t *testing.T) {
	loc := jerusalem(t)
	// 2025-10-25 starts in IDT, ends after the fall-back: an hour longer.
	start, end, err := ShiftBounds("2025-10-25", loc, DefaultShiftHours)
	if err != nil {
		t.Fatalf("ShiftBounds: %v", err)
	}
	if got := end.Sub(start); got != 17*time.Hour {
		t.Errorf("fall-back shift length = %v, want 17h", got)
	}
}

func TestShiftBounds_InvalidKey(t *testing.T) {
	loc := jerusalem(t)
	if _, _, err := ShiftBounds("27/03/2025", loc, DefaultShiftHours); err == nil {
		t.Fatal("expected error for non-canonical key")
	}
	if _, _, err := ShiftBounds("2025-02-30", loc, DefaultShiftHours); err == nil {
		t.Fatal("expected error for impossible date")
	}
}
