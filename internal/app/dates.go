package app

import (
	"fmt"
	"time"
)

// DateKeyLayout is the canonical roster date identity. Zero-padded so
// lexicographic order equals chronological order.
const DateKeyLayout = "2006-01-02"

// rosterDateLayout is the spreadsheet date format: strict DD/MM/YYYY.
const rosterDateLayout = "02/01/2006"

// Clock supplies the current instant. Handlers and queries take one so
// tests can pin "now".
type Clock func() time.Time

// ParseRosterDate parses a strict DD/MM/YYYY cell into UTC midnight of
// that calendar date. Two-digit day and month and four-digit year are
// required, and impossible calendar dates (month 13, Feb 30) are
// rejected rather than clamped.
func ParseRosterDate(s string) (time.Time, error) {
	if len(s) != 10 || s[2] != '/' || s[5] != '/' {
		return time.Time{}, fmt.Errorf("invalid roster date %q: want DD/MM/YYYY", s)
	}
	t, err := time.ParseInLocation(rosterDateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid roster date %q: %w", s, err)
	}
	return t, nil
}

// DateKey derives the canonical YYYY-MM-DD key from a UTC-midnight date.
func DateKey(t time.Time) string {
	return t.UTC().Format(DateKeyLayout)
}

// ParseDateKey parses a canonical YYYY-MM-DD key back to UTC midnight.
func ParseDateKey(key string) (time.Time, error) {
	if len(key) != 10 || key[4] != '-' || key[7] != '-' {
		return time.Time{}, fmt.Errorf("invalid date key %q: want YYYY-MM-DD", key)
	}
	t, err := time.ParseInLocation(DateKeyLayout, key, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date key %q: %w", key, err)
	}
	return t, nil
}

// ShiftDateKey moves a date key by whole calendar days, staying entirely
// in string/UTC terms. Adjacency checks go through here so the host
// machine's timezone can never skew day arithmetic.
func ShiftDateKey(key string, days int) (string, error) {
	t, err := ParseDateKey(key)
	if err != nil {
		return "", err
	}
	return DateKey(t.AddDate(0, 0, days)), nil
}

// TodayKey is the current calendar date in the system timezone, not the
// server's local zone.
func TodayKey(now Clock, loc *time.Location) string {
	return now().In(loc).Format(DateKeyLayout)
}
