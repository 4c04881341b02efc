package app

import (
	"fmt"
	"sort"
	"strings"
)

// ConflictType classifies a detected scheduling irregularity.
type ConflictType string

const (
	ConflictMultipleSameDay ConflictType = "multiple_same_day"
	ConflictBackToBack      ConflictType = "back_to_back"
)

// Conflict severities. Same-day double booking is almost always a data
// entry mistake; back-to-back duty is legal but worth surfacing.
const (
	SeverityWarning = "warning"
	SeverityInfo    = "info"
)

// Conflict is one detected irregularity for one person on one date.
type Conflict struct {
	Type     ConflictType `json:"type"`
	Severity string       `json:"severity"`
	DateKey  string       `json:"date_key"`
	Message  string       `json:"message"`
	// Dates lists the date keys involved: the single date for a same-day
	// conflict, the contiguous run for back-to-back.
	Dates []string `json:"dates"`
}

// DetectConflict checks one candidate shift against a person's full shift
// list and returns the single most specific conflict, or nil. Same-day
// multiplicity wins over back-to-back adjacency; at most one conflict is
// reported per call.
//
// Adjacency is decided by calendar-day arithmetic on date keys, never by
// comparing start instants, so the host timezone cannot skew it.
func DetectConflict(shifts []ShiftAssignment, candidate ShiftAssignment) *Conflict {
	stations := map[StationKey]bool{candidate.StationKey: true}
	for _, s := range shifts {
		if s.PersonID != candidate.PersonID {
			continue
		}
		if s.DateKey == candidate.DateKey {
			stations[s.StationKey] = true
		}
	}
	if len(stations) > 1 {
		return sameDayConflict(candidate.DateKey, stations)
	}

	prev, err := ShiftDateKey(candidate.DateKey, -1)
	if err != nil {
		return nil
	}
	next, _ := ShiftDateKey(candidate.DateKey, 1)

	var dates []string
	for _, s := range shifts {
		if s.PersonID != candidate.PersonID || s.ID == candidate.ID {
			continue
		}
		if s.DateKey == prev {
			dates = append(dates, prev)
		}
		if s.DateKey == next {
			dates = append(dates, next)
		}
	}
	if len(dates) == 0 {
		return nil
	}
	dates = append(dates, candidate.DateKey)
	dates = dedupeSorted(dates)
	return &Conflict{
		Type:     ConflictBackToBack,
		Severity: SeverityInfo,
		DateKey:  candidate.DateKey,
		Message:  "back-to-back duty days: " + strings.Join(dates, ", "),
		Dates:    dates,
	}
}

// DetectConflicts runs the detector over a person's full shift list and
// returns at most one conflict per date key, with the same precedence as
// the single-candidate form.
func DetectConflicts(shifts []ShiftAssignment) map[string]*Conflict {
	byDate := make(map[string]map[StationKey]bool)
	for _, s := range shifts {
		if byDate[s.DateKey] == nil {
			byDate[s.DateKey] = make(map[StationKey]bool)
		}
		byDate[s.DateKey][s.StationKey] = true
	}

	out := make(map[string]*Conflict)
	for dateKey, stations := range byDate {
		if len(stations) > 1 {
			out[dateKey] = sameDayConflict(dateKey, stations)
			continue
		}
		prev, err := ShiftDateKey(dateKey, -1)
		if err != nil {
			continue
		}
		next, _ := ShiftDateKey(dateKey, 1)
		var dates []string
		if byDate[prev] != nil {
			dates = append(dates, prev)
		}
		if byDate[next] != nil {
			dates = append(dates, next)
		}
		if len(dates) == 0 {
			continue
		}
		dates = append(dates, dateKey)
		dates = dedupeSorted(dates)
		out[dateKey] = &Conflict{
			Type:     ConflictBackToBack,
			Severity: SeverityInfo,
			DateKey:  dateKey,
			Message:  "back-to-back duty days: " + strings.Join(dates, ", "),
			Dates:    dates,
		}
	}
	return out
}

func sameDayConflict(dateKey string, stations map[StationKey]bool) *Conflict {
	var names []string
	for _, s := range Stations {
		if stations[s.Key] {
			names = append(names, string(s.Key))
		}
	}
	// Stations imported through pass-through headers are not in the
	// catalog; list them after the known ones.
	var extra []string
	for key := range stations {
		if _, ok := StationLookup(key); !ok {
			extra = append(extra, string(key))
		}
	}
	sort.Strings(extra)
	names = append(names, extra...)

	return &Conflict{
		Type:     ConflictMultipleSameDay,
		Severity: SeverityWarning,
		DateKey:  dateKey,
		Message:  fmt.Sprintf("%d stations on %s: %s", len(names), dateKey, strings.Join(names, ", ")),
		Dates:    []string{dateKey},
	}
}

func dedupeSorted(keys []string) []string {
	sort.Strings(keys)
	out := keys[:0]
	for i, k := range keys {
		if i == 0 || keys[i-1] != k {
			out = append(out, k)
		}
	}
	return out
}
