package app

import (
	"context"
	"errors"
	"sort"
	"time"
)

// Schedule is the read side of the roster: thin, timezone-aware helpers
// over the external store. It holds no state beyond its collaborators.
type Schedule struct {
	store Store
	loc   *time.Location
	now   Clock
}

func NewSchedule(store Store, loc *time.Location, now Clock) *Schedule {
	return &Schedule{store: store, loc: loc, now: now}
}

// ByDate loads the roster document for a date key. Absent days return
// (nil, nil): an empty roster is not an error condition.
func (s *Schedule) ByDate(ctx context.Context, dateKey string) (*DayRoster, error) {
	roster, err := s.store.RosterByDate(ctx, dateKey)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &roster, nil
}

// Today loads the roster for the current date in the system timezone.
func (s *Schedule) Today(ctx context.Context) (*DayRoster, error) {
	return s.ByDate(ctx, TodayKey(s.now, s.loc))
}

// ByDateRange loads all roster documents whose key falls inside the
// bounds, inclusive. Plain string comparison is valid because the key is
// zero-padded.
func (s *Schedule) ByDateRange(ctx context.Context, startKey, endKey string) ([]DayRoster, error) {
	return s.store.RostersByRange(ctx, startKey, endKey)
}

// UpcomingByPerson returns a person's shifts that have not ended yet,
// ordered by start time. The currently running shift (started, not
// ended) is included.
func (s *Schedule) UpcomingByPerson(ctx context.Context, personID string) ([]ShiftAssignment, error) {
	shifts, err := s.store.ShiftsForPerson(ctx, personID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	var out []ShiftAssignment
	for _, sh := range shifts {
		if !sh.EndAt.Before(now) {
			out = append(out, sh)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartAt.Before(out[j].StartAt) })
	return out, nil
}

// NextShift is the first upcoming shift, or nil when there is none.
func (s *Schedule) NextShift(ctx context.Context, personID string) (*ShiftAssignment, error) {
	upcoming, err := s.UpcomingByPerson(ctx, personID)
	if err != nil {
		return nil, err
	}
	if len(upcoming) == 0 {
		return nil, nil
	}
	return &upcoming[0], nil
}

// FutureByPerson returns the person's shifts whose date key falls within
// [today, today+daysAhead] inclusive, today being the system-timezone date.
func (s *Schedule) FutureByPerson(ctx context.Context, personID string, daysAhead int) ([]ShiftAssignment, error) {
	shifts, err := s.store.ShiftsForPerson(ctx, personID)
	if err != nil {
		return nil, err
	}
	startKey := TodayKey(s.now, s.loc)
	endKey, err := ShiftDateKey(startKey, daysAhead)
	if err != nil {
		return nil, err
	}
	var out []ShiftAssignment
	for _, sh := range shifts {
		if sh.DateKey >= startKey && sh.DateKey <= endKey {
			out = append(out, sh)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartAt.Before(out[j].StartAt) })
	return out, nil
}

// StatsByPerson aggregates the forward-looking window into totals and the
// most-frequent station. Ties break in catalog enumeration order, first
// station reaching the maximum wins.
func (s *Schedule) StatsByPerson(ctx context.Context, personID string, daysAhead int) (PersonStats, error) {
	shifts, err := s.FutureByPerson(ctx, personID, daysAhead)
	if err != nil {
		return PersonStats{}, err
	}
	stats := PersonStats{
		PersonID:   personID,
		DaysAhead:  daysAhead,
		Total:      len(shifts),
		PerStation: make(map[StationKey]int),
	}
	for _, sh := range shifts {
		stats.PerStation[sh.StationKey]++
	}
	best := 0
	for _, st := range Stations {
		if n := stats.PerStation[st.Key]; n > best {
			best = n
			stats.TopStation = st.Key
		}
	}
	// Pass-through stations are outside the catalog; they can still win
	// if strictly more frequent than every catalog station.
	var unknown []string
	for key := range stats.PerStation {
		if _, known := StationLookup(key); !known {
			unknown = append(unknown, string(key))
		}
	}
	sort.Strings(unknown)
	for _, key := range unknown {
		if n := stats.PerStation[StationKey(key)]; n > best {
			best = n
			stats.TopStation = StationKey(key)
		}
	}
	return stats, nil
}
