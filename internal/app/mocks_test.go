package app

import (
	"context"
	"sort"
	"testing"
	"time"
)

// memStore is an in-memory Store used across the package tests.
type memStore struct {
	rosters map[string]DayRoster
	shifts  map[string]ShiftAssignment
}

func newMemStore() *memStore {
	return &memStore{
		rosters: make(map[string]DayRoster),
		shifts:  make(map[string]ShiftAssignment),
	}
}

func (m *memStore) RosterByDate(ctx context.Context, dateKey string) (DayRoster, error) {
	r, ok := m.rosters[dateKey]
	if !ok {
		return DayRoster{}, ErrNotFound
	}
	return r, nil
}

func (m *memStore) RostersByRange(ctx context.Context, startKey, endKey string) ([]DayRoster, error) {
	var out []DayRoster
	for key, r := range m.rosters {
		if key >= startKey && key <= endKey {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DateKey < out[j].DateKey })
	return out, nil
}

func (m *memStore) SaveRoster(ctx context.Context, roster DayRoster) error {
	m.rosters[roster.DateKey] = roster
	return nil
}

func (m *memStore) SetStation(ctx context.Context, dateKey string, station StationKey, a StationAssignment) error {
	r, ok := m.rosters[dateKey]
	if !ok {
		day, err := ParseDateKey(dateKey)
		if err != nil {
			return err
		}
		r = DayRoster{DateKey: dateKey, Date: day, Stations: make(map[StationKey]StationAssignment)}
	}
	r.Stations[station] = a
	m.rosters[dateKey] = r
	return nil
}

func (m *memStore) ClearStation(ctx context.Context, dateKey string, station StationKey) error {
	if r, ok := m.rosters[dateKey]; ok {
		delete(r.Stations, station)
		m.rosters[dateKey] = r
	}
	return nil
}

func (m *memStore) UpsertAssignments(ctx context.Context, assignments []ShiftAssignment) error {
	for _, a := range assignments {
		m.shifts[a.ID] = a
	}
	return nil
}

func (m *memStore) DeleteAssignment(ctx context.Context, id string) error {
	delete(m.shifts, id)
	return nil
}

func (m *memStore) ShiftsForPerson(ctx context.Context, personID string) ([]ShiftAssignment, error) {
	var out []ShiftAssignment
	for _, a := range m.shifts {
		if a.PersonID == personID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartAt.Before(out[j].StartAt) })
	return out, nil
}

// mapResolver resolves names from a fixed map, like the identity
// collaborator would.
type mapResolver map[string]Person

func (r mapResolver) ResolvePersonByName(ctx context.Context, name string) (Person, error) {
	if p, ok := r[name]; ok {
		return p, nil
	}
	return Person{}, ErrPersonNotFound
}

func jerusalem(t testing.TB) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Jerusalem")
	if err != nil {
		t.Fatalf("load Asia/Jerusalem: %v", err)
	}
	return loc
}

func fixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}

func mkShift(personID, dateKey string, station StationKey) ShiftAssignment {
	start, _ := ParseDateKey(dateKey)
	return ShiftAssignment{
		ID:          AssignmentID(dateKey, station, personID),
		DateKey:     dateKey,
		StationKey:  station,
		PersonID:    personID,
		DisplayName: personID,
		StartAt:     start.Add(16 * time.Hour),
		EndAt:       start.Add(32 * time.Hour),
	}
}
