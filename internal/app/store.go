package app

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Store reads when no record exists for the key.
var ErrNotFound = errors.New("not found")

// ErrPersonNotFound is returned by PersonResolver when a free-text name
// matches nobody in the user store.
var ErrPersonNotFound = errors.New("person not found")

// PersonResolver is the identity collaborator: it turns a free-text name
// from a roster cell into a stable person identity. Matching strategy
// (exact, substring, fuzzy) is entirely the collaborator's business.
type PersonResolver interface {
	ResolvePersonByName(ctx context.Context, name string) (Person, error)
}

// Store is the scheduling persistence collaborator. Day rosters are one
// document per calendar date; shift assignments are the queryable
// projection keyed by their deterministic id, so saving the same import
// twice overwrites instead of duplicating.
type Store interface {
	RosterByDate(ctx context.Context, dateKey string) (DayRoster, error)
	RostersByRange(ctx context.Context, startKey, endKey string) ([]DayRoster, error)
	SaveRoster(ctx context.Context, roster DayRoster) error
	SetStation(ctx context.Context, dateKey string, station StationKey, a StationAssignment) error
	ClearStation(ctx context.Context, dateKey string, station StationKey) error

	UpsertAssignments(ctx context.Context, assignments []ShiftAssignment) error
	DeleteAssignment(ctx context.Context, id string) error
	ShiftsForPerson(ctx context.Context, personID string) ([]ShiftAssignment, error)
}
