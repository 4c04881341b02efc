package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGStore is the Postgres implementation of Store. Each day roster is a
// single row whose station map lives in a JSONB column, mirroring the
// one-document-per-date model; shift assignments are rows keyed by their
// deterministic id so imports upsert.
type PGStore struct {
	DB *pgxpool.Pool
}

func NewPGStore(db *pgxpool.Pool) *PGStore {
	return &PGStore{DB: db}
}

func (s *PGStore) RosterByDate(ctx context.Context, dateKey string) (DayRoster, error) {
	q := `SELECT date_key, roster_date, stations FROM day_rosters WHERE date_key=$1`
	var r DayRoster
	var stations []byte
	err := s.DB.QueryRow(ctx, q, dateKey).Scan(&r.DateKey, &r.Date, &stations)
	if errors.Is(err, pgx.ErrNoRows) {
		return DayRoster{}, ErrNotFound
	}
	if err != nil {
		return DayRoster{}, err
	}
	if err := json.Unmarshal(stations, &r.Stations); err != nil {
		return DayRoster{}, fmt.Errorf("decode stations for %s: %w", dateKey, err)
	}
	return r, nil
}

func (s *PGStore) RostersByRange(ctx context.Context, startKey, endKey string) ([]DayRoster, error) {
	q := `SELECT date_key, roster_date, stations FROM day_rosters
	      WHERE date_key >= $1 AND date_key <= $2 ORDER BY date_key`
	rows, err := s.DB.Query(ctx, q, startKey, endKey)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DayRoster
	for rows.Next() {
		var r DayRoster
		var stations []byte
		if err := rows.Scan(&r.DateKey, &r.Date, &stations); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(stations, &r.Stations); err != nil {
			return nil, fmt.Errorf("decode stations for %s: %w", r.DateKey, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *PGStore) SaveRoster(ctx context.Context, roster DayRoster) error {
	stations, err := json.Marshal(roster.Stations)
	if err != nil {
		return err
	}
	q := `INSERT INTO day_rosters (date_key, roster_date, stations)
	      VALUES ($1, $2, $3)
	      ON CONFLICT (date_key) DO UPDATE SET roster_date=$2, stations=$3`
	_, err = s.DB.Exec(ctx, q, roster.DateKey, roster.Date, stations)
	return err
}

// SetStation read-modify-writes the day document inside a transaction so
// concurrent per-station edits on the same day cannot lose each other.
func (s *PGStore) SetStation(ctx context.Context, dateKey string, station StationKey, a StationAssignment) error {
	return s.mutateStations(ctx, dateKey, func(stations map[StationKey]StationAssignment) {
		stations[station] = a
	})
}

func (s *PGStore) ClearStation(ctx context.Context, dateKey string, station StationKey) error {
	return s.mutateStations(ctx, dateKey, func(stations map[StationKey]StationAssignment) {
		delete(stations, station)
	})
}

func (s *PGStore) mutateStations(ctx context.Context, dateKey string, mutate func(map[StationKey]StationAssignment)) error {
	day, err := ParseDateKey(dateKey)
	if err != nil {
		return err
	}

	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	q := `SELECT stations FROM day_rosters WHERE date_key=$1 FOR UPDATE`
	var raw []byte
	stations := make(map[StationKey]StationAssignment)
	err = tx.QueryRow(ctx, q, dateKey).Scan(&raw)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		// First edit on this date creates the document.
	case err != nil:
		return err
	default:
		if err := json.Unmarshal(raw, &stations); err != nil {
			return fmt.Errorf("decode stations for %s: %w", dateKey, err)
		}
	}

	mutate(stations)

	updated, err := json.Marshal(stations)
	if err != nil {
		return err
	}
	up := `INSERT INTO day_rosters (date_key, roster_date, stations)
	       VALUES ($1, $2, $3)
	       ON CONFLICT (date_key) DO UPDATE SET stations=$3`
	if _, err := tx.Exec(ctx, up, dateKey, day, updated); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *PGStore) UpsertAssignments(ctx context.Context, assignments []ShiftAssignment) error {
	if len(assignments) == 0 {
		return nil
	}
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	q := `INSERT INTO shift_assignments
	      (id, date_key, station_key, person_id, display_name, start_at, end_at, created_at, created_by)
	      VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	      ON CONFLICT (id) DO UPDATE SET
	        display_name=$5, start_at=$6, end_at=$7`
	for _, a := range assignments {
		if _, err := tx.Exec(ctx, q,
			a.ID, a.DateKey, a.StationKey, a.PersonID, a.DisplayName,
			a.StartAt, a.EndAt, a.CreatedAt, a.CreatedBy); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (s *PGStore) DeleteAssignment(ctx context.Context, id string) error {
	_, err := s.DB.Exec(ctx, `DELETE FROM shift_assignments WHERE id=$1`, id)
	return err
}

func (s *PGStore) ShiftsForPerson(ctx context.Context, personID string) ([]ShiftAssignment, error) {
	q := `SELECT id, date_key, station_key, person_id, display_name, start_at, end_at, created_at, created_by
	      FROM shift_assignments WHERE person_id=$1 ORDER BY start_at`
	rows, err := s.DB.Query(ctx, q, personID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ShiftAssignment
	for rows.Next() {
		var a ShiftAssignment
		if err := rows.Scan(&a.ID, &a.DateKey, &a.StationKey, &a.PersonID, &a.DisplayName,
			&a.StartAt, &a.EndAt, &a.CreatedAt, &a.CreatedBy); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// PGPersonResolver is the minimal identity collaborator: exact display
// name match against the people table, then a substring fallback that
// must match exactly one person. Anything smarter (transliteration,
// nicknames) belongs to the identity subsystem, not here.
type PGPersonResolver struct {
	DB *pgxpool.Pool
}

func (r *PGPersonResolver) ResolvePersonByName(ctx context.Context, name string) (Person, error) {
	var p Person
	q := `SELECT id, display_name FROM people WHERE display_name=$1 LIMIT 1`
	err := r.DB.QueryRow(ctx, q, name).Scan(&p.ID, &p.DisplayName)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return Person{}, err
	}

	sub := `SELECT id, display_name FROM people WHERE display_name ILIKE '%' || $1 || '%' LIMIT 2`
	rows, err := r.DB.Query(ctx, sub, name)
	if err != nil {
		return Person{}, err
	}
	defer rows.Close()

	var matches []Person
	for rows.Next() {
		var m Person
		if err := rows.Scan(&m.ID, &m.DisplayName); err != nil {
			return Person{}, err
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return Person{}, err
	}
	if len(matches) != 1 {
		return Person{}, ErrPersonNotFound
	}
	return matches[0], nil
}
