package app

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"
)

// Importer parses bulk roster spreadsheets (CSV export, localized
// headers) into shift assignments. It is resilient by design: malformed
// rows are skipped, unresolved names are reported, and nothing aborts
// the batch.
type Importer struct {
	Resolver PersonResolver
	Location *time.Location
	Hours    ShiftHours
	Now      Clock
	// CreatedBy is stamped on every imported assignment.
	CreatedBy string
}

// AssignmentID builds the deterministic id for one roster entry. Because
// the id is a pure function of (dateKey, station, personID), re-importing
// the same sheet upserts instead of duplicating.
func AssignmentID(dateKey string, station StationKey, personID string) string {
	return dateKey + ":" + string(station) + ":" + personID
}

// ImportCSV reads a comma-separated roster with a localized header row
// and one row per date, and returns the best-effort import result. Only
// unreadable CSV framing is a hard error; everything row-level is
// tolerated and reported through the result.
func (imp *Importer) ImportCSV(ctx context.Context, r io.Reader) (*ImportResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header row: %w", err)
	}

	dateCol := -1
	stationCols := make(map[int]StationKey)
	for i, h := range header {
		h = strings.TrimSpace(h)
		if h == "" {
			continue
		}
		if IsDateHeader(h) {
			if dateCol == -1 {
				dateCol = i
			}
			continue
		}
		stationCols[i] = CanonicalStationKey(h)
	}
	if dateCol == -1 {
		// Sheets exported without a named date column put the date first.
		dateCol = 0
		delete(stationCols, 0)
	}
	// Walk station columns in sheet order so results are deterministic.
	var colOrder []int
	for i := range stationCols {
		colOrder = append(colOrder, i)
	}
	sort.Ints(colOrder)

	result := &ImportResult{}
	rosters := make(map[string]*DayRoster)
	var rosterOrder []string
	now := imp.Now()

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Ragged or malformed line: skip, keep going.
			result.SkippedRows++
			continue
		}
		if rowBlank(row) {
			result.SkippedRows++
			continue
		}
		if dateCol >= len(row) {
			result.SkippedRows++
			continue
		}
		day, err := ParseRosterDate(strings.TrimSpace(row[dateCol]))
		if err != nil {
			result.SkippedRows++
			continue
		}
		dateKey := DateKey(day)

		start, end, err := ShiftBounds(dateKey, imp.Location, imp.Hours)
		if err != nil {
			result.SkippedRows++
			continue
		}

		for _, i := range colOrder {
			station := stationCols[i]
			if i >= len(row) {
				continue
			}
			name := strings.TrimSpace(row[i])
			if name == "" {
				continue
			}
			person, err := imp.Resolver.ResolvePersonByName(ctx, name)
			if errors.Is(err, ErrPersonNotFound) {
				result.Unresolved = append(result.Unresolved, UnresolvedName{
					DateKey:    dateKey,
					StationKey: station,
					Name:       name,
				})
				continue
			}
			if err != nil {
				// A resolver outage is not bad sheet data; abort the batch.
				return nil, fmt.Errorf("resolve %q: %w", name, err)
			}
			assignment := ShiftAssignment{
				ID:          AssignmentID(dateKey, station, person.ID),
				DateKey:     dateKey,
				StationKey:  station,
				PersonID:    person.ID,
				DisplayName: person.DisplayName,
				StartAt:     start,
				EndAt:       end,
				CreatedAt:   now,
				CreatedBy:   imp.CreatedBy,
			}
			result.Assignments = append(result.Assignments, assignment)

			roster, ok := rosters[dateKey]
			if !ok {
				roster = &DayRoster{
					DateKey:  dateKey,
					Date:     day,
					Stations: make(map[StationKey]StationAssignment),
				}
				rosters[dateKey] = roster
				rosterOrder = append(rosterOrder, dateKey)
			}
			roster.Stations[station] = StationAssignment{
				PersonID:    person.ID,
				DisplayName: person.DisplayName,
			}
		}
	}

	// Materialize day documents in sheet order.
	for _, key := range rosterOrder {
		result.Rosters = append(result.Rosters, *rosters[key])
	}

	return result, nil
}

func rowBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
