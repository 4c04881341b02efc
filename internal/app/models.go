package app

import "time"

// StationAssignment is one person occupying one station on one day.
// It has no lifecycle of its own; it lives inside a DayRoster document.
type StationAssignment struct {
	PersonID    string `json:"person_id"`
	DisplayName string `json:"display_name"`
}

// DayRoster is the full set of station assignments for a single calendar
// date. DateKey ("YYYY-MM-DD") is the canonical identity; Date is UTC
// midnight of the same calendar day. A station key that is absent from
// Stations means the station is vacant that day.
type DayRoster struct {
	DateKey  string                           `json:"date_key"`
	Date     time.Time                        `json:"date"`
	Stations map[StationKey]StationAssignment `json:"stations"`
}

// ShiftAssignment is the normalized, queryable projection of a roster
// entry with explicit UTC shift boundaries. EndAt is always after StartAt,
// and DateKey is the local calendar date StartAt falls on.
type ShiftAssignment struct {
	ID          string     `json:"id"`
	DateKey     string     `json:"date_key"`
	StationKey  StationKey `json:"station_key"`
	PersonID    string     `json:"person_id"`
	DisplayName string     `json:"display_name"`
	StartAt     time.Time  `json:"start_at"`
	EndAt       time.Time  `json:"end_at"`
	CreatedAt   time.Time  `json:"created_at,omitempty"`
	CreatedBy   string     `json:"created_by,omitempty"`
}

// Person is the result of a name lookup against the identity collaborator.
type Person struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// UnresolvedName records a roster cell whose free-text name the identity
// collaborator could not match. Reported alongside imported assignments so
// an operator can fix the sheet and re-run.
type UnresolvedName struct {
	DateKey    string     `json:"date_key"`
	StationKey StationKey `json:"station_key"`
	Name       string     `json:"name"`
}

// ImportResult is the best-effort outcome of one CSV import batch.
type ImportResult struct {
	Assignments []ShiftAssignment `json:"assignments"`
	Rosters     []DayRoster       `json:"rosters"`
	Unresolved  []UnresolvedName  `json:"unresolved"`
	SkippedRows int               `json:"skipped_rows"`
}

// PersonStats summarizes a person's duty load over a forward-looking window.
type PersonStats struct {
	PersonID   string             `json:"person_id"`
	DaysAhead  int                `json:"days_ahead"`
	Total      int                `json:"total"`
	TopStation StationKey         `json:"top_station,omitempty"`
	PerStation map[StationKey]int `json:"per_station"`
}

// CalendarEvent is the export-time view of a shift: local start/end plus
// a caller-supplied stable UID. It is derived, never persisted.
type CalendarEvent struct {
	UID         string
	Title       string
	Description string
	URL         string
	Start       time.Time
	End         time.Time
}
