package app

import (
	"fmt"
	"time"
)

// ShiftHours defines the overnight duty convention: a shift for roster
// date D starts at StartHour local time on D and ends at EndHour local
// time on D+1.
type ShiftHours struct {
	StartHour int
	EndHour   int
}

// DefaultShiftHours is the department's duty convention: 16:00 until
// 08:00 the next morning.
var DefaultShiftHours = ShiftHours{StartHour: 16, EndHour: 8}

// ShiftBounds resolves the UTC start and end instants of the duty shift
// for a roster date key. The wall-clock hours are resolved against the
// timezone rules in effect on each specific date, so boundaries stay
// correct across DST transitions; a shift that spans the switch night
// simply comes out an hour shorter or longer in UTC.
//
// An unparseable key is a caller error and is returned loudly.
func ShiftBounds(dateKey string, loc *time.Location, hours ShiftHours) (start, end time.Time, err error) {
	day, err := ParseDateKey(dateKey)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	y, m, d := day.Date()
	start = time.Date(y, m, d, hours.StartHour, 0, 0, 0, loc).UTC()
	next := day.AddDate(0, 0, 1)
	ny, nm, nd := next.Date()
	end = time.Date(ny, nm, nd, hours.EndHour, 0, 0, 0, loc).UTC()
	if !end.After(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("shift hours %d:00-%d:00 produce empty shift for %s", hours.StartHour, hours.EndHour, dateKey)
	}
	return start, end, nil
}
