package app

import (
	"fmt"
	"log"
	"net/http"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"
)

// Feed handlers render subscribable ICS documents. They sit outside the
// authenticated API group because calendar clients cannot attach
// Authorization headers to subscription URLs.

const feedContentType = "text/calendar; charset=utf-8"

func (a *App) exporter() *CalendarExporter {
	return &CalendarExporter{TZID: a.TZName, Now: a.Now}
}

// GET /calendar/department.ics?from=YYYY-MM-DD&to=YYYY-MM-DD
// The department-wide feed: one event per occupied station per day.
// Defaults to a window from a week back to thirty days ahead.
func (a *App) DepartmentFeedHandler(c *gin.Context) {
	today := TodayKey(a.Now, a.Location)
	from := c.Query("from")
	to := c.Query("to")
	if from == "" {
		from, _ = ShiftDateKey(today, -7)
	}
	if to == "" {
		to, _ = ShiftDateKey(today, 30)
	}
	if _, err := ParseDateKey(from); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid from"})
		return
	}
	if _, err := ParseDateKey(to); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid to"})
		return
	}

	rosters, err := a.schedule().ByDateRange(c.Request.Context(), from, to)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var events []CalendarEvent
	for _, roster := range rosters {
		for _, station := range sortedStationKeys(roster.Stations) {
			occupant := roster.Stations[station]
			ev, err := a.rosterEvent(roster.DateKey, station, occupant)
			if err != nil {
				log.Printf("skipping feed event for %s/%s: %v", roster.DateKey, station, err)
				continue
			}
			events = append(events, ev)
		}
	}

	doc := a.exporter().Render("תורנויות מחלקה", events)
	c.Header("Content-Disposition", `attachment; filename="oncall-department.ics"`)
	c.Header("Cache-Control", fmt.Sprintf("max-age=%d", a.FeedCacheSeconds))
	c.Data(http.StatusOK, feedContentType, []byte(doc))
}

// GET /calendar/people/:id.ics
// A personal feed of the person's own duty shifts. Never cached: the
// subscriber wants edits visible on the next refresh.
func (a *App) PersonFeedHandler(c *gin.Context) {
	personID := strings.TrimSuffix(c.Param("id"), ".ics")
	shifts, err := a.Store.ShiftsForPerson(c.Request.Context(), personID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	sort.Slice(shifts, func(i, j int) bool { return shifts[i].StartAt.Before(shifts[j].StartAt) })

	var events []CalendarEvent
	for _, sh := range shifts {
		events = append(events, a.shiftEvent(sh))
	}

	doc := a.exporter().Render("תורנויות - "+personID, events)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "oncall-"+personID+".ics"))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, feedContentType, []byte(doc))
}

// rosterEvent builds the department-feed event for one occupied station.
// The UID hashes date and station so the same slot keeps its identity
// even when the occupant changes; clients then see an update, not a
// duplicate.
func (a *App) rosterEvent(dateKey string, station StationKey, occupant StationAssignment) (CalendarEvent, error) {
	start, end, err := ShiftBounds(dateKey, a.Location, a.Hours)
	if err != nil {
		return CalendarEvent{}, err
	}
	return CalendarEvent{
		UID:         EventUID(dateKey, string(station)),
		Title:       StationLabel(station) + " - " + occupant.DisplayName,
		Description: fmt.Sprintf("תורנות %s (%s)", StationLabel(station), dateKey),
		Start:       start.In(a.Location),
		End:         end.In(a.Location),
	}, nil
}

// shiftEvent builds the personal-feed event for one shift assignment.
func (a *App) shiftEvent(sh ShiftAssignment) CalendarEvent {
	return CalendarEvent{
		UID:         EventUID(sh.DateKey, string(sh.StationKey), sh.PersonID),
		Title:       "תורנות " + StationLabel(sh.StationKey),
		Description: fmt.Sprintf("%s - %s (%s)", sh.DisplayName, StationLabel(sh.StationKey), sh.DateKey),
		Start:       sh.StartAt.In(a.Location),
		End:         sh.EndAt.In(a.Location),
	}
}

// sortedStationKeys orders a day's occupied stations by catalog order,
// pass-through stations after the known ones.
func sortedStationKeys(stations map[StationKey]StationAssignment) []StationKey {
	var out []StationKey
	for _, s := range Stations {
		if _, ok := stations[s.Key]; ok {
			out = append(out, s.Key)
		}
	}
	var extra []StationKey
	for key := range stations {
		if _, known := StationLookup(key); !known {
			extra = append(extra, key)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	return append(out, extra...)
}
