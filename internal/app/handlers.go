package app

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// App wires the scheduling core to its collaborators. Everything that
// touches time or timezone goes through Location/Now so tests can pin
// both.
type App struct {
	Store    Store
	Resolver PersonResolver
	Location *time.Location
	TZName   string
	Hours    ShiftHours
	Now      Clock
	// FeedCacheSeconds is the cache lifetime of the bulk feed; the
	// personal feed is never cached.
	FeedCacheSeconds int
}

func (a *App) schedule() *Schedule {
	return NewSchedule(a.Store, a.Location, a.Now)
}

// POST /api/roster/import
// Accepts the raw CSV body and returns a best-effort summary. A batch
// with skipped rows or unresolved names is still a 200: the operator
// fixes the sheet and re-runs, and deterministic ids make that safe.
func (a *App) ImportRosterHandler(c *gin.Context) {
	imp := &Importer{
		Resolver:  a.Resolver,
		Location:  a.Location,
		Hours:     a.Hours,
		Now:       a.Now,
		CreatedBy: c.GetString("subject"),
	}
	result, err := imp.ImportCSV(c.Request.Context(), c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	for _, roster := range result.Rosters {
		if err := a.Store.SaveRoster(ctx, roster); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
	}
	if err := a.Store.UpsertAssignments(ctx, result.Assignments); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	unresolved := result.Unresolved
	if unresolved == nil {
		unresolved = []UnresolvedName{}
	}
	c.JSON(http.StatusOK, gin.H{
		"imported":     len(result.Assignments),
		"days":         len(result.Rosters),
		"skipped_rows": result.SkippedRows,
		"unresolved":   unresolved,
	})
}

// GET /api/roster/today
func (a *App) TodayRosterHandler(c *gin.Context) {
	roster, err := a.schedule().Today(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if roster == nil {
		c.JSON(http.StatusOK, gin.H{"date_key": TodayKey(a.Now, a.Location), "stations": gin.H{}})
		return
	}
	c.JSON(http.StatusOK, roster)
}

// GET /api/roster/:date
func (a *App) RosterByDateHandler(c *gin.Context) {
	dateKey := c.Param("date")
	if _, err := ParseDateKey(dateKey); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	roster, err := a.schedule().ByDate(c.Request.Context(), dateKey)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if roster == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no roster for " + dateKey})
		return
	}
	c.JSON(http.StatusOK, roster)
}

// GET /api/roster?from=YYYY-MM-DD&to=YYYY-MM-DD
func (a *App) RosterRangeHandler(c *gin.Context) {
	from := c.Query("from")
	to := c.Query("to")
	if _, err := ParseDateKey(from); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid from"})
		return
	}
	if _, err := ParseDateKey(to); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid to"})
		return
	}
	if from > to {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from must not be after to"})
		return
	}
	rosters, err := a.schedule().ByDateRange(c.Request.Context(), from, to)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if rosters == nil {
		rosters = []DayRoster{}
	}
	c.JSON(http.StatusOK, rosters)
}

type setStationReq struct {
	PersonID    string `json:"person_id" binding:"required"`
	DisplayName string `json:"display_name" binding:"required"`
}

// PUT /api/roster/:date/stations/:station
// Manual edit of one station on one day. Keeps the assignment projection
// in step with the roster document.
func (a *App) SetStationHandler(c *gin.Context) {
	dateKey := c.Param("date")
	if _, err := ParseDateKey(dateKey); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	station := StationKey(c.Param("station"))

	var req setStationReq
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	start, end, err := ShiftBounds(dateKey, a.Location, a.Hours)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()

	// Replacing the occupant must also retire the old occupant's
	// projection row, or they keep appearing in queries and feeds.
	current, err := a.schedule().ByDate(ctx, dateKey)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if current != nil {
		if occupant, ok := current.Stations[station]; ok && occupant.PersonID != req.PersonID {
			id := AssignmentID(dateKey, station, occupant.PersonID)
			if err := a.Store.DeleteAssignment(ctx, id); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
		}
	}

	if err := a.Store.SetStation(ctx, dateKey, station, StationAssignment{
		PersonID:    req.PersonID,
		DisplayName: req.DisplayName,
	}); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	assignment := ShiftAssignment{
		ID:          AssignmentID(dateKey, station, req.PersonID),
		DateKey:     dateKey,
		StationKey:  station,
		PersonID:    req.PersonID,
		DisplayName: req.DisplayName,
		StartAt:     start,
		EndAt:       end,
		CreatedAt:   a.Now(),
		CreatedBy:   c.GetString("subject"),
	}
	if err := a.Store.UpsertAssignments(ctx, []ShiftAssignment{assignment}); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, assignment)
}

// DELETE /api/roster/:date/stations/:station
func (a *App) ClearStationHandler(c *gin.Context) {
	dateKey := c.Param("date")
	if _, err := ParseDateKey(dateKey); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	station := StationKey(c.Param("station"))
	ctx := c.Request.Context()

	// Drop the projection first so a failed roster write cannot leave a
	// dangling assignment.
	roster, err := a.schedule().ByDate(ctx, dateKey)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if roster != nil {
		if occupant, ok := roster.Stations[station]; ok {
			id := AssignmentID(dateKey, station, occupant.PersonID)
			if err := a.Store.DeleteAssignment(ctx, id); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
		}
	}
	if err := a.Store.ClearStation(ctx, dateKey, station); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// GET /api/stations
func (a *App) ListStationsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, Stations)
}

// GET /api/people/:id/shifts
func (a *App) UpcomingShiftsHandler(c *gin.Context) {
	personID := c.Param("id")
	upcoming, err := a.schedule().UpcomingByPerson(c.Request.Context(), personID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if upcoming == nil {
		upcoming = []ShiftAssignment{}
	}
	var next *ShiftAssignment
	if len(upcoming) > 0 {
		next = &upcoming[0]
	}
	c.JSON(http.StatusOK, gin.H{"shifts": upcoming, "next": next})
}

// GET /api/people/:id/stats?days=N
func (a *App) PersonStatsHandler(c *gin.Context) {
	personID := c.Param("id")
	days, err := strconv.Atoi(c.DefaultQuery("days", "30"))
	if err != nil || days < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid days"})
		return
	}
	stats, err := a.schedule().StatsByPerson(c.Request.Context(), personID, days)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// GET /api/people/:id/conflicts
// Batch conflict map over the person's full shift list.
func (a *App) PersonConflictsHandler(c *gin.Context) {
	personID := c.Param("id")
	shifts, err := a.Store.ShiftsForPerson(c.Request.Context(), personID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"conflicts": DetectConflicts(shifts)})
}
