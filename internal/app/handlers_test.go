package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func testRouter(t *testing.T, store Store, resolver PersonResolver, now time.Time) (*App, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	app := &App{
		Store:            store,
		Resolver:         resolver,
		Location:         jerusalem(t),
		TZName:           "Asia/Jerusalem",
		Hours:            DefaultShiftHours,
		Now:              fixedClock(now),
		FeedCacheSeconds: 300,
	}

	r := gin.New()
	cal := r.Group("/calendar")
	cal.GET("/department.ics", app.DepartmentFeedHandler)
	cal.GET("/people/:id", app.PersonFeedHandler)

	api := r.Group("/api")
	api.GET("/stations", app.ListStationsHandler)
	api.POST("/roster/import", app.ImportRosterHandler)
	api.GET("/roster", app.RosterRangeHandler)
	api.GET("/roster/today", app.TodayRosterHandler)
	api.GET("/roster/:date", app.RosterByDateHandler)
	api.PUT("/roster/:date/stations/:station", app.SetStationHandler)
	api.DELETE("/roster/:date/stations/:station", app.ClearStationHandler)
	api.GET("/people/:id/shifts", app.UpcomingShiftsHandler)
	api.GET("/people/:id/stats", app.PersonStatsHandler)
	api.GET("/people/:id/conflicts", app.PersonConflictsHandler)
	return app, r
}

func doRequest(r *gin.Engine, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return out
}

func TestImportRosterHandler(t *testing.T) {
	store := newMemStore()
	resolver := mapResolver{
		"Dr. Cohen": {ID: "p-cohen", DisplayName: "Dr. Cohen"},
		"Dr. Levi":  {ID: "p-levi", DisplayName: "Dr. Levi"},
	}
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	_, r := testRouter(t, store, resolver, now)

	csv := "תאריך,icu,er\n10/06/2025,Dr. Cohen,Dr. Levi\n11/06/2025,Dr. Levi,\n"
	w := doRequest(r, http.MethodPost, "/api/roster/import", csv)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	resp := decodeJSON(t, w)
	if resp["imported"].(float64) != 3 {
		t.Errorf("imported = %v, want 3", resp["imported"])
	}
	if resp["days"].(float64) != 2 {
		t.Errorf("days = %v, want 2", resp["days"])
	}
	if len(resp["unresolved"].([]any)) != 0 {
		t.Errorf("unresolved = %v, want none", resp["unresolved"])
	}

	// The saved roster is readable back through the API.
	w = doRequest(r, http.MethodGet, "/api/roster/2025-06-10", "")
	if w.Code != http.StatusOK {
		t.Fatalf("roster fetch status = %d", w.Code)
	}
	roster := decodeJSON(t, w)
	stations := roster["stations"].(map[string]any)
	if _, ok := stations["icu"]; !ok {
		t.Errorf("roster stations = %v, want icu present", stations)
	}
}

func TestImportRosterHandler_Unresolved(t *testing.T) {
	store := newMemStore()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	_, r := testRouter(t, store, mapResolver{}, now)

	csv := "תאריך,icu\n10/06/2025,Dr. Nobody\n"
	w := doRequest(r, http.MethodPost, "/api/roster/import", csv)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	resp := decodeJSON(t, w)
	if resp["imported"].(float64) != 0 {
		t.Errorf("imported = %v, want 0", resp["imported"])
	}
	unresolved := resp["unresolved"].([]any)
	if len(unresolved) != 1 {
		t.Fatalf("unresolved = %v, want exactly one entry", unresolved)
	}
	entry := unresolved[0].(map[string]any)
	if entry["name"] != "Dr. Nobody" || entry["date_key"] != "2025-06-10" {
		t.Errorf("unresolved entry = %v", entry)
	}
}

func TestImportRosterHandler_EmptyBody(t *testing.T) {
	_, r := testRouter(t, newMemStore(), mapResolver{}, time.Now())
	w := doRequest(r, http.MethodPost, "/api/roster/import", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestRosterByDateHandler_NotFound(t *testing.T) {
	_, r := testRouter(t, newMemStore(), mapResolver{}, time.Now())
	w := doRequest(r, http.MethodGet, "/api/roster/2025-06-10", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	w = doRequest(r, http.MethodGet, "/api/roster/10-06-2025", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status for malformed key = %d, want 400", w.Code)
	}
}

func TestRosterRangeHandler_Validation(t *testing.T) {
	_, r := testRouter(t, newMemStore(), mapResolver{}, time.Now())
	w := doRequest(r, http.MethodGet, "/api/roster?from=2025-06-12&to=2025-06-10", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("inverted range status = %d, want 400", w.Code)
	}
	w = doRequest(r, http.MethodGet, "/api/roster?from=2025-06-10&to=2025-06-12", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if strings.TrimSpace(w.Body.String()) != "[]" {
		t.Errorf("empty range body = %s, want []", w.Body.String())
	}
}

func TestSetAndClearStationHandlers(t *testing.T) {
	store := newMemStore()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	_, r := testRouter(t, store, mapResolver{}, now)

	body := `{"person_id":"p-cohen","display_name":"Dr. Cohen"}`
	w := doRequest(r, http.MethodPut, "/api/roster/2025-06-10/stations/icu", body)
	if w.Code != http.StatusOK {
		t.Fatalf("set status = %d, body = %s", w.Code, w.Body.String())
	}
	resp := decodeJSON(t, w)
	if resp["id"] != "2025-06-10:icu:p-cohen" {
		t.Errorf("assignment id = %v", resp["id"])
	}

	shifts, err := store.ShiftsForPerson(context.Background(), "p-cohen")
	if err != nil || len(shifts) != 1 {
		t.Fatalf("projection = %v, %v", shifts, err)
	}

	w = doRequest(r, http.MethodDelete, "/api/roster/2025-06-10/stations/icu", "")
	if w.Code != http.StatusOK {
		t.Fatalf("clear status = %d", w.Code)
	}
	shifts, _ = store.ShiftsForPerson(context.Background(), "p-cohen")
	if len(shifts) != 0 {
		t.Errorf("projection after clear = %v, want empty", shifts)
	}

	// Missing body fields fail validation.
	w = doRequest(r, http.MethodPut, "/api/roster/2025-06-10/stations/icu", `{"person_id":"x"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing display_name status = %d, want 400", w.Code)
	}
}

func TestSetStationHandler_ReplacementRetiresOldAssignment(t *testing.T) {
	store := newMemStore()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	_, r := testRouter(t, store, mapResolver{}, now)

	w := doRequest(r, http.MethodPut, "/api/roster/2025-06-10/stations/icu",
		`{"person_id":"p-cohen","display_name":"Dr. Cohen"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("first set status = %d", w.Code)
	}
	w = doRequest(r, http.MethodPut, "/api/roster/2025-06-10/stations/icu",
		`{"person_id":"p-levi","display_name":"Dr. Levi"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("second set status = %d", w.Code)
	}

	// The replaced person keeps no projection row; the new one has one.
	ctx := context.Background()
	old, _ := store.ShiftsForPerson(ctx, "p-cohen")
	if len(old) != 0 {
		t.Errorf("replaced occupant still projected: %+v", old)
	}
	cur, _ := store.ShiftsForPerson(ctx, "p-levi")
	if len(cur) != 1 {
		t.Fatalf("new occupant projection = %+v, want one row", cur)
	}

	roster, err := store.RosterByDate(ctx, "2025-06-10")
	if err != nil {
		t.Fatalf("roster read: %v", err)
	}
	if occ := roster.Stations[StationICU]; occ.PersonID != "p-levi" {
		t.Errorf("roster occupant = %+v, want p-levi", occ)
	}
}

func TestSetStationHandler_SamePersonKeepsAssignment(t *testing.T) {
	store := newMemStore()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	_, r := testRouter(t, store, mapResolver{}, now)

	body := `{"person_id":"p-cohen","display_name":"Dr. Cohen"}`
	for i := 0; i < 2; i++ {
		w := doRequest(r, http.MethodPut, "/api/roster/2025-06-10/stations/icu", body)
		if w.Code != http.StatusOK {
			t.Fatalf("set %d status = %d", i, w.Code)
		}
	}
	shifts, _ := store.ShiftsForPerson(context.Background(), "p-cohen")
	if len(shifts) != 1 {
		t.Errorf("re-setting the same person left %d rows, want 1", len(shifts))
	}
}

func TestListStationsHandler(t *testing.T) {
	_, r := testRouter(t, newMemStore(), mapResolver{}, time.Now())
	w := doRequest(r, http.MethodGet, "/api/stations", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var out []map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out) != len(Stations) {
		t.Fatalf("got %d stations, want %d", len(out), len(Stations))
	}
	if out[0]["key"] != "or_main" {
		t.Errorf("first station = %v, want or_main", out[0]["key"])
	}
}

func TestUpcomingShiftsHandler(t *testing.T) {
	store := newMemStore()
	seedShifts(t, store,
		mkShift("p1", "2025-06-10", StationICU),
		mkShift("p1", "2025-06-12", StationER),
	)
	now := time.Date(2025, 6, 9, 12, 0, 0, 0, time.UTC)
	_, r := testRouter(t, store, mapResolver{}, now)

	w := doRequest(r, http.MethodGet, "/api/people/p1/shifts", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	resp := decodeJSON(t, w)
	if len(resp["shifts"].([]any)) != 2 {
		t.Errorf("shifts = %v", resp["shifts"])
	}
	next := resp["next"].(map[string]any)
	if next["date_key"] != "2025-06-10" {
		t.Errorf("next = %v", next)
	}
}

func TestPersonStatsHandler(t *testing.T) {
	store := newMemStore()
	seedShifts(t, store,
		mkShift("p1", "2025-06-10", StationICU),
		mkShift("p1", "2025-06-12", StationICU),
	)
	now := time.Date(2025, 6, 9, 12, 0, 0, 0, time.UTC)
	_, r := testRouter(t, store, mapResolver{}, now)

	w := doRequest(r, http.MethodGet, "/api/people/p1/stats?days=7", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	resp := decodeJSON(t, w)
	if resp["total"].(float64) != 2 {
		t.Errorf("total = %v, want 2", resp["total"])
	}
	if resp["top_station"] != "icu" {
		t.Errorf("top_station = %v", resp["top_station"])
	}

	w = doRequest(r, http.MethodGet, "/api/people/p1/stats?days=-1", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("negative days status = %d, want 400", w.Code)
	}
}

func TestPersonConflictsHandler(t *testing.T) {
	store := newMemStore()
	seedShifts(t, store,
		mkShift("p1", "2025-06-10", StationICU),
		mkShift("p1", "2025-06-11", StationER),
	)
	_, r := testRouter(t, store, mapResolver{}, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))

	w := doRequest(r, http.MethodGet, "/api/people/p1/conflicts", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	resp := decodeJSON(t, w)
	conflicts := resp["conflicts"].(map[string]any)
	if len(conflicts) != 2 {
		t.Fatalf("conflicts = %v, want both back-to-back days flagged", conflicts)
	}
	c10 := conflicts["2025-06-10"].(map[string]any)
	if c10["type"] != string(ConflictBackToBack) {
		t.Errorf("conflict type = %v", c10["type"])
	}
}

func TestDepartmentFeedHandler(t *testing.T) {
	store := newMemStore()
	ctx := context.Background()
	day, _ := ParseDateKey("2025-06-10")
	store.SaveRoster(ctx, DayRoster{
		DateKey: "2025-06-10",
		Date:    day,
		Stations: map[StationKey]StationAssignment{
			StationICU:    {PersonID: "p1", DisplayName: "Dr. Cohen"},
			StationORMain: {PersonID: "p2", DisplayName: "Dr. Levi"},
		},
	})
	now := time.Date(2025, 6, 9, 12, 0, 0, 0, time.UTC)
	_, r := testRouter(t, store, mapResolver{}, now)

	w := doRequest(r, http.MethodGet, "/calendar/department.ics", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != feedContentType {
		t.Errorf("content type = %q", ct)
	}
	if cc := w.Header().Get("Cache-Control"); cc != "max-age=300" {
		t.Errorf("cache control = %q", cc)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "oncall-department.ics") {
		t.Errorf("content disposition = %q", cd)
	}
	body := w.Body.String()
	if !strings.HasPrefix(body, "BEGIN:VCALENDAR\r\n") {
		t.Errorf("feed does not start a VCALENDAR: %q", body[:40])
	}
	if strings.Count(body, "BEGIN:VEVENT") != 2 {
		t.Errorf("event count = %d, want 2", strings.Count(body, "BEGIN:VEVENT"))
	}
}

func TestDepartmentFeedHandler_SkipsCorruptDateKey(t *testing.T) {
	store := newMemStore()
	ctx := context.Background()
	day, _ := ParseDateKey("2025-06-10")
	store.SaveRoster(ctx, DayRoster{
		DateKey:  "2025-06-10",
		Date:     day,
		Stations: map[StationKey]StationAssignment{StationICU: {PersonID: "p1", DisplayName: "Dr. Cohen"}},
	})
	// A corrupt stored key sorts inside the window but has no valid
	// shift bounds; the feed must drop it, not emit a zero-time event.
	store.SaveRoster(ctx, DayRoster{
		DateKey:  "2025-06-99",
		Stations: map[StationKey]StationAssignment{StationER: {PersonID: "p2", DisplayName: "Dr. Levi"}},
	})
	now := time.Date(2025, 6, 9, 12, 0, 0, 0, time.UTC)
	_, r := testRouter(t, store, mapResolver{}, now)

	w := doRequest(r, http.MethodGet, "/calendar/department.ics?from=2025-06-01&to=2025-07-01", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	body := w.Body.String()
	if n := strings.Count(body, "BEGIN:VEVENT"); n != 1 {
		t.Errorf("event count = %d, want only the valid day", n)
	}
	if strings.Contains(body, "00010101") {
		t.Error("zero-time event leaked into the feed")
	}
}

func TestPersonFeedHandler(t *testing.T) {
	store := newMemStore()
	seedShifts(t, store, mkShift("p1", "2025-06-10", StationICU))
	now := time.Date(2025, 6, 9, 12, 0, 0, 0, time.UTC)
	_, r := testRouter(t, store, mapResolver{}, now)

	w := doRequest(r, http.MethodGet, "/calendar/people/p1.ics", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if cc := w.Header().Get("Cache-Control"); cc != "no-store" {
		t.Errorf("cache control = %q, want no-store", cc)
	}
	body := w.Body.String()
	if !strings.Contains(body, "UID:"+EventUID("2025-06-10", "icu", "p1")) {
		t.Errorf("feed missing shift UID:\n%s", body)
	}
}

func TestAuthMiddleware_StaticTokens(t *testing.T) {
	t.Setenv("STATIC_TOKENS", "sekrit")
	t.Setenv("JWT_HMAC_SECRET", "")
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.GET("/api/ping", AuthMiddlewareFromEnv(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	req := httptest.NewRequest(http.MethodGet, "/api/ping", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("no token status = %d, want 401", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/ping", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("bad token status = %d, want 401", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/ping", nil)
	req.Header.Set("Authorization", "Bearer sekrit")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("valid token status = %d, want 200", w.Code)
	}
}
