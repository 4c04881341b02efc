package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// Residents often keep private commitments in Google Calendar. This
// lookup lets the roster UI show a person's outside events around a duty
// date before an edit, without the core ever learning about Google:
// everything here stays at the HTTP edge.

// ExternalEvent is the normalized view of an outside calendar entry.
type ExternalEvent struct {
	Summary string    `json:"summary"`
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
	AllDay  bool      `json:"all_day"`
	Status  string    `json:"status"`
}

type googleCalendarConfig struct {
	Config *oauth2.Config
}

func googleConfigFromEnv() *googleCalendarConfig {
	clientID := os.Getenv("GOOGLE_CLIENT_ID")
	clientSecret := os.Getenv("GOOGLE_CLIENT_SECRET")
	redirectURL := os.Getenv("GOOGLE_REDIRECT_URL")
	if clientID == "" || clientSecret == "" || redirectURL == "" {
		return nil
	}
	return &googleCalendarConfig{Config: &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Scopes:       []string{calendar.CalendarReadonlyScope},
		Endpoint:     google.Endpoint,
	}}
}

// GET /api/calendar/auth
// Starts the read-only OAuth2 flow for a person's Google Calendar.
func (a *App) GoogleAuthHandler(c *gin.Context) {
	cfg := googleConfigFromEnv()
	if cfg == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Google Calendar not configured"})
		return
	}
	state := fmt.Sprintf("person_%s_%d", c.Query("person_id"), a.Now().Unix())
	c.JSON(http.StatusOK, gin.H{
		"auth_url": cfg.Config.AuthCodeURL(state, oauth2.AccessTypeOffline),
		"state":    state,
	})
}

// GET /oauth2callback
func (a *App) GoogleOAuth2CallbackHandler(c *gin.Context) {
	cfg := googleConfigFromEnv()
	if cfg == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Google Calendar not configured"})
		return
	}
	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing code"})
		return
	}
	token, err := cfg.Config.Exchange(c.Request.Context(), code)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("token exchange failed: %v", err)})
		return
	}
	tokenJSON, _ := json.Marshal(token)
	c.JSON(http.StatusOK, gin.H{
		"message": "authorization successful",
		"state":   c.Query("state"),
		"token":   string(tokenJSON),
	})
}

// GET /api/calendar/busy?date=YYYY-MM-DD
// Lists the caller's Google Calendar entries overlapping the duty shift
// of the given date, token supplied via X-Google-Token.
func (a *App) GoogleBusyEventsHandler(c *gin.Context) {
	tokenStr := c.GetHeader("X-Google-Token")
	if tokenStr == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Google token required in X-Google-Token header"})
		return
	}
	var token oauth2.Token
	if err := json.Unmarshal([]byte(tokenStr), &token); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid token format"})
		return
	}
	cfg := googleConfigFromEnv()
	if cfg == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Google Calendar not configured"})
		return
	}

	dateKey := c.DefaultQuery("date", TodayKey(a.Now, a.Location))
	start, end, err := ShiftBounds(dateKey, a.Location, a.Hours)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	client := cfg.Config.Client(context.Background(), &token)
	srv, err := calendar.NewService(c.Request.Context(), option.WithHTTPClient(client))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create calendar service"})
		return
	}

	items, err := srv.Events.List(c.DefaultQuery("calendar_id", "primary")).
		SingleEvents(true).
		OrderBy("startTime").
		TimeMin(start.Format(time.RFC3339)).
		TimeMax(end.Format(time.RFC3339)).
		MaxResults(50).
		Do()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("failed to retrieve events: %v", err)})
		return
	}

	var events []ExternalEvent
	for _, item := range items.Items {
		ev := ExternalEvent{Summary: item.Summary, Status: item.Status}
		if item.Start != nil {
			if item.Start.DateTime != "" {
				ev.Start, _ = time.Parse(time.RFC3339, item.Start.DateTime)
			} else if item.Start.Date != "" {
				ev.Start, _ = time.ParseInLocation("2006-01-02", item.Start.Date, a.Location)
				ev.AllDay = true
			}
		}
		if item.End != nil {
			if item.End.DateTime != "" {
				ev.End, _ = time.Parse(time.RFC3339, item.End.DateTime)
			} else if item.End.Date != "" {
				ev.End, _ = time.ParseInLocation("2006-01-02", item.End.Date, a.Location)
			}
		}
		events = append(events, ev)
	}

	c.JSON(http.StatusOK, gin.H{
		"date_key":    dateKey,
		"shift_start": start,
		"shift_end":   end,
		"events":      events,
		"count":       len(events),
	})
}
