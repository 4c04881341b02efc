package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"oncall-roster/internal/app"
	"oncall-roster/internal/config"
	"oncall-roster/internal/server"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	ctx := context.Background()

	conf, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if conf.DatabaseURL == "" {
		log.Fatal("DATABASE_URL required")
	}

	loc, err := time.LoadLocation(conf.Timezone)
	if err != nil {
		log.Fatalf("unknown timezone %q: %v", conf.Timezone, err)
	}

	pool, err := pgxpool.New(ctx, conf.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to db: %v", err)
	}
	defer pool.Close()

	store := app.NewPGStore(pool)
	appInstance := &app.App{
		Store:            store,
		Resolver:         &app.PGPersonResolver{DB: pool},
		Location:         loc,
		TZName:           conf.Timezone,
		Hours:            app.ShiftHours{StartHour: conf.ShiftStartHour, EndHour: conf.ShiftEndHour},
		Now:              time.Now,
		FeedCacheSeconds: conf.FeedCacheSeconds,
	}

	router := gin.Default()

	// Public surfaces: OAuth callback and calendar feeds (calendar
	// clients cannot send Authorization headers).
	router.GET("/oauth2callback", appInstance.GoogleOAuth2CallbackHandler)
	feeds := router.Group("/calendar")
	{
		feeds.GET("/department.ics", appInstance.DepartmentFeedHandler)
		// The segment is "<person>.ics"; the handler strips the extension.
		feeds.GET("/people/:id", appInstance.PersonFeedHandler)
	}

	api := router.Group("/api")
	api.Use(app.AuthMiddlewareFromEnv())
	{
		api.GET("/stations", appInstance.ListStationsHandler)

		roster := api.Group("/roster")
		{
			roster.POST("/import", appInstance.ImportRosterHandler)
			roster.GET("", appInstance.RosterRangeHandler)
			roster.GET("/today", appInstance.TodayRosterHandler)
			roster.GET("/:date", appInstance.RosterByDateHandler)
			roster.PUT("/:date/stations/:station", appInstance.SetStationHandler)
			roster.DELETE("/:date/stations/:station", appInstance.ClearStationHandler)
		}

		people := api.Group("/people")
		{
			people.GET("/:id/shifts", appInstance.UpcomingShiftsHandler)
			people.GET("/:id/stats", appInstance.PersonStatsHandler)
			people.GET("/:id/conflicts", appInstance.PersonConflictsHandler)
		}

		calendar := api.Group("/calendar")
		{
			calendar.GET("/auth", appInstance.GoogleAuthHandler)
			calendar.GET("/busy", appInstance.GoogleBusyEventsHandler)
		}
	}

	server.Run(router, conf.Listen)
}
