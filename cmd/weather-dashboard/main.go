package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	httpapi "github.com/i474232898/weather-dashboard/internal/api/http"
	"github.com/i474232898/weather-dashboard/internal/config"
	"github.com/i474232898/weather-dashboard/internal/dashboard"
	"github.com/i474232898/weather-dashboard/internal/prefs"
	"github.com/i474232898/weather-dashboard/internal/query"
	"github.com/i474232898/weather-dashboard/internal/scheduler"
	"github.com/i474232898/weather-dashboard/internal/store"
	"github.com/i474232898/weather-dashboard/internal/weatherapi"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logFile := config.SetupLogging(cfg.LogFile)
	defer logFile.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Shared HTTP client for outbound weather calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}
	client := weatherapi.NewClient(httpClient, cfg.WeatherAPIKey, weatherapi.WithBaseURL(cfg.WeatherAPIBase))

	// Query cache with configured retention.
	manager, err := query.NewManager(
		store.NewMemoryStore(cfg.CacheMaxAge),
		query.WithWorkers(cfg.RevalidateWorkers),
		query.WithFetchTimeout(cfg.HTTPTimeout),
	)
	if err != nil {
		log.Fatalf("failed to create query manager: %v", err)
	}
	defer manager.Close()
	api := query.NewAPI(manager, client)

	// Preferences, persisted when a database path is configured.
	initial := prefs.InitialState(time.Now())
	initial.Location = cfg.DefaultLocation

	prefStore := prefs.NewStore(initial)
	if cfg.PrefsDBPath != "" {
		db, err := store.OpenPrefsDB(ctx, cfg.PrefsDBPath)
		if err != nil {
			log.Fatalf("failed to open preferences database: %v", err)
		}
		defer db.Close()

		var detach func()
		prefStore, detach, err = db.Attach(ctx, initial)
		if err != nil {
			log.Fatalf("failed to load preferences: %v", err)
		}
		defer detach()
	}

	session := dashboard.NewSession(api, prefStore, time.Now)
	defer session.Close()

	// Connectivity monitor firing the reconnect trigger.
	monitor := scheduler.New(client, manager, cfg.ConnectivityCheckInterval)
	if err := monitor.Start(); err != nil {
		log.Fatalf("failed to start connectivity monitor: %v", err)
	}
	defer monitor.Stop()

	// Basic app configuration
	app := fiber.New(fiber.Config{
		AppName:               "weather-dashboard",
		DisableStartupMessage: true,
		Immutable:             true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          cfg.HTTPTimeout + 5*time.Second,
		ErrorHandler:          httpapi.ErrorHandler,
	})

	// Global middleware
	app.Use(logger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "weather-dashboard",
			"online":  monitor.Online(),
			"cached":  manager.Len(),
			"mounted": len(manager.Mounted()),
		})
	})

	// API routes.
	httpapi.RegisterRoutes(app, api, prefStore, session)

	go func() {
		log.Printf("INFO: listening on :%s", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()

	// Wait for termination signal
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
}
