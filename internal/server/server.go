// Package server wires the HTTP router, the event bus and the module
// system together.
package server

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/reelist/reelist/internal/apiroutes"
	"github.com/reelist/reelist/internal/config"
	"github.com/reelist/reelist/internal/database"
	"github.com/reelist/reelist/internal/events"
	"github.com/reelist/reelist/internal/logger"
	"github.com/reelist/reelist/internal/modules/modulemanager"

	// Import all modules to trigger their registration
	_ "github.com/reelist/reelist/internal/modules/listmodule"
	_ "github.com/reelist/reelist/internal/modules/moviemodule"
	_ "github.com/reelist/reelist/internal/modules/ratingmodule"
	_ "github.com/reelist/reelist/internal/modules/trackingmodule"
	_ "github.com/reelist/reelist/internal/modules/usermodule"
)

var (
	systemEventBus    events.EventBus
	moduleInitialized bool
)

// SetupRouter configures and returns the main router
func SetupRouter() *gin.Engine {
	cfg := config.Get()

	r := gin.Default()

	if cfg.Server.EnableCORS {
		r.Use(corsMiddleware())
	}
	r.Use(authMiddleware(database.GetDB()))

	if err := initializeEventBus(); err != nil {
		logger.Error("Failed to initialize event bus: %v", err)
	}

	if err := initializeModules(); err != nil {
		logger.Error("Failed to initialize modules: %v", err)
	}

	apiroutes.Register("/api", "GET", "Lists all available API endpoints.")

	setupRoutes(r)
	modulemanager.RegisterRoutes(r)

	return r
}

// initializeEventBus starts the system event bus backed by the activity
// event table
func initializeEventBus() error {
	if systemEventBus != nil {
		return nil
	}

	storage := events.NewDatabaseEventStorage(database.GetDB())
	if err := storage.Migrate(); err != nil {
		return fmt.Errorf("failed to migrate event storage: %w", err)
	}

	bus := events.NewEventBus(events.DefaultBusConfig(), storage)
	if err := bus.Start(context.Background()); err != nil {
		return fmt.Errorf("failed to start event bus: %w", err)
	}

	systemEventBus = bus
	events.SetGlobalEventBus(bus)

	bus.PublishAsync(events.NewSystemEvent(events.EventSystemStarted,
		"System started", "Catalogue server starting up"))
	return nil
}

// initializeModules loads every registered module against the database
func initializeModules() error {
	if moduleInitialized {
		return nil
	}

	db := database.GetDB()
	if err := modulemanager.LoadAll(db); err != nil {
		return fmt.Errorf("failed to load modules: %w", err)
	}

	for _, m := range modulemanager.ListModules() {
		logger.Info("Module loaded: %s (%s)", m.Name(), m.ID())
	}

	moduleInitialized = true
	return nil
}

// Shutdown stops background systems. Safe to call more than once.
func Shutdown(ctx context.Context) {
	if systemEventBus == nil {
		return
	}
	systemEventBus.PublishAsync(events.NewSystemEvent(events.EventSystemStopped,
		"System stopping", "Catalogue server shutting down"))
	if err := systemEventBus.Stop(ctx); err != nil {
		logger.Warn("Event bus shutdown: %v", err)
	}
	systemEventBus = nil
}
