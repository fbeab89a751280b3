// Package trackingmodule handles the per-user movie tracking marks: seen,
// watchlist and problem reports.
package trackingmodule

import (
	"github.com/reelist/reelist/internal/database"
	"github.com/reelist/reelist/internal/events"
	"github.com/reelist/reelist/internal/logger"
	"github.com/reelist/reelist/internal/modules/modulemanager"
	"github.com/reelist/reelist/internal/relationship"
	"gorm.io/gorm"
)

// Auto-register the module when imported
func init() {
	Register()
}

const (
	// ModuleID is the unique identifier for the tracking module
	ModuleID = "catalog.tracking"

	// ModuleName is the display name for the tracking module
	ModuleName = "Tracking Manager"
)

// Module implements seen, watchlist and report functionality
type Module struct {
	db       *gorm.DB
	eventBus events.EventBus
	engine   *relationship.Engine
}

// Register registers this module with the module system
func Register() {
	modulemanager.Register(&Module{})
}

// ID returns the unique module identifier
func (m *Module) ID() string {
	return ModuleID
}

// Name returns the module display name
func (m *Module) Name() string {
	return ModuleName
}

// Core returns whether this is a core module
func (m *Module) Core() bool {
	return true
}

// Migrate performs the module's database migrations
func (m *Module) Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&database.Seen{}, &database.Watchlist{}, &database.Report{})
}

// Init initializes the tracking module
func (m *Module) Init() error {
	m.db = database.GetDB()
	m.eventBus = events.GetGlobalEventBus()
	m.engine = relationship.NewEngine(m.db)
	return nil
}

func (m *Module) publish(event events.Event) {
	if m.eventBus == nil {
		return
	}
	if err := m.eventBus.PublishAsync(event); err != nil {
		logger.Debug("Failed to publish %s event: %v", event.Type, err)
	}
}
