// Package usermodule handles accounts, authentication, profiles and the
// follower graph.
package usermodule

import (
	"time"

	"github.com/reelist/reelist/internal/aggregates"
	"github.com/reelist/reelist/internal/config"
	"github.com/reelist/reelist/internal/database"
	"github.com/reelist/reelist/internal/events"
	"github.com/reelist/reelist/internal/logger"
	"github.com/reelist/reelist/internal/modules/modulemanager"
	"github.com/reelist/reelist/internal/relationship"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Auto-register the module when imported
func init() {
	Register()
}

const (
	// ModuleID is the unique identifier for the user module
	ModuleID = "catalog.users"

	// ModuleName is the display name for the user module
	ModuleName = "User Manager"
)

// Module implements account, profile and follower functionality
type Module struct {
	db         *gorm.DB
	eventBus   events.EventBus
	aggs       *aggregates.Service
	engine     *relationship.Engine
	tokenTTL   time.Duration
	bcryptCost int
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
	return true // authentication cannot be disabled
}

// Migrate performs the module's database migrations
func (m *Module) Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&database.User{},
		&database.AuthToken{},
		&database.Profile{},
		&database.Follower{},
	)
}

// Init initializes the user module
func (m *Module) Init() error {
	m.db = database.GetDB()
	m.eventBus = events.GetGlobalEventBus()
	m.aggs = aggregates.New(m.db)
	m.engine = relationship.NewEngine(m.db)

	cfg := config.Get()
	m.tokenTTL = cfg.Auth.TokenTTL
	m.bcryptCost = cfg.Auth.BcryptCost
	if m.bcryptCost == 0 {
		m.bcryptCost = bcrypt.DefaultCost
	}

	if cfg.Auth.Bootstrap && cfg.Auth.AdminName != "" && cfg.Auth.AdminSecret != "" {
		if err := m.ensureAdmin(cfg.Auth.AdminName, cfg.Auth.AdminSecret); err != nil {
			return err
		}
	}

	return nil
}

// ensureAdmin creates the initial superuser account if it does not exist yet
func (m *Module) ensureAdmin(name, secret string) error {
	var count int64
	if err := m.db.Model(&database.User{}).Where("username = ?", name).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	_, err := m.createUser(name, secret, true)
	if err != nil {
		return err
	}
	logger.Info("Bootstrap admin account created: %s", name)
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
