// Package database sets up the GORM connection and owns the entity models.
package database

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/reelist/reelist/internal/config"
	"github.com/reelist/reelist/internal/logger"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var DB *gorm.DB

// Initialize sets up the database connection from configuration
func Initialize(cfg *config.DatabaseConfig) error {
	var err error

	switch cfg.Type {
	case "postgres":
		DB, err = connectPostgres(cfg)
	case "", "sqlite":
		DB, err = connectSQLite(cfg.Path)
	default:
		return fmt.Errorf("unsupported database type: %s", cfg.Type)
	}
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := Migrate(DB); err != nil {
		return err
	}

	logger.Info("Database initialized (%s)", cfg.Type)
	return nil
}

// Migrate runs schema migration for every registered model
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("failed to migrate database schema: %w", err)
	}
	return nil
}

func connectPostgres(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable TimeZone=UTC",
		cfg.Host, cfg.Username, cfg.Password, cfg.Database, cfg.Port)

	return gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
}

func connectSQLite(path string) (*gorm.DB, error) {
	if path == "" {
		path = "./reelist-data/reelist.db"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	// Foreign keys are off by default in SQLite; cascades depend on them.
	dsn := path + "?_foreign_keys=on"

	return gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
}

// GetDB returns the database instance
func GetDB() *gorm.DB {
	return DB
}
