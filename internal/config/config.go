// Package config handles application configuration from YAML files and
// environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the complete application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server" json:"server"`
	Database DatabaseConfig `yaml:"database" json:"database"`
	Auth     AuthConfig     `yaml:"auth" json:"auth"`
	Logging  LoggingConfig  `yaml:"logging" json:"logging"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Host         string        `yaml:"host" json:"host"`
	Port         int           `yaml:"port" json:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout" json:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" json:"write_timeout"`
	EnableCORS   bool          `yaml:"enable_cors" json:"enable_cors"`
}

// DatabaseConfig selects and configures the backing store
type DatabaseConfig struct {
	Type     string `yaml:"type" json:"type"` // sqlite or postgres
	Path     string `yaml:"path" json:"path"` // sqlite file path
	Host     string `yaml:"host" json:"host"`
	Port     int    `yaml:"port" json:"port"`
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
	Database string `yaml:"database" json:"database"`
}

// AuthConfig holds authentication-related configuration
type AuthConfig struct {
	TokenTTL    time.Duration `yaml:"token_ttl" json:"token_ttl"`
	BcryptCost  int           `yaml:"bcrypt_cost" json:"bcrypt_cost"`
	Bootstrap   bool          `yaml:"bootstrap" json:"bootstrap"` // create admin user on first start
	AdminName   string        `yaml:"admin_name" json:"admin_name"`
	AdminSecret string        `yaml:"admin_secret" json:"admin_secret"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
}

var (
	current *Config
	mu      sync.RWMutex
)

// Default returns a configuration with sensible defaults applied
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			EnableCORS:   true,
		},
		Database: DatabaseConfig{
			Type: "sqlite",
			Path: "./reelist-data/reelist.db",
			Host: "localhost",
			Port: 5432,
		},
		Auth: AuthConfig{
			TokenTTL:   30 * 24 * time.Hour,
			BcryptCost: 12,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from the given path (if it exists), then applies
// environment overrides on top of the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)

	mu.Lock()
	current = cfg
	mu.Unlock()

	return cfg, nil
}

// Get returns the loaded configuration, loading defaults if Load was never called
func Get() *Config {
	mu.RLock()
	if current != nil {
		defer mu.RUnlock()
		return current
	}
	mu.RUnlock()

	cfg, _ := Load(DefaultConfigPath())
	return cfg
}

// DefaultConfigPath returns the configuration file location
func DefaultConfigPath() string {
	if p := os.Getenv("REELIST_CONFIG"); p != "" {
		return p
	}
	dataDir := os.Getenv("REELIST_DATA_DIR")
	if dataDir == "" {
		dataDir = "./reelist-data"
	}
	return filepath.Join(dataDir, "reelist.yml")
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("REELIST_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("REELIST_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("DATABASE_TYPE"); v != "" {
		cfg.Database.Type = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("POSTGRES_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("POSTGRES_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = port
		}
	}
	if v := os.Getenv("POSTGRES_USER"); v != "" {
		cfg.Database.Username = v
	}
	if v := os.Getenv("POSTGRES_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("POSTGRES_DB"); v != "" {
		cfg.Database.Database = v
	}
	if v := os.Getenv("REELIST_ADMIN_NAME"); v != "" {
		cfg.Auth.Bootstrap = true
		cfg.Auth.AdminName = v
	}
	if v := os.Getenv("REELIST_ADMIN_SECRET"); v != "" {
		cfg.Auth.AdminSecret = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}
