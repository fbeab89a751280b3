package modulemanager

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ModuleConfig represents the module configuration structure
type ModuleConfig struct {
	Modules struct {
		Disabled []string `yaml:"disabled"`
	} `yaml:"modules"`
}

// LoadConfig loads module configuration from a YAML file
func LoadConfig(configPath string) (*ModuleConfig, error) {
	config := &ModuleConfig{}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return config, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read module config: %w", err)
	}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse module config: %w", err)
	}
	return config, nil
}

// GetDefaultConfigPath returns the default module configuration file path
func GetDefaultConfigPath() string {
	if _, err := os.Stat("reelist-modules.yml"); err == nil {
		return "reelist-modules.yml"
	}

	dataDir := os.Getenv("REELIST_DATA_DIR")
	if dataDir == "" {
		dataDir = "./reelist-data"
	}
	return filepath.Join(dataDir, "reelist-modules.yml")
}
