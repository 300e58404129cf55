// Package config loads and validates the application's YAML configuration.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// defaultSARRate is the USD to SAR display rate used when none is
// configured. The riyal is pegged to the dollar.
const defaultSARRate = 3.75

// Config represents the entire application configuration.
type Config struct {
	Web Web `yaml:"web"`

	// DatasetPath optionally points at an opportunity dataset YAML file,
	// overriding the embedded fixture.
	DatasetPath string `yaml:"dataset_path"`

	// SARExchangeRate is the USD to SAR rate used for dual-denomination
	// display. Defaults to the pegged rate.
	SARExchangeRate float64 `yaml:"sar_exchange_rate"`
}

// Web holds settings specific to the web server.
type Web struct {
	ListenAddress string `yaml:"listen_address"`

	// TemplatesPath and StaticPath optionally override the embedded
	// template and static filesystems with on-disk directories. Required in
	// development mode, where the file watcher reloads templates on change.
	TemplatesPath   string `yaml:"templates_path"`
	StaticPath      string `yaml:"static_path"`
	DevelopmentMode bool   `yaml:"development_mode"`
}

// Load loads and validates the configuration from the given file path.
func Load(filePath string) (*Config, error) {
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", filePath)
	}

	configFile, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(configFile, &cfg); err != nil {
		return nil, fmt.Errorf("unable to parse YAML config file: %w", err)
	}

	if err := validateAndPrepare(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// validateAndPrepare checks for required fields and sets up derived values.
func validateAndPrepare(c *Config) error {
	if c.Web.ListenAddress == "" {
		return errors.New("web.listen_address is missing")
	}
	if c.Web.DevelopmentMode {
		if c.Web.TemplatesPath == "" {
			return errors.New("web.templates_path is required in development mode")
		}
		if c.Web.StaticPath == "" {
			return errors.New("web.static_path is required in development mode")
		}
	}
	if c.SARExchangeRate < 0 {
		return fmt.Errorf("sar_exchange_rate cannot be negative, got %v", c.SARExchangeRate)
	}
	if c.SARExchangeRate == 0 {
		c.SARExchangeRate = defaultSARRate
	}
	if c.DatasetPath != "" {
		s, err := os.Stat(c.DatasetPath)
		if err != nil {
			return fmt.Errorf("dataset_path %q: %w", c.DatasetPath, err)
		}
		if s.IsDir() {
			return fmt.Errorf("dataset_path %q is a directory", c.DatasetPath)
		}
	}
	return nil
}
