package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds application configuration
type Config struct {
	DBPath    string `yaml:"db_path"`
	Addr      string `yaml:"addr"`
	LogLevel  string `yaml:"log_level"` // debug, info, warn, error
	BirthYear int    `yaml:"birth_year"`
	Workers   int    `yaml:"workers"` // parallel reclassification
}

// Default returns the configuration used when nothing is set
func Default() *Config {
	cfg := &Config{
		Addr:     ":8080",
		LogLevel: "info",
		Workers:  4,
	}
	if dir := Dir(); dir != "" {
		cfg.DBPath = filepath.Join(dir, "memoir.db")
	} else {
		cfg.DBPath = "memoir.db"
	}
	return cfg
}

// Dir is the per-user configuration directory (~/.memoir)
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".memoir")
}

// Path returns the config file location. MEMOIR_CONFIG overrides the default.
func Path() string {
	if p := os.Getenv("MEMOIR_CONFIG"); p != "" {
		return p
	}
	if dir := Dir(); dir != "" {
		return filepath.Join(dir, "config.yaml")
	}
	return ""
}

// Load loads configuration from the config file and environment variables.
// Environment variables take precedence over config file values.
func Load() (*Config, error) {
	return LoadFile(Path())
}

// LoadFile is Load with an explicit config file path. A missing file is not an error.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.loadFromFile(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	if err := cfg.loadFromEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func (c *Config) loadFromEnv() error {
	if v := os.Getenv("MEMOIR_DB"); v != "" {
		c.DBPath = v
	}
	if v := os.Getenv("MEMOIR_ADDR"); v != "" {
		c.Addr = v
	}
	if v := os.Getenv("MEMOIR_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("MEMOIR_BIRTH_YEAR"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("MEMOIR_BIRTH_YEAR: %w", err)
		}
		c.BirthYear = n
	}
	if v := os.Getenv("MEMOIR_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("MEMOIR_WORKERS: %w", err)
		}
		c.Workers = n
	}
	return nil
}

// Validate checks value ranges
func (c *Config) Validate() error {
	if c.DBPath == "" {
		return errors.New("db_path must be set")
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if c.BirthYear < 0 {
		return fmt.Errorf("invalid birth_year %d", c.BirthYear)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log_level %q", c.LogLevel)
	}
	return nil
}

// Save writes the configuration as YAML, creating the directory if needed
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}
