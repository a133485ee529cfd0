// Package config loads the quorum application configuration from YAML,
// applies QUORUM_* environment overrides and validates the result.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/Beastly713/quorum/pkg/bitstring"
	"github.com/Beastly713/quorum/pkg/logging"
)

// Storage drivers
const (
	DriverMemory   = "memory"
	DriverFile     = "file"
	DriverPostgres = "postgres"
)

// Config represents the complete application configuration
type Config struct {
	Logging LoggingConfig `yaml:"logging"`
	Storage StorageConfig `yaml:"storage"`
	Sharing SharingConfig `yaml:"sharing"`
}

// LoggingConfig controls logging behavior
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// StorageConfig selects and configures the message store
type StorageConfig struct {
	Driver   string         `yaml:"driver"`
	Path     string         `yaml:"path"`
	Postgres PostgresConfig `yaml:"postgres"`
}

// PostgresConfig contains PostgreSQL connection settings.
type PostgresConfig struct {
	// DSN, when set, takes precedence over the individual fields.
	DSN      string `yaml:"dsn"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"sslmode"`
}

// SharingConfig holds the share generation parameters that are not
// derived from the participant count.
type SharingConfig struct {
	PadLength int `yaml:"pad_length"`
}

// ConnectionString returns the PostgreSQL connection string.
func (c *PostgresConfig) ConnectionString() string {
	if c.DSN != "" {
		return c.DSN
	}
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, sslMode)
}

// Default returns a configuration that keeps messages in a JSON file in
// the working directory.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{Level: "info", Format: "text"},
		Storage: StorageConfig{
			Driver: DriverFile,
			Path:   "quorum.json",
			Postgres: PostgresConfig{
				Host:     "localhost",
				Port:     5432,
				User:     "quorum",
				Database: "quorum",
			},
		},
		Sharing: SharingConfig{PadLength: bitstring.DefaultPadLength},
	}
}

// Load reads the YAML file at path over the defaults. An empty path skips
// the file. Environment overrides are applied last.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) error {
	if level := os.Getenv("QUORUM_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
	if format := os.Getenv("QUORUM_LOG_FORMAT"); format != "" {
		cfg.Logging.Format = format
	}
	if driver := os.Getenv("QUORUM_STORAGE_DRIVER"); driver != "" {
		cfg.Storage.Driver = driver
	}
	if path := os.Getenv("QUORUM_STORAGE_PATH"); path != "" {
		cfg.Storage.Path = path
	}
	if dsn := os.Getenv("QUORUM_POSTGRES_DSN"); dsn != "" {
		cfg.Storage.Postgres.DSN = dsn
	}
	if pad := os.Getenv("QUORUM_PAD_LENGTH"); pad != "" {
		n, err := strconv.Atoi(pad)
		if err != nil {
			return fmt.Errorf("invalid QUORUM_PAD_LENGTH value %q: %w", pad, err)
		}
		cfg.Sharing.PadLength = n
	}
	return nil
}

// Validate checks the configuration for errors
func (c *Config) Validate() error {
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return err
	}
	switch c.Logging.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.Logging.Format)
	}

	switch c.Storage.Driver {
	case DriverMemory:
	case DriverFile:
		if c.Storage.Path == "" {
			return fmt.Errorf("storage.path is required for the %s driver", DriverFile)
		}
	case DriverPostgres:
		pg := c.Storage.Postgres
		if pg.DSN == "" && (pg.Host == "" || pg.Database == "") {
			return fmt.Errorf("storage.postgres needs a dsn or host and database")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}

	if c.Sharing.PadLength < 0 || c.Sharing.PadLength > bitstring.MaxPadLength {
		return fmt.Errorf("sharing.pad_length must be between 0 and %d, got %d",
			bitstring.MaxPadLength, c.Sharing.PadLength)
	}

	return nil
}
