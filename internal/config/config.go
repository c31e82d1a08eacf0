package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/rshade/rankline/internal/paging"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "RANKLINE_"

// Output formats.
const (
	FormatTable = "table"
	FormatJSON  = "json"
)

// ErrInvalidConfig reports a configuration value out of range.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the complete rankline configuration.
type Config struct {
	Database DatabaseConfig `json:"database" yaml:"database" envPrefix:"DB_"`
	Paging   PagingConfig   `json:"paging" yaml:"paging" envPrefix:"PAGING_"`
	Ordering OrderingConfig `json:"ordering" yaml:"ordering" envPrefix:"ORDERING_"`
	Logging  LoggingConfig  `json:"logging" yaml:"logging" envPrefix:"LOG_"`
	Output   OutputConfig   `json:"output" yaml:"output" envPrefix:"OUTPUT_"`
}

// DatabaseConfig selects the store backend.
type DatabaseConfig struct {
	Driver       string `json:"driver" yaml:"driver" env:"DRIVER"`
	DSN          string `json:"dsn" yaml:"dsn" env:"DSN"`
	MaxOpenConns int    `json:"max_open_conns" yaml:"max_open_conns" env:"MAX_OPEN_CONNS"`
}

// PagingConfig bounds page sizes and snapshot lifetime.
type PagingConfig struct {
	DefaultPageSize   int           `json:"default_page_size" yaml:"default_page_size" env:"DEFAULT_PAGE_SIZE"`
	MaxPageSize       int           `json:"max_page_size" yaml:"max_page_size" env:"MAX_PAGE_SIZE"`
	SnapshotRetention time.Duration `json:"snapshot_retention" yaml:"snapshot_retention" env:"SNAPSHOT_RETENTION"`
}

// OrderingConfig tunes the write path.
type OrderingConfig struct {
	MaxAttempts   int  `json:"max_attempts" yaml:"max_attempts" env:"MAX_ATTEMPTS"`
	AutoRebalance bool `json:"auto_rebalance" yaml:"auto_rebalance" env:"AUTO_REBALANCE"`
}

// OutputConfig defines output formatting preferences.
type OutputConfig struct {
	DefaultFormat string `json:"default_format" yaml:"default_format" env:"DEFAULT_FORMAT"`
}

// New returns a configuration with defaults. The SQLite database lives in the config
// directory.
func New() *Config {
	dsn := "rankline.db"
	if dir, err := GetConfigDir(); err == nil {
		dsn = filepath.Join(dir, "rankline.db")
	}
	return &Config{
		Database: DatabaseConfig{Driver: "sqlite", DSN: dsn},
		Paging: PagingConfig{
			DefaultPageSize:   paging.DefaultPageSize,
			MaxPageSize:       paging.MaxPageSize,
			SnapshotRetention: paging.DefaultRetention,
		},
		Ordering: OrderingConfig{MaxAttempts: 3, AutoRebalance: true},
		Logging:  LoggingConfig{Level: "info", Format: "console"},
		Output:   OutputConfig{DefaultFormat: FormatTable},
	}
}

// Load builds the configuration from defaults, the YAML file at path and RANKLINE_*
// environment overrides, in that order. An empty path resolves through ResolvePath;
// a missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := New()

	if path == "" {
		var err error
		if path, err = ResolvePath(); err != nil {
			return nil, err
		}
	}
	if err := cfg.mergeFile(path); err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ResolvePath returns $RANKLINE_CONFIG, or config.yaml in the config directory.
func ResolvePath() (string, error) {
	if p := os.Getenv(EnvPrefix + "CONFIG"); p != "" {
		return p, nil
	}
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading config file %s: %w", path, err)
	}
	if err = yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overlays RANKLINE_* environment variables, for example RANKLINE_DB_DSN or
// RANKLINE_PAGING_SNAPSHOT_RETENTION=5m. Unset variables leave fields unchanged.
func (c *Config) ApplyEnv() error {
	if err := env.ParseWithOptions(c, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Validate rejects values the rest of the program cannot honour.
func (c *Config) Validate() error {
	var errs []error

	switch strings.ToLower(c.Database.Driver) {
	case "sqlite", "postgres":
	default:
		errs = append(errs, fmt.Errorf("database.driver must be sqlite or postgres, got %q", c.Database.Driver))
	}
	if strings.TrimSpace(c.Database.DSN) == "" {
		errs = append(errs, errors.New("database.dsn is required"))
	}
	if c.Database.MaxOpenConns < 0 {
		errs = append(errs, fmt.Errorf("database.max_open_conns must not be negative, got %d", c.Database.MaxOpenConns))
	}

	p := c.Paging
	if p.MaxPageSize < paging.MinPageSize || p.MaxPageSize > paging.MaxPageSize {
		errs = append(errs, fmt.Errorf("paging.max_page_size must be between %d and %d, got %d",
			paging.MinPageSize, paging.MaxPageSize, p.MaxPageSize))
	}
	if p.DefaultPageSize < paging.MinPageSize || p.DefaultPageSize > p.MaxPageSize {
		errs = append(errs, fmt.Errorf("paging.default_page_size must be between %d and max_page_size, got %d",
			paging.MinPageSize, p.DefaultPageSize))
	}
	if p.SnapshotRetention <= 0 {
		errs = append(errs, fmt.Errorf("paging.snapshot_retention must be positive, got %s", p.SnapshotRetention))
	}

	if c.Ordering.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("ordering.max_attempts must be at least 1, got %d", c.Ordering.MaxAttempts))
	}
	if err := c.Logging.Validate(); err != nil {
		errs = append(errs, err)
	}
	switch c.Output.DefaultFormat {
	case FormatTable, FormatJSON:
	default:
		errs = append(errs, fmt.Errorf("output.default_format must be table or json, got %q", c.Output.DefaultFormat))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// Save writes the configuration as YAML to path, creating its directory.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err = os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config file %s: %w", path, err)
	}
	return nil
}
