package config

import (
	"fmt"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for skein-engine. Values come from a YAML
// file (config.yaml) with environment variable overrides; secrets only come
// from the environment.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8731"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version  string `yaml:"-"` // set at load time, not from config

	// Datasource configuration
	Datasource DatasourceConfig `yaml:"datasource"`

	// Query limit configuration
	Query QueryConfig `yaml:"query"`
}

// DatasourceConfig identifies the analytical database the engine reads.
type DatasourceConfig struct {
	// Type selects the adapter: "duckdb" (embedded) or "postgres".
	Type string `yaml:"type" env:"DATASOURCE_TYPE" env-default:"duckdb"`

	// Path is the database file for the embedded adapter. Empty means an
	// in-memory database.
	Path string `yaml:"path" env:"DATABASE_PATH" env-default:""`

	// ConnString is the connection URL for server datasources.
	ConnString string `yaml:"-" env:"DATABASE_URL"` // may carry credentials - not in YAML

	// Catalog optionally prefixes every compiled table reference
	// (catalog."schema"."table").
	Catalog string `yaml:"catalog" env:"DATASOURCE_CATALOG" env-default:""`
}

// QueryConfig holds row and value caps applied to generated queries.
type QueryConfig struct {
	// RowLimit is the default LIMIT for table data queries.
	RowLimit int `yaml:"row_limit" env:"QUERY_ROW_LIMIT" env-default:"100"`

	// ValueLimit caps distinct-value queries and stats row counting.
	ValueLimit int `yaml:"value_limit" env:"QUERY_VALUE_LIMIT" env-default:"10000"`

	// StateWorkers bounds concurrent per-field state computations.
	StateWorkers int `yaml:"state_workers" env:"QUERY_STATE_WORKERS" env-default:"4"`
}

// Load reads configuration from config.yaml (when present) and the
// environment, validates it, and stamps the build version.
func Load(version string) (*Config, error) {
	cfg := &Config{Version: version}

	if _, err := os.Stat("config.yaml"); err == nil {
		if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
			return nil, fmt.Errorf("read config.yaml: %w", err)
		}
	} else {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("read environment: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Datasource.Type {
	case "duckdb":
	case "postgres":
		if c.Datasource.ConnString == "" {
			return fmt.Errorf("postgres datasource requires DATABASE_URL")
		}
	default:
		return fmt.Errorf("unknown datasource type %q", c.Datasource.Type)
	}

	if c.Query.RowLimit <= 0 {
		return fmt.Errorf("query row_limit must be positive, got %d", c.Query.RowLimit)
	}
	if c.Query.ValueLimit <= 0 {
		return fmt.Errorf("query value_limit must be positive, got %d", c.Query.ValueLimit)
	}
	if c.Query.StateWorkers <= 0 {
		return fmt.Errorf("query state_workers must be positive, got %d", c.Query.StateWorkers)
	}
	return nil
}
