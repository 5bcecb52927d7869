// Package config loads the process-wide studyplan configuration.
//
// Configuration precedence (highest to lowest):
//  1. STUDYPLAN_* environment variables (STUDYPLAN_SERVER_ADDR -> server.addr)
//  2. Legacy variables GEMINI_API_KEY and DATABASE_URL
//  3. YAML config file, when a path is given
//  4. Hardcoded defaults
//
// The returned *Config is built once at startup and never mutated afterwards.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "STUDYPLAN_"

// Store drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverNeo4j    = "neo4j"
)

// Config is the root configuration.
type Config struct {
	Server ServerConfig `koanf:"server"`
	Store  StoreConfig  `koanf:"store"`
	Gemini GeminiConfig `koanf:"gemini"`
	Client ClientConfig `koanf:"client"`
	Log    LogConfig    `koanf:"log"`
	Export ExportConfig `koanf:"export"`
}

// ServerConfig configures the task API server.
type ServerConfig struct {
	Addr            string        `koanf:"addr"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// StoreConfig selects and configures the task repository.
type StoreConfig struct {
	Driver        string `koanf:"driver"`
	DSN           string `koanf:"dsn"`
	Neo4jURI      string `koanf:"neo4j_uri"`
	Neo4jUser     string `koanf:"neo4j_user"`
	Neo4jPassword string `koanf:"neo4j_password"`
}

// GeminiConfig configures the plan generator.
type GeminiConfig struct {
	APIKey    string        `koanf:"api_key"`
	Model     string        `koanf:"model"`
	Timeout   time.Duration `koanf:"timeout"`
	RateLimit float64       `koanf:"rate_limit"`
	Burst     int           `koanf:"burst"`
}

// ClientConfig configures the frontend's task API client.
type ClientConfig struct {
	BaseURL string        `koanf:"base_url"`
	Timeout time.Duration `koanf:"timeout"`
}

// LogConfig configures zap.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// ExportConfig configures text and PDF export.
type ExportConfig struct {
	Width        int    `koanf:"width"`
	LinesPerPage int    `koanf:"lines_per_page"`
	Title        string `koanf:"title"`
}

// Load reads configPath (optional) and the environment into a validated Config.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if configPath != "" {
		content, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", legacyKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load legacy environment variables: %w", err)
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	// An explicit rate_limit of 0 turns the limiter off.
	if !k.Exists("gemini.rate_limit") {
		cfg.Gemini.RateLimit = 1
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// envKey maps STUDYPLAN_SECTION_FIELD_NAME to section.field_name.
func envKey(s string) string {
	lower := strings.ToLower(strings.TrimPrefix(s, envPrefix))
	parts := strings.SplitN(lower, "_", 2)
	if len(parts) == 1 {
		return lower
	}
	return parts[0] + "." + parts[1]
}

// legacyKey maps the unprefixed GEMINI_API_KEY and DATABASE_URL variables.
func legacyKey(s string) string {
	switch s {
	case "GEMINI_API_KEY":
		return "gemini.api_key"
	case "DATABASE_URL":
		return "store.dsn"
	}
	return ""
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":5000"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 10 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 10 * time.Second
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 5 * time.Second
	}

	if cfg.Store.Driver == "" {
		if isPostgresDSN(cfg.Store.DSN) {
			cfg.Store.Driver = DriverPostgres
		} else {
			cfg.Store.Driver = DriverSQLite
		}
	}
	if cfg.Store.Driver == DriverSQLite && cfg.Store.DSN == "" {
		cfg.Store.DSN = "studyplan.db"
	}
	if cfg.Store.Neo4jURI == "" {
		cfg.Store.Neo4jURI = "neo4j://localhost:7687"
	}
	if cfg.Store.Neo4jUser == "" {
		cfg.Store.Neo4jUser = "neo4j"
	}

	if cfg.Gemini.Model == "" {
		cfg.Gemini.Model = "gemini-1.5-flash"
	}
	if cfg.Gemini.Timeout == 0 {
		cfg.Gemini.Timeout = 60 * time.Second
	}
	if cfg.Gemini.Burst == 0 {
		cfg.Gemini.Burst = 1
	}

	if cfg.Client.BaseURL == "" {
		cfg.Client.BaseURL = "http://127.0.0.1:5000"
	}
	if cfg.Client.Timeout == 0 {
		cfg.Client.Timeout = 10 * time.Second
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}

	if cfg.Export.Width == 0 {
		cfg.Export.Width = 90
	}
	if cfg.Export.LinesPerPage == 0 {
		cfg.Export.LinesPerPage = 40
	}
	if cfg.Export.Title == "" {
		cfg.Export.Title = "AI Study Planner - Task List"
	}
}

func isPostgresDSN(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

// Validate checks the configuration for values that cannot work.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case DriverSQLite, DriverPostgres:
		if c.Store.DSN == "" {
			return fmt.Errorf("store.dsn is required for driver %q", c.Store.Driver)
		}
	case DriverNeo4j:
		if c.Store.Neo4jURI == "" {
			return fmt.Errorf("store.neo4j_uri is required for driver %q", c.Store.Driver)
		}
	default:
		return fmt.Errorf("unknown store.driver %q", c.Store.Driver)
	}

	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("log.format must be json or console, got %q", c.Log.Format)
	}

	if c.Gemini.RateLimit < 0 || c.Gemini.Burst < 0 {
		return fmt.Errorf("gemini.rate_limit and gemini.burst must not be negative")
	}
	if c.Export.Width < 10 {
		return fmt.Errorf("export.width must be at least 10, got %d", c.Export.Width)
	}
	if c.Export.LinesPerPage < 1 {
		return fmt.Errorf("export.lines_per_page must be positive, got %d", c.Export.LinesPerPage)
	}
	return nil
}
