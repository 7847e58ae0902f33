// Package config provides unified configuration loading for wingman.
// It supports loading from YAML files and environment variables.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// WingmanConfig contains all wingman configuration settings.
type WingmanConfig struct {
	Rules     RulesConfig     `json:"rules" yaml:"rules"`
	Logging   LoggingConfig   `json:"logging" yaml:"logging"`
	Server    ServerConfig    `json:"server" yaml:"server"`
	RateLimit RateLimitConfig `json:"ratelimit" yaml:"ratelimit"`
	Store     StoreConfig     `json:"store" yaml:"store"`
	Events    EventsConfig    `json:"events" yaml:"events"`
}

// RulesConfig selects the rulebook.
type RulesConfig struct {
	// Path to a rulebook YAML file. Empty uses the embedded default rules.
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
}

// LoggingConfig configures operational and decision logging.
type LoggingConfig struct {
	// Level is "info" (default), "debug", "trace", "warn" or "error".
	// "debug" and "trace" enable the decisions.jsonl analysis trace.
	Level string `json:"level" yaml:"level"`

	// Format is "text" (default) or "json".
	Format string `json:"format" yaml:"format"`

	// Dir holds decisions.jsonl and the MCP audit log. Defaults to ~/.wingman.
	Dir string `json:"dir,omitempty" yaml:"dir,omitempty"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr            string        `json:"addr" yaml:"addr"`
	ReadTimeout     time.Duration `json:"read_timeout" yaml:"read_timeout"`
	WriteTimeout    time.Duration `json:"write_timeout" yaml:"write_timeout"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// RateLimitConfig configures per-caller request limits.
type RateLimitConfig struct {
	// Backend is "memory" (token bucket per key) or "redis" (shared fixed window).
	Backend string `json:"backend" yaml:"backend"`

	// RequestsPerMinute is the sustained allowance per caller. 0 disables limiting.
	RequestsPerMinute int `json:"requests_per_minute" yaml:"requests_per_minute"`

	// Burst is the token bucket capacity for the memory backend.
	Burst int `json:"burst" yaml:"burst"`

	RedisAddr     string `json:"redis_addr,omitempty" yaml:"redis_addr,omitempty"`
	RedisPassword string `json:"redis_password,omitempty" yaml:"redis_password,omitempty"`
	RedisDB       int    `json:"redis_db,omitempty" yaml:"redis_db,omitempty"`
}

// StoreConfig configures analysis history persistence.
type StoreConfig struct {
	// Driver is "sqlite" (default), "postgres", "memory" or "none".
	Driver string `json:"driver" yaml:"driver"`

	// DSN is the sqlite file path or the postgres connection string.
	// Supports ${VAR} syntax for env vars.
	DSN string `json:"dsn,omitempty" yaml:"dsn,omitempty"`
}

// EventsConfig configures analysis event publishing.
type EventsConfig struct {
	// NATSURL enables publishing when set.
	NATSURL string `json:"nats_url,omitempty" yaml:"nats_url,omitempty"`

	// SubjectPrefix prefixes every published subject.
	SubjectPrefix string `json:"subject_prefix" yaml:"subject_prefix"`
}

// RedactedDSN hides any password embedded in the store DSN.
func (c StoreConfig) RedactedDSN() string {
	return redactURL(c.DSN)
}

// String implements fmt.Stringer to keep credentials out of logs.
func (c StoreConfig) String() string {
	return fmt.Sprintf("StoreConfig{Driver:%s, DSN:%s}", c.Driver, c.RedactedDSN())
}

func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), "xxxxx")
	}
	return u.String()
}

// Default returns a WingmanConfig with sensible defaults.
func Default() *WingmanConfig {
	return &WingmanConfig{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		RateLimit: RateLimitConfig{
			Backend:           "memory",
			RequestsPerMinute: 30,
			Burst:             10,
		},
		Store: StoreConfig{
			Driver: "sqlite",
		},
		Events: EventsConfig{
			SubjectPrefix: "wingman",
		},
	}
}

// HomeDir returns ~/.wingman.
func HomeDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("finding home directory: %w", err)
	}
	return filepath.Join(home, ".wingman"), nil
}

// DefaultPath returns ~/.wingman/config.yaml.
func DefaultPath() (string, error) {
	dir, err := HomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load loads configuration from the default locations and environment variables.
// Order: defaults -> ~/.wingman/config.yaml -> environment variables
func Load() (*WingmanConfig, error) {
	path, err := DefaultPath()
	if err != nil {
		path = ""
	} else if _, statErr := os.Stat(path); statErr != nil {
		path = ""
	}
	return LoadFrom(path)
}

// LoadFrom is Load with an explicit config file. An empty path skips the
// file and starts from defaults.
func LoadFrom(path string) (*WingmanConfig, error) {
	config := Default()
	if path != "" {
		fileConfig, err := LoadFromFile(path)
		if err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
		config = fileConfig
	}

	applyEnvOverrides(config)
	config.fillPaths()

	return config, nil
}

// LoadFromFile loads configuration from a specific YAML file.
func LoadFromFile(path string) (*WingmanConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	config.Store.DSN = expandEnvVars(config.Store.DSN)
	config.RateLimit.RedisPassword = expandEnvVars(config.RateLimit.RedisPassword)
	config.Events.NATSURL = expandEnvVars(config.Events.NATSURL)

	return config, nil
}

// fillPaths resolves home-relative defaults.
func (c *WingmanConfig) fillPaths() {
	dir, err := HomeDir()
	if err != nil {
		return
	}
	if c.Logging.Dir == "" {
		c.Logging.Dir = dir
	}
	if c.Store.Driver == "sqlite" && c.Store.DSN == "" {
		c.Store.DSN = filepath.Join(dir, "history.db")
	}
}

// Validate checks that the configuration is valid.
func (c *WingmanConfig) Validate() error {
	validLevels := map[string]bool{"info": true, "debug": true, "trace": true, "warn": true, "error": true}
	if c.Logging.Level != "" && !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (valid: info, debug, trace, warn, error, or empty for default)", c.Logging.Level)
	}

	validFormats := map[string]bool{"": true, "text": true, "json": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("invalid log format: %s (valid: text, json)", c.Logging.Format)
	}

	if c.Server.ReadTimeout < 0 || c.Server.WriteTimeout < 0 || c.Server.ShutdownTimeout < 0 {
		return fmt.Errorf("server timeouts must be non-negative")
	}

	switch c.RateLimit.Backend {
	case "memory", "":
	case "redis":
		if c.RateLimit.RedisAddr == "" {
			return fmt.Errorf("ratelimit.redis_addr is required for the redis backend")
		}
	default:
		return fmt.Errorf("invalid ratelimit backend: %s (valid: memory, redis)", c.RateLimit.Backend)
	}
	if c.RateLimit.RequestsPerMinute < 0 {
		return fmt.Errorf("requests_per_minute must be non-negative, got %d", c.RateLimit.RequestsPerMinute)
	}
	if c.RateLimit.RequestsPerMinute > 0 && c.RateLimit.Burst < 1 {
		return fmt.Errorf("burst must be at least 1 when rate limiting is enabled, got %d", c.RateLimit.Burst)
	}

	switch c.Store.Driver {
	case "sqlite", "postgres":
		if c.Store.DSN == "" {
			return fmt.Errorf("store.dsn is required for the %s driver", c.Store.Driver)
		}
	case "memory", "none", "":
	default:
		return fmt.Errorf("invalid store driver: %s (valid: sqlite, postgres, memory, none)", c.Store.Driver)
	}

	return nil
}

// Get retrieves a configuration value by dot-notation key.
// Secrets are returned redacted.
func (c *WingmanConfig) Get(key string) (interface{}, bool) {
	switch key {
	case "rules.path":
		return c.Rules.Path, true
	case "logging.level":
		return c.Logging.Level, true
	case "logging.format":
		return c.Logging.Format, true
	case "logging.dir":
		return c.Logging.Dir, true
	case "server.addr":
		return c.Server.Addr, true
	case "server.read_timeout":
		return c.Server.ReadTimeout.String(), true
	case "server.write_timeout":
		return c.Server.WriteTimeout.String(), true
	case "server.shutdown_timeout":
		return c.Server.ShutdownTimeout.String(), true
	case "ratelimit.backend":
		return c.RateLimit.Backend, true
	case "ratelimit.requests_per_minute":
		return c.RateLimit.RequestsPerMinute, true
	case "ratelimit.burst":
		return c.RateLimit.Burst, true
	case "ratelimit.redis_addr":
		return c.RateLimit.RedisAddr, true
	case "store.driver":
		return c.Store.Driver, true
	case "store.dsn":
		return c.Store.RedactedDSN(), true
	case "events.nats_url":
		return redactURL(c.Events.NATSURL), true
	case "events.subject_prefix":
		return c.Events.SubjectPrefix, true
	default:
		return nil, false
	}
}

// Keys lists every key accepted by Get, in display order.
func Keys() []string {
	return []string{
		"rules.path",
		"logging.level",
		"logging.format",
		"logging.dir",
		"server.addr",
		"server.read_timeout",
		"server.write_timeout",
		"server.shutdown_timeout",
		"ratelimit.backend",
		"ratelimit.requests_per_minute",
		"ratelimit.burst",
		"ratelimit.redis_addr",
		"store.driver",
		"store.dsn",
		"events.nats_url",
		"events.subject_prefix",
	}
}

// Redacted returns a copy safe to print.
func (c *WingmanConfig) Redacted() WingmanConfig {
	out := *c
	out.Store.DSN = c.Store.RedactedDSN()
	out.Events.NATSURL = redactURL(c.Events.NATSURL)
	if out.RateLimit.RedisPassword != "" {
		out.RateLimit.RedisPassword = "(set)"
	}
	return out
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(config *WingmanConfig) {
	if v := os.Getenv("WINGMAN_RULES_PATH"); v != "" {
		config.Rules.Path = v
	}
	if v := os.Getenv("WINGMAN_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}
	if v := os.Getenv("WINGMAN_LOG_FORMAT"); v != "" {
		config.Logging.Format = v
	}
	if v := os.Getenv("WINGMAN_HTTP_ADDR"); v != "" {
		config.Server.Addr = v
	}
	if v := os.Getenv("WINGMAN_STORE_DRIVER"); v != "" {
		config.Store.Driver = v
	}
	if v := os.Getenv("WINGMAN_STORE_DSN"); v != "" {
		config.Store.DSN = v
	}
	if v := os.Getenv("WINGMAN_NATS_URL"); v != "" {
		config.Events.NATSURL = v
	}
	if v := os.Getenv("WINGMAN_REDIS_ADDR"); v != "" {
		config.RateLimit.RedisAddr = v
		config.RateLimit.Backend = "redis"
	}
	if v := os.Getenv("WINGMAN_RATE_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.RateLimit.RequestsPerMinute = n
		}
	}
}

// expandEnvVars expands ${VAR} patterns in a string with environment variable values.
func expandEnvVars(s string) string {
	if !strings.Contains(s, "${") {
		return s
	}
	return os.Expand(s, os.Getenv)
}
