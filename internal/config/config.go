/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Database backend selection.
type DatabaseBackend string

const (
	DatabasePostgres DatabaseBackend = "postgres"
	DatabaseMySQL    DatabaseBackend = "mysql"
	DatabaseSQLite   DatabaseBackend = "sqlite"
)

// Config covers process level configuration. Values come from an optional YAML
// file named by ICALTODAY_CONFIG and are overridden by environment variables.
type Config struct {
	Environment string          `yaml:"environment"`
	LogLevel    string          `yaml:"log_level"`
	HTTPBind    string          `yaml:"http_bind"`
	HTTPPort    int             `yaml:"http_port"`
	DBBackend   DatabaseBackend `yaml:"db_backend"`
	DBDSN       string          `yaml:"db_dsn"`

	// Timezone used for civil dates and daily clock ranges. Empty means the host zone.
	Timezone string         `yaml:"timezone"`
	Location *time.Location `yaml:"-"`

	// Tracing configuration
	TracingEnabled    bool    `yaml:"tracing_enabled"`
	OTLPEndpoint      string  `yaml:"otlp_endpoint"`
	TracingSampleRate float64 `yaml:"tracing_sample_rate"`

	// Availability cache
	CacheEnabled  bool          `yaml:"cache_enabled"`
	RedisAddr     string        `yaml:"redis_addr"`
	RedisPassword string        `yaml:"redis_password"`
	RedisDB       int           `yaml:"redis_db"`
	CacheTTL      time.Duration `yaml:"cache_ttl"`

	// Event bus used to tell other nodes about imports: memory, redis or nats
	EventBus  string `yaml:"event_bus"`
	NATSURL   string `yaml:"nats_url"`
	NATSToken string `yaml:"nats_token"`

	// S3-compatible object storage for s3:// import sources
	S3Region          string `yaml:"s3_region"`
	S3Endpoint        string `yaml:"s3_endpoint"`
	S3AccessKeyID     string `yaml:"s3_access_key_id"`
	S3SecretAccessKey string `yaml:"s3_secret_access_key"`
	S3UsePathStyle    bool   `yaml:"s3_use_path_style"`

	// Defaults applied to every availability request
	ExcludeCalendars []string `yaml:"exclude_calendars"`
	ExcludeAllDay    bool     `yaml:"exclude_all_day"`
}

func defaults() *Config {
	return &Config{
		Environment:       "production",
		HTTPBind:          "127.0.0.1",
		HTTPPort:          8080,
		DBBackend:         DatabaseSQLite,
		OTLPEndpoint:      "localhost:4317",
		TracingSampleRate: 1.0,
		RedisAddr:         "localhost:6379",
		CacheTTL:          5 * time.Minute,
		EventBus:          "memory",
		NATSURL:           "nats://127.0.0.1:4222",
	}
}

// Load reads the config file (if any) and environment variables, applies
// defaults, and validates the result.
func Load() (*Config, error) {
	cfg := defaults()

	if path := getEnvAny([]string{"ICALTODAY_CONFIG"}, ""); path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	cfg.Environment = getEnvAny([]string{"ICALTODAY_ENV", "ICALTODAY_ENVIRONMENT"}, cfg.Environment)
	cfg.LogLevel = getEnvAny([]string{"ICALTODAY_LOG_LEVEL"}, cfg.LogLevel)
	cfg.HTTPBind = getEnvAny([]string{"ICALTODAY_HTTP_BIND"}, cfg.HTTPBind)
	cfg.HTTPPort = getEnvIntAny([]string{"ICALTODAY_HTTP_PORT", "PORT"}, cfg.HTTPPort)
	cfg.DBBackend = DatabaseBackend(getEnvAny([]string{"ICALTODAY_DB_BACKEND"}, string(cfg.DBBackend)))
	cfg.DBDSN = getEnvAny([]string{"ICALTODAY_DB_DSN", "DATABASE_URL"}, cfg.DBDSN)
	cfg.Timezone = getEnvAny([]string{"ICALTODAY_TIMEZONE", "TZ"}, cfg.Timezone)

	cfg.TracingEnabled = getEnvBoolAny([]string{"ICALTODAY_TRACING_ENABLED"}, cfg.TracingEnabled)
	cfg.OTLPEndpoint = getEnvAny([]string{"ICALTODAY_OTLP_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT"}, cfg.OTLPEndpoint)
	cfg.TracingSampleRate = getEnvFloatAny([]string{"ICALTODAY_TRACING_SAMPLE_RATE"}, cfg.TracingSampleRate)

	cfg.CacheEnabled = getEnvBoolAny([]string{"ICALTODAY_CACHE_ENABLED"}, cfg.CacheEnabled)
	cfg.RedisAddr = getEnvAny([]string{"ICALTODAY_REDIS_ADDR", "REDIS_ADDR"}, cfg.RedisAddr)
	cfg.RedisPassword = getEnvAny([]string{"ICALTODAY_REDIS_PASSWORD", "REDIS_PASSWORD"}, cfg.RedisPassword)
	cfg.RedisDB = getEnvIntAny([]string{"ICALTODAY_REDIS_DB"}, cfg.RedisDB)
	cfg.CacheTTL = getEnvDurationAny([]string{"ICALTODAY_CACHE_TTL"}, cfg.CacheTTL)

	cfg.EventBus = getEnvAny([]string{"ICALTODAY_EVENT_BUS"}, cfg.EventBus)
	cfg.NATSURL = getEnvAny([]string{"ICALTODAY_NATS_URL", "NATS_URL"}, cfg.NATSURL)
	cfg.NATSToken = getEnvAny([]string{"ICALTODAY_NATS_TOKEN"}, cfg.NATSToken)

	cfg.S3Region = getEnvAny([]string{"ICALTODAY_S3_REGION", "AWS_REGION"}, cfg.S3Region)
	cfg.S3Endpoint = getEnvAny([]string{"ICALTODAY_S3_ENDPOINT"}, cfg.S3Endpoint)
	cfg.S3AccessKeyID = getEnvAny([]string{"ICALTODAY_S3_ACCESS_KEY_ID", "AWS_ACCESS_KEY_ID"}, cfg.S3AccessKeyID)
	cfg.S3SecretAccessKey = getEnvAny([]string{"ICALTODAY_S3_SECRET_ACCESS_KEY", "AWS_SECRET_ACCESS_KEY"}, cfg.S3SecretAccessKey)
	cfg.S3UsePathStyle = getEnvBoolAny([]string{"ICALTODAY_S3_USE_PATH_STYLE"}, cfg.S3UsePathStyle)

	cfg.ExcludeCalendars = getEnvListAny([]string{"ICALTODAY_EXCLUDE_CALENDARS"}, cfg.ExcludeCalendars)
	cfg.ExcludeAllDay = getEnvBoolAny([]string{"ICALTODAY_EXCLUDE_ALL_DAY"}, cfg.ExcludeAllDay)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) validate() error {
	if c.DBBackend != DatabasePostgres && c.DBBackend != DatabaseMySQL && c.DBBackend != DatabaseSQLite {
		return fmt.Errorf("unsupported database backend %q", c.DBBackend)
	}

	if c.DBDSN == "" {
		if c.DBBackend != DatabaseSQLite {
			return fmt.Errorf("ICALTODAY_DB_DSN must be provided for backend %s", c.DBBackend)
		}
		c.DBDSN = DefaultSQLitePath()
	}

	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port %d", c.HTTPPort)
	}

	if c.TracingSampleRate < 0 || c.TracingSampleRate > 1 {
		return fmt.Errorf("tracing sample rate %v out of range [0, 1]", c.TracingSampleRate)
	}

	switch c.EventBus {
	case "memory", "redis", "nats":
	default:
		return fmt.Errorf("unsupported event bus %q", c.EventBus)
	}

	loc, err := loadLocation(c.Timezone)
	if err != nil {
		return err
	}
	c.Location = loc
	return nil
}

func loadLocation(name string) (*time.Location, error) {
	// TZ may carry the POSIX ":Area/City" form.
	name = strings.TrimPrefix(strings.TrimSpace(name), ":")
	if name == "" || strings.EqualFold(name, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", name, err)
	}
	return loc, nil
}

// DefaultSQLitePath is the calendar store used when no DSN is configured.
func DefaultSQLitePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "icaltoday.db"
	}
	return filepath.Join(dir, "icaltoday", "icaltoday.db")
}

// getEnvAny returns the first non-empty environment variable value from keys, or def if none set.
func getEnvAny(keys []string, def string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return def
}

// getEnvIntAny returns the first set integer environment variable value from keys, or def.
func getEnvIntAny(keys []string, def int) int {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			if parsed, err := strconv.Atoi(v); err == nil {
				return parsed
			}
		}
	}
	return def
}

// getEnvBoolAny returns the first set boolean environment variable value from keys, or def.
func getEnvBoolAny(keys []string, def bool) bool {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			v = strings.ToLower(strings.TrimSpace(v))
			if v == "true" || v == "1" || v == "yes" {
				return true
			}
			if v == "false" || v == "0" || v == "no" {
				return false
			}
		}
	}
	return def
}

// getEnvFloatAny returns the first set float environment variable value from keys, or def.
func getEnvFloatAny(keys []string, def float64) float64 {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			if parsed, err := strconv.ParseFloat(v, 64); err == nil {
				return parsed
			}
		}
	}
	return def
}

func getEnvDurationAny(keys []string, def time.Duration) time.Duration {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			if parsed, err := time.ParseDuration(v); err == nil {
				return parsed
			}
		}
	}
	return def
}

// getEnvListAny splits the first set variable on commas, dropping blanks.
func getEnvListAny(keys []string, def []string) []string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			var out []string
			for _, part := range strings.Split(v, ",") {
				if part = strings.TrimSpace(part); part != "" {
					out = append(out, part)
				}
			}
			return out
		}
	}
	return def
}
