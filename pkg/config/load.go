package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of every environment variable override.
const EnvPrefix = "FUNDWATCH_"

// LoadConfig loads configuration from a YAML file at the specified path.
// Fields absent from the file keep their defaults. The configuration is
// validated but not modified by environment variables; use
// LoadConfigWithEnvOverrides for that.
func LoadConfig(path string) (*Config, error) {
	// Read the file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	// Parse YAML over the defaults
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	// Fill anything the file zeroed
	ApplyDefaults(cfg)

	// Validate
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Environment variables follow the naming
// convention FUNDWATCH_SECTION_FIELD (e.g., FUNDWATCH_SERVER_LISTEN_ADDRESS).
// Environment variables always take precedence over file-based configuration.
//
// An empty path skips the file and starts from the defaults.
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	var cfg *Config
	if path == "" {
		cfg = Default()
	} else {
		var err error
		if cfg, err = LoadConfig(path); err != nil {
			return nil, err
		}
	}

	// Apply environment variable overrides
	applyEnvOverrides(cfg)

	// Re-validate after overrides
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Malformed values are ignored and the file value is kept.
func applyEnvOverrides(cfg *Config) {
	// Server overrides
	envString("SERVER_LISTEN_ADDRESS", &cfg.Server.ListenAddress)
	envDuration("SERVER_READ_TIMEOUT", &cfg.Server.ReadTimeout)
	envDuration("SERVER_WRITE_TIMEOUT", &cfg.Server.WriteTimeout)
	envDuration("SERVER_REQUEST_TIMEOUT", &cfg.Server.RequestTimeout)
	envDuration("SERVER_SHUTDOWN_TIMEOUT", &cfg.Server.ShutdownTimeout)
	envString("SERVER_CLIENT_ID_HEADER", &cfg.Server.ClientIDHeader)
	envBool("SERVER_TRUST_FORWARDED_FOR", &cfg.Server.TrustForwardedFor)
	if val := os.Getenv(EnvPrefix + "SERVER_CORS_ALLOWED_ORIGINS"); val != "" {
		cfg.Server.CORS.AllowedOrigins = splitList(val)
	}

	// Limits overrides
	envBool("LIMITS_ENABLED", &cfg.Limits.Enabled)
	envInt("LIMITS_BACKEND_DAILY_QUERIES", &cfg.Limits.Backend.DailyQueries)
	envInt("LIMITS_BACKEND_MAX_IN_FLIGHT", &cfg.Limits.Backend.MaxInFlight)

	// Cache overrides
	envDuration("CACHE_DEFAULT_TTL", &cfg.Cache.DefaultTTL)
	envDuration("CACHE_DEGRADED_TTL", &cfg.Cache.DegradedTTL)
	envInt("CACHE_MAX_ENTRIES", &cfg.Cache.MaxEntries)
	envBool("CACHE_REDIS_ENABLED", &cfg.Cache.Redis.Enabled)
	envString("CACHE_REDIS_ADDRESS", &cfg.Cache.Redis.Address)
	envString("CACHE_REDIS_PASSWORD", &cfg.Cache.Redis.Password)
	envInt("CACHE_REDIS_DB", &cfg.Cache.Redis.DB)
	envInt("CACHE_REDIS_DAILY_BUDGET", &cfg.Cache.Redis.DailyBudget)

	// Snapshot overrides
	envString("SNAPSHOT_BACKEND", &cfg.Snapshot.Backend)
	envString("SNAPSHOT_DIR", &cfg.Snapshot.Dir)
	envString("SNAPSHOT_SQLITE_PATH", &cfg.Snapshot.SQLitePath)
	envString("SNAPSHOT_SCHEDULE", &cfg.Snapshot.Schedule)
	envBool("SNAPSHOT_WATCH", &cfg.Snapshot.Watch)
	envBool("SNAPSHOT_GENERATE_ON_START", &cfg.Snapshot.GenerateOnStart)

	// Database overrides
	envString("DATABASE_PATH", &cfg.Database.Path)

	// Telemetry overrides
	envString("TELEMETRY_LOGGING_LEVEL", &cfg.Telemetry.Logging.Level)
	envString("TELEMETRY_LOGGING_FORMAT", &cfg.Telemetry.Logging.Format)
	envBool("TELEMETRY_METRICS_ENABLED", &cfg.Telemetry.Metrics.Enabled)
	envBool("TELEMETRY_TRACING_ENABLED", &cfg.Telemetry.Tracing.Enabled)
	envString("TELEMETRY_TRACING_ENDPOINT", &cfg.Telemetry.Tracing.Endpoint)
	if val := os.Getenv(EnvPrefix + "TELEMETRY_TRACING_SAMPLE_RATIO"); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Telemetry.Tracing.SampleRatio = f
		}
	}
}

func envString(name string, dst *string) {
	if val := os.Getenv(EnvPrefix + name); val != "" {
		*dst = val
	}
}

func envDuration(name string, dst *time.Duration) {
	if val := os.Getenv(EnvPrefix + name); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			*dst = d
		}
	}
}

func envInt(name string, dst *int) {
	if val := os.Getenv(EnvPrefix + name); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			*dst = n
		}
	}
}

func envBool(name string, dst *bool) {
	if val := os.Getenv(EnvPrefix + name); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			*dst = b
		}
	}
}

func splitList(val string) []string {
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
