package config

import (
	"fmt"
	"net"
	"strings"

	"github.com/robfig/cron/v3"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "server.listen_address").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
// It implements the error interface and provides access to all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. It returns nil if the configuration is valid.
// All validation errors are collected and returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateServer(&cfg.Server)...)
	errs = append(errs, validateLimits(&cfg.Limits)...)
	errs = append(errs, validateCache(&cfg.Cache)...)
	errs = append(errs, validateSnapshot(&cfg.Snapshot)...)
	errs = append(errs, validateDatabase(&cfg.Database)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

func validateServer(s *ServerConfig) []FieldError {
	var errs []FieldError

	if s.ListenAddress == "" {
		errs = append(errs, FieldError{Field: "server.listen_address", Message: "must not be empty"})
	} else if _, _, err := net.SplitHostPort(s.ListenAddress); err != nil {
		errs = append(errs, FieldError{Field: "server.listen_address", Message: fmt.Sprintf("invalid address: %v", err)})
	}
	if s.ReadTimeout < 0 {
		errs = append(errs, FieldError{Field: "server.read_timeout", Message: "must not be negative"})
	}
	if s.WriteTimeout < 0 {
		errs = append(errs, FieldError{Field: "server.write_timeout", Message: "must not be negative"})
	}
	if s.RequestTimeout < 0 {
		errs = append(errs, FieldError{Field: "server.request_timeout", Message: "must not be negative"})
	}
	if s.MaxHeaderBytes < 0 {
		errs = append(errs, FieldError{Field: "server.max_header_bytes", Message: "must not be negative"})
	}
	if s.StaticPath != "" && !strings.HasPrefix(s.StaticPath, "/") {
		errs = append(errs, FieldError{Field: "server.static_path", Message: "must start with /"})
	}
	if s.CORS.MaxAge < 0 {
		errs = append(errs, FieldError{Field: "server.cors.max_age", Message: "must not be negative"})
	}

	return errs
}

func validateLimits(l *LimitsConfig) []FieldError {
	var errs []FieldError

	seen := make(map[string]bool, len(l.Tiers))
	for i, t := range l.Tiers {
		field := fmt.Sprintf("limits.tiers[%d]", i)
		if t.Name == "" {
			errs = append(errs, FieldError{Field: field + ".name", Message: "must not be empty"})
		} else if seen[t.Name] {
			errs = append(errs, FieldError{Field: field + ".name", Message: fmt.Sprintf("duplicate tier %q", t.Name)})
		}
		seen[t.Name] = true
		if t.Window <= 0 {
			errs = append(errs, FieldError{Field: field + ".window", Message: "must be positive"})
		}
		if t.Max <= 0 {
			errs = append(errs, FieldError{Field: field + ".max", Message: "must be positive"})
		}
	}
	if l.Buckets < 0 {
		errs = append(errs, FieldError{Field: "limits.buckets", Message: "must not be negative"})
	}
	if l.Shards < 0 {
		errs = append(errs, FieldError{Field: "limits.shards", Message: "must not be negative"})
	}
	if l.Backend.DailyQueries < 0 {
		errs = append(errs, FieldError{Field: "limits.backend.daily_queries", Message: "must not be negative"})
	}
	if l.Backend.MaxInFlight < 0 {
		errs = append(errs, FieldError{Field: "limits.backend.max_in_flight", Message: "must not be negative"})
	}

	return errs
}

func validateCache(c *CacheConfig) []FieldError {
	var errs []FieldError

	if c.DefaultTTL < 0 {
		errs = append(errs, FieldError{Field: "cache.default_ttl", Message: "must not be negative"})
	}
	if c.DegradedTTL < 0 {
		errs = append(errs, FieldError{Field: "cache.degraded_ttl", Message: "must not be negative"})
	}
	if c.MaxEntries < 0 {
		errs = append(errs, FieldError{Field: "cache.max_entries", Message: "must not be negative"})
	}
	if c.Redis.Enabled && c.Redis.Address == "" {
		errs = append(errs, FieldError{Field: "cache.redis.address", Message: "required when redis is enabled"})
	}
	if c.Redis.DailyBudget < 0 {
		errs = append(errs, FieldError{Field: "cache.redis.daily_budget", Message: "must not be negative"})
	}
	if c.Redis.OpsPerSecond < 0 {
		errs = append(errs, FieldError{Field: "cache.redis.ops_per_second", Message: "must not be negative"})
	}

	return errs
}

func validateSnapshot(s *SnapshotConfig) []FieldError {
	var errs []FieldError

	switch s.Backend {
	case "file":
		if s.Dir == "" {
			errs = append(errs, FieldError{Field: "snapshot.dir", Message: "required for file backend"})
		}
	case "sqlite":
		if s.SQLitePath == "" {
			errs = append(errs, FieldError{Field: "snapshot.sqlite_path", Message: "required for sqlite backend"})
		}
	default:
		errs = append(errs, FieldError{Field: "snapshot.backend", Message: fmt.Sprintf("must be \"file\" or \"sqlite\", got %q", s.Backend)})
	}
	if s.Schedule != "" {
		if _, err := cron.ParseStandard(s.Schedule); err != nil {
			errs = append(errs, FieldError{Field: "snapshot.schedule", Message: fmt.Sprintf("invalid cron expression: %v", err)})
		}
	}
	for i, n := range s.TopSizes {
		if n <= 0 {
			errs = append(errs, FieldError{Field: fmt.Sprintf("snapshot.top_sizes[%d]", i), Message: "must be positive"})
		}
	}

	return errs
}

func validateDatabase(d *DatabaseConfig) []FieldError {
	var errs []FieldError

	if d.Path == "" {
		errs = append(errs, FieldError{Field: "database.path", Message: "must not be empty"})
	}
	if d.MaxOpenConns < 0 {
		errs = append(errs, FieldError{Field: "database.max_open_conns", Message: "must not be negative"})
	}
	if d.MaxIdleConns < 0 {
		errs = append(errs, FieldError{Field: "database.max_idle_conns", Message: "must not be negative"})
	}

	return errs
}

func validateTelemetry(t *TelemetryConfig) []FieldError {
	var errs []FieldError

	switch strings.ToLower(t.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, FieldError{Field: "telemetry.logging.level", Message: fmt.Sprintf("must be one of debug, info, warn, error, got %q", t.Logging.Level)})
	}
	switch t.Logging.Format {
	case "json", "text", "console":
	default:
		errs = append(errs, FieldError{Field: "telemetry.logging.format", Message: fmt.Sprintf("must be one of json, text, console, got %q", t.Logging.Format)})
	}

	if t.Metrics.Enabled && !strings.HasPrefix(t.Metrics.Path, "/") {
		errs = append(errs, FieldError{Field: "telemetry.metrics.path", Message: "must start with /"})
	}

	if t.Tracing.Enabled {
		switch t.Tracing.Sampler {
		case "always", "never", "ratio":
		default:
			errs = append(errs, FieldError{Field: "telemetry.tracing.sampler", Message: fmt.Sprintf("must be one of always, never, ratio, got %q", t.Tracing.Sampler)})
		}
		if t.Tracing.Exporter != "otlp" {
			errs = append(errs, FieldError{Field: "telemetry.tracing.exporter", Message: fmt.Sprintf("must be \"otlp\", got %q", t.Tracing.Exporter)})
		}
		if t.Tracing.Endpoint == "" {
			errs = append(errs, FieldError{Field: "telemetry.tracing.endpoint", Message: "required when tracing is enabled"})
		}
	}
	if t.Tracing.SampleRatio < 0 || t.Tracing.SampleRatio > 1 {
		errs = append(errs, FieldError{Field: "telemetry.tracing.sample_ratio", Message: "must be between 0 and 1"})
	}

	if t.Health.Enabled {
		if !strings.HasPrefix(t.Health.LivenessPath, "/") {
			errs = append(errs, FieldError{Field: "telemetry.health.liveness_path", Message: "must start with /"})
		}
		if !strings.HasPrefix(t.Health.ReadinessPath, "/") {
			errs = append(errs, FieldError{Field: "telemetry.health.readiness_path", Message: "must start with /"})
		}
	}

	return errs
}
