package config

import (
	"strings"
	"testing"
	"time"
)

func TestValidate_ValidConfig(t *testing.T) {
	cfg := MinimalConfig()

	if err := Validate(cfg); err != nil {
		t.Errorf("expected valid config to pass validation, got error: %v", err)
	}
}

func TestValidate_MultipleErrors(t *testing.T) {
	cfg := &Config{}

	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected validation to fail")
	}

	validationErr, ok := err.(ValidationError)
	if !ok {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if len(validationErr.Errors) < 2 {
		t.Errorf("expected multiple errors, got %d", len(validationErr.Errors))
	}
	if !strings.Contains(validationErr.Error(), "validation failed with") {
		t.Errorf("error message should mention multiple errors: %s", validationErr.Error())
	}
}

func TestValidate_Fields(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(*Config)
		errorField string
	}{
		{
			name:       "listen address without port",
			mutate:     func(c *Config) { c.Server.ListenAddress = "localhost" },
			errorField: "server.listen_address",
		},
		{
			name:       "negative request timeout",
			mutate:     func(c *Config) { c.Server.RequestTimeout = -time.Second },
			errorField: "server.request_timeout",
		},
		{
			name:       "relative static path",
			mutate:     func(c *Config) { c.Server.StaticPath = "static" },
			errorField: "server.static_path",
		},
		{
			name: "duplicate tier",
			mutate: func(c *Config) {
				c.Limits.Tiers = []TierConfig{
					{Name: "minute", Window: time.Minute, Max: 1},
					{Name: "minute", Window: time.Hour, Max: 2},
				}
			},
			errorField: "limits.tiers[1].name",
		},
		{
			name: "zero tier window",
			mutate: func(c *Config) {
				c.Limits.Tiers = []TierConfig{{Name: "x", Max: 1}}
			},
			errorField: "limits.tiers[0].window",
		},
		{
			name:       "negative backend budget",
			mutate:     func(c *Config) { c.Limits.Backend.DailyQueries = -1 },
			errorField: "limits.backend.daily_queries",
		},
		{
			name: "redis without address",
			mutate: func(c *Config) {
				c.Cache.Redis.Enabled = true
				c.Cache.Redis.Address = ""
			},
			errorField: "cache.redis.address",
		},
		{
			name:       "unknown snapshot backend",
			mutate:     func(c *Config) { c.Snapshot.Backend = "s3" },
			errorField: "snapshot.backend",
		},
		{
			name:       "bad schedule",
			mutate:     func(c *Config) { c.Snapshot.Schedule = "every six hours" },
			errorField: "snapshot.schedule",
		},
		{
			name:       "non-positive top size",
			mutate:     func(c *Config) { c.Snapshot.TopSizes = []int{10, 0} },
			errorField: "snapshot.top_sizes[1]",
		},
		{
			name:       "empty database path",
			mutate:     func(c *Config) { c.Database.Path = "" },
			errorField: "database.path",
		},
		{
			name:       "unknown log level",
			mutate:     func(c *Config) { c.Telemetry.Logging.Level = "verbose" },
			errorField: "telemetry.logging.level",
		},
		{
			name: "tracing without endpoint",
			mutate: func(c *Config) {
				c.Telemetry.Tracing.Enabled = true
			},
			errorField: "telemetry.tracing.endpoint",
		},
		{
			name:       "sample ratio above one",
			mutate:     func(c *Config) { c.Telemetry.Tracing.SampleRatio = 1.5 },
			errorField: "telemetry.tracing.sample_ratio",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := MinimalConfig()
			tt.mutate(cfg)

			err := Validate(cfg)
			if err == nil {
				t.Fatalf("expected error for %s", tt.errorField)
			}
			validationErr := err.(ValidationError)

			found := false
			for _, fe := range validationErr.Errors {
				if fe.Field == tt.errorField {
					found = true
				}
			}
			if !found {
				t.Errorf("expected error for field %q, got %v", tt.errorField, err)
			}
		})
	}
}

func TestValidate_BuilderConfigs(t *testing.T) {
	tests := []struct {
		name string
		cfg  *Config
	}{
		{"sqlite snapshots", NewTestConfig().WithSnapshotBackend("sqlite").Build()},
		{"redis tier", NewTestConfig().WithRedis("localhost:6380").Build()},
		{"tracing", NewTestConfig().WithTracing("localhost:4317").Build()},
		{"extra tier", NewTestConfig().WithTier("week", 7*24*time.Hour, 20000).Build()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := Validate(tt.cfg); err != nil {
				t.Errorf("expected valid config, got %v", err)
			}
		})
	}
}

func TestValidationError_Error(t *testing.T) {
	tests := []struct {
		name     string
		errs     []FieldError
		contains string
	}{
		{"no errors", nil, "configuration validation failed"},
		{"one error", []FieldError{{Field: "a", Message: "bad"}}, "configuration validation failed: a: bad"},
		{"two errors", []FieldError{{Field: "a", Message: "bad"}, {Field: "b", Message: "worse"}}, "with 2 errors"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ValidationError{Errors: tt.errs}.Error()
			if !strings.Contains(got, tt.contains) {
				t.Errorf("expected %q in %q", tt.contains, got)
			}
		})
	}
}
