package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return configPath
}

func TestLoadConfig_ValidFile(t *testing.T) {
	configPath := writeConfig(t, `
server:
  listen_address: "0.0.0.0:8080"
  read_timeout: "60s"
  client_id_header: "X-Client-ID"

limits:
  tiers:
    - name: minute
      window: 1m
      max: 30
  backend:
    daily_queries: 1000

cache:
  default_ttl: 2m
  redis:
    enabled: true
    address: "redis:6379"

snapshot:
  backend: "sqlite"
  sqlite_path: "/tmp/snapshots.db"
  top_sizes: [5]

telemetry:
  logging:
    level: "debug"
    format: "text"
`)

	cfg, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Server.ListenAddress != "0.0.0.0:8080" {
		t.Errorf("expected listen address %q, got %q", "0.0.0.0:8080", cfg.Server.ListenAddress)
	}
	if cfg.Server.ReadTimeout != 60*time.Second {
		t.Errorf("expected read timeout %v, got %v", 60*time.Second, cfg.Server.ReadTimeout)
	}
	if cfg.Server.ClientIDHeader != "X-Client-ID" {
		t.Errorf("expected client id header %q, got %q", "X-Client-ID", cfg.Server.ClientIDHeader)
	}
	if len(cfg.Limits.Tiers) != 1 || cfg.Limits.Tiers[0].Max != 30 || cfg.Limits.Tiers[0].Window != time.Minute {
		t.Errorf("expected single minute tier of 30, got %+v", cfg.Limits.Tiers)
	}
	if cfg.Limits.Backend.DailyQueries != 1000 {
		t.Errorf("expected daily queries 1000, got %d", cfg.Limits.Backend.DailyQueries)
	}
	if cfg.Cache.DefaultTTL != 2*time.Minute {
		t.Errorf("expected default ttl 2m, got %v", cfg.Cache.DefaultTTL)
	}
	if !cfg.Cache.Redis.Enabled || cfg.Cache.Redis.Address != "redis:6379" {
		t.Errorf("expected redis enabled at redis:6379, got %+v", cfg.Cache.Redis)
	}
	if cfg.Cache.Redis.DailyBudget != DefaultRedisDailyBudget {
		t.Errorf("expected default redis budget %d, got %d", DefaultRedisDailyBudget, cfg.Cache.Redis.DailyBudget)
	}
	if cfg.Snapshot.Backend != "sqlite" || cfg.Snapshot.SQLitePath != "/tmp/snapshots.db" {
		t.Errorf("expected sqlite snapshot backend, got %+v", cfg.Snapshot)
	}
	if len(cfg.Snapshot.TopSizes) != 1 || cfg.Snapshot.TopSizes[0] != 5 {
		t.Errorf("expected top sizes [5], got %v", cfg.Snapshot.TopSizes)
	}
	if cfg.Telemetry.Logging.Level != "debug" {
		t.Errorf("expected logging level %q, got %q", "debug", cfg.Telemetry.Logging.Level)
	}
}

func TestLoadConfig_OmittedBooleansKeepDefaults(t *testing.T) {
	configPath := writeConfig(t, `
server:
  listen_address: "127.0.0.1:5001"
`)

	cfg, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if !cfg.Limits.Enabled {
		t.Error("expected limits enabled by default")
	}
	if !cfg.Cache.SingleFlight {
		t.Error("expected single flight enabled by default")
	}
	if !cfg.Snapshot.Watch {
		t.Error("expected snapshot watch enabled by default")
	}
	if !cfg.Database.WALMode {
		t.Error("expected WAL mode enabled by default")
	}
	if cfg.Snapshot.Schedule != DefaultSnapshotSchedule {
		t.Errorf("expected schedule %q, got %q", DefaultSnapshotSchedule, cfg.Snapshot.Schedule)
	}
	if cfg.Limits.Backend.DailyQueries != DefaultBackendDailyQueries {
		t.Errorf("expected daily queries %d, got %d", DefaultBackendDailyQueries, cfg.Limits.Backend.DailyQueries)
	}
}

func TestLoadConfig_ExplicitFalseAndZero(t *testing.T) {
	configPath := writeConfig(t, `
limits:
  enabled: false
  backend:
    daily_queries: 0
snapshot:
  schedule: ""
  watch: false
`)

	cfg, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Limits.Enabled {
		t.Error("expected limits disabled")
	}
	if cfg.Limits.Backend.DailyQueries != 0 {
		t.Errorf("expected daily queries 0, got %d", cfg.Limits.Backend.DailyQueries)
	}
	if cfg.Snapshot.Schedule != "" {
		t.Errorf("expected empty schedule, got %q", cfg.Snapshot.Schedule)
	}
	if cfg.Snapshot.Watch {
		t.Error("expected watch disabled")
	}
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	_, err := LoadConfig("/nonexistent/config.yaml")
	if err == nil {
		t.Fatal("expected error for nonexistent file")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected file not found error, got: %v", err)
	}
}

func TestLoadConfig_MalformedYAML(t *testing.T) {
	configPath := writeConfig(t, `
server:
  listen_address: "0.0.0.0:8080"
  invalid yaml here: [
`)

	if _, err := LoadConfig(configPath); err == nil {
		t.Error("expected error for malformed YAML")
	}
}

func TestLoadConfig_ValidationFailure(t *testing.T) {
	configPath := writeConfig(t, `
snapshot:
  backend: "s3"
limits:
  tiers:
    - name: minute
      window: 1m
      max: 0
`)

	_, err := LoadConfig(configPath)
	if err == nil {
		t.Fatal("expected validation error")
	}

	var validationErr ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if len(validationErr.Errors) != 2 {
		t.Errorf("expected 2 field errors, got %d: %v", len(validationErr.Errors), err)
	}
	if !strings.Contains(err.Error(), "snapshot.backend") {
		t.Errorf("expected snapshot.backend in error, got %v", err)
	}
}

func TestLoadConfigWithEnvOverrides_BasicOverrides(t *testing.T) {
	configPath := writeConfig(t, `
server:
  listen_address: "127.0.0.1:5000"
telemetry:
  logging:
    level: "info"
`)

	t.Setenv("FUNDWATCH_SERVER_LISTEN_ADDRESS", "0.0.0.0:9090")
	t.Setenv("FUNDWATCH_TELEMETRY_LOGGING_LEVEL", "debug")
	t.Setenv("FUNDWATCH_CACHE_REDIS_PASSWORD", "secret")
	t.Setenv("FUNDWATCH_SERVER_CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := LoadConfigWithEnvOverrides(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Server.ListenAddress != "0.0.0.0:9090" {
		t.Errorf("expected listen address %q, got %q", "0.0.0.0:9090", cfg.Server.ListenAddress)
	}
	if cfg.Telemetry.Logging.Level != "debug" {
		t.Errorf("expected logging level %q, got %q", "debug", cfg.Telemetry.Logging.Level)
	}
	if cfg.Cache.Redis.Password != "secret" {
		t.Errorf("expected redis password from env, got %q", cfg.Cache.Redis.Password)
	}
	if len(cfg.Server.CORS.AllowedOrigins) != 2 || cfg.Server.CORS.AllowedOrigins[1] != "https://b.example" {
		t.Errorf("expected two trimmed origins, got %v", cfg.Server.CORS.AllowedOrigins)
	}
}

func TestLoadConfigWithEnvOverrides_TypedValues(t *testing.T) {
	tests := []struct {
		name  string
		env   string
		value string
		check func(*testing.T, *Config)
	}{
		{
			name:  "duration",
			env:   "FUNDWATCH_CACHE_DEFAULT_TTL",
			value: "90s",
			check: func(t *testing.T, cfg *Config) {
				if cfg.Cache.DefaultTTL != 90*time.Second {
					t.Errorf("expected 90s, got %v", cfg.Cache.DefaultTTL)
				}
			},
		},
		{
			name:  "integer",
			env:   "FUNDWATCH_LIMITS_BACKEND_DAILY_QUERIES",
			value: "250",
			check: func(t *testing.T, cfg *Config) {
				if cfg.Limits.Backend.DailyQueries != 250 {
					t.Errorf("expected 250, got %d", cfg.Limits.Backend.DailyQueries)
				}
			},
		},
		{
			name:  "boolean",
			env:   "FUNDWATCH_SNAPSHOT_WATCH",
			value: "false",
			check: func(t *testing.T, cfg *Config) {
				if cfg.Snapshot.Watch {
					t.Error("expected watch disabled")
				}
			},
		},
		{
			name:  "float",
			env:   "FUNDWATCH_TELEMETRY_TRACING_SAMPLE_RATIO",
			value: "0.5",
			check: func(t *testing.T, cfg *Config) {
				if cfg.Telemetry.Tracing.SampleRatio != 0.5 {
					t.Errorf("expected 0.5, got %v", cfg.Telemetry.Tracing.SampleRatio)
				}
			},
		},
		{
			name:  "malformed value is ignored",
			env:   "FUNDWATCH_CACHE_MAX_ENTRIES",
			value: "lots",
			check: func(t *testing.T, cfg *Config) {
				if cfg.Cache.MaxEntries != DefaultCacheMaxEntries {
					t.Errorf("expected default %d, got %d", DefaultCacheMaxEntries, cfg.Cache.MaxEntries)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.env, tt.value)

			cfg, err := LoadConfigWithEnvOverrides("")
			if err != nil {
				t.Fatalf("failed to load config: %v", err)
			}
			tt.check(t, cfg)
		})
	}
}

func TestLoadConfigWithEnvOverrides_InvalidOverrideFailsValidation(t *testing.T) {
	t.Setenv("FUNDWATCH_SNAPSHOT_BACKEND", "s3")

	_, err := LoadConfigWithEnvOverrides("")
	if err == nil {
		t.Fatal("expected validation error after override")
	}
	if !strings.Contains(err.Error(), "after environment overrides") {
		t.Errorf("expected override context in error, got %v", err)
	}
}
