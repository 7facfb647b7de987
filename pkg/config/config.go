package config

import "time"

// Config is the root configuration structure for fundwatch.
// It contains the HTTP server, admission limits, response cache, static
// snapshots, holdings database and telemetry sections.
type Config struct {
	// Server contains HTTP server configuration including listen address,
	// timeouts, client identification and CORS.
	Server ServerConfig `yaml:"server"`

	// Limits contains per-client rate limit tiers and the shared backend
	// budget.
	Limits LimitsConfig `yaml:"limits"`

	// Cache contains response cache configuration, including the optional
	// Redis tier.
	Cache CacheConfig `yaml:"cache"`

	// Snapshot contains static snapshot storage and generation settings.
	Snapshot SnapshotConfig `yaml:"snapshot"`

	// Database contains the holdings database configuration.
	Database DatabaseConfig `yaml:"database"`

	// Telemetry contains configuration for observability including logging,
	// metrics, and distributed tracing.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig contains configuration for the HTTP server.
type ServerConfig struct {
	// ListenAddress is the address and port to listen on.
	// Format: "host:port" (e.g., "127.0.0.1:5000", "0.0.0.0:5000").
	// Default: "127.0.0.1:5000"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading the entire request.
	// Default: 15s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out writes of the
	// response.
	// Default: 30s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the maximum amount of time to wait for the next request
	// when keep-alives are enabled.
	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout is the maximum duration to wait for in-flight requests
	// during graceful shutdown.
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxHeaderBytes limits the size of request headers.
	// Default: 1048576 (1MB)
	MaxHeaderBytes int `yaml:"max_header_bytes"`

	// RequestTimeout bounds how long a single lookup may compute.
	// Default: 10s
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// ClientIDHeader names a header that carries the client identity. When
	// empty or absent, the client is identified by its remote IP.
	// Default: "" (remote IP)
	ClientIDHeader string `yaml:"client_id_header"`

	// TrustForwardedFor uses the first X-Forwarded-For address as the
	// client IP. Enable only behind a trusted reverse proxy.
	// Default: false
	TrustForwardedFor bool `yaml:"trust_forwarded_for"`

	// StaticPath is the URL prefix under which raw snapshots are served.
	// Default: "/static/cache"
	StaticPath string `yaml:"static_path"`

	// CORS contains Cross-Origin Resource Sharing configuration.
	CORS CORSConfig `yaml:"cors"`
}

// CORSConfig contains CORS (Cross-Origin Resource Sharing) configuration.
type CORSConfig struct {
	// Enabled controls whether CORS headers are sent.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// AllowedOrigins is a list of allowed origins for CORS requests.
	// Default: ["*"]
	AllowedOrigins []string `yaml:"allowed_origins"`

	// AllowedMethods is a list of allowed HTTP methods for CORS requests.
	// Default: ["GET", "OPTIONS"]
	AllowedMethods []string `yaml:"allowed_methods"`

	// AllowedHeaders is a list of allowed HTTP headers for CORS requests.
	// Default: ["Content-Type", "X-Request-ID"]
	AllowedHeaders []string `yaml:"allowed_headers"`

	// ExposedHeaders is a list of headers that are exposed to the client.
	// Default: ["X-Request-ID", "X-Cache-Source", "Retry-After"]
	ExposedHeaders []string `yaml:"exposed_headers"`

	// MaxAge is the maximum age (in seconds) for preflight request cache.
	// Default: 3600 (1 hour)
	MaxAge int `yaml:"max_age"`
}

// LimitsConfig contains admission control configuration.
type LimitsConfig struct {
	// Enabled controls whether per-client rate limiting is active.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Tiers are the per-client limits. A client must satisfy all of them.
	// Default: 5/second, 60/minute, 600/hour, 5000/day
	Tiers []TierConfig `yaml:"tiers"`

	// Buckets is the number of buckets per sliding window.
	// Default: 60
	Buckets int `yaml:"buckets"`

	// Shards is the number of client state shards.
	// Default: 32
	Shards int `yaml:"shards"`

	// CleanupInterval is how often idle client state is evicted.
	// Default: 5m
	CleanupInterval time.Duration `yaml:"cleanup_interval"`

	// Backend is the budget shared by every client for live computes.
	Backend BackendConfig `yaml:"backend"`
}

// TierConfig is one rate limit rule.
type TierConfig struct {
	// Name identifies the tier in headers, usage reports and metrics.
	Name string `yaml:"name"`

	// Window is the trailing window duration.
	Window time.Duration `yaml:"window"`

	// Max is the maximum number of requests in the window.
	Max int `yaml:"max"`
}

// BackendConfig contains the shared backend budget.
type BackendConfig struct {
	// DailyQueries is the maximum number of live database computes in any
	// trailing 24 hours across all clients. Zero disables the budget and
	// keeps the service level at normal.
	// Default: 5000
	DailyQueries int `yaml:"daily_queries"`

	// MaxInFlight caps concurrent live computes. Zero means no cap.
	// Default: 16
	MaxInFlight int `yaml:"max_in_flight"`
}

// CacheConfig contains response cache configuration.
type CacheConfig struct {
	// DefaultTTL is how long a live response is cached at normal service
	// level.
	// Default: 5m
	DefaultTTL time.Duration `yaml:"default_ttl"`

	// DegradedTTL replaces DefaultTTL below normal service level.
	// Default: 1h
	DegradedTTL time.Duration `yaml:"degraded_ttl"`

	// MaxEntries bounds the in-memory tier.
	// Default: 1000
	MaxEntries int `yaml:"max_entries"`

	// Shards is the number of lock shards of the in-memory tier.
	// Default: 32
	Shards int `yaml:"shards"`

	// SweepInterval is how often expired entries are removed.
	// Default: 1m
	SweepInterval time.Duration `yaml:"sweep_interval"`

	// SingleFlight collapses concurrent computes of the same key.
	// Default: true
	SingleFlight bool `yaml:"single_flight"`

	// Redis configures the optional shared tier.
	Redis RedisConfig `yaml:"redis"`
}

// RedisConfig contains the Redis cache tier configuration.
type RedisConfig struct {
	// Enabled controls whether the Redis tier is used.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Address is the Redis server address.
	// Default: "localhost:6379"
	Address string `yaml:"address"`

	// Password authenticates to Redis. Prefer FUNDWATCH_CACHE_REDIS_PASSWORD.
	Password string `yaml:"password"`

	// DB is the Redis database number.
	// Default: 0
	DB int `yaml:"db"`

	// Prefix is prepended to every key.
	// Default: "fundwatch:cache"
	Prefix string `yaml:"prefix"`

	// DailyBudget is the maximum number of Redis operations in any trailing
	// 24 hours. Zero means unlimited.
	// Default: 9000
	DailyBudget int `yaml:"daily_budget"`

	// OpsPerSecond smooths bursts of Redis operations. Zero means unlimited.
	// Default: 0
	OpsPerSecond float64 `yaml:"ops_per_second"`

	// RefillTTL is the in-memory TTL for values read back from Redis.
	// Default: 5m
	RefillTTL time.Duration `yaml:"refill_ttl"`

	// DialTimeout bounds connecting to Redis.
	// Default: 5s
	DialTimeout time.Duration `yaml:"dial_timeout"`
}

// SnapshotConfig contains static snapshot configuration.
type SnapshotConfig struct {
	// Backend selects the snapshot store.
	// Options: "file", "sqlite"
	// Default: "file"
	Backend string `yaml:"backend"`

	// Dir is the snapshot directory for the file backend.
	// Default: "static/cache"
	Dir string `yaml:"dir"`

	// SQLitePath is the database path for the sqlite backend.
	// Default: "data/snapshots.db"
	SQLitePath string `yaml:"sqlite_path"`

	// Watch reloads the file backend when files change on disk.
	// Default: true
	Watch bool `yaml:"watch"`

	// DebounceInterval is the quiet period before a watched reload.
	// Default: 500ms
	DebounceInterval time.Duration `yaml:"debounce_interval"`

	// Schedule is a cron expression for periodic regeneration. Empty
	// disables scheduled generation.
	// Default: "0 */6 * * *"
	Schedule string `yaml:"schedule"`

	// GenerateOnStart regenerates snapshots when the server starts.
	// Default: false
	GenerateOnStart bool `yaml:"generate_on_start"`

	// TopSizes are the top-N sizes generated per fund.
	// Default: [10, 20]
	TopSizes []int `yaml:"top_sizes"`

	// AllTickers generates a stock snapshot for every held ticker instead of
	// only the popular ones.
	// Default: false
	AllTickers bool `yaml:"all_tickers"`
}

// DatabaseConfig contains the holdings database configuration.
type DatabaseConfig struct {
	// Path is the SQLite database file.
	// Default: "data/index_funds.db"
	Path string `yaml:"path"`

	// MaxOpenConns is the maximum number of open connections.
	// Default: 10
	MaxOpenConns int `yaml:"max_open_conns"`

	// MaxIdleConns is the maximum number of idle connections.
	// Default: 5
	MaxIdleConns int `yaml:"max_idle_conns"`

	// WALMode enables Write-Ahead Logging.
	// Default: true
	WALMode bool `yaml:"wal_mode"`

	// BusyTimeout is how long to wait when the database is locked.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// TelemetryConfig contains configuration for observability.
type TelemetryConfig struct {
	// Logging contains logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains metrics collection configuration.
	Metrics MetricsConfig `yaml:"metrics"`

	// Tracing contains distributed tracing configuration.
	Tracing TracingConfig `yaml:"tracing"`

	// Health contains health check configuration.
	Health HealthConfig `yaml:"health"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls the log output format.
	// Options: "json", "text", "console"
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	// Default: false
	AddSource bool `yaml:"add_source"`

	// RedactClientIPs masks the host part of IP addresses in client and
	// remote address fields.
	// Default: false
	RedactClientIPs bool `yaml:"redact_client_ips"`
}

// MetricsConfig contains metrics collection configuration.
type MetricsConfig struct {
	// Enabled controls whether metrics collection is active.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Path is the HTTP path for the Prometheus metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace is the metric name prefix.
	// Default: "fundwatch"
	Namespace string `yaml:"namespace"`

	// Subsystem is the metric subsystem name.
	// Default: ""
	Subsystem string `yaml:"subsystem"`

	// RequestDurationBuckets defines histogram buckets for request duration
	// (seconds).
	// Default: [0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5]
	RequestDurationBuckets []float64 `yaml:"request_duration_buckets"`
}

// TracingConfig contains distributed tracing configuration.
type TracingConfig struct {
	// Enabled controls whether distributed tracing is active.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Sampler determines the sampling strategy.
	// Options: "always", "never", "ratio"
	// Default: "ratio"
	Sampler string `yaml:"sampler"`

	// SampleRatio is the fraction of traces to sample (0.0 to 1.0).
	// Only used when Sampler is "ratio".
	// Default: 0.1 (10%)
	SampleRatio float64 `yaml:"sample_ratio"`

	// Exporter determines the trace exporter to use.
	// Options: "otlp"
	// Default: "otlp"
	Exporter string `yaml:"exporter"`

	// Endpoint is the OTLP collector endpoint.
	// Example: "localhost:4317"
	Endpoint string `yaml:"endpoint"`

	// ServiceName is the service name in traces.
	// Default: "fundwatch"
	ServiceName string `yaml:"service_name"`

	// OTLP contains OTLP exporter specific configuration.
	OTLP OTLPConfig `yaml:"otlp"`
}

// OTLPConfig contains OTLP exporter configuration.
type OTLPConfig struct {
	// Insecure disables TLS for OTLP connection.
	// Default: true
	Insecure bool `yaml:"insecure"`

	// Timeout is the timeout for OTLP exports.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout"`
}

// HealthConfig contains health check endpoint configuration.
type HealthConfig struct {
	// Enabled controls whether health check endpoints are enabled.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// LivenessPath is the path for the liveness probe endpoint.
	// Default: "/health"
	LivenessPath string `yaml:"liveness_path"`

	// ReadinessPath is the path for the readiness probe endpoint.
	// Default: "/ready"
	ReadinessPath string `yaml:"readiness_path"`

	// CheckTimeout is the timeout for individual component health checks.
	// Default: 5s
	CheckTimeout time.Duration `yaml:"check_timeout"`
}
