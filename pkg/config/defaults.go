package config

import "time"

// Default values for configuration fields.
const (
	// Server defaults
	DefaultListenAddress   = "127.0.0.1:5000"
	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultMaxHeaderBytes  = 1048576 // 1MB
	DefaultRequestTimeout  = 10 * time.Second
	DefaultStaticPath      = "/static/cache"

	// CORS defaults
	DefaultCORSEnabled = true
	DefaultCORSMaxAge  = 3600 // 1 hour

	// Limits defaults
	DefaultLimitsEnabled        = true
	DefaultLimitsBuckets        = 60
	DefaultLimitsShards         = 32
	DefaultLimitsCleanup        = 5 * time.Minute
	DefaultBackendDailyQueries  = 5000
	DefaultBackendMaxInFlight   = 16
	DefaultCacheDefaultTTL      = 5 * time.Minute
	DefaultCacheDegradedTTL     = time.Hour
	DefaultCacheMaxEntries      = 1000
	DefaultCacheShards          = 32
	DefaultCacheSweepInterval   = time.Minute
	DefaultCacheSingleFlight    = true
	DefaultRedisAddress         = "localhost:6379"
	DefaultRedisPrefix          = "fundwatch:cache"
	DefaultRedisDailyBudget     = 9000
	DefaultRedisRefillTTL       = 5 * time.Minute
	DefaultRedisDialTimeout     = 5 * time.Second
	DefaultSnapshotBackend      = "file"
	DefaultSnapshotDir          = "static/cache"
	DefaultSnapshotSQLitePath   = "data/snapshots.db"
	DefaultSnapshotWatch        = true
	DefaultSnapshotDebounce     = 500 * time.Millisecond
	DefaultSnapshotSchedule     = "0 */6 * * *"
	DefaultDatabasePath         = "data/index_funds.db"
	DefaultDatabaseMaxOpenConns = 10
	DefaultDatabaseMaxIdleConns = 5
	DefaultDatabaseWALMode      = true
	DefaultDatabaseBusyTimeout  = 5 * time.Second

	// Telemetry defaults
	DefaultLoggingLevel        = "info"
	DefaultLoggingFormat       = "json"
	DefaultMetricsEnabled      = true
	DefaultPrometheusPath      = "/metrics"
	DefaultMetricsNamespace    = "fundwatch"
	DefaultTracingEnabled      = false
	DefaultTracingSampler      = "ratio"
	DefaultTracingSamplingRate = 0.1
	DefaultTracingExporter     = "otlp"
	DefaultTracingServiceName  = "fundwatch"
	DefaultOTLPInsecure        = true
	DefaultOTLPTimeout         = 10 * time.Second
	DefaultHealthEnabled       = true
	DefaultLivenessPath        = "/health"
	DefaultReadinessPath       = "/ready"
	DefaultHealthCheckTimeout  = 5 * time.Second
)

// Default slice values.
var (
	DefaultCORSAllowedOrigins = []string{"*"}
	DefaultCORSAllowedMethods = []string{"GET", "OPTIONS"}
	DefaultCORSAllowedHeaders = []string{"Content-Type", "X-Request-ID"}
	DefaultCORSExposedHeaders = []string{"X-Request-ID", "X-Cache-Source", "Retry-After"}

	DefaultSnapshotTopSizes = []int{10, 20}

	DefaultRequestDurationBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5}
)

// DefaultTiers returns the per-client tiers used when none are configured.
func DefaultTiers() []TierConfig {
	return []TierConfig{
		{Name: "second", Window: time.Second, Max: 5},
		{Name: "minute", Window: time.Minute, Max: 60},
		{Name: "hour", Window: time.Hour, Max: 600},
		{Name: "day", Window: 24 * time.Hour, Max: 5000},
	}
}

// Default returns a configuration with every default applied, including the
// boolean switches that default to true. LoadConfig decodes YAML on top of
// it so omitted booleans keep their defaults.
func Default() *Config {
	cfg := &Config{}
	cfg.Server.CORS.Enabled = DefaultCORSEnabled
	cfg.Limits.Enabled = DefaultLimitsEnabled
	cfg.Limits.Backend.DailyQueries = DefaultBackendDailyQueries
	cfg.Limits.Backend.MaxInFlight = DefaultBackendMaxInFlight
	cfg.Cache.SingleFlight = DefaultCacheSingleFlight
	cfg.Cache.Redis.DailyBudget = DefaultRedisDailyBudget
	cfg.Snapshot.Watch = DefaultSnapshotWatch
	cfg.Snapshot.Schedule = DefaultSnapshotSchedule
	cfg.Database.WALMode = DefaultDatabaseWALMode
	cfg.Telemetry.Metrics.Enabled = DefaultMetricsEnabled
	cfg.Telemetry.Tracing.Enabled = DefaultTracingEnabled
	cfg.Telemetry.Tracing.OTLP.Insecure = DefaultOTLPInsecure
	cfg.Telemetry.Health.Enabled = DefaultHealthEnabled
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills zero-valued fields with their defaults. Booleans and
// fields where zero is meaningful (budgets, schedule) are left alone; use
// Default for a fully populated configuration.
func ApplyDefaults(cfg *Config) {
	// Server defaults
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = DefaultListenAddress
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Server.MaxHeaderBytes == 0 {
		cfg.Server.MaxHeaderBytes = DefaultMaxHeaderBytes
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = DefaultRequestTimeout
	}
	if cfg.Server.StaticPath == "" {
		cfg.Server.StaticPath = DefaultStaticPath
	}

	// CORS defaults
	if len(cfg.Server.CORS.AllowedOrigins) == 0 {
		cfg.Server.CORS.AllowedOrigins = append([]string(nil), DefaultCORSAllowedOrigins...)
	}
	if len(cfg.Server.CORS.AllowedMethods) == 0 {
		cfg.Server.CORS.AllowedMethods = append([]string(nil), DefaultCORSAllowedMethods...)
	}
	if len(cfg.Server.CORS.AllowedHeaders) == 0 {
		cfg.Server.CORS.AllowedHeaders = append([]string(nil), DefaultCORSAllowedHeaders...)
	}
	if len(cfg.Server.CORS.ExposedHeaders) == 0 {
		cfg.Server.CORS.ExposedHeaders = append([]string(nil), DefaultCORSExposedHeaders...)
	}
	if cfg.Server.CORS.MaxAge == 0 {
		cfg.Server.CORS.MaxAge = DefaultCORSMaxAge
	}

	// Limits defaults
	if len(cfg.Limits.Tiers) == 0 {
		cfg.Limits.Tiers = DefaultTiers()
	}
	if cfg.Limits.Buckets == 0 {
		cfg.Limits.Buckets = DefaultLimitsBuckets
	}
	if cfg.Limits.Shards == 0 {
		cfg.Limits.Shards = DefaultLimitsShards
	}
	if cfg.Limits.CleanupInterval == 0 {
		cfg.Limits.CleanupInterval = DefaultLimitsCleanup
	}

	// Cache defaults
	if cfg.Cache.DefaultTTL == 0 {
		cfg.Cache.DefaultTTL = DefaultCacheDefaultTTL
	}
	if cfg.Cache.DegradedTTL == 0 {
		cfg.Cache.DegradedTTL = DefaultCacheDegradedTTL
	}
	if cfg.Cache.MaxEntries == 0 {
		cfg.Cache.MaxEntries = DefaultCacheMaxEntries
	}
	if cfg.Cache.Shards == 0 {
		cfg.Cache.Shards = DefaultCacheShards
	}
	if cfg.Cache.SweepInterval == 0 {
		cfg.Cache.SweepInterval = DefaultCacheSweepInterval
	}
	if cfg.Cache.Redis.Address == "" {
		cfg.Cache.Redis.Address = DefaultRedisAddress
	}
	if cfg.Cache.Redis.Prefix == "" {
		cfg.Cache.Redis.Prefix = DefaultRedisPrefix
	}
	if cfg.Cache.Redis.RefillTTL == 0 {
		cfg.Cache.Redis.RefillTTL = DefaultRedisRefillTTL
	}
	if cfg.Cache.Redis.DialTimeout == 0 {
		cfg.Cache.Redis.DialTimeout = DefaultRedisDialTimeout
	}

	// Snapshot defaults
	if cfg.Snapshot.Backend == "" {
		cfg.Snapshot.Backend = DefaultSnapshotBackend
	}
	if cfg.Snapshot.Dir == "" {
		cfg.Snapshot.Dir = DefaultSnapshotDir
	}
	if cfg.Snapshot.SQLitePath == "" {
		cfg.Snapshot.SQLitePath = DefaultSnapshotSQLitePath
	}
	if cfg.Snapshot.DebounceInterval == 0 {
		cfg.Snapshot.DebounceInterval = DefaultSnapshotDebounce
	}
	if len(cfg.Snapshot.TopSizes) == 0 {
		cfg.Snapshot.TopSizes = append([]int(nil), DefaultSnapshotTopSizes...)
	}

	// Database defaults
	if cfg.Database.Path == "" {
		cfg.Database.Path = DefaultDatabasePath
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = DefaultDatabaseMaxOpenConns
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = DefaultDatabaseMaxIdleConns
	}
	if cfg.Database.BusyTimeout == 0 {
		cfg.Database.BusyTimeout = DefaultDatabaseBusyTimeout
	}

	// Telemetry defaults
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultPrometheusPath
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}
	if len(cfg.Telemetry.Metrics.RequestDurationBuckets) == 0 {
		cfg.Telemetry.Metrics.RequestDurationBuckets = append([]float64(nil), DefaultRequestDurationBuckets...)
	}
	if cfg.Telemetry.Tracing.Sampler == "" {
		cfg.Telemetry.Tracing.Sampler = DefaultTracingSampler
	}
	if cfg.Telemetry.Tracing.SampleRatio == 0 {
		cfg.Telemetry.Tracing.SampleRatio = DefaultTracingSamplingRate
	}
	if cfg.Telemetry.Tracing.Exporter == "" {
		cfg.Telemetry.Tracing.Exporter = DefaultTracingExporter
	}
	if cfg.Telemetry.Tracing.ServiceName == "" {
		cfg.Telemetry.Tracing.ServiceName = DefaultTracingServiceName
	}
	if cfg.Telemetry.Tracing.OTLP.Timeout == 0 {
		cfg.Telemetry.Tracing.OTLP.Timeout = DefaultOTLPTimeout
	}
	if cfg.Telemetry.Health.LivenessPath == "" {
		cfg.Telemetry.Health.LivenessPath = DefaultLivenessPath
	}
	if cfg.Telemetry.Health.ReadinessPath == "" {
		cfg.Telemetry.Health.ReadinessPath = DefaultReadinessPath
	}
	if cfg.Telemetry.Health.CheckTimeout == 0 {
		cfg.Telemetry.Health.CheckTimeout = DefaultHealthCheckTimeout
	}
}
