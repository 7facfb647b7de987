package config

import "time"

// ConfigBuilder provides a fluent API for building Config instances in tests.
// It starts with default values and allows selective overrides.
type ConfigBuilder struct {
	cfg Config
}

// NewTestConfig creates a new ConfigBuilder with every default applied.
func NewTestConfig() *ConfigBuilder {
	return &ConfigBuilder{cfg: *Default()}
}

// Build returns the built Config instance.
func (b *ConfigBuilder) Build() *Config {
	return &b.cfg
}

// WithListenAddress sets the server listen address.
func (b *ConfigBuilder) WithListenAddress(addr string) *ConfigBuilder {
	b.cfg.Server.ListenAddress = addr
	return b
}

// WithTier appends a rate limit tier.
func (b *ConfigBuilder) WithTier(name string, window time.Duration, max int) *ConfigBuilder {
	b.cfg.Limits.Tiers = append(b.cfg.Limits.Tiers, TierConfig{Name: name, Window: window, Max: max})
	return b
}

// WithSnapshotBackend sets the snapshot backend.
func (b *ConfigBuilder) WithSnapshotBackend(backend string) *ConfigBuilder {
	b.cfg.Snapshot.Backend = backend
	return b
}

// WithRedis enables the Redis tier at addr.
func (b *ConfigBuilder) WithRedis(addr string) *ConfigBuilder {
	b.cfg.Cache.Redis.Enabled = true
	b.cfg.Cache.Redis.Address = addr
	return b
}

// WithTracing enables tracing to endpoint.
func (b *ConfigBuilder) WithTracing(endpoint string) *ConfigBuilder {
	b.cfg.Telemetry.Tracing.Enabled = true
	b.cfg.Telemetry.Tracing.Endpoint = endpoint
	return b
}

// MinimalConfig returns a minimal valid configuration for testing.
func MinimalConfig() *Config {
	return NewTestConfig().Build()
}
