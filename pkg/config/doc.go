// Package config provides configuration management for fundwatch.
//
// Configuration is loaded from a YAML file with environment variable
// overrides. Fields absent from the file keep their defaults.
//
// # Configuration Loading
//
//  1. From a YAML file only:
//     cfg, err := config.LoadConfig("fundwatch.yaml")
//
//  2. From a YAML file with environment variable overrides:
//     cfg, err := config.LoadConfigWithEnvOverrides("fundwatch.yaml")
//
//  3. From defaults and environment only:
//     cfg, err := config.LoadConfigWithEnvOverrides("")
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention FUNDWATCH_SECTION_FIELD.
// For example:
//
//   - FUNDWATCH_SERVER_LISTEN_ADDRESS overrides server.listen_address
//   - FUNDWATCH_CACHE_REDIS_PASSWORD overrides cache.redis.password
//   - FUNDWATCH_TELEMETRY_LOGGING_LEVEL overrides telemetry.logging.level
//
// # Configuration Precedence
//
//  1. Default values (defined in defaults.go)
//  2. Values from YAML file
//  3. Environment variable overrides
//  4. Validation (fails fast if invalid)
//
// # Validation
//
// Validation errors carry dotted field paths:
//
//	configuration validation failed with 2 errors:
//	  - limits.tiers[1].max: must be positive
//	  - snapshot.backend: must be "file" or "sqlite", got "s3"
//
// # Example Configuration
//
//	server:
//	  listen_address: "0.0.0.0:5000"
//	  trust_forwarded_for: true
//
//	limits:
//	  tiers:
//	    - {name: second, window: 1s, max: 5}
//	    - {name: minute, window: 1m, max: 60}
//	  backend:
//	    daily_queries: 5000
//
//	cache:
//	  default_ttl: 5m
//	  redis:
//	    enabled: true
//	    address: "redis:6379"
//	    daily_budget: 9000
//
//	snapshot:
//	  backend: "file"
//	  dir: "static/cache"
//	  schedule: "0 */6 * * *"
//
//	telemetry:
//	  logging:
//	    level: "info"
//	    format: "json"
package config
