// Package telemetry groups the observability packages of fundwatch.
//
// # Components
//
//   - logging: slog handlers with request ID, client and trace correlation
//   - metrics: Prometheus collector and the observers for cache, limiter and gate
//   - tracing: OpenTelemetry tracer with OTLP export and HTTP middleware
//   - health: liveness, readiness and version endpoints
//
// Each component is configured from the matching section of
// config.TelemetryConfig and built once at startup by the server package.
//
// # Client privacy
//
// With logging.redact_client_ips set, client addresses are masked before
// they reach a log line: 203.0.113.7 becomes 203.0.113.x.
package telemetry
