// Package health provides health check endpoints for fundwatch.
//
// # Endpoints
//
//   - /health: Liveness check, ok while the process runs
//   - /ready: Readiness check, runs every registered check
//   - /version: Build information
//
// # Critical and optional checks
//
// A failed critical check makes readiness "unhealthy" (503). A failed
// optional check makes it "degraded" but still 200: static snapshots keep
// answering while the database or Redis is unavailable.
//
// # Usage
//
//	checker := health.New(cfg.Telemetry.Health.CheckTimeout)
//	checker.RegisterCheck("snapshots", health.SnapshotCheck(store.Count))
//	checker.RegisterOptionalCheck("database", health.PingCheck(repo))
//	checker.RegisterOptionalCheck("redis", health.PingCheck(redisTier))
//
//	health.Register(mux, checker, &cfg.Telemetry.Health, version, commit, buildTime)
package health
