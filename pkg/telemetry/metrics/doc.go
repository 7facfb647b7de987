// Package metrics provides Prometheus metrics collection for fundwatch.
//
// # Overview
//
// A single Collector owns the registry and hands out the observers that
// the cache, rate limiter and gate packages report through, so those
// packages never import Prometheus themselves.
//
// # Metrics Categories
//
//   - HTTP: request count and duration by route
//   - Cache: hits, misses, evictions and entries per cache tier
//   - Rate limits: decisions, denials by tier, clock anomalies, tracked clients
//   - Gate: outcomes, denials by scope, current service level
//   - Snapshots: generation runs and the size of the last one
//   - Budgets: shared Redis quota usage read at scrape time
//
// # Usage
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//
//	limiter := ratelimit.NewLimiter(rlCfg,
//		ratelimit.WithObserver(collector.Limiter("client")))
//	mem := cache.NewMemory[holdings.Payload](cache.MemoryConfig{
//		Name:     "responses",
//		Observer: collector.Cache(),
//	})
//
//	mux.Handle("GET /api/funds", collector.Middleware("/api/funds", h))
//	mux.Handle("GET /metrics", collector.Handler())
//
// Route labels pass through a CardinalityLimiter; past its limit new
// routes are recorded as "other".
package metrics
