// Package server wires the fundwatch components into a running HTTP service.
//
// New builds the whole process from a *config.Config: the holdings
// database, the per-client and backend rate limiters, the response cache
// (with the optional Redis tier), the snapshot store and its generator,
// the request gate, the API routes, health checks, metrics and tracing.
//
// # Basic Usage
//
//	cfg, err := config.LoadConfigWithEnvOverrides("config.yaml")
//	if err != nil {
//	    return err
//	}
//
//	app, err := server.New(ctx, cfg, server.BuildInfo{Version: version}, logger)
//	if err != nil {
//	    return err
//	}
//	defer app.Close()
//
//	// Blocks until ctx is cancelled, then shuts down gracefully.
//	return app.Run(ctx)
//
// # Routes
//
//   - GET /api/search, /api/funds, /api/holdings/{fund}/top,
//     /api/stock/{ticker}/funds, /api/stats - gated lookups
//   - GET /api/usage, /api/health - usage report and simple health
//   - GET /static/cache/{key} - raw snapshots
//   - GET /health, /ready, /version - health endpoints
//   - GET /metrics - Prometheus exposition
//
// # Middleware Chain
//
// Requests pass through, outermost first:
//  1. Recovery: turns panics into a JSON 500
//  2. RequestID: accepts or generates X-Request-ID
//  3. ClientID: resolves the rate limiting identity
//  4. Logging: one access log line per request
//  5. CORS: cross-origin headers and preflight
//  6. Timeout: bounds the request context
//
// Each API route is additionally wrapped with a tracing span and request
// metrics labelled by its route pattern.
//
// # Graceful Shutdown
//
// Server.Start returns once its context is cancelled or Stop is called,
// after waiting up to ShutdownTimeout for in-flight requests.
package server
