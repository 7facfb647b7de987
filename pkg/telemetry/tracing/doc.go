// Package tracing provides OpenTelemetry distributed tracing for fundwatch.
//
// # Overview
//
// New installs a tracer provider exporting over OTLP/gRPC and a W3C Trace
// Context propagator. When tracing is disabled a noop tracer is used and
// the instrumented packages pay only the cost of a noop span.
//
// Spans:
//   - "GET /api/..." server spans from HTTPMiddleware, one per route
//   - "gate.Handle" per lookup, carrying gate.key, gate.source and the
//     limiter decision (see attributes.go)
//
// # Sampling Strategies
//
//   - always: sample all traces (development)
//   - never: sample no traces
//   - ratio: sample a fraction of trace IDs (production)
//
// Every sampler respects the sampling decision of an incoming traceparent.
//
// # Usage
//
//	tracer, err := tracing.New(ctx, &cfg.Telemetry.Tracing, version)
//	if err != nil {
//	    return err
//	}
//	defer tracer.Shutdown(context.Background())
//
//	mux.Handle("GET /api/funds", tracing.HTTPMiddleware("/api/funds", h))
package tracing
