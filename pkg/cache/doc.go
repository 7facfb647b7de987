// Package cache provides the response caches consulted before any rate
// limiting or data access happens.
//
// # Tiers
//
//   - Memory: sharded in-process map with per-entry TTL. Expired entries are
//     never returned; they are dropped lazily on Get and in bulk by Sweep.
//   - RedisTier: optional remote tier backed by Redis. Every operation is
//     charged against a daily budget and a per-second smoothing limiter so a
//     metered Redis plan is never exceeded. An exhausted budget reads as a
//     miss.
//   - Tiered: composes Memory (L1) with an optional Remote (L2). Get tries
//     L1, then L2 and refills L1 on an L2 hit. Put and Invalidate write
//     through to both tiers.
//
// # Usage
//
//	mem := cache.NewMemory[holdings.Payload](cache.MemoryConfig{Name: "responses"})
//	c := cache.NewTiered[holdings.Payload](mem, redisTier, cache.TieredConfig{})
//
//	if v, ok := c.Get(ctx, "stock:AAPL"); ok {
//	    return v
//	}
//	c.Put(ctx, "stock:AAPL", v, 5*time.Minute)
//
// # Failure Handling
//
// Cache failures are never surfaced to callers. A broken L2 behaves like an
// empty one, and the failure is logged.
//
// # Thread Safety
//
// All types in this package are safe for concurrent use.
package cache
