// Package ratelimit provides multi-tier sliding window rate limiting per client.
//
// # Overview
//
// The ratelimit package implements:
//
//   - SlidingWindow: bucketed event counter for one client and one tier
//   - Counter: a single tier tracked across many clients
//   - Limiter: several tiers (per-second, per-minute, per-hour, per-day)
//     evaluated together for each client
//
// # Sliding Window
//
// Only events in the trailing window (now-window, now] count toward a limit.
// There is no calendar-aligned reset:
//
//	limiter, _ := ratelimit.NewLimiter(ratelimit.Config{
//	    Tiers: []ratelimit.Tier{
//	        {Name: "second", Window: time.Second, Max: 1},
//	        {Name: "minute", Window: time.Minute, Max: 10},
//	    },
//	})
//	d := limiter.Admit("10.0.0.1")
//	if !d.Allowed {
//	    w.Header().Set("Retry-After", strconv.Itoa(d.RetryAfterSeconds()))
//	}
//
// # Memory Bound
//
// Each window keeps at most Buckets+1 buckets regardless of traffic. A bucket
// stays in the window until its newest event leaves, so a release may be
// delayed by up to one bucket granularity (window/Buckets). The counter never
// under-counts, so the limit is never exceeded because of compaction.
//
// # Check-Then-Commit
//
// Admit evaluates every tier before recording anything. A denied request is
// not counted against any tier, including tiers it passed.
//
// # Thread Safety
//
// Limiter and Counter are safe for concurrent use. Client state is sharded so
// that different clients rarely contend on the same lock. SlidingWindow is not
// synchronized; its owner serializes access.
package ratelimit
