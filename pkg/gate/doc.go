// Package gate decides, per request, where a response comes from.
//
// A Gate composes a rate limiter, a response cache and a static snapshot
// store around a compute function that reaches the authoritative data
// source:
//
//  1. A cache hit is returned immediately. Cache hits never count against
//     the caller's rate limit and never invoke compute.
//  2. On a miss the caller is admitted or denied by the limiter. A denied
//     caller gets the static snapshot for the key when one exists, and a
//     *RateLimitedError carrying the retry delay otherwise.
//  3. An admitted caller runs compute. A successful value is cached and
//     returned; a failure is returned as *ComputeFailedError and nothing is
//     cached. A caller whose ctx is done stops waiting; the compute still
//     finishes and caches its value.
//
// # Backend budget
//
// A second limiter can guard the data source itself (a daily query budget
// shared by all callers). It is charged once per compute, after the
// in-flight cap admitted it, so callers sharing a compute through a Loader
// pay once. A denial by either falls back the same way and gives the
// caller's admission back. Its usage also sets the ServiceLevel: as the
// budget drains, live values are cached longer and responses can be trimmed
// with Config.Degrade. At static_only a static snapshot is served before
// any admission.
//
// # Usage
//
//	g := gate.New(limiter, responses, gate.Config[holdings.Payload]{
//	    DefaultTTL: 5 * time.Minute,
//	    Static:     snapshot.NewTyped[holdings.Payload](store, logger),
//	    Logger:     logger,
//	})
//
//	res, err := g.Handle(ctx, clientID, holdings.TopKey("VOO", 10), func(ctx context.Context) (holdings.Payload, error) {
//	    return load(ctx)
//	})
package gate
