package gate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"fundwatch-hq/fundwatch/pkg/cache"
	"fundwatch-hq/fundwatch/pkg/limits/ratelimit"
	"fundwatch-hq/fundwatch/pkg/telemetry/logging"
	"fundwatch-hq/fundwatch/pkg/telemetry/tracing"
)

// Source tells where a response came from.
type Source string

const (
	// SourceCache is a cache hit.
	SourceCache Source = "cache"

	// SourceLive is a freshly computed value.
	SourceLive Source = "live"

	// SourceStatic is a pre-generated snapshot served instead of a live
	// value.
	SourceStatic Source = "static"
)

// Outcomes reported to the Observer. The first three equal the Source of a
// successful Handle.
const (
	OutcomeCache         = string(SourceCache)
	OutcomeLive          = string(SourceLive)
	OutcomeStatic        = string(SourceStatic)
	OutcomeRateLimited   = "rate_limited"
	OutcomeComputeFailed = "compute_failed"
)

// BackendID is the identity under which the backend budget is counted.
const BackendID = "backend"

// DefaultTTL is the cache TTL for live values when none is configured.
const DefaultTTL = 5 * time.Minute

// DefaultDegradedTTL is the cache TTL for live values computed while the
// service level is below normal.
const DefaultDegradedTTL = time.Hour

// Result is a successful Handle outcome.
type Result[V any] struct {
	Value  V
	Source Source

	// Level is the service level the request was served at.
	Level ServiceLevel

	// Shared is true when a live value came from a concurrent request for
	// the same key.
	Shared bool
}

// ComputeFunc produces the authoritative value for a key.
type ComputeFunc[V any] func(ctx context.Context) (V, error)

// Limiter admits or denies identities. *ratelimit.Limiter implements it.
// An admission is returned as a reservation the gate cancels when a later
// stage turns the request away.
type Limiter interface {
	Reserve(clientID string) (ratelimit.Decision, *ratelimit.Reservation)
	Usage(clientID string) ratelimit.Usage
}

// Static looks up fallback values. *snapshot.Typed implements it.
type Static[V any] interface {
	Lookup(ctx context.Context, key string) (V, bool)
}

// Observer receives gate events. Implementations must be safe for
// concurrent use.
type Observer interface {
	// ObserveHandle is called once per Handle with its outcome.
	ObserveHandle(outcome string, d time.Duration)

	// ObserveDenial is called for each limiter denial with its scope.
	ObserveDenial(scope string)

	// ObserveServiceLevel is called with the level of each request.
	ObserveServiceLevel(level ServiceLevel)
}

type nopObserver struct{}

func (nopObserver) ObserveHandle(string, time.Duration) {}
func (nopObserver) ObserveDenial(string)                {}
func (nopObserver) ObserveServiceLevel(ServiceLevel)    {}

// Config configures a Gate. Zero durations take their defaults and every
// collaborator is optional.
type Config[V any] struct {
	// DefaultTTL is the cache TTL for live values.
	// Default: 5 minutes
	DefaultTTL time.Duration

	// DegradedTTL replaces DefaultTTL while the service level is below
	// normal.
	// Default: 1 hour
	DegradedTTL time.Duration

	// Static serves fallbacks for denied requests.
	Static Static[V]

	// Backend is a budget shared by all callers, counted under BackendID.
	Backend Limiter

	// Loader collapses concurrent computes of the same key.
	Loader *cache.Loader[V]

	// MaxInFlight caps concurrent computes. Zero means no cap.
	MaxInFlight int

	// Degrade adapts a value to a reduced service level before it is
	// returned. Cached values are stored undegraded.
	Degrade func(V, ServiceLevel) V

	Logger   *slog.Logger
	Observer Observer

	// Tracer defaults to the global OpenTelemetry tracer provider.
	Tracer trace.Tracer
}

// Gate is the request admission and response caching front of a data
// source. It is safe for concurrent use.
type Gate[V any] struct {
	limiter  Limiter
	cache    cache.Cache[V]
	static   Static[V]
	backend  Limiter
	loader   *cache.Loader[V]
	inflight *ratelimit.ConcurrentLimiter
	degrade  func(V, ServiceLevel) V

	ttl         time.Duration
	degradedTTL time.Duration

	logger   *slog.Logger
	observer Observer
	tracer   trace.Tracer
}

// New creates a gate. A nil limiter admits everyone.
func New[V any](limiter Limiter, c cache.Cache[V], cfg Config[V]) *Gate[V] {
	if cfg.DefaultTTL <= 0 {
		cfg.DefaultTTL = DefaultTTL
	}
	if cfg.DegradedTTL <= 0 {
		cfg.DegradedTTL = DefaultDegradedTTL
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Observer == nil {
		cfg.Observer = nopObserver{}
	}
	if cfg.Tracer == nil {
		cfg.Tracer = otel.Tracer("fundwatch/gate")
	}

	g := &Gate[V]{
		limiter:     limiter,
		cache:       c,
		static:      cfg.Static,
		backend:     cfg.Backend,
		loader:      cfg.Loader,
		degrade:     cfg.Degrade,
		ttl:         cfg.DefaultTTL,
		degradedTTL: cfg.DegradedTTL,
		logger:      cfg.Logger.With("component", "gate"),
		observer:    cfg.Observer,
		tracer:      cfg.Tracer,
	}
	if cfg.MaxInFlight > 0 {
		g.inflight = ratelimit.NewConcurrentLimiter(cfg.MaxInFlight)
	}
	return g
}

// Handle answers one request for key on behalf of clientID.
//
// It returns a Result from the cache, from compute, or from the static
// store. A denied request with no static snapshot returns a
// *RateLimitedError; a failed compute returns a *ComputeFailedError. Both
// match their sentinel with errors.Is.
//
// Quota is spent only on requests that reach compute: the client admission
// is cancelled when the in-flight cap or the backend budget turns the
// request away, and the backend budget is charged once per compute, not
// once per caller sharing it. An admission that reached compute is kept
// even if compute fails or ctx is cancelled. Handle stops waiting when ctx
// is done and returns a *ComputeFailedError wrapping ctx.Err().
func (g *Gate[V]) Handle(ctx context.Context, clientID, key string, compute ComputeFunc[V]) (res Result[V], err error) {
	start := time.Now()
	ctx, span := g.tracer.Start(ctx, "gate.Handle")
	tracing.SetRequestAttributes(span, logging.GetRequestID(ctx), clientID)
	defer func() {
		outcome := string(res.Source)
		if err != nil {
			outcome = outcomeOf(err)
			tracing.SetErrorAttributes(span, err, outcome)
		}
		tracing.SetGateAttributes(span, key, string(res.Source))
		tracing.SetDurationAttribute(span, time.Since(start))
		span.End()
		g.observer.ObserveHandle(outcome, time.Since(start))
	}()

	level := g.ServiceLevel()
	res.Level = level
	g.observer.ObserveServiceLevel(level)

	v, hit := g.cache.Get(ctx, key)
	tracing.SetCacheAttributes(span, hit, "responses")
	if hit {
		res.Value = g.degraded(v, level)
		res.Source = SourceCache
		return res, nil
	}

	if level == LevelStaticOnly {
		if v, ok := g.lookupStatic(ctx, key); ok {
			res.Value = v
			res.Source = SourceStatic
			return res, nil
		}
	}

	d, reservation := g.reserve(clientID)
	if !d.Allowed {
		tracing.SetLimiterAttributes(span, ScopeClient, false, d.Tier, d.RetryAfter)
		return g.fallback(ctx, key, res, &RateLimitedError{RetryAfter: d.RetryAfter, Tier: d.Tier, Scope: ScopeClient})
	}

	v, shared, err := g.compute(ctx, key, level, compute)
	if err != nil {
		var denied *deniedError
		if errors.As(err, &denied) {
			reservation.Cancel()
			tracing.SetLimiterAttributes(span, denied.Scope, false, denied.Tier, denied.RetryAfter)
			return g.fallback(ctx, key, res, denied.RateLimitedError)
		}
		g.logger.Warn("compute failed", "key", key, "error", err)
		return Result[V]{Level: level}, &ComputeFailedError{Key: key, Cause: err}
	}

	res.Value = g.degraded(v, level)
	res.Source = SourceLive
	res.Shared = shared
	return res, nil
}

// ServiceLevel derives the current level from the backend budget. Without
// a backend it is always LevelNormal.
func (g *Gate[V]) ServiceLevel() ServiceLevel {
	if g.backend == nil {
		return LevelNormal
	}

	used := 0.0
	for _, u := range g.backend.Usage(BackendID) {
		if u.Max <= 0 {
			continue
		}
		if f := float64(u.Count) / float64(u.Max); f > used {
			used = f
		}
	}
	return LevelFor(used)
}

// InFlight returns the number of computes running, or zero without a cap.
func (g *Gate[V]) InFlight() int64 {
	if g.inflight == nil {
		return 0
	}
	return g.inflight.Current()
}

func (g *Gate[V]) reserve(clientID string) (ratelimit.Decision, *ratelimit.Reservation) {
	if g.limiter == nil {
		return ratelimit.Decision{Allowed: true}, nil
	}
	return g.limiter.Reserve(clientID)
}

// fallback answers a denied request from the static store, or returns
// denial.
func (g *Gate[V]) fallback(ctx context.Context, key string, res Result[V], denial *RateLimitedError) (Result[V], error) {
	g.observer.ObserveDenial(denial.Scope)

	if v, ok := g.lookupStatic(ctx, key); ok {
		tracing.AddEvent(trace.SpanFromContext(ctx), "static_fallback",
			attribute.String(tracing.AttrLimiterScope, denial.Scope),
		)
		g.logger.Debug("serving static snapshot",
			"key", key,
			"scope", denial.Scope,
		)
		res.Value = v
		res.Source = SourceStatic
		return res, nil
	}

	g.logger.Debug("request rate limited",
		"key", key,
		"scope", denial.Scope,
		"tier", denial.Tier,
		"retry_after", denial.RetryAfter,
	)
	return Result[V]{Level: res.Level}, denial
}

func (g *Gate[V]) lookupStatic(ctx context.Context, key string) (V, bool) {
	if g.static == nil {
		var zero V
		return zero, false
	}
	return g.static.Lookup(ctx, key)
}

// deniedError carries a denial raised inside a compute run, so every
// caller sharing the run falls back instead of failing.
type deniedError struct {
	*RateLimitedError
}

// run is one compute against the data source: it takes an in-flight slot,
// charges the backend budget and caches a successful value.
func (g *Gate[V]) run(ctx context.Context, key string, level ServiceLevel, fn ComputeFunc[V]) (v V, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	if g.inflight != nil {
		if !g.inflight.Acquire() {
			return v, &deniedError{&RateLimitedError{RetryAfter: time.Second, Scope: ScopeConcurrency}}
		}
		defer g.inflight.Release()
	}

	if g.backend != nil {
		if d, _ := g.backend.Reserve(BackendID); !d.Allowed {
			return v, &deniedError{&RateLimitedError{RetryAfter: d.RetryAfter, Tier: d.Tier, Scope: ScopeBackend}}
		}
	}

	v, err = fn(ctx)
	if err != nil {
		return v, err
	}

	ttl := g.ttl
	if level != LevelNormal {
		ttl = g.degradedTTL
	}
	g.cache.Put(context.WithoutCancel(ctx), key, v, ttl)
	return v, nil
}

// compute runs fn once for key and waits for it until ctx is done. With a
// Loader concurrent callers share one run that no single caller cancels.
func (g *Gate[V]) compute(ctx context.Context, key string, level ServiceLevel, fn ComputeFunc[V]) (V, bool, error) {
	do := func(ctx context.Context) (V, error) {
		return g.run(ctx, key, level, fn)
	}
	if g.loader != nil {
		return g.loader.Do(ctx, key, do)
	}

	type result struct {
		v   V
		err error
	}
	done := make(chan result, 1)
	go func() {
		v, err := do(ctx)
		done <- result{v, err}
	}()

	select {
	case r := <-done:
		return r.v, false, r.err
	case <-ctx.Done():
		var zero V
		return zero, false, ctx.Err()
	}
}

func (g *Gate[V]) degraded(v V, level ServiceLevel) V {
	if g.degrade == nil || level == LevelNormal {
		return v
	}
	return g.degrade(v, level)
}

func outcomeOf(err error) string {
	switch err.(type) {
	case *RateLimitedError:
		return OutcomeRateLimited
	default:
		return OutcomeComputeFailed
	}
}
