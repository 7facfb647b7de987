package gate

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"fundwatch-hq/fundwatch/pkg/cache"
	"fundwatch-hq/fundwatch/pkg/clock"
	"fundwatch-hq/fundwatch/pkg/limits/ratelimit"
)

// ============================================================================
// Helpers
// ============================================================================

var t0 = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

type quote struct {
	Symbol string
	Price  float64
}

type staticMap map[string]quote

func (s staticMap) Lookup(_ context.Context, key string) (quote, bool) {
	q, ok := s[key]
	return q, ok
}

type recordingObserver struct {
	mu       sync.Mutex
	outcomes map[string]int
	denials  map[string]int
	levels   map[ServiceLevel]int
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{
		outcomes: make(map[string]int),
		denials:  make(map[string]int),
		levels:   make(map[ServiceLevel]int),
	}
}

func (o *recordingObserver) ObserveHandle(outcome string, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.outcomes[outcome]++
}

func (o *recordingObserver) ObserveDenial(scope string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.denials[scope]++
}

func (o *recordingObserver) ObserveServiceLevel(level ServiceLevel) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.levels[level]++
}

func newLimiter(t *testing.T, clk clock.Clock, tiers ...ratelimit.Tier) *ratelimit.Limiter {
	t.Helper()
	l, err := ratelimit.NewLimiter(ratelimit.Config{Tiers: tiers}, ratelimit.WithClock(clk))
	if err != nil {
		t.Fatalf("Failed to create limiter: %v", err)
	}
	return l
}

func newMemory(clk clock.Clock) *cache.Memory[quote] {
	return cache.NewMemory[quote](cache.MemoryConfig{Clock: clk})
}

// counted returns a compute that counts its calls and returns q.
func counted(calls *atomic.Int32, q quote) ComputeFunc[quote] {
	return func(context.Context) (quote, error) {
		calls.Add(1)
		return q, nil
	}
}

func perSecond(max int) ratelimit.Tier {
	return ratelimit.Tier{Name: "second", Window: time.Second, Max: max}
}

// ============================================================================
// Handle
// ============================================================================

func TestGate_LiveThenCache(t *testing.T) {
	clk := clock.NewManual(t0)
	mem := newMemory(clk)
	g := New[quote](newLimiter(t, clk, perSecond(100)), mem, Config[quote]{})
	ctx := context.Background()

	var calls atomic.Int32
	compute := counted(&calls, quote{Symbol: "AAPL", Price: 7.1})

	tests := []struct {
		name       string
		advance    time.Duration
		wantSource Source
		wantCalls  int32
	}{
		{"first request computes", 0, SourceLive, 1},
		{"second request hits cache", 0, SourceCache, 1},
		{"still fresh at 299s", 299 * time.Second, SourceCache, 1},
		{"expired at 301s", 2 * time.Second, SourceLive, 2},
	}

	for _, tt := range tests {
		clk.Advance(tt.advance)

		res, err := g.Handle(ctx, "client-1", "stock:AAPL", compute)
		if err != nil {
			t.Fatalf("%s: Handle failed: %v", tt.name, err)
		}
		if res.Source != tt.wantSource {
			t.Errorf("%s: Expected source %s, got %s", tt.name, tt.wantSource, res.Source)
		}
		if res.Value.Symbol != "AAPL" {
			t.Errorf("%s: Expected AAPL, got %+v", tt.name, res.Value)
		}
		if got := calls.Load(); got != tt.wantCalls {
			t.Errorf("%s: Expected %d computes, got %d", tt.name, tt.wantCalls, got)
		}
	}
}

func TestGate_CacheHitNeverComputesOrConsumesQuota(t *testing.T) {
	clk := clock.NewManual(t0)
	mem := newMemory(clk)
	limiter := newLimiter(t, clk, perSecond(1))
	g := New[quote](limiter, mem, Config[quote]{})
	ctx := context.Background()

	mem.Put(ctx, "funds", quote{Symbol: "VOO"}, time.Minute)

	for i := 0; i < 5; i++ {
		res, err := g.Handle(ctx, "client-1", "funds", func(context.Context) (quote, error) {
			t.Error("compute must not run on a cache hit")
			return quote{}, nil
		})
		if err != nil {
			t.Fatalf("Handle failed: %v", err)
		}
		if res.Source != SourceCache {
			t.Errorf("Expected source cache, got %s", res.Source)
		}
	}

	if u := limiter.Usage("client-1")["second"]; u.Count != 0 {
		t.Errorf("Expected cache hits not to consume quota, got count %d", u.Count)
	}

	var calls atomic.Int32
	if _, err := g.Handle(ctx, "client-1", "stats", counted(&calls, quote{})); err != nil {
		t.Errorf("Expected first miss to be admitted, got %v", err)
	}
}

func TestGate_DeniedServesStatic(t *testing.T) {
	clk := clock.NewManual(t0)
	static := staticMap{"top10": {Symbol: "VOO", Price: 1}}
	g := New[quote](newLimiter(t, clk, perSecond(1)), newMemory(clk), Config[quote]{Static: static})
	ctx := context.Background()

	var calls atomic.Int32
	if _, err := g.Handle(ctx, "client-1", "stats", counted(&calls, quote{})); err != nil {
		t.Fatalf("first Handle failed: %v", err)
	}

	res, err := g.Handle(ctx, "client-1", "top10", counted(&calls, quote{Symbol: "live"}))
	if err != nil {
		t.Fatalf("Expected static fallback, got error %v", err)
	}
	if res.Source != SourceStatic {
		t.Errorf("Expected source static, got %s", res.Source)
	}
	if res.Value.Symbol != "VOO" {
		t.Errorf("Expected static VOO value, got %+v", res.Value)
	}
	if calls.Load() != 1 {
		t.Errorf("Expected compute to run once, got %d", calls.Load())
	}
}

func TestGate_DeniedWithoutStatic(t *testing.T) {
	clk := clock.NewManual(t0)
	obs := newRecordingObserver()
	g := New[quote](newLimiter(t, clk, perSecond(1)), newMemory(clk), Config[quote]{
		Static:   staticMap{},
		Observer: obs,
	})
	ctx := context.Background()

	var calls atomic.Int32
	if _, err := g.Handle(ctx, "client-1", "stats", counted(&calls, quote{})); err != nil {
		t.Fatalf("first Handle failed: %v", err)
	}

	_, err := g.Handle(ctx, "client-1", "funds", counted(&calls, quote{}))
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("Expected ErrRateLimited, got %v", err)
	}

	var rl *RateLimitedError
	if !errors.As(err, &rl) {
		t.Fatalf("Expected *RateLimitedError, got %T", err)
	}
	if rl.RetryAfter <= 0 || rl.RetryAfter > time.Second {
		t.Errorf("Expected 0 < RetryAfter <= 1s, got %v", rl.RetryAfter)
	}
	if rl.Scope != ScopeClient || rl.Tier != "second" {
		t.Errorf("Expected client scope on tier second, got %s/%s", rl.Scope, rl.Tier)
	}
	if calls.Load() != 1 {
		t.Errorf("Expected no compute for the denied request, got %d computes", calls.Load())
	}

	if obs.outcomes[OutcomeLive] != 1 || obs.outcomes[OutcomeRateLimited] != 1 {
		t.Errorf("Expected one live and one rate limited outcome, got %v", obs.outcomes)
	}
	if obs.denials[ScopeClient] != 1 {
		t.Errorf("Expected one client denial, got %v", obs.denials)
	}
}

func TestGate_SecondAndMinuteScenario(t *testing.T) {
	clk := clock.NewManual(t0)
	g := New[quote](newLimiter(t, clk,
		ratelimit.Tier{Name: "second", Window: time.Second, Max: 1},
		ratelimit.Tier{Name: "minute", Window: time.Minute, Max: 10},
	), newMemory(clk), Config[quote]{})
	ctx := context.Background()

	var calls atomic.Int32
	compute := counted(&calls, quote{})

	if _, err := g.Handle(ctx, "x", "search:a", compute); err != nil {
		t.Fatalf("Expected first request to be allowed, got %v", err)
	}

	_, err := g.Handle(ctx, "x", "search:b", compute)
	var rl *RateLimitedError
	if !errors.As(err, &rl) {
		t.Fatalf("Expected second request to be denied, got %v", err)
	}
	if rl.RetryAfterSeconds() != 1 {
		t.Errorf("Expected retry after 1s, got %ds", rl.RetryAfterSeconds())
	}

	clk.Advance(time.Second)
	if _, err := g.Handle(ctx, "x", "search:c", compute); err != nil {
		t.Errorf("Expected third request after 1s to be allowed, got %v", err)
	}
}

func TestGate_ComputeFailedIsNotCached(t *testing.T) {
	clk := clock.NewManual(t0)
	mem := newMemory(clk)
	g := New[quote](newLimiter(t, clk, perSecond(10)), mem, Config[quote]{})
	ctx := context.Background()

	cause := errors.New("database is locked")
	_, err := g.Handle(ctx, "client-1", "stats", func(context.Context) (quote, error) {
		return quote{}, cause
	})

	if !errors.Is(err, ErrComputeFailed) {
		t.Fatalf("Expected ErrComputeFailed, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Errorf("Expected error to wrap the cause, got %v", err)
	}
	if mem.Len() != 0 {
		t.Errorf("Expected nothing cached, got %d entries", mem.Len())
	}

	var calls atomic.Int32
	res, err := g.Handle(ctx, "client-1", "stats", counted(&calls, quote{Symbol: "ok"}))
	if err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if res.Source != SourceLive || calls.Load() != 1 {
		t.Errorf("Expected the retry to compute live, got %s after %d computes", res.Source, calls.Load())
	}
}

func TestGate_ComputePanicIsComputeFailed(t *testing.T) {
	clk := clock.NewManual(t0)
	g := New[quote](nil, newMemory(clk), Config[quote]{})

	_, err := g.Handle(context.Background(), "client-1", "stats", func(context.Context) (quote, error) {
		panic("boom")
	})
	if !errors.Is(err, ErrComputeFailed) {
		t.Errorf("Expected ErrComputeFailed, got %v", err)
	}
}

func TestGate_CancelledComputeKeepsAdmission(t *testing.T) {
	clk := clock.NewManual(t0)
	limiter := newLimiter(t, clk, perSecond(5))
	g := New[quote](limiter, newMemory(clk), Config[quote]{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := g.Handle(ctx, "client-1", "stats", func(ctx context.Context) (quote, error) {
		<-ctx.Done()
		return quote{}, ctx.Err()
	})
	if !errors.Is(err, ErrComputeFailed) || !errors.Is(err, context.Canceled) {
		t.Errorf("Expected ComputeFailed wrapping context.Canceled, got %v", err)
	}
	if u := limiter.Usage("client-1")["second"]; u.Count != 1 {
		t.Errorf("Expected the admission to stay counted, got %d", u.Count)
	}
}

func TestGate_NilLimiterAdmitsEveryone(t *testing.T) {
	clk := clock.NewManual(t0)
	g := New[quote](nil, newMemory(clk), Config[quote]{})

	var calls atomic.Int32
	for i := 0; i < 20; i++ {
		key := "stock:" + string(rune('A'+i))
		if _, err := g.Handle(context.Background(), "client-1", key, counted(&calls, quote{})); err != nil {
			t.Fatalf("Handle %d failed: %v", i, err)
		}
	}
	if calls.Load() != 20 {
		t.Errorf("Expected 20 computes, got %d", calls.Load())
	}
}

// ============================================================================
// Backend budget and service level
// ============================================================================

func TestGate_BackendBudget(t *testing.T) {
	clk := clock.NewManual(t0)
	backend := newLimiter(t, clk, ratelimit.Tier{Name: "day", Window: 24 * time.Hour, Max: 2})
	static := staticMap{"top10": {Symbol: "static"}}
	obs := newRecordingObserver()

	g := New[quote](newLimiter(t, clk, perSecond(100)), newMemory(clk), Config[quote]{
		Backend:  backend,
		Static:   static,
		Observer: obs,
	})
	ctx := context.Background()

	var calls atomic.Int32
	for _, key := range []string{"stock:AAPL", "stock:MSFT"} {
		res, err := g.Handle(ctx, "client-1", key, counted(&calls, quote{}))
		if err != nil || res.Source != SourceLive {
			t.Fatalf("Expected live result for %s, got %v / %v", key, res.Source, err)
		}
	}

	if lvl := g.ServiceLevel(); lvl != LevelStaticOnly {
		t.Errorf("Expected static_only with the budget spent, got %s", lvl)
	}

	res, err := g.Handle(ctx, "client-2", "top10", counted(&calls, quote{}))
	if err != nil || res.Source != SourceStatic {
		t.Errorf("Expected static result for top10, got %v / %v", res.Source, err)
	}

	_, err = g.Handle(ctx, "client-2", "stock:NVDA", counted(&calls, quote{}))
	var rl *RateLimitedError
	if !errors.As(err, &rl) {
		t.Fatalf("Expected *RateLimitedError, got %v", err)
	}
	if rl.Scope != ScopeBackend || rl.Tier != "day" {
		t.Errorf("Expected backend day denial, got %s/%s", rl.Scope, rl.Tier)
	}
	if calls.Load() != 2 {
		t.Errorf("Expected 2 computes, got %d", calls.Load())
	}
	if obs.denials[ScopeBackend] != 1 {
		t.Errorf("Expected one backend denial, got %v", obs.denials)
	}
}

func TestGate_DegradedLevel(t *testing.T) {
	clk := clock.NewManual(t0)
	backend := newLimiter(t, clk, ratelimit.Tier{Name: "day", Window: 24 * time.Hour, Max: 10})
	mem := newMemory(clk)

	g := New[quote](nil, mem, Config[quote]{
		Backend: backend,
		Degrade: func(q quote, level ServiceLevel) quote {
			q.Price = 0
			return q
		},
	})
	ctx := context.Background()

	for i := 0; i < 7; i++ {
		backend.Admit(BackendID)
	}
	if lvl := g.ServiceLevel(); lvl != LevelReduced {
		t.Fatalf("Expected reduced at 70%%, got %s", lvl)
	}

	var calls atomic.Int32
	res, err := g.Handle(ctx, "client-1", "stock:AAPL", counted(&calls, quote{Symbol: "AAPL", Price: 7.1}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if res.Level != LevelReduced {
		t.Errorf("Expected result level reduced, got %s", res.Level)
	}
	if res.Value.Price != 0 {
		t.Errorf("Expected degraded value, got %+v", res.Value)
	}

	entry, ok := mem.Entry("stock:AAPL")
	if !ok {
		t.Fatal("Expected live value to be cached")
	}
	if entry.TTL != DefaultDegradedTTL {
		t.Errorf("Expected degraded TTL %v, got %v", DefaultDegradedTTL, entry.TTL)
	}
	if entry.Value.Price != 7.1 {
		t.Errorf("Expected undegraded value in cache, got %+v", entry.Value)
	}
}

// ============================================================================
// Concurrency
// ============================================================================

func TestGate_LoaderSharesConcurrentComputes(t *testing.T) {
	clk := clock.NewManual(t0)
	g := New[quote](nil, newMemory(clk), Config[quote]{Loader: &cache.Loader[quote]{}})

	var calls atomic.Int32
	release := make(chan struct{})
	compute := func(context.Context) (quote, error) {
		calls.Add(1)
		<-release
		return quote{Symbol: "AAPL"}, nil
	}

	var wg sync.WaitGroup
	results := make([]Result[quote], 5)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := g.Handle(context.Background(), "client-1", "stock:AAPL", compute)
			if err != nil {
				t.Errorf("Handle failed: %v", err)
			}
			results[i] = res
		}(i)
	}

	time.Sleep(100 * time.Millisecond)
	close(release)
	wg.Wait()

	if calls.Load() != 1 {
		t.Errorf("Expected 1 compute, got %d", calls.Load())
	}
	for i, res := range results {
		if res.Value.Symbol != "AAPL" {
			t.Errorf("result %d: Expected AAPL, got %+v", i, res.Value)
		}
	}
}

func TestGate_MaxInFlight(t *testing.T) {
	clk := clock.NewManual(t0)
	g := New[quote](nil, newMemory(clk), Config[quote]{MaxInFlight: 1})

	entered := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)

	go func() {
		_, err := g.Handle(context.Background(), "client-1", "stats", func(context.Context) (quote, error) {
			close(entered)
			<-release
			return quote{}, nil
		})
		done <- err
	}()

	<-entered
	if g.InFlight() != 1 {
		t.Errorf("Expected 1 compute in flight, got %d", g.InFlight())
	}

	var calls atomic.Int32
	_, err := g.Handle(context.Background(), "client-2", "funds", counted(&calls, quote{}))
	var rl *RateLimitedError
	if !errors.As(err, &rl) || rl.Scope != ScopeConcurrency {
		t.Errorf("Expected concurrency denial, got %v", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Errorf("first Handle failed: %v", err)
	}
	if g.InFlight() != 0 {
		t.Errorf("Expected no computes in flight, got %d", g.InFlight())
	}
}

func TestGate_ConcurrentClientsAdmittedExactly(t *testing.T) {
	clk := clock.NewManual(t0)
	g := New[quote](newLimiter(t, clk, ratelimit.Tier{Name: "minute", Window: time.Minute, Max: 50}), newMemory(clk), Config[quote]{})

	var (
		wg      sync.WaitGroup
		live    atomic.Int32
		limited atomic.Int32
	)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := "search:" + string(rune('a'+i%26)) + string(rune('a'+i/26))
			_, err := g.Handle(context.Background(), "x", key, func(context.Context) (quote, error) {
				return quote{}, nil
			})
			switch {
			case err == nil:
				live.Add(1)
			case errors.Is(err, ErrRateLimited):
				limited.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if live.Load() != 50 || limited.Load() != 50 {
		t.Errorf("Expected 50 live and 50 limited, got %d and %d", live.Load(), limited.Load())
	}
}

// ============================================================================
// Quota accounting
// ============================================================================

func TestGate_BackendDenialRefundsClient(t *testing.T) {
	clk := clock.NewManual(t0)
	client := newLimiter(t, clk, ratelimit.Tier{Name: "minute", Window: time.Minute, Max: 10})
	backend := newLimiter(t, clk, ratelimit.Tier{Name: "day", Window: 24 * time.Hour, Max: 1})
	backend.Admit(BackendID)

	g := New[quote](client, newMemory(clk), Config[quote]{Backend: backend})

	var calls atomic.Int32
	for _, key := range []string{"stock:AAPL", "stock:MSFT", "stock:NVDA"} {
		_, err := g.Handle(context.Background(), "client-1", key, counted(&calls, quote{}))
		var rl *RateLimitedError
		if !errors.As(err, &rl) || rl.Scope != ScopeBackend {
			t.Fatalf("Expected backend denial for %s, got %v", key, err)
		}
	}

	if got := client.Usage("client-1")["minute"].Count; got != 0 {
		t.Errorf("Expected no client quota spent on denied requests, got %d", got)
	}
	if got := backend.Usage(BackendID)["day"].Count; got != 1 {
		t.Errorf("Expected backend count to stay at 1, got %d", got)
	}
	if calls.Load() != 0 {
		t.Errorf("Expected no computes, got %d", calls.Load())
	}
}

func TestGate_ConcurrencyDenialChargesNothing(t *testing.T) {
	clk := clock.NewManual(t0)
	client := newLimiter(t, clk, ratelimit.Tier{Name: "minute", Window: time.Minute, Max: 100})
	backend := newLimiter(t, clk, ratelimit.Tier{Name: "day", Window: 24 * time.Hour, Max: 100})
	g := New[quote](client, newMemory(clk), Config[quote]{Backend: backend, MaxInFlight: 1})

	entered := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		_, err := g.Handle(context.Background(), "client-1", "stats", func(context.Context) (quote, error) {
			close(entered)
			<-release
			return quote{}, nil
		})
		done <- err
	}()
	<-entered

	var calls atomic.Int32
	for i := 0; i < 5; i++ {
		key := "stock:" + string(rune('A'+i))
		_, err := g.Handle(context.Background(), "client-2", key, counted(&calls, quote{}))
		var rl *RateLimitedError
		if !errors.As(err, &rl) || rl.Scope != ScopeConcurrency {
			t.Fatalf("Expected concurrency denial for %s, got %v", key, err)
		}
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first Handle failed: %v", err)
	}

	if got := backend.Usage(BackendID)["day"].Count; got != 1 {
		t.Errorf("Expected backend charged once for the one compute, got %d", got)
	}
	if got := client.Usage("client-2")["minute"].Count; got != 0 {
		t.Errorf("Expected no quota spent by denied client, got %d", got)
	}
	if got := client.Usage("client-1")["minute"].Count; got != 1 {
		t.Errorf("Expected the computing client charged once, got %d", got)
	}
}

func TestGate_SharedComputeChargesBackendOnce(t *testing.T) {
	clk := clock.NewManual(t0)
	backend := newLimiter(t, clk, ratelimit.Tier{Name: "day", Window: 24 * time.Hour, Max: 100})
	g := New[quote](nil, newMemory(clk), Config[quote]{
		Backend: backend,
		Loader:  &cache.Loader[quote]{},
	})

	var calls atomic.Int32
	release := make(chan struct{})
	compute := func(context.Context) (quote, error) {
		calls.Add(1)
		<-release
		return quote{Symbol: "AAPL"}, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := g.Handle(context.Background(), "client-1", "stock:AAPL", compute); err != nil {
				t.Errorf("Handle failed: %v", err)
			}
		}()
	}

	time.Sleep(100 * time.Millisecond)
	close(release)
	wg.Wait()

	if calls.Load() != 1 {
		t.Fatalf("Expected 1 compute, got %d", calls.Load())
	}
	if got := backend.Usage(BackendID)["day"].Count; got != 1 {
		t.Errorf("Expected backend charged once, got %d", got)
	}
}

func TestGate_StaticOnlyServesWithoutQuota(t *testing.T) {
	clk := clock.NewManual(t0)
	client := newLimiter(t, clk, ratelimit.Tier{Name: "minute", Window: time.Minute, Max: 10})
	backend := newLimiter(t, clk, ratelimit.Tier{Name: "day", Window: 24 * time.Hour, Max: 1})
	backend.Admit(BackendID)

	g := New[quote](client, newMemory(clk), Config[quote]{
		Backend: backend,
		Static:  staticMap{"top10": {Symbol: "static"}},
	})

	res, err := g.Handle(context.Background(), "client-1", "top10", counted(new(atomic.Int32), quote{}))
	if err != nil || res.Source != SourceStatic {
		t.Fatalf("Expected static result, got %v / %v", res.Source, err)
	}
	if got := client.Usage("client-1")["minute"].Count; got != 0 {
		t.Errorf("Expected no quota spent on a static answer, got %d", got)
	}
}

// ============================================================================
// Cancellation
// ============================================================================

func TestGate_StopsWaitingWhenCallerGivesUp(t *testing.T) {
	clk := clock.NewManual(t0)
	mem := newMemory(clk)
	g := New[quote](nil, mem, Config[quote]{})

	release := make(chan struct{})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := g.Handle(ctx, "client-1", "stats", func(context.Context) (quote, error) {
		<-release
		return quote{Symbol: "late"}, nil
	})
	if !errors.Is(err, ErrComputeFailed) || !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected ComputeFailed wrapping DeadlineExceeded, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Expected Handle to return soon after the deadline, took %v", elapsed)
	}

	close(release)
	deadline := time.Now().Add(2 * time.Second)
	for mem.Len() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if mem.Len() != 1 {
		t.Errorf("Expected the finished compute to be cached, got %d entries", mem.Len())
	}
}

func TestGate_SharedComputeSurvivesOneCancel(t *testing.T) {
	clk := clock.NewManual(t0)
	g := New[quote](nil, newMemory(clk), Config[quote]{Loader: &cache.Loader[quote]{}})

	var once sync.Once
	started := make(chan struct{})
	release := make(chan struct{})
	compute := func(ctx context.Context) (quote, error) {
		once.Do(func() { close(started) })
		select {
		case <-release:
			return quote{Symbol: "AAPL"}, nil
		case <-ctx.Done():
			return quote{}, ctx.Err()
		}
	}

	ctxA, cancelA := context.WithCancel(context.Background())
	errA := make(chan error, 1)
	go func() {
		_, err := g.Handle(ctxA, "client-a", "stock:AAPL", compute)
		errA <- err
	}()
	<-started

	resB := make(chan Result[quote], 1)
	errB := make(chan error, 1)
	go func() {
		res, err := g.Handle(context.Background(), "client-b", "stock:AAPL", compute)
		resB <- res
		errB <- err
	}()

	time.Sleep(50 * time.Millisecond)
	cancelA()
	if err := <-errA; !errors.Is(err, context.Canceled) {
		t.Errorf("Expected caller A to see context.Canceled, got %v", err)
	}

	close(release)
	res := <-resB
	if err := <-errB; err != nil {
		t.Fatalf("Expected caller B to succeed, got %v", err)
	}
	if res.Value.Symbol != "AAPL" {
		t.Errorf("Expected AAPL for caller B, got %+v", res.Value)
	}
}
