package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"fundwatch-hq/fundwatch/internal/shard"
	"fundwatch-hq/fundwatch/pkg/clock"
)

// Limiter enforces several sliding window tiers per client.
//
// All tiers are evaluated together - if any tier would exceed its max, the
// request is rejected and RetryAfter reports the soonest time a violated
// tier frees a slot. Nothing is recorded for rejected requests.
//
// Limiter favors availability: an internal failure during Admit allows the
// request rather than denying it.
type Limiter struct {
	tiers     []Tier
	buckets   int
	maxWindow time.Duration

	clock    clock.Clock
	logger   *slog.Logger
	observer Observer

	shards          []*limiterShard
	cleanupInterval time.Duration
}

type limiterShard struct {
	mu      sync.Mutex
	clients map[string]*clientState
}

// clientState holds one window per tier for a client.
type clientState struct {
	windows  []*SlidingWindow
	lastSeen time.Time
}

// Option customizes a Limiter.
type Option func(*Limiter)

// WithClock sets the time source.
func WithClock(c clock.Clock) Option {
	return func(l *Limiter) { l.clock = clock.OrSystem(c) }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Limiter) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithObserver sets the event observer (usually Prometheus metrics).
func WithObserver(o Observer) Option {
	return func(l *Limiter) { l.observer = o }
}

// NewLimiter creates a new rate limiter with the given configuration.
//
// Example:
//
//	limiter, err := NewLimiter(Config{
//	    Tiers: []Tier{
//	        {Name: "second", Window: time.Second, Max: 1},
//	        {Name: "minute", Window: time.Minute, Max: 10},
//	    },
//	    CleanupInterval: time.Minute,
//	})
func NewLimiter(cfg Config, opts ...Option) (*Limiter, error) {
	tiers := cfg.Tiers
	if len(tiers) == 0 {
		tiers = DefaultTiers()
	}

	seen := make(map[string]bool, len(tiers))
	var maxWindow time.Duration
	for _, t := range tiers {
		if err := t.Validate(); err != nil {
			return nil, err
		}
		if seen[t.Name] {
			return nil, fmt.Errorf("%w: duplicate tier %q", ErrInvalidConfig, t.Name)
		}
		seen[t.Name] = true
		if t.Window > maxWindow {
			maxWindow = t.Window
		}
	}

	buckets := cfg.Buckets
	if buckets <= 0 {
		buckets = DefaultBuckets
	}

	l := &Limiter{
		tiers:           append([]Tier(nil), tiers...),
		buckets:         buckets,
		maxWindow:       maxWindow,
		clock:           clock.System(),
		logger:          slog.Default().With("component", "ratelimit"),
		shards:          make([]*limiterShard, shard.Normalize(cfg.Shards)),
		cleanupInterval: cfg.CleanupInterval,
	}
	for i := range l.shards {
		l.shards[i] = &limiterShard{clients: make(map[string]*clientState)}
	}
	for _, opt := range opts {
		opt(l)
	}

	return l, nil
}

// Tiers returns a copy of the configured tiers.
func (l *Limiter) Tiers() []Tier {
	return append([]Tier(nil), l.tiers...)
}

// Admit decides whether clientID may perform one more request.
//
// Every tier is checked first; increments are committed to all tiers only
// if all of them pass. A committed admission is never rolled back, even if
// the caller later abandons the request. Use Reserve when a later stage may
// still turn the request away.
func (l *Limiter) Admit(clientID string) Decision {
	d, _ := l.Reserve(clientID)
	return d
}

// Reserve is Admit returning the committed admission, which Cancel gives
// back to every tier. The reservation is nil when the request is denied.
func (l *Limiter) Reserve(clientID string) (d Decision, r *Reservation) {
	defer func() {
		if p := recover(); p != nil {
			l.logger.Error("rate limiter failure, allowing request",
				"client", clientID,
				"panic", fmt.Sprint(p),
			)
			d = Decision{Allowed: true}
			r = nil
		}
		if l.observer != nil {
			l.observer.ObserveDecision(d)
		}
	}()

	now := l.clock.Now()
	s := l.shardFor(clientID)

	s.mu.Lock()
	defer s.mu.Unlock()

	st, exists := s.clients[clientID]
	if !exists {
		st = l.newClientState()
	}

	anomaly := false
	for i, tier := range l.tiers {
		w := st.windows[i]
		if _, clamped := w.clamp(now); clamped {
			anomaly = true
		}

		n := w.Sum(now)
		if n+1 <= int64(tier.Max) {
			continue
		}

		wait := w.ResetIn(now, n+1-int64(tier.Max))
		if d.Tier == "" || wait < d.RetryAfter {
			d = Decision{Allowed: false, RetryAfter: wait, Tier: tier.Name}
		}
	}
	if anomaly {
		l.clockAnomaly(clientID)
	}

	if d.Tier != "" {
		if d.RetryAfter <= 0 {
			d.RetryAfter = l.smallestWindow()
		}
		return d, nil
	}

	at := make([]time.Time, len(st.windows))
	for i, w := range st.windows {
		at[i], _ = w.clamp(now)
		w.Add(now, 1)
	}
	if now.After(st.lastSeen) {
		st.lastSeen = now
	}
	if !exists {
		s.clients[clientID] = st
	}

	return Decision{Allowed: true}, &Reservation{limiter: l, clientID: clientID, at: at}
}

// Reservation is one committed admission.
type Reservation struct {
	limiter  *Limiter
	clientID string
	at       []time.Time // per tier, after clamping
	once     sync.Once
}

// Cancel removes the admission from every tier. It is safe to call more
// than once and on a nil Reservation. Events already pruned stay pruned.
func (r *Reservation) Cancel() {
	if r == nil {
		return
	}
	r.once.Do(func() {
		l := r.limiter
		s := l.shardFor(r.clientID)

		s.mu.Lock()
		defer s.mu.Unlock()

		st, ok := s.clients[r.clientID]
		if !ok {
			return
		}
		now := l.clock.Now()
		for i, w := range st.windows {
			w.Remove(now, r.at[i], 1)
		}
	})
}

// Usage reports clientID's standing against every tier.
func (l *Limiter) Usage(clientID string) Usage {
	now := l.clock.Now()
	usage := make(Usage, len(l.tiers))

	s := l.shardFor(clientID)
	s.mu.Lock()
	st := s.clients[clientID]

	for i, tier := range l.tiers {
		u := TierUsage{Max: tier.Max, Remaining: tier.Max}
		if st != nil {
			w := st.windows[i]
			n := w.Sum(now)
			u.Count = int(n)
			u.Remaining = tier.Max - int(n)
			if u.Remaining < 0 {
				u.Remaining = 0
			}
			u.ResetIn = w.ResetIn(now, 1)
		}
		usage[tier.Name] = u
	}
	s.mu.Unlock()

	return usage
}

// Cleanup removes clients whose newest event is older than the largest
// window and returns how many were removed. Each shard is locked on its own
// so request handling on other shards is never stalled.
func (l *Limiter) Cleanup(now time.Time) int {
	removed := 0
	active := 0

	for _, s := range l.shards {
		s.mu.Lock()
		for id, st := range s.clients {
			if now.Sub(st.lastSeen) >= l.maxWindow {
				delete(s.clients, id)
				removed++
			}
		}
		active += len(s.clients)
		s.mu.Unlock()
	}

	if l.observer != nil {
		l.observer.ObserveCleanup(removed, active)
	}
	if removed > 0 {
		l.logger.Debug("evicted idle rate limit clients",
			"removed", removed,
			"active", active,
		)
	}

	return removed
}

// Start runs Cleanup every CleanupInterval until ctx is cancelled.
// It returns immediately; the janitor runs in its own goroutine.
func (l *Limiter) Start(ctx context.Context) {
	if l.cleanupInterval <= 0 {
		return
	}

	ticker := time.NewTicker(l.cleanupInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				l.Cleanup(l.clock.Now())
			}
		}
	}()
}

// Len returns the number of tracked clients.
func (l *Limiter) Len() int {
	n := 0
	for _, s := range l.shards {
		s.mu.Lock()
		n += len(s.clients)
		s.mu.Unlock()
	}
	return n
}

// Reset forgets all clients. This is primarily for testing.
func (l *Limiter) Reset() {
	for _, s := range l.shards {
		s.mu.Lock()
		s.clients = make(map[string]*clientState)
		s.mu.Unlock()
	}
}

func (l *Limiter) newClientState() *clientState {
	st := &clientState{windows: make([]*SlidingWindow, len(l.tiers))}
	for i, tier := range l.tiers {
		st.windows[i] = NewSlidingWindow(tier.Window, l.buckets)
	}
	return st
}

func (l *Limiter) shardFor(clientID string) *limiterShard {
	return l.shards[shard.Index(clientID, len(l.shards))]
}

func (l *Limiter) smallestWindow() time.Duration {
	smallest := l.tiers[0].Window
	for _, t := range l.tiers[1:] {
		if t.Window < smallest {
			smallest = t.Window
		}
	}
	return smallest
}

func (l *Limiter) clockAnomaly(clientID string) {
	l.logger.Warn("clock moved backwards, clamping window", "client", clientID)
	if l.observer != nil {
		l.observer.ObserveClockAnomaly()
	}
}
