package cache

import (
	"context"
	"sync"
	"time"

	"fundwatch-hq/fundwatch/internal/shard"
	"fundwatch-hq/fundwatch/pkg/clock"
)

// MemoryConfig configures a Memory cache.
type MemoryConfig struct {
	// Name labels the cache in metrics.
	// Default: "memory"
	Name string

	// MaxEntries bounds the cache size. When a shard is full, Put first drops
	// its expired entries and then the entry closest to expiry.
	// Zero means unbounded.
	MaxEntries int

	// Shards is the number of lock shards.
	// Default: 32
	Shards int

	// SweepInterval is how often Start removes expired entries.
	// Zero disables the background sweep.
	SweepInterval time.Duration

	// Clock is the time source. Default: system clock.
	Clock clock.Clock

	// Observer receives hit/miss/eviction events.
	Observer Observer
}

// Memory is a sharded in-process cache with per-entry TTL.
type Memory[V any] struct {
	name          string
	clock         clock.Clock
	observer      Observer
	shards        []*memoryShard[V]
	shardMax      int
	sweepInterval time.Duration
}

type memoryShard[V any] struct {
	mu      sync.RWMutex
	entries map[string]Entry[V]
}

// NewMemory creates an in-memory cache.
func NewMemory[V any](cfg MemoryConfig) *Memory[V] {
	name := cfg.Name
	if name == "" {
		name = "memory"
	}

	var observer Observer = nopObserver{}
	if cfg.Observer != nil {
		observer = cfg.Observer
	}

	m := &Memory[V]{
		name:          name,
		clock:         clock.OrSystem(cfg.Clock),
		observer:      observer,
		shards:        make([]*memoryShard[V], shard.Normalize(cfg.Shards)),
		sweepInterval: cfg.SweepInterval,
	}
	if cfg.MaxEntries > 0 {
		m.shardMax = cfg.MaxEntries / len(m.shards)
		if m.shardMax < 1 {
			m.shardMax = 1
		}
	}
	for i := range m.shards {
		m.shards[i] = &memoryShard[V]{entries: make(map[string]Entry[V])}
	}
	return m
}

// Name returns the cache name used in metrics.
func (m *Memory[V]) Name() string {
	return m.name
}

// Get returns the value for key if it exists and has not expired.
// An expired entry is removed and reported as a miss.
func (m *Memory[V]) Get(_ context.Context, key string) (V, bool) {
	e, ok := m.Entry(key)
	if !ok {
		m.observer.RecordMiss(m.name)
		var zero V
		return zero, false
	}
	m.observer.RecordHit(m.name)
	return e.Value, true
}

// Entry returns the full entry for key if it is still valid.
func (m *Memory[V]) Entry(key string) (Entry[V], bool) {
	now := m.clock.Now()
	s := m.shardFor(key)

	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok {
		return Entry[V]{}, false
	}
	if e.Valid(now) {
		return e, true
	}

	s.mu.Lock()
	// Re-check: a concurrent Put may have replaced the entry.
	if cur, ok := s.entries[key]; ok && !cur.Valid(now) {
		delete(s.entries, key)
		m.observer.RecordEviction(m.name)
	}
	s.mu.Unlock()

	return Entry[V]{}, false
}

// Put stores value under key for ttl. A non-positive ttl stores nothing.
func (m *Memory[V]) Put(_ context.Context, key string, value V, ttl time.Duration) {
	if ttl <= 0 {
		return
	}

	now := m.clock.Now()
	s := m.shardFor(key)

	s.mu.Lock()
	if _, exists := s.entries[key]; !exists && m.shardMax > 0 && len(s.entries) >= m.shardMax {
		m.makeRoom(s, now)
	}
	s.entries[key] = Entry[V]{Value: value, CreatedAt: now, TTL: ttl}
	s.mu.Unlock()
}

// Invalidate removes key.
func (m *Memory[V]) Invalidate(_ context.Context, key string) {
	s := m.shardFor(key)
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
}

// Clear removes every entry.
func (m *Memory[V]) Clear() {
	for _, s := range m.shards {
		s.mu.Lock()
		s.entries = make(map[string]Entry[V])
		s.mu.Unlock()
	}
	m.observer.UpdateSize(m.name, 0)
}

// Sweep removes entries expired at now and returns how many were removed.
// Shards are swept one at a time.
func (m *Memory[V]) Sweep(now time.Time) int {
	removed := 0
	size := 0
	for _, s := range m.shards {
		s.mu.Lock()
		removed += m.sweepShard(s, now)
		size += len(s.entries)
		s.mu.Unlock()
	}
	m.observer.UpdateSize(m.name, size)
	return removed
}

// Start runs Sweep every SweepInterval until ctx is cancelled.
func (m *Memory[V]) Start(ctx context.Context) {
	if m.sweepInterval <= 0 {
		return
	}

	ticker := time.NewTicker(m.sweepInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.Sweep(m.clock.Now())
			}
		}
	}()
}

// Len returns the number of stored entries, including expired entries not
// yet swept.
func (m *Memory[V]) Len() int {
	n := 0
	for _, s := range m.shards {
		s.mu.RLock()
		n += len(s.entries)
		s.mu.RUnlock()
	}
	return n
}

func (m *Memory[V]) shardFor(key string) *memoryShard[V] {
	return m.shards[shard.Index(key, len(m.shards))]
}

// sweepShard drops expired entries. Caller must hold s.mu.
func (m *Memory[V]) sweepShard(s *memoryShard[V], now time.Time) int {
	removed := 0
	for k, e := range s.entries {
		if !e.Valid(now) {
			delete(s.entries, k)
			m.observer.RecordEviction(m.name)
			removed++
		}
	}
	return removed
}

// makeRoom frees at least one slot in a full shard. Caller must hold s.mu.
func (m *Memory[V]) makeRoom(s *memoryShard[V], now time.Time) {
	if m.sweepShard(s, now) > 0 {
		return
	}

	var victim string
	var soonest time.Time
	first := true
	for k, e := range s.entries {
		if first || e.ExpiresAt().Before(soonest) {
			victim = k
			soonest = e.ExpiresAt()
			first = false
		}
	}
	if !first {
		delete(s.entries, victim)
		m.observer.RecordEviction(m.name)
	}
}
