package ratelimit

import (
	"sync"
	"time"

	"fundwatch-hq/fundwatch/internal/shard"
	"fundwatch-hq/fundwatch/pkg/clock"
)

// Counter tracks one tier for many clients.
//
// Counter is the single-tier building block: Record appends an event and
// returns the client's count, Allow records only when the tier has room.
// It is used on its own for budgets that have exactly one rule, such as a
// daily operation budget for a remote service.
type Counter struct {
	tier    Tier
	buckets int
	clock   clock.Clock
	shards  []*counterShard
}

type counterShard struct {
	mu      sync.Mutex
	windows map[string]*SlidingWindow
}

// NewCounter creates a counter for tier.
func NewCounter(tier Tier, buckets int, clk clock.Clock) (*Counter, error) {
	if err := tier.Validate(); err != nil {
		return nil, err
	}
	if buckets <= 0 {
		buckets = DefaultBuckets
	}

	c := &Counter{
		tier:    tier,
		buckets: buckets,
		clock:   clock.OrSystem(clk),
		shards:  make([]*counterShard, shard.DefaultCount),
	}
	for i := range c.shards {
		c.shards[i] = &counterShard{windows: make(map[string]*SlidingWindow)}
	}
	return c, nil
}

// Tier returns the counter's tier.
func (c *Counter) Tier() Tier {
	return c.tier
}

// Record appends an event for clientID and returns the number of events in
// the window, including this one. Expired events are pruned first.
func (c *Counter) Record(clientID string) int {
	now := c.clock.Now()
	s := c.shardFor(clientID)

	s.mu.Lock()
	defer s.mu.Unlock()

	w := s.window(clientID, c.tier.Window, c.buckets)
	w.Add(now, 1)
	return int(w.Sum(now))
}

// Allow records an event only if the tier has room and reports whether it
// did, along with the count after the call.
func (c *Counter) Allow(clientID string) (bool, int) {
	now := c.clock.Now()
	s := c.shardFor(clientID)

	s.mu.Lock()
	defer s.mu.Unlock()

	w := s.window(clientID, c.tier.Window, c.buckets)
	n := int(w.Sum(now))
	if n+1 > c.tier.Max {
		return false, n
	}
	w.Add(now, 1)
	return true, n + 1
}

// Count returns the number of events in clientID's window.
func (c *Counter) Count(clientID string) int {
	now := c.clock.Now()
	s := c.shardFor(clientID)

	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.windows[clientID]
	if !ok {
		return 0
	}
	return int(w.Sum(now))
}

// Prune drops expired events for every client and forgets clients with no
// events left. It returns the number of clients removed. Shards are swept
// one at a time.
func (c *Counter) Prune(now time.Time) int {
	removed := 0
	for _, s := range c.shards {
		s.mu.Lock()
		for id, w := range s.windows {
			if w.Prune(now) == 0 {
				delete(s.windows, id)
				removed++
			}
		}
		s.mu.Unlock()
	}
	return removed
}

func (c *Counter) shardFor(clientID string) *counterShard {
	return c.shards[shard.Index(clientID, len(c.shards))]
}

// window returns the client's window, creating it if needed.
// Caller must hold s.mu.
func (s *counterShard) window(clientID string, window time.Duration, buckets int) *SlidingWindow {
	w, ok := s.windows[clientID]
	if !ok {
		w = NewSlidingWindow(window, buckets)
		s.windows[clientID] = w
	}
	return w
}
