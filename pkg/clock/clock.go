// Package clock provides an injectable time source.
//
// Components that keep time-based state (rate limit windows, cache TTLs) read
// the current time through a Clock so tests can drive time deterministically
// with a Manual clock instead of sleeping.
package clock

import (
	"sync"
	"time"
)

// Clock supplies the current time.
type Clock interface {
	// Now returns the current time.
	//
	// Production implementations return time.Now(), which carries a
	// monotonic reading. Test implementations return controlled times.
	Now() time.Time
}

// systemClock reads the wall clock.
type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// System returns a Clock backed by time.Now.
func System() Clock {
	return systemClock{}
}

// OrSystem returns c, or the system clock when c is nil.
func OrSystem(c Clock) Clock {
	if c == nil {
		return System()
	}
	return c
}

// Manual is a Clock whose time only changes when told to.
// It is safe for concurrent use.
type Manual struct {
	mu  sync.RWMutex
	now time.Time
}

// NewManual creates a Manual clock starting at start.
// A zero start is replaced with a fixed, non-zero instant.
func NewManual(start time.Time) *Manual {
	if start.IsZero() {
		start = time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	}
	return &Manual{now: start}
}

// Now returns the clock's current time.
func (m *Manual) Now() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.now
}

// Advance moves the clock forward by d. A negative d moves it backwards,
// which is how tests simulate a clock anomaly.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	m.now = m.now.Add(d)
	m.mu.Unlock()
}

// Set jumps the clock to t.
func (m *Manual) Set(t time.Time) {
	m.mu.Lock()
	m.now = t
	m.mu.Unlock()
}
