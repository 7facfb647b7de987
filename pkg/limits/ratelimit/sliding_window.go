package ratelimit

import (
	"sort"
	"time"
)

// SlidingWindow counts events for one client over a rolling time window.
//
// Events within the trailing window (now-window, now] are counted. Older
// events are pruned on every access, so they never count against a limit.
//
// # Algorithm
//
//  1. Clamp now to the newest recorded event (clock anomaly guard)
//  2. Prune buckets whose newest event is older than the window
//  3. Add to the bucket for the current cell, or claim a free bucket
//
// # Memory Efficiency
//
// Uses a fixed ring of buckets with granularity window/buckets. A 1-minute
// window with 60 buckets tracks at most 61 buckets no matter how many events
// arrive.
//
// # Thread Safety
//
// SlidingWindow is not synchronized. The Limiter and Counter hold a shard
// lock around every call.
type SlidingWindow struct {
	window      time.Duration // Window duration (e.g., 1 minute)
	granularity time.Duration // Width of one bucket cell
	buckets     []bucket      // Ring of buckets
	head        int           // Last written position
	newest      time.Time     // Newest event ever recorded
}

// bucket aggregates the events of one granularity cell.
type bucket struct {
	cell   time.Time // Cell start (truncated to granularity)
	latest time.Time // Newest event in the cell
	count  int64
}

// live reports whether the bucket holds events.
func (b *bucket) live() bool {
	return b.count > 0
}

// NewSlidingWindow creates a sliding window of the given duration split into
// the given number of buckets.
//
// Example:
//
//	// 1-minute window with 1-second buckets
//	sw := NewSlidingWindow(time.Minute, 60)
func NewSlidingWindow(window time.Duration, buckets int) *SlidingWindow {
	if buckets <= 0 {
		buckets = DefaultBuckets
	}

	granularity := window / time.Duration(buckets)
	if granularity <= 0 {
		granularity = 1
	}

	return &SlidingWindow{
		window:      window,
		granularity: granularity,
		// One extra slot: a window can straddle buckets+1 cells.
		buckets: make([]bucket, buckets+1),
	}
}

// Window returns the window duration.
func (sw *SlidingWindow) Window() time.Duration {
	return sw.window
}

// Add records n events at now and reports whether now had to be clamped
// because the clock moved backwards.
func (sw *SlidingWindow) Add(now time.Time, n int64) (clamped bool) {
	now, clamped = sw.clamp(now)
	sw.prune(now)

	b := sw.bucketFor(now)
	b.count += n
	if now.After(b.latest) {
		b.latest = now
	}
	if now.After(sw.newest) {
		sw.newest = now
	}
	return clamped
}

// Sum returns the number of events in the window ending at now.
func (sw *SlidingWindow) Sum(now time.Time) int64 {
	now, _ = sw.clamp(now)
	sw.prune(now)

	var sum int64
	for i := range sw.buckets {
		sum += sw.buckets[i].count
	}
	return sum
}

// Prune drops buckets that left the window and returns how many events
// remain.
func (sw *SlidingWindow) Prune(now time.Time) int64 {
	return sw.Sum(now)
}

// ResetIn returns how long until at least release events have left the
// window. It returns zero when release is not positive or exceeds the
// number of counted events.
func (sw *SlidingWindow) ResetIn(now time.Time, release int64) time.Duration {
	if release <= 0 {
		return 0
	}

	now, _ = sw.clamp(now)
	sw.prune(now)

	live := make([]bucket, 0, len(sw.buckets))
	for i := range sw.buckets {
		if sw.buckets[i].live() {
			live = append(live, sw.buckets[i])
		}
	}
	sort.Slice(live, func(i, j int) bool {
		return live[i].latest.Before(live[j].latest)
	})

	var freed int64
	for _, b := range live {
		freed += b.count
		if freed >= release {
			wait := b.latest.Add(sw.window).Sub(now)
			if wait <= 0 {
				// prune keeps only buckets with now-latest < window.
				wait = time.Nanosecond
			}
			return wait
		}
	}
	return 0
}

// Remove takes back up to n events recorded at at. It prefers at's own
// cell and otherwise the oldest bucket that may have absorbed the event.
// Events that already left the window are not touched.
func (sw *SlidingWindow) Remove(now, at time.Time, n int64) {
	now, _ = sw.clamp(now)
	sw.prune(now)
	if now.Sub(at) >= sw.window {
		return
	}

	cell := at.Truncate(sw.granularity)
	var target *bucket
	for i := range sw.buckets {
		b := &sw.buckets[i]
		if !b.live() || b.latest.Before(at) {
			continue
		}
		if b.cell.Equal(cell) {
			target = b
			break
		}
		if target == nil || b.latest.Before(target.latest) {
			target = b
		}
	}
	if target == nil {
		return
	}
	target.count -= min(n, target.count)
}

// Newest returns the time of the newest recorded event.
func (sw *SlidingWindow) Newest() time.Time {
	return sw.newest
}

// Reset clears all buckets.
func (sw *SlidingWindow) Reset() {
	for i := range sw.buckets {
		sw.buckets[i] = bucket{}
	}
	sw.head = 0
	sw.newest = time.Time{}
}

// clamp returns now, or the newest recorded event if now is earlier.
func (sw *SlidingWindow) clamp(now time.Time) (time.Time, bool) {
	if now.Before(sw.newest) {
		return sw.newest, true
	}
	return now, false
}

// prune clears buckets whose newest event is at least one window old.
func (sw *SlidingWindow) prune(now time.Time) {
	for i := range sw.buckets {
		b := &sw.buckets[i]
		if b.live() && now.Sub(b.latest) >= sw.window {
			*b = bucket{}
		}
	}
}

// bucketFor finds the bucket for now's cell or claims one.
// Caller must have pruned at now.
func (sw *SlidingWindow) bucketFor(now time.Time) *bucket {
	cell := now.Truncate(sw.granularity)

	if b := &sw.buckets[sw.head]; b.live() && b.cell.Equal(cell) {
		return b
	}

	free := -1
	for i := range sw.buckets {
		b := &sw.buckets[i]
		if b.live() && b.cell.Equal(cell) {
			sw.head = i
			return b
		}
		if !b.live() && free == -1 {
			free = i
		}
	}

	if free == -1 {
		// Every slot is live; fold into the newest bucket. Its latest
		// timestamp only moves forward, so nothing is released early.
		newest := 0
		for i := 1; i < len(sw.buckets); i++ {
			if sw.buckets[i].latest.After(sw.buckets[newest].latest) {
				newest = i
			}
		}
		sw.head = newest
		return &sw.buckets[newest]
	}

	sw.buckets[free] = bucket{cell: cell}
	sw.head = free
	return &sw.buckets[free]
}
