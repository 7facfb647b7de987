package ratelimit

import (
	"sync/atomic"
)

// ConcurrentLimiter caps the number of simultaneous in-flight operations.
//
// It is a counting semaphore built on atomics: Acquire increments the
// counter and backs out if the limit was exceeded. It never blocks.
//
//	if !cl.Acquire() {
//	    // too many computes in flight
//	}
//	defer cl.Release()
type ConcurrentLimiter struct {
	limit   int64
	current atomic.Int64
}

// NewConcurrentLimiter creates a limiter allowing limit concurrent holders.
func NewConcurrentLimiter(limit int) *ConcurrentLimiter {
	return &ConcurrentLimiter{limit: int64(limit)}
}

// Acquire takes a slot and reports whether it succeeded. A successful
// Acquire must be paired with Release.
func (cl *ConcurrentLimiter) Acquire() bool {
	if cl.current.Add(1) > cl.limit {
		cl.current.Add(-1)
		return false
	}
	return true
}

// Release returns a slot taken by Acquire.
func (cl *ConcurrentLimiter) Release() {
	cl.current.Add(-1)
}

// Current returns the number of slots held.
func (cl *ConcurrentLimiter) Current() int64 {
	return cl.current.Load()
}

// Limit returns the configured limit.
func (cl *ConcurrentLimiter) Limit() int64 {
	return cl.limit
}

// Remaining returns the number of free slots.
func (cl *ConcurrentLimiter) Remaining() int64 {
	if r := cl.limit - cl.current.Load(); r > 0 {
		return r
	}
	return 0
}
