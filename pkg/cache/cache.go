package cache

import (
	"context"
	"errors"
	"time"
)

// Cache is a key/value store with per-entry TTL.
type Cache[V any] interface {
	// Get returns the value for key if present and not expired.
	Get(ctx context.Context, key string) (V, bool)

	// Put stores value under key for ttl, replacing any previous entry.
	Put(ctx context.Context, key string, value V, ttl time.Duration)

	// Invalidate removes key.
	Invalidate(ctx context.Context, key string)
}

// Remote is a byte-oriented cache tier living outside the process.
type Remote interface {
	// Get returns the raw value for key and its remaining TTL. A missing key
	// is (nil, 0, false, nil). A zero TTL on a hit means the tier does not
	// know when the key expires.
	Get(ctx context.Context, key string) ([]byte, time.Duration, bool, error)

	// Set stores value under key for ttl.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes key.
	Delete(ctx context.Context, key string) error
}

// Entry is a cached value with its creation time and TTL.
type Entry[V any] struct {
	Value     V
	CreatedAt time.Time
	TTL       time.Duration
}

// Valid reports whether the entry is still fresh at now.
func (e Entry[V]) Valid(now time.Time) bool {
	return now.Before(e.ExpiresAt())
}

// ExpiresAt returns the instant the entry stops being valid.
func (e Entry[V]) ExpiresAt() time.Time {
	return e.CreatedAt.Add(e.TTL)
}

// Observer receives cache events, usually metrics.CacheMetrics.
// Implementations must be safe for concurrent use.
type Observer interface {
	RecordHit(cacheName string)
	RecordMiss(cacheName string)
	RecordEviction(cacheName string)
	UpdateSize(cacheName string, size int)
}

type nopObserver struct{}

func (nopObserver) RecordHit(string)       {}
func (nopObserver) RecordMiss(string)      {}
func (nopObserver) RecordEviction(string)  {}
func (nopObserver) UpdateSize(string, int) {}

var (
	// ErrBudgetExhausted is returned by RedisTier once the daily operation
	// budget has been spent.
	ErrBudgetExhausted = errors.New("remote cache budget exhausted")

	// ErrThrottled is returned by RedisTier when operations arrive faster than
	// the configured per-second rate.
	ErrThrottled = errors.New("remote cache throttled")
)
