package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"
)

// DefaultRefillTTL caps how long an L2 hit is kept in L1.
const DefaultRefillTTL = 5 * time.Minute

// TieredConfig configures a Tiered cache.
type TieredConfig struct {
	// RefillTTL is the L1 TTL for values read back from L2.
	// Default: 5 minutes
	RefillTTL time.Duration

	// Logger receives L2 failures. Default: slog.Default()
	Logger *slog.Logger

	// Observer receives L2 hit/miss events under "<l1 name>_remote".
	Observer Observer
}

// Tiered layers a Memory cache over an optional Remote tier.
type Tiered[V any] struct {
	l1        *Memory[V]
	l2        Remote
	refillTTL time.Duration
	logger    *slog.Logger
	observer  Observer
	l2Name    string
}

// NewTiered creates a tiered cache. l2 may be nil, in which case the cache
// behaves exactly like l1.
func NewTiered[V any](l1 *Memory[V], l2 Remote, cfg TieredConfig) *Tiered[V] {
	refill := cfg.RefillTTL
	if refill <= 0 {
		refill = DefaultRefillTTL
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var observer Observer = nopObserver{}
	if cfg.Observer != nil {
		observer = cfg.Observer
	}

	return &Tiered[V]{
		l1:        l1,
		l2:        l2,
		refillTTL: refill,
		logger:    logger.With("component", "cache"),
		observer:  observer,
		l2Name:    l1.Name() + "_remote",
	}
}

// Memory returns the L1 cache.
func (t *Tiered[V]) Memory() *Memory[V] {
	return t.l1
}

// HasRemote reports whether an L2 tier is configured.
func (t *Tiered[V]) HasRemote() bool {
	return t.l2 != nil
}

// Get looks key up in L1, then in L2. An L2 hit is copied into L1 for the
// smaller of its remaining L2 TTL and the refill TTL, so L1 never serves a
// value past its original expiry.
func (t *Tiered[V]) Get(ctx context.Context, key string) (V, bool) {
	if v, ok := t.l1.Get(ctx, key); ok {
		return v, true
	}

	var zero V
	if t.l2 == nil {
		return zero, false
	}

	raw, remaining, ok, err := t.l2.Get(ctx, key)
	if err != nil {
		t.logRemoteError("get", key, err)
		t.observer.RecordMiss(t.l2Name)
		return zero, false
	}
	if !ok {
		t.observer.RecordMiss(t.l2Name)
		return zero, false
	}

	var v V
	if err := json.Unmarshal(raw, &v); err != nil {
		t.logger.Warn("discarding undecodable remote cache entry",
			"key", key,
			"error", err,
		)
		t.observer.RecordMiss(t.l2Name)
		return zero, false
	}

	t.observer.RecordHit(t.l2Name)
	t.l1.Put(ctx, key, v, t.refillFor(remaining))
	return v, true
}

// Put writes value to L1 and, if configured, to L2.
func (t *Tiered[V]) Put(ctx context.Context, key string, value V, ttl time.Duration) {
	t.l1.Put(ctx, key, value, ttl)

	if t.l2 == nil || ttl <= 0 {
		return
	}

	raw, err := json.Marshal(value)
	if err != nil {
		t.logger.Warn("failed to encode cache entry", "key", key, "error", err)
		return
	}
	if err := t.l2.Set(ctx, key, raw, ttl); err != nil {
		t.logRemoteError("set", key, err)
	}
}

// Invalidate removes key from both tiers.
func (t *Tiered[V]) Invalidate(ctx context.Context, key string) {
	t.l1.Invalidate(ctx, key)

	if t.l2 == nil {
		return
	}
	if err := t.l2.Delete(ctx, key); err != nil {
		t.logRemoteError("delete", key, err)
	}
}

// refillFor returns the L1 TTL for an L2 hit with the given remaining TTL.
// Zero means the remote tier did not report one.
func (t *Tiered[V]) refillFor(remaining time.Duration) time.Duration {
	if remaining > 0 && remaining < t.refillTTL {
		return remaining
	}
	return t.refillTTL
}

func (t *Tiered[V]) logRemoteError(op, key string, err error) {
	if errors.Is(err, ErrBudgetExhausted) || errors.Is(err, ErrThrottled) {
		t.logger.Debug("remote cache skipped", "op", op, "key", key, "reason", err)
		return
	}
	t.logger.Warn("remote cache operation failed",
		"op", op,
		"key", key,
		"error", err,
	)
}
