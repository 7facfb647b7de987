package snapshot

import (
	"context"
	"encoding/json"
	"log/slog"
)

// Typed decodes snapshots from a Store into V.
type Typed[V any] struct {
	store  Store
	valid  func(V) bool
	logger *slog.Logger
}

// NewTyped wraps store. A nil store never finds anything.
func NewTyped[V any](store Store, logger *slog.Logger) *Typed[V] {
	if logger == nil {
		logger = slog.Default()
	}
	return &Typed[V]{store: store, logger: logger.With("component", "snapshot")}
}

// WithValidator rejects decoded values for which valid returns false.
func (t *Typed[V]) WithValidator(valid func(V) bool) *Typed[V] {
	t.valid = valid
	return t
}

// Lookup returns the decoded snapshot for key. A snapshot that does not
// decode into V, or fails validation, is reported as not found.
func (t *Typed[V]) Lookup(ctx context.Context, key string) (V, bool) {
	var zero V
	if t.store == nil {
		return zero, false
	}

	snap, ok := t.store.Lookup(ctx, key)
	if !ok {
		return zero, false
	}

	var v V
	if err := json.Unmarshal(snap.Value, &v); err != nil {
		t.logger.Warn("discarding undecodable snapshot",
			"key", key,
			"error", err,
		)
		return zero, false
	}
	if t.valid != nil && !t.valid(v) {
		t.logger.Warn("discarding invalid snapshot", "key", key)
		return zero, false
	}
	return v, true
}
