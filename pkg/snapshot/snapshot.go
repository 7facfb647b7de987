package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Snapshot is an immutable pre-computed payload.
type Snapshot struct {
	Key         string          `json:"key"`
	Value       json.RawMessage `json:"value"`
	GeneratedAt time.Time       `json:"generated_at"`
}

// Store looks up snapshots.
type Store interface {
	// Lookup returns the snapshot for key. Unavailability is reported as
	// not found.
	Lookup(ctx context.Context, key string) (Snapshot, bool)
}

// Writer replaces the full snapshot set.
type Writer interface {
	Replace(ctx context.Context, snapshots []Snapshot) error
}

var (
	// ErrInvalidKey is returned for keys that cannot be stored safely.
	ErrInvalidKey = errors.New("invalid snapshot key")

	// ErrInvalidValue is returned for snapshot values that are not JSON.
	ErrInvalidValue = errors.New("invalid snapshot value")
)

// ValidateKey checks that key is non-empty and usable as a file name.
func ValidateKey(key string) error {
	switch {
	case key == "":
		return fmt.Errorf("%w: empty", ErrInvalidKey)
	case strings.HasPrefix(key, "."):
		return fmt.Errorf("%w: %q starts with a dot", ErrInvalidKey, key)
	case strings.ContainsAny(key, "/\\\x00"):
		return fmt.Errorf("%w: %q contains a path separator", ErrInvalidKey, key)
	case len(key) > 200:
		return fmt.Errorf("%w: %q is too long", ErrInvalidKey, key)
	}
	return nil
}

// New builds a snapshot by encoding v as JSON.
func New(key string, v any, generatedAt time.Time) (Snapshot, error) {
	if err := ValidateKey(key); err != nil {
		return Snapshot{}, err
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return Snapshot{}, fmt.Errorf("encode snapshot %q: %w", key, err)
	}
	return Snapshot{Key: key, Value: raw, GeneratedAt: generatedAt}, nil
}

// validate checks a snapshot before it is written.
func validate(s Snapshot) error {
	if err := ValidateKey(s.Key); err != nil {
		return err
	}
	if !json.Valid(s.Value) {
		return fmt.Errorf("%w: %q is not JSON", ErrInvalidValue, s.Key)
	}
	return nil
}
