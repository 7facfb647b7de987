package health

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Pinger is implemented by the database repository, the SQLite snapshot
// store and the Redis cache tier.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingCheck reports the component unhealthy when Ping fails.
func PingCheck(p Pinger) CheckFunc {
	return func(ctx context.Context) error {
		return p.Ping(ctx)
	}
}

// ErrNoSnapshots is returned by SnapshotCheck when the store is empty.
var ErrNoSnapshots = errors.New("no static snapshots loaded")

// SnapshotCheck fails when count reports an empty store, since static
// snapshots are the last line of service once the backend budget is gone.
func SnapshotCheck(count func(ctx context.Context) (int, error)) CheckFunc {
	return func(ctx context.Context) error {
		n, err := count(ctx)
		if err != nil {
			return fmt.Errorf("failed to count snapshots: %w", err)
		}
		if n == 0 {
			return ErrNoSnapshots
		}
		return nil
	}
}

// GenerationCheck fails when the most recent snapshot generation failed or
// when no successful run happened within maxAge. A zero run time means no
// generation has run yet, which is healthy.
func GenerationCheck(lastRun func() (time.Time, int, error), maxAge time.Duration) CheckFunc {
	return func(ctx context.Context) error {
		at, _, err := lastRun()
		if at.IsZero() {
			return nil
		}
		if err != nil {
			return fmt.Errorf("last snapshot generation failed: %w", err)
		}
		if maxAge > 0 && time.Since(at) > maxAge {
			return fmt.Errorf("last snapshot generation was %s ago", time.Since(at).Round(time.Second))
		}
		return nil
	}
}
