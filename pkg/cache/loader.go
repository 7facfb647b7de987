package cache

import (
	"context"

	"golang.org/x/sync/singleflight"
)

// Loader collapses concurrent loads of the same key into one call.
// The zero value is ready to use.
type Loader[V any] struct {
	group singleflight.Group
}

// Do runs fn once per key among concurrent callers. Every caller receives
// the same value and error; shared reports whether the result was shared.
//
// fn runs with the first caller's context values but without its
// cancellation, so one caller going away does not fail the others. Each
// caller stops waiting when its own ctx is done and gets ctx.Err().
func (l *Loader[V]) Do(ctx context.Context, key string, fn func(context.Context) (V, error)) (v V, shared bool, err error) {
	ch := l.group.DoChan(key, func() (any, error) {
		return fn(context.WithoutCancel(ctx))
	})

	select {
	case res := <-ch:
		if res.Val != nil {
			v = res.Val.(V)
		}
		return v, res.Shared, res.Err
	case <-ctx.Done():
		return v, false, ctx.Err()
	}
}
