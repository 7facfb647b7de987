package gate

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	// ErrRateLimited matches every *RateLimitedError.
	ErrRateLimited = errors.New("rate limited")

	// ErrComputeFailed matches every *ComputeFailedError.
	ErrComputeFailed = errors.New("compute failed")
)

// Scopes of a RateLimitedError.
const (
	ScopeClient      = "client"
	ScopeBackend     = "backend"
	ScopeConcurrency = "concurrency"
)

// RateLimitedError is returned when a request was denied and no static
// snapshot could stand in for it.
type RateLimitedError struct {
	// RetryAfter is how long until the request can succeed.
	RetryAfter time.Duration

	// Tier names the violated limiter tier, if any.
	Tier string

	// Scope is ScopeClient, ScopeBackend or ScopeConcurrency.
	Scope string
}

// Error implements the error interface.
func (e *RateLimitedError) Error() string {
	if e.Tier != "" {
		return fmt.Sprintf("rate limited (%s %s): retry after %s", e.Scope, e.Tier, e.RetryAfter)
	}
	return fmt.Sprintf("rate limited (%s): retry after %s", e.Scope, e.RetryAfter)
}

// Is reports whether target is ErrRateLimited.
func (e *RateLimitedError) Is(target error) bool {
	return target == ErrRateLimited
}

// RetryAfterSeconds returns RetryAfter rounded up to whole seconds, at least 1.
func (e *RateLimitedError) RetryAfterSeconds() int {
	secs := int(math.Ceil(e.RetryAfter.Seconds()))
	if secs < 1 {
		secs = 1
	}
	return secs
}

// ComputeFailedError wraps an error returned by a compute function.
type ComputeFailedError struct {
	Key   string
	Cause error
}

// Error implements the error interface.
func (e *ComputeFailedError) Error() string {
	return fmt.Sprintf("compute %q failed: %v", e.Key, e.Cause)
}

// Is reports whether target is ErrComputeFailed.
func (e *ComputeFailedError) Is(target error) bool {
	return target == ErrComputeFailed
}

// Unwrap returns the compute error.
func (e *ComputeFailedError) Unwrap() error {
	return e.Cause
}
