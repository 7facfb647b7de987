package gate

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestRateLimitedError(t *testing.T) {
	tests := []struct {
		name        string
		err         *RateLimitedError
		wantSeconds int
		wantMsg     string
	}{
		{
			name:        "with tier",
			err:         &RateLimitedError{RetryAfter: 1500 * time.Millisecond, Tier: "minute", Scope: ScopeClient},
			wantSeconds: 2,
			wantMsg:     "rate limited (client minute): retry after 1.5s",
		},
		{
			name:        "sub-second rounds up",
			err:         &RateLimitedError{RetryAfter: time.Millisecond, Scope: ScopeConcurrency},
			wantSeconds: 1,
			wantMsg:     "rate limited (concurrency): retry after 1ms",
		},
		{
			name:        "zero still asks for a second",
			err:         &RateLimitedError{Scope: ScopeBackend},
			wantSeconds: 1,
			wantMsg:     "rate limited (backend): retry after 0s",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.RetryAfterSeconds(); got != tt.wantSeconds {
				t.Errorf("Expected %d seconds, got %d", tt.wantSeconds, got)
			}
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("Expected %q, got %q", tt.wantMsg, got)
			}
			wrapped := fmt.Errorf("handle: %w", tt.err)
			if !errors.Is(wrapped, ErrRateLimited) {
				t.Error("Expected wrapped error to match ErrRateLimited")
			}
			if errors.Is(wrapped, ErrComputeFailed) {
				t.Error("Expected rate limit error not to match ErrComputeFailed")
			}
		})
	}
}

func TestComputeFailedError(t *testing.T) {
	cause := errors.New("no such table: holdings")
	err := error(&ComputeFailedError{Key: "stats", Cause: cause})

	if !errors.Is(err, ErrComputeFailed) {
		t.Error("Expected ErrComputeFailed")
	}
	if !errors.Is(err, cause) {
		t.Error("Expected the cause to be unwrapped")
	}
	if errors.Is(err, ErrRateLimited) {
		t.Error("Expected compute failure not to match ErrRateLimited")
	}
	if want := `compute "stats" failed: no such table: holdings`; err.Error() != want {
		t.Errorf("Expected %q, got %q", want, err.Error())
	}
}
