package ratelimit

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Tier is one rate limit rule: at most Max events in any trailing Window.
type Tier struct {
	// Name identifies the tier in usage reports and metrics (e.g. "minute").
	Name string

	// Window is the trailing window duration.
	Window time.Duration

	// Max is the maximum number of events allowed in the window.
	Max int
}

// Validate checks that the tier is usable.
func (t Tier) Validate() error {
	if t.Name == "" {
		return fmt.Errorf("%w: tier name cannot be empty", ErrInvalidConfig)
	}
	if t.Window <= 0 {
		return fmt.Errorf("%w: tier %q window must be positive", ErrInvalidConfig, t.Name)
	}
	if t.Max <= 0 {
		return fmt.Errorf("%w: tier %q max must be positive", ErrInvalidConfig, t.Name)
	}
	return nil
}

// DefaultTiers returns the per-second, per-minute, per-hour and per-day tiers
// used when no tiers are configured.
func DefaultTiers() []Tier {
	return []Tier{
		{Name: "second", Window: time.Second, Max: 5},
		{Name: "minute", Window: time.Minute, Max: 60},
		{Name: "hour", Window: time.Hour, Max: 600},
		{Name: "day", Window: 24 * time.Hour, Max: 5000},
	}
}

// Config configures a Limiter.
type Config struct {
	// Tiers are evaluated together; a client must satisfy all of them.
	// Default: DefaultTiers()
	Tiers []Tier

	// Buckets is the number of buckets per window.
	// Default: 60
	Buckets int

	// Shards is the number of client state shards.
	// Default: 32
	Shards int

	// CleanupInterval is how often Start evicts idle clients.
	// Zero disables the background janitor.
	CleanupInterval time.Duration
}

// DefaultBuckets is the bucket count per window when none is configured.
const DefaultBuckets = 60

// Decision is the outcome of an admission check.
type Decision struct {
	// Allowed indicates if the request is permitted.
	Allowed bool

	// RetryAfter is how long until the soonest violated tier frees a slot.
	// Zero when Allowed.
	RetryAfter time.Duration

	// Tier names the violated tier that determined RetryAfter.
	Tier string
}

// RetryAfterSeconds returns RetryAfter rounded up to whole seconds.
// A denied decision always reports at least one second.
func (d Decision) RetryAfterSeconds() int {
	if d.Allowed {
		return 0
	}
	secs := int(math.Ceil(d.RetryAfter.Seconds()))
	if secs < 1 {
		secs = 1
	}
	return secs
}

// TierUsage reports a client's standing against one tier.
type TierUsage struct {
	// Count is the number of events in the current window.
	Count int `json:"count"`

	// Max is the configured limit.
	Max int `json:"max"`

	// Remaining is Max-Count, never negative.
	Remaining int `json:"remaining"`

	// ResetIn is how long until the oldest counted event leaves the window.
	// Zero when Count is zero.
	ResetIn time.Duration `json:"reset_in"`
}

// Usage maps tier names to a client's usage.
type Usage map[string]TierUsage

// Observer receives limiter events. Implementations must be safe for
// concurrent use and must not block.
type Observer interface {
	// ObserveDecision is called once per Admit.
	ObserveDecision(d Decision)

	// ObserveClockAnomaly is called when the clock moved backwards.
	ObserveClockAnomaly()

	// ObserveCleanup is called after each cleanup sweep.
	ObserveCleanup(removed int, active int)
}

var (
	// ErrInvalidConfig is returned when a limiter configuration is invalid.
	ErrInvalidConfig = errors.New("invalid rate limit configuration")
)
