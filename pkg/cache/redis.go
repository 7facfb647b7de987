package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"fundwatch-hq/fundwatch/pkg/clock"
	"fundwatch-hq/fundwatch/pkg/limits/ratelimit"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// budgetKey is the single identity charged for every Redis operation.
const budgetKey = "redis"

// RedisConfig configures a RedisTier.
type RedisConfig struct {
	// Prefix is prepended to every key.
	// Default: "fundwatch:cache"
	Prefix string

	// DailyBudget is the maximum number of Redis operations in any trailing
	// 24 hours. Zero means unlimited.
	DailyBudget int

	// OpsPerSecond smooths bursts. Zero means unlimited.
	OpsPerSecond float64

	// Burst is the smoothing limiter's burst size.
	// Default: 10
	Burst int

	// Clock drives the daily budget window. Default: system clock.
	Clock clock.Clock
}

// RedisTier is a Remote backed by Redis with an operation budget.
type RedisTier struct {
	rdb      redis.UniversalClient
	prefix   string
	budget   *ratelimit.Counter
	smoother *rate.Limiter
}

// NewRedisTier wraps a Redis client as a cache tier.
func NewRedisTier(rdb redis.UniversalClient, cfg RedisConfig) (*RedisTier, error) {
	if rdb == nil {
		return nil, errors.New("redis client cannot be nil")
	}

	prefix := strings.Trim(cfg.Prefix, ":")
	if prefix == "" {
		prefix = "fundwatch:cache"
	}

	r := &RedisTier{rdb: rdb, prefix: prefix}

	if cfg.DailyBudget > 0 {
		budget, err := ratelimit.NewCounter(ratelimit.Tier{
			Name:   "day",
			Window: 24 * time.Hour,
			Max:    cfg.DailyBudget,
		}, 24*60, cfg.Clock)
		if err != nil {
			return nil, fmt.Errorf("invalid redis budget: %w", err)
		}
		r.budget = budget
	}

	if cfg.OpsPerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 10
		}
		r.smoother = rate.NewLimiter(rate.Limit(cfg.OpsPerSecond), burst)
	}

	return r, nil
}

// Get implements Remote. The value and its PTTL are read in one pipeline,
// counted as a single operation against the budget.
func (r *RedisTier) Get(ctx context.Context, key string) ([]byte, time.Duration, bool, error) {
	if err := r.reserve(); err != nil {
		return nil, 0, false, err
	}

	k := r.key(key)
	var get *redis.StringCmd
	var pttl *redis.DurationCmd
	_, err := r.rdb.Pipelined(ctx, func(p redis.Pipeliner) error {
		get = p.Get(ctx, k)
		pttl = p.PTTL(ctx, k)
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, 0, false, fmt.Errorf("redis get %q: %w", key, err)
	}

	val, err := get.Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, 0, false, nil
	}
	if err != nil {
		return nil, 0, false, fmt.Errorf("redis get %q: %w", key, err)
	}

	// PTTL reports -2 for a key that expired between the two commands and -1
	// for a key without expiry.
	ttl := pttl.Val()
	switch {
	case ttl == -2:
		return nil, 0, false, nil
	case ttl < 0:
		ttl = 0
	}
	return val, ttl, true, nil
}

// Set implements Remote.
func (r *RedisTier) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := r.reserve(); err != nil {
		return err
	}
	if err := r.rdb.Set(ctx, r.key(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %q: %w", key, err)
	}
	return nil
}

// Delete implements Remote.
func (r *RedisTier) Delete(ctx context.Context, key string) error {
	if err := r.reserve(); err != nil {
		return err
	}
	if err := r.rdb.Del(ctx, r.key(key)).Err(); err != nil {
		return fmt.Errorf("redis del %q: %w", key, err)
	}
	return nil
}

// Ping checks connectivity. It is not charged against the budget.
func (r *RedisTier) Ping(ctx context.Context) error {
	return r.rdb.Ping(ctx).Err()
}

// Usage returns operations spent in the trailing day and the daily budget.
// limit is zero when the budget is unlimited.
func (r *RedisTier) Usage() (used, limit int) {
	if r.budget == nil {
		return 0, 0
	}
	return r.budget.Count(budgetKey), r.budget.Tier().Max
}

func (r *RedisTier) reserve() error {
	if r.smoother != nil && !r.smoother.Allow() {
		return ErrThrottled
	}
	if r.budget != nil {
		if ok, _ := r.budget.Allow(budgetKey); !ok {
			return ErrBudgetExhausted
		}
	}
	return nil
}

func (r *RedisTier) key(k string) string {
	return r.prefix + ":" + k
}
