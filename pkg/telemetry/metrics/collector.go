package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"fundwatch-hq/fundwatch/pkg/cache"
	"fundwatch-hq/fundwatch/pkg/config"
	"fundwatch-hq/fundwatch/pkg/gate"
	"fundwatch-hq/fundwatch/pkg/limits/ratelimit"
)

// otherRoute replaces route labels once the cardinality limit is reached.
const otherRoute = "other"

// Collector owns every Prometheus metric of the process and hands out the
// observers the cache, limiter and gate packages report through.
//
// When metrics are disabled the observers are still returned, but record
// nothing, so callers never need to check.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	requestMetrics  *RequestMetrics
	cacheMetrics    *CacheMetrics
	limiterMetrics  *LimiterMetrics
	gateMetrics     *GateMetrics
	snapshotMetrics *SnapshotMetrics

	// Route labels come from mux patterns, but unmatched requests fall
	// back to the raw path.
	cardinalityLimiter *CardinalityLimiter
}

// NewCollector creates a new metrics collector with the specified configuration
// and Prometheus registry. If registry is nil, a fresh registry is created.
//
// Example:
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	limiter := ratelimit.NewLimiter(rlCfg,
//		ratelimit.WithObserver(collector.Limiter("client")))
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}
	if len(cfg.RequestDurationBuckets) == 0 {
		cfg.RequestDurationBuckets = append([]float64(nil), config.DefaultRequestDurationBuckets...)
	}

	c := &Collector{
		config:             cfg,
		registry:           registry,
		cardinalityLimiter: NewCardinalityLimiter(256),
	}

	c.requestMetrics = NewRequestMetrics(cfg, registry)
	c.cacheMetrics = NewCacheMetrics(cfg, registry)
	c.limiterMetrics = NewLimiterMetrics(cfg, registry)
	c.gateMetrics = NewGateMetrics(cfg, registry)
	c.snapshotMetrics = NewSnapshotMetrics(cfg, registry)

	return c
}

// RecordRequest records a completed HTTP request.
//
// Parameters:
//   - route: mux pattern that served the request (e.g. "/api/holdings/{fund}/top")
//   - method: HTTP method
//   - status: response status code
//   - duration: time spent in the handler chain
func (c *Collector) RecordRequest(route, method string, status int, duration time.Duration) {
	if !c.config.Enabled {
		return
	}

	if !c.cardinalityLimiter.Allow(route) {
		route = otherRoute
	}

	c.requestMetrics.RecordRequest(route, method, status, duration)
}

// Cache returns the observer for the response caches.
func (c *Collector) Cache() cache.Observer {
	if !c.config.Enabled {
		return nopObserver{}
	}
	return c.cacheMetrics
}

// Limiter returns the observer for a rate limiter. scope distinguishes the
// per-client limiter ("client") from the backend budget ("backend").
func (c *Collector) Limiter(scope string) ratelimit.Observer {
	if !c.config.Enabled {
		return nopObserver{}
	}
	return c.limiterMetrics.scoped(scope)
}

// Gate returns the observer for the request gate.
func (c *Collector) Gate() gate.Observer {
	if !c.config.Enabled {
		return nopObserver{}
	}
	return c.gateMetrics
}

// RecordSnapshotRun records one snapshot generation.
func (c *Collector) RecordSnapshotRun(count int, duration time.Duration, err error) {
	if !c.config.Enabled {
		return
	}
	c.snapshotMetrics.RecordRun(count, duration, err)
}

// RegisterBudgetUsage exports a gauge read from fn at scrape time, used for
// budgets that live outside the process such as the shared Redis quota.
func (c *Collector) RegisterBudgetUsage(name string, fn func() (used, limit int)) error {
	if !c.config.Enabled {
		return nil
	}
	return c.registry.Register(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace:   c.config.Namespace,
			Subsystem:   c.config.Subsystem,
			Name:        "budget_used_ratio",
			Help:        "Fraction of a shared daily budget consumed",
			ConstLabels: prometheus.Labels{"budget": name},
		},
		func() float64 {
			used, limit := fn()
			if limit <= 0 {
				return 0
			}
			return float64(used) / float64(limit)
		},
	))
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// CardinalityLimiter prevents metric cardinality explosion by limiting
// the number of unique label values it admits.
type CardinalityLimiter struct {
	maxCardinality int
	current        map[string]struct{}
	mu             sync.RWMutex
}

// NewCardinalityLimiter creates a new cardinality limiter with the specified
// maximum cardinality.
func NewCardinalityLimiter(maxCardinality int) *CardinalityLimiter {
	return &CardinalityLimiter{
		maxCardinality: maxCardinality,
		current:        make(map[string]struct{}),
	}
}

// Allow checks if a label set is allowed. Returns true if the label set
// already exists or if we haven't reached the cardinality limit yet.
func (cl *CardinalityLimiter) Allow(labelSet string) bool {
	cl.mu.RLock()
	if _, exists := cl.current[labelSet]; exists {
		cl.mu.RUnlock()
		return true
	}
	cl.mu.RUnlock()

	cl.mu.Lock()
	defer cl.mu.Unlock()

	// Double-check after acquiring write lock
	if _, exists := cl.current[labelSet]; exists {
		return true
	}

	if len(cl.current) >= cl.maxCardinality {
		return false
	}

	cl.current[labelSet] = struct{}{}
	return true
}

// Count returns the current cardinality.
func (cl *CardinalityLimiter) Count() int {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return len(cl.current)
}

// nopObserver satisfies every observer interface and records nothing.
type nopObserver struct{}

func (nopObserver) RecordHit(string)                      {}
func (nopObserver) RecordMiss(string)                     {}
func (nopObserver) RecordEviction(string)                 {}
func (nopObserver) UpdateSize(string, int)                {}
func (nopObserver) ObserveDecision(ratelimit.Decision)    {}
func (nopObserver) ObserveClockAnomaly()                  {}
func (nopObserver) ObserveCleanup(int, int)               {}
func (nopObserver) ObserveHandle(string, time.Duration)   {}
func (nopObserver) ObserveDenial(string)                  {}
func (nopObserver) ObserveServiceLevel(gate.ServiceLevel) {}
