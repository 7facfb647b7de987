package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"fundwatch-hq/fundwatch/pkg/config"
	"fundwatch-hq/fundwatch/pkg/limits/ratelimit"
)

// LimiterMetrics tracks sliding-window rate limiters.
//
// Metrics:
//   - fundwatch_ratelimit_decisions_total: Admit calls by scope and result
//   - fundwatch_ratelimit_denials_total: Denials by scope and violated tier
//   - fundwatch_ratelimit_clock_anomalies_total: Backwards clock jumps seen
//   - fundwatch_ratelimit_active_clients: Tracked clients after the last sweep
//   - fundwatch_ratelimit_cleanup_removed_total: Idle clients dropped by sweeps
type LimiterMetrics struct {
	decisionsTotal *prometheus.CounterVec
	denialsTotal   *prometheus.CounterVec
	clockAnomalies *prometheus.CounterVec
	activeClients  *prometheus.GaugeVec
	cleanupRemoved *prometheus.CounterVec
}

// NewLimiterMetrics creates and registers limiter metrics with the provided registry.
func NewLimiterMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *LimiterMetrics {
	lm := &LimiterMetrics{
		decisionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "ratelimit_decisions_total",
				Help:      "Total number of rate limit decisions",
			},
			[]string{"scope", "allowed"},
		),

		denialsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "ratelimit_denials_total",
				Help:      "Total number of rate limit denials by violated tier",
			},
			[]string{"scope", "tier"},
		),

		clockAnomalies: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "ratelimit_clock_anomalies_total",
				Help:      "Total number of times the clock moved backwards",
			},
			[]string{"scope"},
		),

		activeClients: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "ratelimit_active_clients",
				Help:      "Number of clients tracked after the last cleanup",
			},
			[]string{"scope"},
		),

		cleanupRemoved: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "ratelimit_cleanup_removed_total",
				Help:      "Total number of idle clients removed by cleanup",
			},
			[]string{"scope"},
		),
	}

	registry.MustRegister(
		lm.decisionsTotal,
		lm.denialsTotal,
		lm.clockAnomalies,
		lm.activeClients,
		lm.cleanupRemoved,
	)

	return lm
}

func (lm *LimiterMetrics) scoped(scope string) *scopedLimiter {
	return &scopedLimiter{metrics: lm, scope: scope}
}

// scopedLimiter binds the scope label and implements ratelimit.Observer.
type scopedLimiter struct {
	metrics *LimiterMetrics
	scope   string
}

func (s *scopedLimiter) ObserveDecision(d ratelimit.Decision) {
	s.metrics.decisionsTotal.WithLabelValues(s.scope, strconv.FormatBool(d.Allowed)).Inc()
	if !d.Allowed {
		s.metrics.denialsTotal.WithLabelValues(s.scope, d.Tier).Inc()
	}
}

func (s *scopedLimiter) ObserveClockAnomaly() {
	s.metrics.clockAnomalies.WithLabelValues(s.scope).Inc()
}

func (s *scopedLimiter) ObserveCleanup(removed int, active int) {
	s.metrics.cleanupRemoved.WithLabelValues(s.scope).Add(float64(removed))
	s.metrics.activeClients.WithLabelValues(s.scope).Set(float64(active))
}
