package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"fundwatch-hq/fundwatch/pkg/config"
	"fundwatch-hq/fundwatch/pkg/gate"
)

// GateMetrics tracks the request gate. It implements gate.Observer.
//
// Metrics:
//   - fundwatch_gate_requests_total: Handle calls by outcome
//   - fundwatch_gate_duration_seconds: Handle duration by outcome
//   - fundwatch_gate_denials_total: Limiter denials by scope
//   - fundwatch_gate_service_level: Current service level (0 normal .. 3 static_only)
type GateMetrics struct {
	requestsTotal *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	denialsTotal  *prometheus.CounterVec
	serviceLevel  prometheus.Gauge
}

// NewGateMetrics creates and registers gate metrics with the provided registry.
func NewGateMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *GateMetrics {
	gm := &GateMetrics{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "gate_requests_total",
				Help:      "Total number of gated lookups by outcome",
			},
			[]string{"outcome"},
		),

		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "gate_duration_seconds",
				Help:      "Duration of gated lookups in seconds",
				Buckets:   cfg.RequestDurationBuckets,
			},
			[]string{"outcome"},
		),

		denialsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "gate_denials_total",
				Help:      "Total number of denied lookups by limiter scope",
			},
			[]string{"scope"},
		),

		serviceLevel: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "gate_service_level",
				Help:      "Current service level: 0 normal, 1 reduced, 2 minimal, 3 static_only",
			},
		),
	}

	registry.MustRegister(
		gm.requestsTotal,
		gm.duration,
		gm.denialsTotal,
		gm.serviceLevel,
	)

	return gm
}

// ObserveHandle records one Handle call.
func (gm *GateMetrics) ObserveHandle(outcome string, d time.Duration) {
	gm.requestsTotal.WithLabelValues(outcome).Inc()
	gm.duration.WithLabelValues(outcome).Observe(d.Seconds())
}

// ObserveDenial records a limiter denial.
func (gm *GateMetrics) ObserveDenial(scope string) {
	gm.denialsTotal.WithLabelValues(scope).Inc()
}

// ObserveServiceLevel sets the service level gauge.
func (gm *GateMetrics) ObserveServiceLevel(level gate.ServiceLevel) {
	gm.serviceLevel.Set(float64(level))
}
