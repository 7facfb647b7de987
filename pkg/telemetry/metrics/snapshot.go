package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"fundwatch-hq/fundwatch/pkg/config"
)

// SnapshotMetrics tracks static snapshot generation.
//
// Metrics:
//   - fundwatch_snapshot_runs_total: Generation runs by result
//   - fundwatch_snapshot_run_duration_seconds: Generation duration
//   - fundwatch_snapshot_entries: Snapshots written by the last successful run
//   - fundwatch_snapshot_last_success_timestamp_seconds: Unix time of the last successful run
type SnapshotMetrics struct {
	runsTotal   *prometheus.CounterVec
	runDuration prometheus.Histogram
	entries     prometheus.Gauge
	lastSuccess prometheus.Gauge
}

// NewSnapshotMetrics creates and registers snapshot metrics with the provided registry.
func NewSnapshotMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *SnapshotMetrics {
	sm := &SnapshotMetrics{
		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "snapshot_runs_total",
				Help:      "Total number of snapshot generation runs",
			},
			[]string{"result"},
		),

		runDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "snapshot_run_duration_seconds",
				Help:      "Duration of snapshot generation runs in seconds",
				Buckets:   []float64{0.1, 0.5, 1, 5, 15, 60, 300},
			},
		),

		entries: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "snapshot_entries",
				Help:      "Number of snapshots written by the last successful run",
			},
		),

		lastSuccess: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "snapshot_last_success_timestamp_seconds",
				Help:      "Unix time of the last successful snapshot run",
			},
		),
	}

	registry.MustRegister(sm.runsTotal, sm.runDuration, sm.entries, sm.lastSuccess)

	return sm
}

// RecordRun records one generation run.
func (sm *SnapshotMetrics) RecordRun(count int, duration time.Duration, err error) {
	sm.runDuration.Observe(duration.Seconds())
	if err != nil {
		sm.runsTotal.WithLabelValues("error").Inc()
		return
	}
	sm.runsTotal.WithLabelValues("success").Inc()
	sm.entries.Set(float64(count))
	sm.lastSuccess.SetToCurrentTime()
}
