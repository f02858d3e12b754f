package metrics

import (
	"time"

	"lantern-hq/lantern/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// TracingMetrics tracks the span export pipeline.
//
// Metrics:
//   - lantern_spans_exported_total: Export attempts by destination and outcome
//   - lantern_span_export_duration_seconds: Export latency by destination
//   - lantern_spans_dropped_total: Ended spans not exported, by reason
//   - lantern_sampling_decisions_total: Root sampling decisions
type TracingMetrics struct {
	exportedTotal  *prometheus.CounterVec
	exportDuration *prometheus.HistogramVec
	droppedTotal   *prometheus.CounterVec
	decisionsTotal *prometheus.CounterVec
}

// NewTracingMetrics creates and registers tracing metrics with the provided registry.
func NewTracingMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *TracingMetrics {
	tm := &TracingMetrics{
		exportedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "spans_exported_total",
				Help:      "Total number of span export attempts",
			},
			[]string{"destination", "outcome"},
		),

		exportDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "span_export_duration_seconds",
				Help:      "Duration of span exports in seconds",
				Buckets:   cfg.ExportDurationBuckets,
			},
			[]string{"destination"},
		),

		droppedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "spans_dropped_total",
				Help:      "Total number of ended spans that were not exported",
			},
			[]string{"reason"},
		),

		decisionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "sampling_decisions_total",
				Help:      "Total number of root span sampling decisions",
			},
			[]string{"decision"},
		),
	}

	registry.MustRegister(
		tm.exportedTotal,
		tm.exportDuration,
		tm.droppedTotal,
		tm.decisionsTotal,
	)

	return tm
}

// RecordExport records one export attempt.
func (tm *TracingMetrics) RecordExport(destination, outcome string, duration time.Duration) {
	tm.exportedTotal.WithLabelValues(destination, outcome).Inc()
	tm.exportDuration.WithLabelValues(destination).Observe(duration.Seconds())
}

// RecordDropped records a dropped span.
func (tm *TracingMetrics) RecordDropped(reason string) {
	tm.droppedTotal.WithLabelValues(reason).Inc()
}

// RecordSampling records a sampling decision.
func (tm *TracingMetrics) RecordSampling(decision string) {
	tm.decisionsTotal.WithLabelValues(decision).Inc()
}
