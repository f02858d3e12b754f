// Package metrics provides Prometheus metrics for lantern.
//
// # Overview
//
// The Collector owns a private registry and records two groups of metrics:
//
//   - Request metrics: count, duration and in-flight requests per route
//   - Tracing metrics: export attempts and latency per destination, dropped
//     spans by reason, root sampling decisions
//
// The Collector implements tracing.Observer, so wiring it into the tracer
// is enough to get export metrics:
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	tracer, err := tracing.New(&cfg.Telemetry.Tracing, tracing.WithObserver(collector))
//
// # Prometheus Endpoint
//
// All metrics are exposed on the /metrics endpoint:
//
//	# HELP lantern_spans_exported_total Total number of span export attempts
//	# TYPE lantern_spans_exported_total counter
//	lantern_spans_exported_total{destination="honeycomb",outcome="error"} 3
//	lantern_spans_exported_total{destination="console",outcome="success"} 12
//
// # Cardinality Management
//
// Route labels are capped; once 1000 distinct routes were seen further
// routes are recorded as "other".
package metrics
