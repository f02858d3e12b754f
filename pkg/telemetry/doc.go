// Package telemetry groups the observability packages of Lantern.
//
// # Components
//
//   - tracing: request spans, traceparent propagation, deterministic
//     sampling and the synchronous export pipeline
//   - logging: zap loggers with header and secret redaction
//   - metrics: Prometheus request, export and sampling metrics
//   - health: liveness, readiness and version endpoints
//
// Each package exposes an FXModule. Together they build the graph served
// by cmd/lantern:
//
//	app := fx.New(
//	    fx.Supply(cfg),
//	    logging.FXModule,
//	    metrics.FXModule,
//	    tracing.FXModule,
//	    health.FXModule,
//	    server.FXModule,
//	)
//
// The metrics collector is also the tracer's Observer, so every export
// attempt, dropped span and sampling decision is counted.
package telemetry
