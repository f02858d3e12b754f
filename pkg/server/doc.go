// Package server provides the instrumented HTTP server.
//
// The server exposes:
//   - /server_request: answers "served" inside a SERVER span that joins the
//     caller's trace when a valid traceparent header is present
//   - /health, /ready, /version: health endpoints (when a checker is set)
//   - /metrics: Prometheus metrics (when a collector is set)
//
// Every route runs behind recovery, request ID and access logging
// middleware. The server_request span is ended, and exported to every
// destination, before the response is complete; a failing destination is
// logged and never changes the response.
//
// # Basic Usage
//
//	tracer, err := tracing.New(&cfg.Telemetry.Tracing, tracing.WithLogger(logger))
//	if err != nil {
//	    return err
//	}
//	srv := server.New(cfg, tracer, server.WithLogger(logger))
//	if err := srv.Start(ctx); err != nil {
//	    return err
//	}
//	defer srv.Shutdown(context.Background())
package server
