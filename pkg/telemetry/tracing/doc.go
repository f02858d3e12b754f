// Package tracing provides request tracing for Lantern: W3C traceparent
// decoding, deterministic sampling, scoped spans and a synchronous
// multi-destination export pipeline.
//
// # Trace Context Propagation
//
// Incoming requests are read through a case-insensitive HeaderCarrier. Only
// the traceparent header is understood:
//
//	traceparent: 00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01
//
// A malformed header, an all-zero id or a version other than 00 is treated
// as absent and the request starts a new trace.
//
// # Sampling
//
// The default "deterministic" sampler keeps 1 in N traces. The decision is
// a pure function of the trace id, so every service configured with the
// same N keeps the same traces without coordinating:
//
//	hash      = first 4 bytes (big-endian) of SHA-1(lower-hex trace id)
//	threshold = MaxUint32 / N
//	decision  = RECORD if hash < threshold else DROP
//
// Kept spans carry a SampleRate attribute so backends can re-weight counts.
// A valid upstream parent's sampled flag always takes precedence.
//
// # Span Lifecycle
//
// WithSpan runs a function inside a span and ends the span on every exit
// path, including errors and panics:
//
//	err := tracer.WithSpan(ctx, "server_request", func(ctx context.Context) error {
//	    return handle(ctx)
//	}, tracing.WithKind(trace.SpanKindServer))
//
// Unsampled spans are still created, so code can always annotate
// CurrentSpan(ctx); they are discarded when they end.
//
// # Export Pipeline
//
// Ended, sampled spans are handed to each configured destination in order
// on the goroutine that ended the span. Destinations are console
// (stdouttrace), otlp (gRPC) and otlphttp. A destination that fails, panics
// or exceeds its timeout is logged and counted; the remaining destinations
// and the request are unaffected. Nothing is retried.
//
// # Usage
//
//	tracer, err := tracing.New(&cfg.Telemetry.Tracing,
//	    tracing.WithLogger(logger),
//	    tracing.WithSecrets(secretManager),
//	    tracing.WithObserver(metricsCollector),
//	)
//	if err != nil {
//	    return err
//	}
//	defer tracer.Shutdown(context.Background())
//
//	mux.Handle("/server_request", tracer.Middleware("server_request")(handler))
package tracing
