// Package middleware provides HTTP middleware for cross-cutting concerns.
//
// This package implements the middleware wrapped around every lantern route:
// panic recovery, request ID propagation and access logging. Tracing and
// request metrics live with their packages (tracing.Tracer.Middleware,
// metrics.Collector.Middleware).
//
// # Middleware Chain
//
//	handler = Chain(handler, Recovery(logger), RequestID, AccessLog(logger, redactor))
//
// Order (outermost first):
//  1. Recovery: Recover from panics, return 500
//  2. RequestID: Generate or accept X-Request-ID, add to context and response
//  3. AccessLog: Log method, path, status and latency with correlation fields
//
// Recovery is outermost so a panic anywhere, including in the tracing
// middleware after the span was ended, still produces a response.
package middleware
