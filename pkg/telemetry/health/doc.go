// Package health provides health check endpoints for lantern.
//
// # Endpoints
//
//   - /health: Liveness probe - the process is running
//   - /ready: Readiness probe - every registered check passes
//   - /version: Build information - version, commit, build time
//
// # Usage
//
//	checker := health.New(5*time.Second, logger)
//	checker.RegisterCheck("tracing", tracer.Ready)
//	health.Register(mux, checker, cfg.Telemetry.Health, health.VersionInfo{Version: version})
//
// # Liveness vs Readiness
//
// Liveness never runs component checks; a failing export destination must
// not get the process restarted. Readiness runs all checks concurrently,
// each bounded by the check timeout, and answers 503 when any of them
// fails. The tracing check fails once the tracer has been shut down, which
// takes the instance out of rotation while it drains.
package health
