package server

import (
	"context"

	"lantern-hq/lantern/pkg/config"
	"lantern-hq/lantern/pkg/telemetry/health"
	"lantern-hq/lantern/pkg/telemetry/logging"
	"lantern-hq/lantern/pkg/telemetry/metrics"
	"lantern-hq/lantern/pkg/telemetry/tracing"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

// FXModule provides the *Server and starts it with the application.
var FXModule = fx.Module("server",
	fx.Provide(NewFromParams),
	fx.Invoke(RegisterLifecycle),
)

// Params holds the dependencies of NewFromParams.
type Params struct {
	fx.In

	Config  *config.Config
	Tracer  *tracing.Tracer
	Logger  *zap.Logger
	Log     *logging.Logger    `optional:"true"`
	Metrics *metrics.Collector `optional:"true"`
	Health  *health.Checker    `optional:"true"`
	Version health.VersionInfo `optional:"true"`
}

// NewFromParams creates the server from its dependencies.
func NewFromParams(p Params) *Server {
	opts := []Option{WithLogger(p.Logger)}
	if p.Log != nil {
		opts = append(opts, WithRedactor(p.Log.Redactor()))
	}
	if p.Metrics != nil {
		opts = append(opts, WithMetrics(p.Metrics))
	}
	if p.Health != nil {
		opts = append(opts, WithHealth(p.Health, p.Version))
	}
	return New(p.Config, p.Tracer, opts...)
}

// RegisterLifecycle starts the server with the application. The server is
// stopped before the tracer so in-flight spans are still exported.
func RegisterLifecycle(lc fx.Lifecycle, s *Server) {
	lc.Append(fx.Hook{
		OnStart: s.Start,
		OnStop: func(ctx context.Context) error {
			return s.Shutdown(ctx)
		},
	})
}
