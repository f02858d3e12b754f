package tracing

import (
	"context"

	"lantern-hq/lantern/pkg/config"
	"lantern-hq/lantern/pkg/security/secrets"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

// FXModule provides *Tracer built from the loaded configuration and shuts
// it down when the application stops.
//
//	app := fx.New(
//	    tracing.FXModule,
//	    // config, logger, secrets and metrics modules...
//	)
var FXModule = fx.Module("tracing",
	fx.Provide(NewFromParams),
	fx.Invoke(RegisterLifecycle),
)

// Params are the dependencies of NewFromParams.
type Params struct {
	fx.In

	Config   *config.Config
	Logger   *zap.Logger
	Secrets  secrets.SecretProvider `optional:"true"`
	Observer Observer               `optional:"true"`
	Version  string                 `name:"version" optional:"true"`
}

// NewFromParams builds a Tracer for dependency injection.
func NewFromParams(p Params) (*Tracer, error) {
	return New(&p.Config.Telemetry.Tracing,
		WithLogger(p.Logger),
		WithSecrets(p.Secrets),
		WithObserver(p.Observer),
		WithServiceVersion(p.Version),
	)
}

// RegisterLifecycle shuts the tracer down on application stop so no span
// is exported after the server has stopped.
func RegisterLifecycle(lc fx.Lifecycle, t *Tracer, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			logger.Info("shutting down tracer")
			return t.Shutdown(ctx)
		},
	})
}
