package logging

import (
	"context"

	"lantern-hq/lantern/pkg/config"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

// FXModule provides *Logger and the *zap.Logger used by every other module.
var FXModule = fx.Module("logging",
	fx.Provide(
		NewFromParams,
		func(l *Logger) *zap.Logger { return l.Zap() },
	),
	fx.Invoke(RegisterLifecycle),
)

// Params holds the dependencies of NewFromParams.
type Params struct {
	fx.In

	Config *config.Config
}

// NewFromParams builds the logger from the telemetry configuration.
func NewFromParams(p Params) (*Logger, error) {
	return New(ConfigFrom(p.Config.Telemetry.Logging, p.Config.Telemetry.Tracing.ServiceName))
}

// RegisterLifecycle flushes the logger when the application stops.
func RegisterLifecycle(lc fx.Lifecycle, l *Logger) {
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return l.Sync()
		},
	})
}
