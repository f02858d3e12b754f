package health

import (
	"lantern-hq/lantern/pkg/config"
	"lantern-hq/lantern/pkg/telemetry/tracing"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

// TracingCheckName is the readiness check backed by the tracer.
const TracingCheckName = "tracing"

// FXModule provides the *Checker with the tracing readiness check
// registered.
var FXModule = fx.Module("health",
	fx.Provide(NewFromParams),
	fx.Invoke(RegisterTracingCheck),
)

// Params holds the dependencies of NewFromParams.
type Params struct {
	fx.In

	Config *config.Config
	Logger *zap.Logger
}

// NewFromParams creates the checker from the health configuration.
func NewFromParams(p Params) *Checker {
	return New(p.Config.Telemetry.Health.CheckTimeout, p.Logger)
}

// RegisterTracingCheck makes readiness fail once the tracer is shut down.
func RegisterTracingCheck(c *Checker, tracer *tracing.Tracer) {
	c.RegisterCheck(TracingCheckName, tracer.Ready)
}
