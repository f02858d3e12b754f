package metrics

import (
	"lantern-hq/lantern/pkg/config"
	"lantern-hq/lantern/pkg/telemetry/tracing"

	"go.uber.org/fx"
)

var _ tracing.Observer = (*Collector)(nil)

// FXModule provides the *Collector and exposes it as the tracer's Observer.
var FXModule = fx.Module("metrics",
	fx.Provide(
		NewFromParams,
		func(c *Collector) tracing.Observer { return c },
	),
)

// Params holds the dependencies of NewFromParams.
type Params struct {
	fx.In

	Config *config.Config
}

// NewFromParams creates the collector from the telemetry configuration.
func NewFromParams(p Params) *Collector {
	cfg := p.Config.Telemetry.Metrics
	return NewCollector(&cfg, nil)
}
