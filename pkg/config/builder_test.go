package config

import "time"

// ConfigBuilder provides a fluent interface for building test configurations.
type ConfigBuilder struct {
	cfg *Config
}

// NewTestConfig creates a new ConfigBuilder with defaults applied and the
// remote destination replaced by a local, unauthenticated collector so tests
// never need credentials.
func NewTestConfig() *ConfigBuilder {
	cfg := Default()
	cfg.Telemetry.Tracing.Destinations = []DestinationConfig{
		{Type: DestinationConsole},
		{Type: DestinationOTLP, Endpoint: "localhost:4317", Insecure: true, Auth: AuthNone},
	}
	ApplyDefaults(cfg)
	return &ConfigBuilder{cfg: cfg}
}

// WithListenAddress sets the server listen address.
func (b *ConfigBuilder) WithListenAddress(addr string) *ConfigBuilder {
	b.cfg.Server.ListenAddress = addr
	return b
}

// WithShutdownTimeout sets the server shutdown timeout.
func (b *ConfigBuilder) WithShutdownTimeout(d time.Duration) *ConfigBuilder {
	b.cfg.Server.ShutdownTimeout = d
	return b
}

// WithLogLevel sets the logging level.
func (b *ConfigBuilder) WithLogLevel(level string) *ConfigBuilder {
	b.cfg.Telemetry.Logging.Level = level
	return b
}

// WithSampler sets the sampler strategy.
func (b *ConfigBuilder) WithSampler(sampler string) *ConfigBuilder {
	b.cfg.Telemetry.Tracing.Sampler = sampler
	return b
}

// WithSampleRate sets the deterministic sample rate.
func (b *ConfigBuilder) WithSampleRate(rate uint) *ConfigBuilder {
	b.cfg.Telemetry.Tracing.SampleRate = rate
	return b
}

// WithDestination appends a destination.
func (b *ConfigBuilder) WithDestination(d DestinationConfig) *ConfigBuilder {
	b.cfg.Telemetry.Tracing.Destinations = append(b.cfg.Telemetry.Tracing.Destinations, d)
	return b
}

// WithoutDestinations removes every destination.
func (b *ConfigBuilder) WithoutDestinations() *ConfigBuilder {
	b.cfg.Telemetry.Tracing.Destinations = nil
	return b
}

// WithoutTracing disables tracing.
func (b *ConfigBuilder) WithoutTracing() *ConfigBuilder {
	b.cfg.Telemetry.Tracing.Enabled = false
	return b
}

// Build returns the built configuration.
func (b *ConfigBuilder) Build() *Config {
	return b.cfg
}

// MinimalConfig returns a minimal valid configuration for testing.
func MinimalConfig() *Config {
	return NewTestConfig().Build()
}
