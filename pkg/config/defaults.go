package config

import "time"

// Default values for configuration fields.
const (
	// Server defaults
	DefaultListenAddress   = "127.0.0.1:8082"
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultMaxHeaderBytes  = 1048576 // 1MB

	// Logging defaults
	DefaultLoggingLevel  = "info"
	DefaultLoggingFormat = "json"

	// Metrics defaults
	DefaultMetricsEnabled   = true
	DefaultMetricsPath      = "/metrics"
	DefaultMetricsNamespace = "lantern"

	// Tracing defaults
	DefaultTracingEnabled     = true
	DefaultServiceName        = "lantern"
	DefaultSampler            = "deterministic"
	DefaultSampleRate         = uint(5)
	DefaultSampleRatio        = 0.2
	DefaultOTLPEndpoint       = "api.honeycomb.io:443"
	DefaultOTLPHTTPPath       = "/v1/traces"
	DefaultDestinationTimeout = 10 * time.Second
	DefaultWriteKeySecret     = "HONEYCOMB_WRITE_KEY"
	DefaultDatasetSecret      = "HONEYCOMB_DATASET"

	// Health defaults
	DefaultHealthEnabled      = true
	DefaultLivenessPath       = "/health"
	DefaultReadinessPath      = "/ready"
	DefaultVersionPath        = "/version"
	DefaultHealthCheckTimeout = 5 * time.Second
)

var (
	// DefaultRequestDurationBuckets covers sub-millisecond handlers up to
	// slow synchronous exports.
	DefaultRequestDurationBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5}

	// DefaultExportDurationBuckets covers console writes up to a remote
	// collector hitting its timeout.
	DefaultExportDurationBuckets = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10}
)

// Default returns a configuration with every field set to its default,
// including the two standard destinations (console, then Honeycomb over
// OTLP/gRPC). LoadConfig decodes YAML on top of this value, so fields
// absent from the file keep these defaults.
func Default() *Config {
	cfg := &Config{
		Server: ServerConfig{
			ListenAddress: DefaultListenAddress,
		},
		Telemetry: TelemetryConfig{
			Metrics: MetricsConfig{
				Enabled: DefaultMetricsEnabled,
			},
			Tracing: TracingConfig{
				Enabled: DefaultTracingEnabled,
				Destinations: []DestinationConfig{
					{Type: DestinationConsole},
					{Type: DestinationOTLP, Endpoint: DefaultOTLPEndpoint},
				},
			},
			Health: HealthConfig{
				Enabled: DefaultHealthEnabled,
			},
		},
	}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills zero-valued fields with their defaults. It never
// overrides a value that was set explicitly.
func ApplyDefaults(cfg *Config) {
	// Server defaults
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = DefaultListenAddress
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Server.MaxHeaderBytes == 0 {
		cfg.Server.MaxHeaderBytes = DefaultMaxHeaderBytes
	}

	// Telemetry defaults
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}
	if len(cfg.Telemetry.Metrics.RequestDurationBuckets) == 0 {
		cfg.Telemetry.Metrics.RequestDurationBuckets = DefaultRequestDurationBuckets
	}
	if len(cfg.Telemetry.Metrics.ExportDurationBuckets) == 0 {
		cfg.Telemetry.Metrics.ExportDurationBuckets = DefaultExportDurationBuckets
	}

	applyTracingDefaults(&cfg.Telemetry.Tracing)

	if cfg.Telemetry.Health.LivenessPath == "" {
		cfg.Telemetry.Health.LivenessPath = DefaultLivenessPath
	}
	if cfg.Telemetry.Health.ReadinessPath == "" {
		cfg.Telemetry.Health.ReadinessPath = DefaultReadinessPath
	}
	if cfg.Telemetry.Health.VersionPath == "" {
		cfg.Telemetry.Health.VersionPath = DefaultVersionPath
	}
	if cfg.Telemetry.Health.CheckTimeout == 0 {
		cfg.Telemetry.Health.CheckTimeout = DefaultHealthCheckTimeout
	}
}

func applyTracingDefaults(cfg *TracingConfig) {
	if cfg.ServiceName == "" {
		cfg.ServiceName = DefaultServiceName
	}
	if cfg.Sampler == "" {
		cfg.Sampler = DefaultSampler
	}
	if cfg.SampleRate == 0 && cfg.Sampler == DefaultSampler {
		cfg.SampleRate = DefaultSampleRate
	}
	if cfg.SampleRatio == 0 && cfg.Sampler != "ratio" {
		cfg.SampleRatio = DefaultSampleRatio
	}

	for i := range cfg.Destinations {
		d := &cfg.Destinations[i]
		if d.Name == "" {
			d.Name = d.Type
		}
		switch d.Type {
		case DestinationConsole:
			if d.Pretty == nil {
				pretty := true
				d.Pretty = &pretty
			}
		case DestinationOTLP, DestinationOTLPHTTP:
			if d.Timeout == 0 {
				d.Timeout = DefaultDestinationTimeout
			}
			if d.Auth == "" {
				d.Auth = AuthHoneycomb
			}
			if d.Type == DestinationOTLPHTTP && d.URLPath == "" {
				d.URLPath = DefaultOTLPHTTPPath
			}
		}
		if d.Auth == AuthHoneycomb {
			if d.WriteKeySecret == "" {
				d.WriteKeySecret = DefaultWriteKeySecret
			}
			if d.DatasetSecret == "" {
				d.DatasetSecret = DefaultDatasetSecret
			}
		}
	}
}
