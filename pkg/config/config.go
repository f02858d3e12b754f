package config

import "time"

// Config is the root configuration structure for lantern.
// It covers the instrumented HTTP server, the telemetry stack (logging,
// metrics, tracing, health) and where exporter credentials are read from.
type Config struct {
	// Server contains HTTP server configuration including listen address
	// and timeouts.
	Server ServerConfig `yaml:"server"`

	// Telemetry contains configuration for observability including logging,
	// metrics, and distributed tracing.
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Secrets controls where exporter credentials are resolved from.
	Secrets SecretsConfig `yaml:"secrets"`
}

// ServerConfig contains configuration for the HTTP server.
type ServerConfig struct {
	// ListenAddress is the address and port for the server to listen on.
	// Format: "host:port" (e.g., "127.0.0.1:8082", "0.0.0.0:8082").
	// Default: "127.0.0.1:8082"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading the entire request,
	// including the body. A zero or negative value means no timeout.
	// Default: 30s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out writes of the
	// response. Span export runs before the response completes, so this
	// should exceed the slowest destination timeout.
	// Default: 30s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the maximum amount of time to wait for the next request
	// when keep-alives are enabled.
	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown.
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxHeaderBytes limits the size of request headers.
	// Default: 1048576 (1MB)
	MaxHeaderBytes int `yaml:"max_header_bytes"`
}

// TelemetryConfig contains configuration for observability.
type TelemetryConfig struct {
	// Logging contains logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains metrics collection configuration.
	Metrics MetricsConfig `yaml:"metrics"`

	// Tracing contains distributed tracing configuration.
	Tracing TracingConfig `yaml:"tracing"`

	// Health contains health check configuration.
	Health HealthConfig `yaml:"health"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls the log output format.
	// Options: "json", "console"
	// Default: "json"
	Format string `yaml:"format"`

	// AddCaller includes file and line number in log entries.
	// Default: false
	AddCaller bool `yaml:"add_caller"`

	// Development enables zap development mode (stack traces on warn,
	// panics on DPanic).
	// Default: false
	Development bool `yaml:"development"`

	// RedactHeaders lists additional header names whose values are masked
	// before they reach a log entry. Authorization and exporter credential
	// headers are always masked.
	RedactHeaders []string `yaml:"redact_headers"`
}

// MetricsConfig contains metrics collection configuration.
type MetricsConfig struct {
	// Enabled controls whether metrics collection is active.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Path is the HTTP path for the Prometheus metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace is the metric name prefix.
	// Default: "lantern"
	Namespace string `yaml:"namespace"`

	// Subsystem is the metric subsystem name.
	// Default: "" (none)
	Subsystem string `yaml:"subsystem"`

	// RequestDurationBuckets defines histogram buckets for request duration (seconds).
	// Default: [0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5]
	RequestDurationBuckets []float64 `yaml:"request_duration_buckets"`

	// ExportDurationBuckets defines histogram buckets for per-destination
	// span export duration (seconds).
	// Default: [0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10]
	ExportDurationBuckets []float64 `yaml:"export_duration_buckets"`
}

// TracingConfig contains distributed tracing configuration.
type TracingConfig struct {
	// Enabled controls whether distributed tracing is active.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// ServiceName is the service name in traces.
	// Default: "lantern"
	ServiceName string `yaml:"service_name"`

	// Environment is reported as deployment.environment on the resource.
	Environment string `yaml:"environment"`

	// Sampler determines the sampling strategy.
	// Options: "deterministic", "always", "never", "ratio"
	// Default: "deterministic"
	Sampler string `yaml:"sampler"`

	// SampleRate keeps 1 in SampleRate traces for the deterministic sampler.
	// Default: 5
	SampleRate uint `yaml:"sample_rate"`

	// SampleRatio is the fraction of traces to sample (0.0 to 1.0).
	// Only used when Sampler is "ratio".
	// Default: 0.2
	SampleRatio float64 `yaml:"sample_ratio"`

	// Destinations lists the exporters every sampled span is sent to, in
	// order. Default: console followed by an OTLP gRPC exporter pointed at
	// api.honeycomb.io:443.
	Destinations []DestinationConfig `yaml:"destinations"`
}

// Destination types.
const (
	DestinationConsole  = "console"
	DestinationOTLP     = "otlp"
	DestinationOTLPHTTP = "otlphttp"
)

// Destination auth modes.
const (
	AuthNone      = "none"
	AuthHoneycomb = "honeycomb"
)

// DestinationConfig describes one span export destination.
type DestinationConfig struct {
	// Name identifies the destination in logs and metrics.
	// Default: the destination type.
	Name string `yaml:"name"`

	// Type is one of "console", "otlp" (gRPC) or "otlphttp".
	Type string `yaml:"type"`

	// Endpoint is the collector host:port for OTLP destinations.
	Endpoint string `yaml:"endpoint"`

	// URLPath overrides the HTTP path for otlphttp destinations.
	// Default: "/v1/traces"
	URLPath string `yaml:"url_path"`

	// Insecure disables TLS. Only meant for local collectors.
	Insecure bool `yaml:"insecure"`

	// CAFile is an optional PEM bundle used instead of the system roots.
	CAFile string `yaml:"ca_file"`

	// Timeout bounds a single export call to this destination.
	// Default: 10s for OTLP destinations, none for console.
	Timeout time.Duration `yaml:"timeout"`

	// Headers are sent with every export request. Values may reference
	// secrets as ${secret:name}; references are resolved at startup.
	Headers map[string]string `yaml:"headers"`

	// Auth selects how credentials are attached. "honeycomb" adds the
	// x-honeycomb-team and x-honeycomb-dataset headers from secrets.
	// Default: "honeycomb" for OTLP destinations.
	Auth string `yaml:"auth"`

	// WriteKeySecret names the secret holding the Honeycomb write key.
	// Default: "HONEYCOMB_WRITE_KEY"
	WriteKeySecret string `yaml:"write_key_secret"`

	// DatasetSecret names the secret holding the Honeycomb dataset.
	// Default: "HONEYCOMB_DATASET"
	DatasetSecret string `yaml:"dataset_secret"`

	// Pretty enables indented JSON for the console destination.
	// Default: true
	Pretty *bool `yaml:"pretty"`
}

// HealthConfig contains health check endpoint configuration.
type HealthConfig struct {
	// Enabled controls whether health check endpoints are enabled.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// LivenessPath is the path for the liveness probe endpoint.
	// Default: "/health"
	LivenessPath string `yaml:"liveness_path"`

	// ReadinessPath is the path for the readiness probe endpoint.
	// Default: "/ready"
	ReadinessPath string `yaml:"readiness_path"`

	// VersionPath is the path for the version information endpoint.
	// Default: "/version"
	VersionPath string `yaml:"version_path"`

	// CheckTimeout is the timeout for individual component health checks.
	// Default: 5s
	CheckTimeout time.Duration `yaml:"check_timeout"`
}

// SecretsConfig controls secret resolution.
type SecretsConfig struct {
	// EnvPrefix is prepended to secret names when reading them from the
	// environment. Default: "" so HONEYCOMB_WRITE_KEY is read as-is.
	EnvPrefix string `yaml:"env_prefix"`

	// Dir is an optional directory of secret files (one file per secret,
	// e.g. a mounted Kubernetes secret). Files take precedence over env.
	Dir string `yaml:"dir"`
}
