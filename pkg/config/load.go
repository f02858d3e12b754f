package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix for environment variable overrides.
const EnvPrefix = "LANTERN"

// LoadConfig loads configuration from a YAML file at the specified path.
// The file is decoded on top of Default(), so omitted fields keep their
// defaults. The result is validated before it is returned.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Parse decodes YAML configuration on top of the defaults without
// validating it.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	ApplyDefaults(cfg)
	return cfg, nil
}

// EnvOverrides holds the settings that may be overridden from the
// environment. Every variable is prefixed with LANTERN_, for example
// LANTERN_SERVER_LISTEN_ADDRESS or LANTERN_TRACING_SAMPLE_RATE.
// Pointer fields stay nil when the variable is unset.
type EnvOverrides struct {
	ListenAddress   string         `envconfig:"SERVER_LISTEN_ADDRESS"`
	ShutdownTimeout *time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT"`

	LogLevel  string `envconfig:"LOG_LEVEL"`
	LogFormat string `envconfig:"LOG_FORMAT"`

	MetricsEnabled *bool `envconfig:"METRICS_ENABLED"`

	TracingEnabled *bool    `envconfig:"TRACING_ENABLED"`
	Sampler        string   `envconfig:"TRACING_SAMPLER"`
	SampleRate     *uint    `envconfig:"TRACING_SAMPLE_RATE"`
	SampleRatio    *float64 `envconfig:"TRACING_SAMPLE_RATIO"`
	ServiceName    string   `envconfig:"TRACING_SERVICE_NAME"`
	Environment    string   `envconfig:"TRACING_ENVIRONMENT"`
	OTLPEndpoint   string   `envconfig:"TRACING_OTLP_ENDPOINT"`

	SecretsDir string `envconfig:"SECRETS_DIR"`
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Environment variables always take
// precedence over file-based configuration.
//
// When allowMissing is set and the file does not exist, the defaults are
// used as the base instead.
//
// The loading sequence is:
// 1. Load YAML from file (or start from defaults)
// 2. Apply default values
// 3. Apply environment variable overrides
// 4. Validate final configuration
func LoadConfigWithEnvOverrides(path string, allowMissing bool) (*Config, error) {
	var cfg *Config

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		cfg, err = Parse(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
		}
	case allowMissing && errors.Is(err, fs.ErrNotExist):
		cfg = Default()
	default:
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	if err := ApplyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// ApplyEnvOverrides reads LANTERN_* variables and applies them to cfg.
func ApplyEnvOverrides(cfg *Config) error {
	var env EnvOverrides
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return fmt.Errorf("failed to read environment overrides: %w", err)
	}
	env.apply(cfg)
	ApplyDefaults(cfg)
	return nil
}

func (e EnvOverrides) apply(cfg *Config) {
	if e.ListenAddress != "" {
		cfg.Server.ListenAddress = e.ListenAddress
	}
	if e.ShutdownTimeout != nil {
		cfg.Server.ShutdownTimeout = *e.ShutdownTimeout
	}

	if e.LogLevel != "" {
		cfg.Telemetry.Logging.Level = e.LogLevel
	}
	if e.LogFormat != "" {
		cfg.Telemetry.Logging.Format = e.LogFormat
	}

	if e.MetricsEnabled != nil {
		cfg.Telemetry.Metrics.Enabled = *e.MetricsEnabled
	}

	tracing := &cfg.Telemetry.Tracing
	if e.TracingEnabled != nil {
		tracing.Enabled = *e.TracingEnabled
	}
	if e.Sampler != "" {
		tracing.Sampler = e.Sampler
	}
	if e.SampleRate != nil {
		tracing.SampleRate = *e.SampleRate
	}
	if e.SampleRatio != nil {
		tracing.SampleRatio = *e.SampleRatio
	}
	if e.ServiceName != "" {
		tracing.ServiceName = e.ServiceName
	}
	if e.Environment != "" {
		tracing.Environment = e.Environment
	}
	if e.OTLPEndpoint != "" {
		for i := range tracing.Destinations {
			switch tracing.Destinations[i].Type {
			case DestinationOTLP, DestinationOTLPHTTP:
				tracing.Destinations[i].Endpoint = e.OTLPEndpoint
			}
		}
	}

	if e.SecretsDir != "" {
		cfg.Secrets.Dir = e.SecretsDir
	}
}
