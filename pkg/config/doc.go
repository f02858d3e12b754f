// Package config provides configuration management for lantern.
//
// This package handles loading and validating configuration from YAML files
// with environment variable overrides, and watching the file for changes.
//
// # Configuration Loading
//
// Configuration can be loaded in two ways:
//
//  1. From a YAML file only:
//     cfg, err := config.LoadConfig("config.yaml")
//
//  2. From a YAML file with environment variable overrides:
//     cfg, err := config.LoadConfigWithEnvOverrides("config.yaml", true)
//
// The second form tolerates a missing file when asked to, falling back to
// the built-in defaults.
//
// # Environment Variable Overrides
//
// Overrides are read with envconfig using the LANTERN prefix:
//
//   - LANTERN_SERVER_LISTEN_ADDRESS overrides server.listen_address
//   - LANTERN_LOG_LEVEL overrides telemetry.logging.level
//   - LANTERN_TRACING_SAMPLE_RATE overrides telemetry.tracing.sample_rate
//   - LANTERN_TRACING_OTLP_ENDPOINT overrides the endpoint of every OTLP destination
//
// Exporter credentials are not configuration. They are secrets, resolved at
// startup (HONEYCOMB_WRITE_KEY and HONEYCOMB_DATASET by default).
//
// # Configuration Precedence
//
//  1. Default values (defined in defaults.go)
//  2. Values from YAML file
//  3. Environment variable overrides
//  4. Validation (fails fast if invalid)
//
// # Example Configuration
//
//	server:
//	  listen_address: "0.0.0.0:8082"
//
//	telemetry:
//	  logging:
//	    level: "info"
//	    format: "json"
//	  tracing:
//	    sampler: "deterministic"
//	    sample_rate: 5
//	    destinations:
//	      - type: console
//	      - type: otlp
//	        endpoint: "api.honeycomb.io:443"
//
// # Reloading
//
// Watcher re-reads the file after it changes. Only settings that are safe to
// change at runtime (the log level) are applied by the caller; the tracing
// pipeline is built once at startup and never reconfigured.
package config
