package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"lantern-hq/lantern/pkg/cli"
	"lantern-hq/lantern/pkg/config"
	"lantern-hq/lantern/pkg/telemetry/logging"
)

var (
	// Global flags
	cfgFile  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "lantern",
	Short: "Lantern - request tracing service",
	Long: `Lantern serves HTTP requests and records a trace span for each one.

It joins upstream traces through the W3C traceparent header, samples
traces deterministically by trace id so every service keeps the same
traces, and exports sampled spans to the console and OTLP collectors
such as Honeycomb.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "lantern.yaml", "config file path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log level (debug, info, warn, error)")
}

// loadConfig loads the configuration named by --config. A missing file is
// only accepted when the flag was left at its default.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	allowMissing := !cmd.Flags().Changed("config")

	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile, allowMissing)
	if err != nil {
		var verr config.ValidationError
		if errors.As(err, &verr) {
			return nil, err
		}
		return nil, cli.NewConfigError("", err.Error())
	}

	if logLevel != "" {
		if _, err := logging.ParseLevel(logLevel); err != nil {
			return nil, cli.NewConfigError("log-level", fmt.Sprintf("invalid value %q", logLevel))
		}
		cfg.Telemetry.Logging.Level = logLevel
	}
	return cfg, nil
}
