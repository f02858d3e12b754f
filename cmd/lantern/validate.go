package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"lantern-hq/lantern/pkg/cli"
	"lantern-hq/lantern/pkg/config"
)

var validateFlags struct {
	output string
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	Long: `Load the configuration file, apply defaults and LANTERN_* environment
overrides, and report every invalid field.

Exporter credentials are not resolved; use "lantern run --dry-run" to check
them as well.

Examples:
  # Validate the default config file
  lantern validate

  # Validate a specific file with JSON output
  lantern validate --config /etc/lantern/lantern.yaml --output json`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringVarP(&validateFlags.output, "output", "o", "text", "output format (text, json)")
}

// validationReport is the result printed by the validate command.
type validationReport struct {
	ConfigFile   string              `json:"config_file"`
	Valid        bool                `json:"valid"`
	Errors       []*cli.ConfigError  `json:"errors,omitempty"`
	Sampler      string              `json:"sampler,omitempty"`
	SampleRate   uint                `json:"sample_rate,omitempty"`
	Destinations []destinationReport `json:"destinations,omitempty"`
}

type destinationReport struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Endpoint string `json:"endpoint,omitempty"`
}

func (r validationReport) String() string {
	var b strings.Builder
	if !r.Valid {
		fmt.Fprintf(&b, "✗ %s is invalid\n", r.ConfigFile)
		for _, e := range r.Errors {
			fmt.Fprintf(&b, "  - %s: %s\n", e.Field, e.Message)
		}
		return strings.TrimSuffix(b.String(), "\n")
	}

	fmt.Fprintf(&b, "✓ %s is valid\n", r.ConfigFile)
	if r.Sampler == config.DefaultSampler {
		fmt.Fprintf(&b, "  sampler: %s (1 in %d)\n", r.Sampler, r.SampleRate)
	} else {
		fmt.Fprintf(&b, "  sampler: %s\n", r.Sampler)
	}
	for _, d := range r.Destinations {
		if d.Endpoint != "" {
			fmt.Fprintf(&b, "  destination: %s (%s, %s)\n", d.Name, d.Type, d.Endpoint)
		} else {
			fmt.Fprintf(&b, "  destination: %s (%s)\n", d.Name, d.Type)
		}
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func runValidate(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseOutputFormat(validateFlags.output)
	if err != nil {
		return cli.NewConfigError("output", err.Error())
	}

	report := validationReport{ConfigFile: cfgFile}
	cfg, loadErr := loadConfig(cmd)
	switch {
	case loadErr == nil:
		report.Valid = true
		report.Sampler = cfg.Telemetry.Tracing.Sampler
		report.SampleRate = cfg.Telemetry.Tracing.SampleRate
		for _, d := range cfg.Telemetry.Tracing.Destinations {
			report.Destinations = append(report.Destinations, destinationReport{
				Name:     d.Name,
				Type:     d.Type,
				Endpoint: d.Endpoint,
			})
		}
	case cli.ConfigErrors(loadErr) != nil:
		report.Errors = cli.ConfigErrors(loadErr)
	default:
		return loadErr
	}

	if err := cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), report); err != nil {
		return err
	}
	return loadErr
}
