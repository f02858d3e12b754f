package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"lantern-hq/lantern/pkg/cli"
	"lantern-hq/lantern/pkg/config"
	"lantern-hq/lantern/pkg/server"
	"lantern-hq/lantern/pkg/telemetry/tracing"

	"go.uber.org/fx"
)

const startTimeout = 15 * time.Second

var runFlags struct {
	listenAddress string
	dryRun        bool
	watchConfig   bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the Lantern server",
	Long: `Start the Lantern server with the specified configuration.

Every request to /server_request is traced. Sampled spans are exported to
each configured destination in order before the response completes.

Examples:
  # Start with default config
  lantern run

  # Start with custom config
  lantern run --config /etc/lantern/lantern.yaml

  # Override listen address
  lantern run --listen 0.0.0.0:8080

  # Validate config and build exporters without starting the server
  lantern run --dry-run`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "build the service graph without starting the server")
	runCmd.Flags().BoolVar(&runFlags.watchConfig, "watch-config", false, "apply log level changes from the config file without a restart")
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if runFlags.listenAddress != "" {
		cfg.Server.ListenAddress = runFlags.listenAddress
		if err := config.Validate(cfg); err != nil {
			return err
		}
	}

	var (
		srv    *server.Server
		tracer *tracing.Tracer
	)
	opts := append(appOptions(cfg), fx.Populate(&srv, &tracer))
	if runFlags.watchConfig && !runFlags.dryRun {
		opts = append(opts, watchConfig(cfgFile))
	}

	app := fx.New(opts...)
	if err := app.Err(); err != nil {
		return cli.NewCommandError("run", err)
	}

	out := cmd.OutOrStdout()
	if runFlags.dryRun {
		fmt.Fprintln(out, "✓ Configuration valid")
		fmt.Fprintf(out, "✓ Sampler: %s\n", samplerDescription(tracer))
		fmt.Fprintf(out, "✓ Destinations: %s\n", destinationList(tracer))
		return nil
	}

	ctx, stop := cli.SetupSignalHandler(cmd.Context())
	defer stop()

	startCtx, cancel := context.WithTimeout(ctx, startTimeout)
	defer cancel()
	if err := app.Start(startCtx); err != nil {
		return cli.NewCommandError("run", err)
	}

	fmt.Fprintf(out, "Lantern v%s\n", Version)
	fmt.Fprintf(out, "✓ Server listening on %s\n", srv.Addr())
	fmt.Fprintf(out, "✓ Destinations: %s\n", destinationList(tracer))
	if cfg.Telemetry.Health.Enabled {
		fmt.Fprintf(out, "✓ Health endpoint: http://%s%s\n", srv.Addr(), cfg.Telemetry.Health.LivenessPath)
	}
	if cfg.Telemetry.Metrics.Enabled {
		fmt.Fprintf(out, "✓ Metrics endpoint: http://%s%s\n", srv.Addr(), cfg.Telemetry.Metrics.Path)
	}
	fmt.Fprintln(out, "\nPress Ctrl+C to stop")

	<-ctx.Done()
	fmt.Fprintln(out, "\nShutting down gracefully...")

	stopCtx, stopCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer stopCancel()
	if err := app.Stop(stopCtx); err != nil {
		return cli.NewCommandError("run", err)
	}

	fmt.Fprintln(out, "✓ Server stopped")
	return nil
}

func samplerDescription(t *tracing.Tracer) string {
	if !t.Enabled() {
		return "disabled"
	}
	return t.Sampler().Description()
}

func destinationList(t *tracing.Tracer) string {
	names := t.Destinations()
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ", ")
}
