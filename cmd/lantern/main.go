// Lantern is an HTTP service that traces every request it serves.
//
// Incoming W3C traceparent headers are honored, traces are sampled
// deterministically by trace id, and sampled spans are exported to every
// configured destination in order.
//
// Usage:
//
//	# Start the server
//	lantern run --config lantern.yaml
//
//	# Check a configuration file
//	lantern validate --config lantern.yaml
//
//	# Inspect a traceparent header
//	lantern traceparent decode 00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01
package main

import (
	"fmt"
	"os"

	"lantern-hq/lantern/pkg/cli"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.ExitCode(err))
	}
}
