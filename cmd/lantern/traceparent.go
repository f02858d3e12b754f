package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"lantern-hq/lantern/pkg/cli"
	"lantern-hq/lantern/pkg/config"
	"lantern-hq/lantern/pkg/telemetry/tracing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

var traceparentFlags struct {
	output  string
	sampled bool
	rate    uint
}

var traceparentCmd = &cobra.Command{
	Use:   "traceparent",
	Short: "Inspect and generate traceparent headers",
	Long: `Decode, generate and sample W3C traceparent header values.

Examples:
  # Decode a header value
  lantern traceparent decode 00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01

  # Generate a sampled header for a test request
  lantern traceparent new --sampled

  # Show the sampling decision for a trace id at 1 in 10
  lantern traceparent sample 4bf92f3577b34da6a3ce929d0e0e4736 --rate 10`,
}

var traceparentDecodeCmd = &cobra.Command{
	Use:   "decode <traceparent>",
	Short: "Decode a traceparent header value",
	Args:  cobra.ExactArgs(1),
	RunE:  runTraceparentDecode,
}

var traceparentNewCmd = &cobra.Command{
	Use:   "new",
	Short: "Generate a traceparent header value with random ids",
	Args:  cobra.NoArgs,
	RunE:  runTraceparentNew,
}

var traceparentSampleCmd = &cobra.Command{
	Use:   "sample <trace-id|traceparent>...",
	Short: "Show the deterministic sampling decision for trace ids",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runTraceparentSample,
}

func init() {
	rootCmd.AddCommand(traceparentCmd)
	traceparentCmd.AddCommand(traceparentDecodeCmd, traceparentNewCmd, traceparentSampleCmd)

	traceparentCmd.PersistentFlags().StringVarP(&traceparentFlags.output, "output", "o", "text", "output format (text, json)")
	traceparentNewCmd.Flags().BoolVar(&traceparentFlags.sampled, "sampled", true, "set the sampled flag")
	traceparentSampleCmd.Flags().UintVar(&traceparentFlags.rate, "rate", config.DefaultSampleRate, "keep 1 in rate traces")
}

// traceparentReport describes one decoded header.
type traceparentReport struct {
	Header       string `json:"traceparent"`
	TraceID      string `json:"trace_id"`
	ParentSpanID string `json:"parent_span_id"`
	Flags        string `json:"flags"`
	Sampled      bool   `json:"sampled"`
}

func newTraceparentReport(id tracing.TraceIdentity) traceparentReport {
	return traceparentReport{
		Header:       id.String(),
		TraceID:      id.TraceID.String(),
		ParentSpanID: id.ParentSpanID.String(),
		Flags:        id.Flags.String(),
		Sampled:      id.Sampled(),
	}
}

func (r traceparentReport) String() string {
	return fmt.Sprintf("traceparent: %s\ntrace id:    %s\nparent id:   %s\nflags:       %s (sampled=%t)",
		r.Header, r.TraceID, r.ParentSpanID, r.Flags, r.Sampled)
}

// sampleReport is the sampling decision for one trace id.
type sampleReport struct {
	TraceID  string `json:"trace_id"`
	Rate     uint   `json:"rate"`
	Decision string `json:"decision"`
}

func (r sampleReport) String() string {
	return fmt.Sprintf("%s %s (1 in %d)", r.TraceID, r.Decision, r.Rate)
}

func traceparentFormatter() (cli.Formatter, error) {
	format, err := cli.ParseOutputFormat(traceparentFlags.output)
	if err != nil {
		return nil, cli.NewConfigError("output", err.Error())
	}
	return cli.NewFormatter(format), nil
}

func runTraceparentDecode(cmd *cobra.Command, args []string) error {
	f, err := traceparentFormatter()
	if err != nil {
		return err
	}
	id, err := tracing.DecodeTraceParent(args[0])
	if err != nil {
		return cli.NewCommandError("traceparent decode", err)
	}
	return f.FormatTo(cmd.OutOrStdout(), newTraceparentReport(id))
}

func runTraceparentNew(cmd *cobra.Command, args []string) error {
	f, err := traceparentFormatter()
	if err != nil {
		return err
	}

	// The SDK's id generator produces the ids. NeverSample keeps the span
	// from being recorded.
	tp := sdktrace.NewTracerProvider(sdktrace.WithSampler(sdktrace.NeverSample()))
	defer func() { _ = tp.Shutdown(context.Background()) }()
	_, span := tp.Tracer("lantern-cli").Start(context.Background(), "traceparent")
	sc := span.SpanContext()
	span.End()

	id := tracing.TraceIdentity{TraceID: sc.TraceID(), ParentSpanID: sc.SpanID()}
	if traceparentFlags.sampled {
		id.Flags = trace.FlagsSampled
	}
	return f.FormatTo(cmd.OutOrStdout(), newTraceparentReport(id))
}

func runTraceparentSample(cmd *cobra.Command, args []string) error {
	f, err := traceparentFormatter()
	if err != nil {
		return err
	}
	if traceparentFlags.rate == 0 {
		return cli.NewConfigError("rate", "must be at least 1")
	}

	reports := make([]sampleReport, 0, len(args))
	for _, arg := range args {
		traceID, err := parseTraceID(arg)
		if err != nil {
			return cli.NewCommandError("traceparent sample", err)
		}
		reports = append(reports, sampleReport{
			TraceID:  traceID.String(),
			Rate:     traceparentFlags.rate,
			Decision: tracing.Decide(traceID, traceparentFlags.rate).String(),
		})
	}

	return f.FormatTo(cmd.OutOrStdout(), reports)
}

// parseTraceID accepts a bare 32-digit trace id or a full traceparent.
func parseTraceID(arg string) (trace.TraceID, error) {
	if strings.Contains(arg, "-") {
		id, err := tracing.DecodeTraceParent(arg)
		if err != nil {
			return trace.TraceID{}, err
		}
		return id.TraceID, nil
	}
	traceID, err := trace.TraceIDFromHex(strings.ToLower(arg))
	if err != nil {
		return trace.TraceID{}, fmt.Errorf("invalid trace id %q: %w", arg, err)
	}
	return traceID, nil
}
