package tracing

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"os"

	"lantern-hq/lantern/pkg/config"
	"lantern-hq/lantern/pkg/security/secrets"
	tlsconfig "lantern-hq/lantern/pkg/security/tls"

	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"google.golang.org/grpc/credentials"
)

// Honeycomb credential headers.
const (
	HoneycombTeamHeader    = "x-honeycomb-team"
	HoneycombDatasetHeader = "x-honeycomb-dataset"
)

// destinationBuilder carries what BuildDestinations needs besides config.
type destinationBuilder struct {
	secrets secrets.SecretProvider
	stdout  io.Writer
	logger  *zap.Logger
}

// BuildDestinations creates one Destination per config entry, in order.
// Missing credentials or unreadable TLS material fail with a
// *ConfigurationError; nothing is contacted over the network.
func BuildDestinations(ctx context.Context, cfgs []config.DestinationConfig, provider secrets.SecretProvider, stdout io.Writer, logger *zap.Logger) ([]Destination, error) {
	b := destinationBuilder{secrets: provider, stdout: stdout, logger: logger}
	if b.stdout == nil {
		b.stdout = os.Stdout
	}
	if b.logger == nil {
		b.logger = zap.NewNop()
	}

	destinations := make([]Destination, 0, len(cfgs))
	for _, cfg := range cfgs {
		exp, err := b.build(ctx, cfg)
		if err != nil {
			for _, d := range destinations {
				_ = d.Exporter.Shutdown(ctx)
			}
			return nil, &ConfigurationError{Component: "destination " + cfg.Name, Err: err}
		}
		destinations = append(destinations, Destination{
			Name:     cfg.Name,
			Exporter: exp,
			Timeout:  cfg.Timeout,
		})
	}
	return destinations, nil
}

func (b destinationBuilder) build(ctx context.Context, cfg config.DestinationConfig) (sdktrace.SpanExporter, error) {
	switch cfg.Type {
	case config.DestinationConsole:
		return b.consoleExporter(cfg)
	case config.DestinationOTLP:
		headers, err := b.headers(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return b.otlpGRPCExporter(ctx, cfg, headers)
	case config.DestinationOTLPHTTP:
		headers, err := b.headers(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return b.otlpHTTPExporter(ctx, cfg, headers)
	default:
		return nil, fmt.Errorf("unsupported destination type: %s", cfg.Type)
	}
}

func (b destinationBuilder) consoleExporter(cfg config.DestinationConfig) (sdktrace.SpanExporter, error) {
	opts := []stdouttrace.Option{stdouttrace.WithWriter(b.stdout)}
	if cfg.Pretty == nil || *cfg.Pretty {
		opts = append(opts, stdouttrace.WithPrettyPrint())
	}
	return stdouttrace.New(opts...)
}

// otlpGRPCExporter creates an OTLP gRPC exporter. The connection is made
// lazily on first export. Retries are disabled: a failed export is
// reported once and the span is dropped.
func (b destinationBuilder) otlpGRPCExporter(ctx context.Context, cfg config.DestinationConfig, headers map[string]string) (sdktrace.SpanExporter, error) {
	opts := []otlptracegrpc.Option{
		otlptracegrpc.WithEndpoint(cfg.Endpoint),
		otlptracegrpc.WithHeaders(headers),
		otlptracegrpc.WithRetry(otlptracegrpc.RetryConfig{Enabled: false}),
	}
	if cfg.Timeout > 0 {
		opts = append(opts, otlptracegrpc.WithTimeout(cfg.Timeout))
	}

	if cfg.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	} else {
		tlsCfg, err := b.tlsConfig(cfg)
		if err != nil {
			return nil, err
		}
		opts = append(opts, otlptracegrpc.WithTLSCredentials(credentials.NewTLS(tlsCfg)))
	}

	exporter, err := otlptrace.New(ctx, otlptracegrpc.NewClient(opts...))
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP gRPC exporter: %w", err)
	}
	return exporter, nil
}

func (b destinationBuilder) otlpHTTPExporter(ctx context.Context, cfg config.DestinationConfig, headers map[string]string) (sdktrace.SpanExporter, error) {
	opts := []otlptracehttp.Option{
		otlptracehttp.WithEndpoint(cfg.Endpoint),
		otlptracehttp.WithHeaders(headers),
		otlptracehttp.WithRetry(otlptracehttp.RetryConfig{Enabled: false}),
	}
	if cfg.URLPath != "" {
		opts = append(opts, otlptracehttp.WithURLPath(cfg.URLPath))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, otlptracehttp.WithTimeout(cfg.Timeout))
	}

	if cfg.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	} else {
		tlsCfg, err := b.tlsConfig(cfg)
		if err != nil {
			return nil, err
		}
		opts = append(opts, otlptracehttp.WithTLSClientConfig(tlsCfg))
	}

	exporter, err := otlptrace.New(ctx, otlptracehttp.NewClient(opts...))
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP HTTP exporter: %w", err)
	}
	return exporter, nil
}

func (b destinationBuilder) tlsConfig(cfg config.DestinationConfig) (*tls.Config, error) {
	tlsCfg, warnings, err := tlsconfig.ClientConfig{CAFile: cfg.CAFile}.ToTLSConfig()
	if err != nil {
		return nil, err
	}
	for _, w := range warnings {
		b.logger.Warn("collector CA certificate expiring", zap.String("destination", cfg.Name), zap.String("warning", w))
	}
	return tlsCfg, nil
}

// headers merges configured headers, with ${secret:name} references
// resolved, and the credentials required by the auth mode.
func (b destinationBuilder) headers(ctx context.Context, cfg config.DestinationConfig) (map[string]string, error) {
	headers := make(map[string]string, len(cfg.Headers)+2)
	for k, v := range cfg.Headers {
		resolved, err := b.resolveReferences(ctx, v)
		if err != nil {
			return nil, fmt.Errorf("header %s: %w", k, err)
		}
		headers[k] = resolved
	}

	if cfg.Auth != config.AuthHoneycomb {
		return headers, nil
	}

	writeKey, err := b.secret(ctx, cfg.WriteKeySecret)
	if err != nil {
		return nil, fmt.Errorf("%w: write key %s: %v", ErrMissingCredentials, cfg.WriteKeySecret, err)
	}
	dataset, err := b.secret(ctx, cfg.DatasetSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: dataset %s: %v", ErrMissingCredentials, cfg.DatasetSecret, err)
	}

	headers[HoneycombTeamHeader] = writeKey
	headers[HoneycombDatasetHeader] = dataset
	return headers, nil
}

func (b destinationBuilder) secret(ctx context.Context, name string) (string, error) {
	if b.secrets == nil {
		return "", fmt.Errorf("no secret provider configured")
	}
	return b.secrets.GetSecret(ctx, name)
}

type referenceResolver interface {
	ResolveReferences(ctx context.Context, input string) (string, error)
}

func (b destinationBuilder) resolveReferences(ctx context.Context, value string) (string, error) {
	if r, ok := b.secrets.(referenceResolver); ok {
		return r.ResolveReferences(ctx, value)
	}
	return value, nil
}
