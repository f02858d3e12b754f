package tracing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"

	"lantern-hq/lantern/pkg/config"
	"lantern-hq/lantern/pkg/security/secrets"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

const instrumentationName = "lantern-hq/lantern"

// ErrTracerShutdown is returned by Ready after Shutdown.
var ErrTracerShutdown = errors.New("tracer is shut down")

// Tracer owns a tracer provider whose only span processor is the export
// pipeline. It is not installed as the global provider.
type Tracer struct {
	config   *config.TracingConfig
	tracer   trace.Tracer
	provider *sdktrace.TracerProvider
	pipeline *ExportPipeline
	sampler  sdktrace.Sampler
	logger   *zap.Logger
	enabled  bool
	closed   atomic.Bool
}

// Option configures New.
type Option func(*options)

type options struct {
	logger       *zap.Logger
	observer     Observer
	secrets      secrets.SecretProvider
	destinations []Destination
	stdout       io.Writer
	version      string
	idGenerator  sdktrace.IDGenerator
}

// WithLogger sets the logger used for export failures.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithObserver reports export and sampling outcomes to o.
func WithObserver(o Observer) Option {
	return func(opts *options) { opts.observer = o }
}

// WithSecrets sets the provider used to resolve destination credentials.
func WithSecrets(p secrets.SecretProvider) Option {
	return func(o *options) { o.secrets = p }
}

// WithDestinations replaces the configured destinations.
func WithDestinations(destinations ...Destination) Option {
	return func(o *options) { o.destinations = destinations }
}

// WithStdout sets the writer used by console destinations.
func WithStdout(w io.Writer) Option {
	return func(o *options) { o.stdout = w }
}

// WithServiceVersion records the service version on the resource.
func WithServiceVersion(v string) Option {
	return func(o *options) { o.version = v }
}

// WithIDGenerator overrides trace and span id generation.
func WithIDGenerator(g sdktrace.IDGenerator) Option {
	return func(o *options) { o.idGenerator = g }
}

// New creates a Tracer from cfg.
//
// If tracing is disabled, a noop tracer is returned. Invalid sampler
// settings or unresolvable destination credentials fail with a
// *ConfigurationError.
//
// The tracer must be shut down when no longer needed:
//
//	defer tracer.Shutdown(context.Background())
func New(cfg *config.TracingConfig, opts ...Option) (*Tracer, error) {
	if cfg == nil {
		return nil, errors.New("tracing config is nil")
	}

	o := options{logger: zap.NewNop(), observer: nopObserver{}}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	if o.observer == nil {
		o.observer = nopObserver{}
	}

	t := &Tracer{
		config:  cfg,
		enabled: cfg.Enabled,
		logger:  o.logger.Named("tracing"),
	}

	if !cfg.Enabled {
		t.tracer = noop.NewTracerProvider().Tracer(instrumentationName)
		return t, nil
	}

	sampler, err := newSampler(SamplingConfig{
		Strategy: cfg.Sampler,
		Ratio:    cfg.SampleRatio,
		Rate:     cfg.SampleRate,
	}, o.observer)
	if err != nil {
		return nil, &ConfigurationError{Component: "sampler", Err: err}
	}
	t.sampler = sampler

	ctx := context.Background()
	destinations := o.destinations
	if destinations == nil {
		destinations, err = BuildDestinations(ctx, cfg.Destinations, o.secrets, o.stdout, t.logger)
		if err != nil {
			return nil, err
		}
	}
	t.pipeline = NewExportPipeline(destinations, t.logger, o.observer)

	attrs := []attribute.KeyValue{semconv.ServiceName(cfg.ServiceName)}
	if o.version != "" {
		attrs = append(attrs, semconv.ServiceVersion(o.version))
	}
	if cfg.Environment != "" {
		attrs = append(attrs, semconv.DeploymentEnvironment(cfg.Environment))
	}
	res, err := resource.New(ctx, resource.WithAttributes(attrs...))
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	providerOpts := []sdktrace.TracerProviderOption{
		sdktrace.WithSpanProcessor(t.pipeline),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler),
	}
	if o.idGenerator != nil {
		providerOpts = append(providerOpts, sdktrace.WithIDGenerator(o.idGenerator))
	}
	t.provider = sdktrace.NewTracerProvider(providerOpts...)
	t.tracer = t.provider.Tracer(instrumentationName)

	t.logger.Info("tracing initialized",
		zap.String("service", cfg.ServiceName),
		zap.String("sampler", sampler.Description()),
		zap.Strings("destinations", t.pipeline.Destinations()),
	)
	return t, nil
}

// Start creates a new span with the given name and options.
// The span is automatically linked to the parent span from the context.
//
// The returned span must be ended when the operation completes:
//
//	ctx, span := tracer.Start(ctx, "operation")
//	defer span.End()
func (t *Tracer) Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, name, opts...)
}

// StartSpan starts a span of the given kind. With a non-nil parent the
// span joins the upstream trace and inherits its sampled flag; with a nil
// parent it starts a new trace regardless of any span in ctx.
func (t *Tracer) StartSpan(ctx context.Context, name string, kind trace.SpanKind, parent *TraceIdentity, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	opts := []trace.SpanStartOption{
		trace.WithSpanKind(kind),
		trace.WithAttributes(attrs...),
	}
	if parent != nil {
		ctx = trace.ContextWithRemoteSpanContext(ctx, parent.SpanContext())
	} else {
		opts = append(opts, trace.WithNewRoot())
	}
	return t.tracer.Start(ctx, name, opts...)
}

// SpanOption configures WithSpan.
type SpanOption func(*spanConfig)

type spanConfig struct {
	kind    trace.SpanKind
	parent  *TraceIdentity
	newRoot bool
	attrs   []attribute.KeyValue
}

// WithKind sets the span kind. Default: internal.
func WithKind(kind trace.SpanKind) SpanOption {
	return func(c *spanConfig) { c.kind = kind }
}

// WithParent makes the span a child of an upstream trace.
func WithParent(parent TraceIdentity) SpanOption {
	return func(c *spanConfig) { c.parent = &parent }
}

// WithNewRoot ignores any span in ctx when no parent is given.
func WithNewRoot() SpanOption {
	return func(c *spanConfig) { c.newRoot = true }
}

// WithAttributes adds attributes at span start.
func WithAttributes(attrs ...attribute.KeyValue) SpanOption {
	return func(c *spanConfig) { c.attrs = append(c.attrs, attrs...) }
}

// WithSpan runs fn inside a new span and ends the span exactly once on
// every exit path, which exports it when sampled.
//
// A returned error marks the span failed. A panic in fn is recorded, the
// span is ended, and the panic continues. Otherwise the status is OK.
//
//	err := tracer.WithSpan(ctx, "load_user", func(ctx context.Context) error {
//	    return store.Load(ctx, id)
//	})
func (t *Tracer) WithSpan(ctx context.Context, name string, fn func(context.Context) error, opts ...SpanOption) (err error) {
	cfg := spanConfig{kind: trace.SpanKindInternal}
	for _, opt := range opts {
		opt(&cfg)
	}

	startOpts := []trace.SpanStartOption{
		trace.WithSpanKind(cfg.kind),
		trace.WithAttributes(cfg.attrs...),
	}
	if cfg.parent != nil {
		ctx = trace.ContextWithRemoteSpanContext(ctx, cfg.parent.SpanContext())
	} else if cfg.newRoot {
		startOpts = append(startOpts, trace.WithNewRoot())
	}

	ctx, span := t.tracer.Start(ctx, name, startOpts...)
	defer func() {
		if r := recover(); r != nil {
			perr := fmt.Errorf("panic: %v", r)
			SetErrorAttributes(span, perr, "panic")
			span.SetStatus(codes.Error, perr.Error())
			span.End()
			panic(r)
		}
		if err != nil {
			SetError(span, err)
		}
		SetStatus(span, err)
		span.End()
	}()

	return fn(ctx)
}

// CurrentSpan returns the span active in ctx, or a non-recording span.
func CurrentSpan(ctx context.Context) trace.Span {
	return trace.SpanFromContext(ctx)
}

// Shutdown shuts down the pipeline and its exporters. Spans that end
// afterwards are dropped. Calling Shutdown more than once is safe.
func (t *Tracer) Shutdown(ctx context.Context) error {
	if !t.enabled || t.provider == nil {
		return nil
	}
	if !t.closed.CompareAndSwap(false, true) {
		return nil
	}
	return t.provider.Shutdown(ctx)
}

// Ready reports whether spans can still be exported.
func (t *Tracer) Ready(context.Context) error {
	if t.closed.Load() {
		return ErrTracerShutdown
	}
	return nil
}

// Enabled returns whether tracing is enabled.
func (t *Tracer) Enabled() bool {
	return t.enabled
}

// Sampler returns the configured sampler, nil when tracing is disabled.
func (t *Tracer) Sampler() sdktrace.Sampler {
	return t.sampler
}

// Destinations returns the export destination names in order.
func (t *Tracer) Destinations() []string {
	if t.pipeline == nil {
		return nil
	}
	return t.pipeline.Destinations()
}

// SpanFromContext returns the current span from the context.
// If no span exists, a noop span is returned.
func SpanFromContext(ctx context.Context) trace.Span {
	return trace.SpanFromContext(ctx)
}

// ContextWithSpan returns a new context with the given span.
func ContextWithSpan(ctx context.Context, span trace.Span) context.Context {
	return trace.ContextWithSpan(ctx, span)
}

// SpanContext returns the span context from the given context.
// Returns an invalid span context if no span exists.
func SpanContext(ctx context.Context) trace.SpanContext {
	return trace.SpanFromContext(ctx).SpanContext()
}

// TraceID returns the trace ID from the context as a string.
// Returns empty string if no trace context exists.
func TraceID(ctx context.Context) string {
	sc := SpanContext(ctx)
	if !sc.IsValid() {
		return ""
	}
	return sc.TraceID().String()
}

// SpanID returns the span ID from the context as a string.
// Returns empty string if no span context exists.
func SpanID(ctx context.Context) string {
	sc := SpanContext(ctx)
	if !sc.IsValid() {
		return ""
	}
	return sc.SpanID().String()
}

// IsSampled returns whether the current trace is sampled.
func IsSampled(ctx context.Context) bool {
	return SpanContext(ctx).IsSampled()
}

// SetError marks the span as failed and records the error.
func SetError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.SetAttributes(
		attribute.Bool("error", true),
		attribute.String(AttrErrorMessage, err.Error()),
	)
	span.RecordError(err)
}

// SetStatus sets the span status based on an error.
// If err is nil, status is set to OK, otherwise to Error.
func SetStatus(span trace.Span, err error) {
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
}
