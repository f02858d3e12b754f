package tracing

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
)

// Destination is one export target of the pipeline.
type Destination struct {
	// Name identifies the destination in logs and metrics.
	Name string

	Exporter sdktrace.SpanExporter

	// Timeout bounds a single export call. Zero means no bound.
	Timeout time.Duration
}

// ExportPipeline is a span processor that hands every finished, sampled
// span to each destination in order, synchronously, on the goroutine
// that ended the span.
//
// A failing destination is logged and counted and never affects the
// destinations after it or the caller. Failed exports are not retried.
type ExportPipeline struct {
	destinations []*sink
	logger       *zap.Logger
	observer     Observer

	stopped      atomic.Bool
	shutdownOnce sync.Once
	shutdownErr  error
}

var _ sdktrace.SpanProcessor = (*ExportPipeline)(nil)

// sink serializes calls into one exporter. SpanExporter implementations
// are not required to be safe for concurrent use, so at most one export
// or shutdown runs per destination at a time. Each destination has its own
// slot, so a slow collector never holds up the others.
type sink struct {
	Destination
	busy chan struct{}
}

// acquire takes the slot or gives up when ctx is done.
func (s *sink) acquire(ctx context.Context) error {
	select {
	case s.busy <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *sink) release() {
	<-s.busy
}

// NewExportPipeline creates a pipeline over destinations. The slice is
// copied; order is preserved.
func NewExportPipeline(destinations []Destination, logger *zap.Logger, observer Observer) *ExportPipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	if observer == nil {
		observer = nopObserver{}
	}
	sinks := make([]*sink, len(destinations))
	for i, d := range destinations {
		sinks[i] = &sink{Destination: d, busy: make(chan struct{}, 1)}
	}
	return &ExportPipeline{
		destinations: sinks,
		logger:       logger,
		observer:     observer,
	}
}

// Destinations returns the destination names in export order.
func (p *ExportPipeline) Destinations() []string {
	names := make([]string, len(p.destinations))
	for i, d := range p.destinations {
		names[i] = d.Name
	}
	return names
}

// OnStart does nothing; spans are only handled when they end.
func (p *ExportPipeline) OnStart(context.Context, sdktrace.ReadWriteSpan) {}

// OnEnd exports s to every destination unless s is unsampled or the
// pipeline has been shut down.
func (p *ExportPipeline) OnEnd(s sdktrace.ReadOnlySpan) {
	if p.stopped.Load() {
		p.observer.ObserveDropped(DropReasonShutdown)
		return
	}
	if !s.SpanContext().IsSampled() {
		p.observer.ObserveDropped(DropReasonUnsampled)
		return
	}

	batch := []sdktrace.ReadOnlySpan{s}
	for _, d := range p.destinations {
		p.export(d, batch)
	}
}

func (p *ExportPipeline) export(d *sink, batch []sdktrace.ReadOnlySpan) {
	start := time.Now()
	err := exportWithTimeout(d, batch)
	p.observer.ObserveExport(d.Name, time.Since(start), err)

	if err == nil {
		return
	}

	span := batch[0]
	p.logger.Error("span export failed",
		zap.String("destination", d.Name),
		zap.String("span", span.Name()),
		zap.String("trace_id", span.SpanContext().TraceID().String()),
		zap.Error(&ExportError{Destination: d.Name, Err: err}),
	)
}

// exportWithTimeout runs one export while holding d's slot. When the
// timeout fires first, the abandoned call keeps the slot until it returns,
// so the exporter is never entered twice at once.
func exportWithTimeout(d *sink, batch []sdktrace.ReadOnlySpan) error {
	if d.Timeout <= 0 {
		_ = d.acquire(context.Background())
		defer d.release()
		return safeExport(context.Background(), d.Exporter, batch)
	}

	ctx, cancel := context.WithTimeout(context.Background(), d.Timeout)
	defer cancel()

	if err := d.acquire(ctx); err != nil {
		return fmt.Errorf("export timed out after %s waiting for the previous export: %w", d.Timeout, err)
	}

	done := make(chan error, 1)
	go func() {
		defer d.release()
		done <- safeExport(ctx, d.Exporter, batch)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("export timed out after %s: %w", d.Timeout, ctx.Err())
	}
}

// safeExport turns an exporter panic into an error.
func safeExport(ctx context.Context, exp sdktrace.SpanExporter, batch []sdktrace.ReadOnlySpan) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("exporter panicked: %v", r)
		}
	}()
	return exp.ExportSpans(ctx, batch)
}

// ForceFlush returns immediately: spans are exported as they end.
func (p *ExportPipeline) ForceFlush(context.Context) error {
	return nil
}

// Shutdown stops the pipeline and shuts down every exporter once its
// in-flight export has returned. Later calls return the first call's
// result. Spans ending after Shutdown are dropped.
func (p *ExportPipeline) Shutdown(ctx context.Context) error {
	p.shutdownOnce.Do(func() {
		p.stopped.Store(true)

		var errs []error
		for _, d := range p.destinations {
			if err := d.acquire(ctx); err != nil {
				errs = append(errs, fmt.Errorf("%s: waiting for in-flight export: %w", d.Name, err))
				continue
			}
			err := d.Exporter.Shutdown(ctx)
			d.release()
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", d.Name, err))
			}
		}
		p.shutdownErr = errors.Join(errs...)
	})
	return p.shutdownErr
}
