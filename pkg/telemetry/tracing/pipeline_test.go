package tracing

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// stubExporter records calls and fails, panics or blocks on demand.
type stubExporter struct {
	mu        sync.Mutex
	name      string
	calls     *[]string
	err       error
	panicWith any
	block     time.Duration
	shutdown  int
	shutErr   error
}

func (e *stubExporter) ExportSpans(ctx context.Context, spans []sdktrace.ReadOnlySpan) error {
	e.mu.Lock()
	if e.calls != nil {
		*e.calls = append(*e.calls, e.name)
	}
	e.mu.Unlock()

	if e.panicWith != nil {
		panic(e.panicWith)
	}
	if e.block > 0 {
		select {
		case <-time.After(e.block):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return e.err
}

func (e *stubExporter) Shutdown(context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.shutdown++
	return e.shutErr
}

func newPipelineTracer(t *testing.T, p *ExportPipeline) *sdktrace.TracerProvider {
	t.Helper()
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(p),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	return tp
}

func endOneSpan(tp *sdktrace.TracerProvider, name string) {
	_, span := tp.Tracer("test").Start(context.Background(), name)
	span.End()
}

func TestExportPipeline_InsertionOrder(t *testing.T) {
	var calls []string
	p := NewExportPipeline([]Destination{
		{Name: "first", Exporter: &stubExporter{name: "first", calls: &calls}},
		{Name: "second", Exporter: &stubExporter{name: "second", calls: &calls}},
		{Name: "third", Exporter: &stubExporter{name: "third", calls: &calls}},
	}, nil, nil)

	endOneSpan(newPipelineTracer(t, p), "op")

	assert.Equal(t, []string{"first", "second", "third"}, calls)
	assert.Equal(t, []string{"first", "second", "third"}, p.Destinations())
}

func TestExportPipeline_FailureIsolation(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	obs := newRecordingObserver()
	good := tracetest.NewInMemoryExporter()

	p := NewExportPipeline([]Destination{
		{Name: "failing", Exporter: &stubExporter{err: errors.New("connection refused")}},
		{Name: "panicking", Exporter: &stubExporter{panicWith: "exporter bug"}},
		{Name: "memory", Exporter: good},
	}, zap.New(core), obs)

	tp := newPipelineTracer(t, p)
	assert.NotPanics(t, func() { endOneSpan(tp, "server_request") })

	spans := good.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "server_request", spans[0].Name)

	entries := logs.FilterMessage("span export failed").All()
	require.Len(t, entries, 2)
	assert.Equal(t, "failing", entries[0].ContextMap()["destination"])
	assert.Contains(t, entries[0].ContextMap()["error"], "connection refused")
	assert.Equal(t, "panicking", entries[1].ContextMap()["destination"])
	assert.Contains(t, entries[1].ContextMap()["error"], "exporter panicked")

	require.Len(t, obs.exports["failing"], 1)
	assert.Error(t, obs.exports["failing"][0])
	require.Len(t, obs.exports["memory"], 1)
	assert.NoError(t, obs.exports["memory"][0])
}

func TestExportPipeline_Timeout(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	good := tracetest.NewInMemoryExporter()

	p := NewExportPipeline([]Destination{
		{Name: "slow", Exporter: &stubExporter{block: 5 * time.Second}, Timeout: 20 * time.Millisecond},
		{Name: "memory", Exporter: good},
	}, zap.New(core), nil)

	start := time.Now()
	endOneSpan(newPipelineTracer(t, p), "op")

	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Len(t, good.GetSpans(), 1)
	require.Equal(t, 1, logs.FilterMessage("span export failed").Len())
	assert.Contains(t, logs.All()[0].ContextMap()["error"], "timed out")
}

func TestExportPipeline_SkipsUnsampled(t *testing.T) {
	obs := newRecordingObserver()
	exp := tracetest.NewInMemoryExporter()
	p := NewExportPipeline([]Destination{{Name: "memory", Exporter: exp}}, nil, obs)

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(p),
		sdktrace.WithSampler(NewDeterministicSampler(1<<30)),
	)

	var recorded int
	for i := 0; i < 20; i++ {
		_, span := tp.Tracer("test").Start(context.Background(), "op")
		if span.SpanContext().IsSampled() {
			recorded++
		}
		span.End()
	}

	assert.Len(t, exp.GetSpans(), recorded)
	assert.Len(t, obs.dropped, 20-recorded)
	for _, reason := range obs.dropped {
		assert.Equal(t, DropReasonUnsampled, reason)
	}
}

func TestExportPipeline_Shutdown(t *testing.T) {
	first := &stubExporter{shutErr: errors.New("flush failed")}
	second := &stubExporter{}
	obs := newRecordingObserver()

	p := NewExportPipeline([]Destination{
		{Name: "first", Exporter: first},
		{Name: "second", Exporter: second},
	}, nil, obs)

	err := p.Shutdown(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "first: flush failed")

	assert.Equal(t, err, p.Shutdown(context.Background()))
	assert.Equal(t, 1, first.shutdown)
	assert.Equal(t, 1, second.shutdown, "a failing exporter must not stop the others from shutting down")

	assert.NoError(t, p.ForceFlush(context.Background()))

	var calls []string
	first.calls = &calls
	endOneSpan(newPipelineTracer(t, p), "late")
	assert.Empty(t, calls)
	assert.Equal(t, []string{DropReasonShutdown}, obs.dropped)
}

// unguardedExporter has no locking of its own and records overlapping
// calls, like an exporter written to the SpanExporter contract.
type unguardedExporter struct {
	spans       int
	active      atomic.Int32
	overlapped  atomic.Bool
	hold        time.Duration
	exporting   atomic.Bool
	shutdownMid atomic.Bool
}

func (e *unguardedExporter) ExportSpans(_ context.Context, spans []sdktrace.ReadOnlySpan) error {
	if e.active.Add(1) > 1 {
		e.overlapped.Store(true)
	}
	defer e.active.Add(-1)
	e.exporting.Store(true)
	defer e.exporting.Store(false)

	if e.hold > 0 {
		time.Sleep(e.hold)
	}
	e.spans += len(spans)
	return nil
}

func (e *unguardedExporter) Shutdown(context.Context) error {
	if e.exporting.Load() {
		e.shutdownMid.Store(true)
	}
	return nil
}

func TestExportPipeline_ConcurrentSpans(t *testing.T) {
	exp := &unguardedExporter{}
	memory := tracetest.NewInMemoryExporter()
	p := NewExportPipeline([]Destination{
		{Name: "unguarded", Exporter: exp},
		{Name: "memory", Exporter: memory, Timeout: time.Second},
	}, nil, nil)
	tp := newPipelineTracer(t, p)

	const workers = 200
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			endOneSpan(tp, "op")
		}()
	}
	wg.Wait()

	assert.False(t, exp.overlapped.Load(), "exporter entered concurrently")
	assert.Equal(t, workers, exp.spans)
	assert.Len(t, memory.GetSpans(), workers)
}

func TestExportPipeline_TimedOutExportKeepsDestinationBusy(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	exp := &unguardedExporter{hold: 200 * time.Millisecond}
	p := NewExportPipeline([]Destination{
		{Name: "slow", Exporter: exp, Timeout: 20 * time.Millisecond},
	}, zap.New(core), nil)
	tp := newPipelineTracer(t, p)

	endOneSpan(tp, "first")
	endOneSpan(tp, "second")

	entries := logs.FilterMessage("span export failed").All()
	require.Len(t, entries, 2)
	assert.Contains(t, entries[1].ContextMap()["error"], "waiting for the previous export")

	require.NoError(t, p.Shutdown(context.Background()))
	assert.False(t, exp.shutdownMid.Load(), "shutdown ran during an export")
	assert.False(t, exp.overlapped.Load())
	assert.Equal(t, 1, exp.spans)
}

func TestExportPipeline_ShutdownWaitsForExportBounded(t *testing.T) {
	exp := &unguardedExporter{hold: 300 * time.Millisecond}
	p := NewExportPipeline([]Destination{
		{Name: "slow", Exporter: exp, Timeout: 10 * time.Millisecond},
	}, nil, nil)
	endOneSpan(newPipelineTracer(t, p), "op")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := p.Shutdown(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "slow: waiting for in-flight export")
	assert.False(t, exp.shutdownMid.Load())
}

func TestExportError(t *testing.T) {
	inner := errors.New("unavailable")
	err := &ExportError{Destination: "honeycomb", Err: inner}

	assert.Equal(t, "export to honeycomb failed: unavailable", err.Error())
	assert.ErrorIs(t, err, inner)
}
