package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"lantern-hq/lantern/pkg/config"
	"lantern-hq/lantern/pkg/telemetry/health"
	"lantern-hq/lantern/pkg/telemetry/metrics"
	"lantern-hq/lantern/pkg/telemetry/tracing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const sampledTraceParent = "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01"

type failingExporter struct{}

func (failingExporter) ExportSpans(context.Context, []sdktrace.ReadOnlySpan) error {
	return errors.New("collector unreachable")
}

func (failingExporter) Shutdown(context.Context) error { return nil }

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Server.ListenAddress = "127.0.0.1:0"
	cfg.Telemetry.Tracing.Sampler = tracing.SamplerAlways
	cfg.Telemetry.Tracing.Destinations = nil
	return cfg
}

type fixture struct {
	server  *Server
	memory  *tracetest.InMemoryExporter
	logs    *observer.ObservedLogs
	tracer  *tracing.Tracer
	metrics *metrics.Collector
	checker *health.Checker
	handler http.Handler
	config  *config.Config
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core)
	cfg := testConfig()
	memory := tracetest.NewInMemoryExporter()
	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)

	tracer, err := tracing.New(&cfg.Telemetry.Tracing,
		tracing.WithLogger(logger),
		tracing.WithObserver(collector),
		tracing.WithDestinations(
			tracing.Destination{Name: "failing", Exporter: failingExporter{}},
			tracing.Destination{Name: "memory", Exporter: memory},
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = tracer.Shutdown(context.Background()) })

	checker := health.New(time.Second, logger)
	checker.RegisterCheck(health.TracingCheckName, tracer.Ready)

	srv := New(cfg, tracer,
		WithLogger(logger),
		WithMetrics(collector),
		WithHealth(checker, health.VersionInfo{Version: "test"}),
	)

	return &fixture{
		server:   srv,
		memory:   memory,
		logs:     logs,
		tracer:   tracer,
		metrics:  collector,
		checker:  checker,
		handler:  srv.Handler(),
		config:   cfg,
	}
}

func (f *fixture) do(t *testing.T, method, target string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func TestServerRequest_EndToEnd(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/server_request?param=x", http.Header{
		"Traceparent": {sampledTraceParent},
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "served", rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", rec.Header().Get(tracing.TraceIDHeader))

	spans := f.memory.GetSpans()
	require.Len(t, spans, 1)
	span := spans[0]
	assert.Equal(t, ServerRequestRoute, span.Name)
	assert.Equal(t, trace.SpanKindServer, span.SpanKind)
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", span.SpanContext.TraceID().String())

	var target, requestID string
	for _, kv := range span.Attributes {
		switch string(kv.Key) {
		case tracing.AttrHTTPTarget:
			target = kv.Value.AsString()
		case tracing.AttrRequestID:
			requestID = kv.Value.AsString()
		}
	}
	assert.Contains(t, target, "/server_request")
	assert.Equal(t, rec.Header().Get("X-Request-ID"), requestID)

	failures := f.logs.FilterMessage("span export failed").All()
	require.Len(t, failures, 1)
	assert.Equal(t, "failing", failures[0].ContextMap()["destination"])
	assert.Contains(t, failures[0].ContextMap()["error"], "collector unreachable")

	handled := f.logs.FilterMessage("handling server_request").All()
	require.Len(t, handled, 1)
	assert.Equal(t, "x", handled[0].ContextMap()["param"])
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", handled[0].ContextMap()["trace_id"])
}

func TestServerRequest_MalformedTraceParent(t *testing.T) {
	f := newFixture(t)

	for _, header := range []string{"garbage", "00-short-bad"} {
		rec := f.do(t, http.MethodGet, "/server_request?param=y", http.Header{"Traceparent": {header}})
		assert.Equal(t, "served", rec.Body.String(), header)
	}

	spans := f.memory.GetSpans()
	require.Len(t, spans, 2)
	assert.NotEqual(t, spans[0].SpanContext.TraceID(), spans[1].SpanContext.TraceID())
	for _, s := range spans {
		assert.False(t, s.Parent.IsValid())
	}
}

func TestServerRequest_RedactsParam(t *testing.T) {
	f := newFixture(t)

	f.do(t, http.MethodGet, "/server_request?param=token%3Dabc123", nil)

	handled := f.logs.FilterMessage("handling server_request").All()
	require.Len(t, handled, 1)
	assert.Equal(t, "token=***", handled[0].ContextMap()["param"])
}

func TestServerRequest_MethodNotAllowed(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/server_request", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Len(t, f.memory.GetSpans(), 1)
}

func TestServer_HealthAndMetrics(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/health", nil).Code)
	assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/ready", nil).Code)
	assert.Contains(t, f.do(t, http.MethodGet, "/version", nil).Body.String(), `"version":"test"`)

	f.do(t, http.MethodGet, "/server_request?param=x", http.Header{"Traceparent": {sampledTraceParent}})
	body := f.do(t, http.MethodGet, "/metrics", nil).Body.String()
	assert.Contains(t, body, `lantern_requests_total{route="server_request",status="200"} 1`)
	assert.Contains(t, body, `lantern_spans_exported_total{destination="failing",outcome="error"} 1`)
	assert.Contains(t, body, `lantern_spans_exported_total{destination="memory",outcome="success"} 1`)

	require.NoError(t, f.tracer.Shutdown(context.Background()))
	assert.Equal(t, http.StatusServiceUnavailable, f.do(t, http.MethodGet, "/ready", nil).Code)
}

func TestServer_StartShutdown(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.server.Start(ctx))
	assert.True(t, f.server.IsRunning())
	assert.Error(t, f.server.Start(ctx))

	addr := f.server.Addr().String()
	resp, err := http.Get("http://" + addr + "/server_request?param=live")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, "served", strings.TrimSpace(string(body)))

	require.NoError(t, f.server.Shutdown(ctx))
	assert.False(t, f.server.IsRunning())
	assert.NoError(t, f.server.Shutdown(ctx))
}

func TestServer_StartBindError(t *testing.T) {
	f := newFixture(t)
	f.config.Server.ListenAddress = "256.0.0.1:99999"

	assert.Error(t, f.server.Start(context.Background()))
	assert.False(t, f.server.IsRunning())
}
