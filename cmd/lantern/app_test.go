package main

import (
	"context"
	"io"
	"net/http"
	"os"
	"testing"
	"time"

	"lantern-hq/lantern/pkg/cli"
	"lantern-hq/lantern/pkg/config"
	"lantern-hq/lantern/pkg/server"
	"lantern-hq/lantern/pkg/telemetry/logging"
	"lantern-hq/lantern/pkg/telemetry/tracing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
)

func testAppConfig() *config.Config {
	cfg := config.Default()
	cfg.Server.ListenAddress = "127.0.0.1:0"
	cfg.Telemetry.Logging.Level = "error"
	cfg.Telemetry.Tracing.Sampler = tracing.SamplerAlways
	cfg.Telemetry.Tracing.Destinations = nil
	return cfg
}

func TestApp_ServesTracedRequests(t *testing.T) {
	var (
		srv    *server.Server
		tracer *tracing.Tracer
	)
	app := fxtest.New(t, append(appOptions(testAppConfig()), fx.Populate(&srv, &tracer))...)
	app.RequireStart()
	defer app.RequireStop()

	req, err := http.NewRequest(http.MethodGet, "http://"+srv.Addr().String()+"/server_request?param=x", nil)
	require.NoError(t, err)
	req.Header.Set(tracing.TraceParentHeader, exampleTraceParent)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "served", string(body))
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", resp.Header.Get(tracing.TraceIDHeader))

	ready, err := http.Get("http://" + srv.Addr().String() + "/ready")
	require.NoError(t, err)
	ready.Body.Close()
	assert.Equal(t, http.StatusOK, ready.StatusCode)

	assert.NoError(t, tracer.Ready(context.Background()))
}

func TestApp_StopShutsDownTracer(t *testing.T) {
	var tracer *tracing.Tracer
	app := fxtest.New(t, append(appOptions(testAppConfig()), fx.Populate(&tracer))...)
	app.RequireStart()
	app.RequireStop()

	assert.ErrorIs(t, tracer.Ready(context.Background()), tracing.ErrTracerShutdown)
}

func TestApp_MissingCredentialsIsConfigError(t *testing.T) {
	t.Setenv("HONEYCOMB_WRITE_KEY", "")
	t.Setenv("HONEYCOMB_DATASET", "")

	cfg := config.Default()
	cfg.Server.ListenAddress = "127.0.0.1:0"

	app := fx.New(appOptions(cfg)...)
	err := app.Err()
	require.Error(t, err)
	assert.ErrorIs(t, err, tracing.ErrMissingCredentials)
	assert.Equal(t, cli.ExitConfigError, cli.ExitCode(cli.NewCommandError("run", err)))
}

func TestApp_WatchConfigAppliesLogLevel(t *testing.T) {
	path := writeConfig(t, "telemetry:\n  logging:\n    level: error\n")

	cfg := testAppConfig()
	var l *logging.Logger
	app := fxtest.New(t, append(appOptions(cfg), watchConfig(path), fx.Populate(&l))...)
	app.RequireStart()
	defer app.RequireStop()

	// Give the watcher time to register before the write.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("telemetry:\n  logging:\n    level: debug\n"), 0o600))

	assert.Eventually(t, func() bool {
		return l.Level() == "debug"
	}, 5*time.Second, 20*time.Millisecond)
}
