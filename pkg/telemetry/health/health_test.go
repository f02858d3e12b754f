package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"lantern-hq/lantern/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// TestNew tests the creation of a new health checker.
func TestNew(t *testing.T) {
	tests := []struct {
		name            string
		timeout         time.Duration
		expectedTimeout time.Duration
	}{
		{
			name:            "default timeout",
			timeout:         0,
			expectedTimeout: 5 * time.Second,
		},
		{
			name:            "custom timeout",
			timeout:         10 * time.Second,
			expectedTimeout: 10 * time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := New(tt.timeout, nil)

			require.NotNil(t, checker)
			assert.Equal(t, tt.expectedTimeout, checker.checkTimeout)
			assert.Empty(t, checker.ListChecks())
		})
	}
}

func TestRegisterAndUnregister(t *testing.T) {
	checker := New(time.Second, nil)

	checker.RegisterCheck("tracing", func(context.Context) error { return nil })
	checker.RegisterCheck("config", func(context.Context) error { return nil })

	assert.Equal(t, []string{"config", "tracing"}, checker.ListChecks())
	assert.NotNil(t, checker.GetCheck("tracing"))

	checker.UnregisterCheck("tracing")
	assert.Nil(t, checker.GetCheck("tracing"))
	assert.Equal(t, []string{"config"}, checker.ListChecks())
}

func TestCheckReadiness(t *testing.T) {
	tests := []struct {
		name       string
		checks     map[string]CheckFunc
		wantStatus string
		wantFailed []string
	}{
		{
			name:       "no checks",
			wantStatus: StatusReady,
		},
		{
			name: "all healthy",
			checks: map[string]CheckFunc{
				"tracing": func(context.Context) error { return nil },
				"config":  func(context.Context) error { return nil },
			},
			wantStatus: StatusReady,
		},
		{
			name: "one failing",
			checks: map[string]CheckFunc{
				"tracing": func(context.Context) error { return errors.New("tracer is shut down") },
				"config":  func(context.Context) error { return nil },
			},
			wantStatus: StatusDegraded,
			wantFailed: []string{"tracing"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := New(time.Second, nil)
			for name, check := range tt.checks {
				checker.RegisterCheck(name, check)
			}

			status := checker.CheckReadiness(context.Background())
			assert.Equal(t, tt.wantStatus, status.Status)
			assert.Len(t, status.Checks, len(tt.checks))

			var failed []string
			for name, result := range status.Checks {
				if result.Status == StatusUnhealthy {
					failed = append(failed, name)
				}
			}
			assert.ElementsMatch(t, tt.wantFailed, failed)
		})
	}
}

func TestCheckReadiness_Timeout(t *testing.T) {
	checker := New(20*time.Millisecond, nil)
	checker.RegisterCheck("slow", func(ctx context.Context) error {
		<-ctx.Done()
		time.Sleep(50 * time.Millisecond)
		return nil
	})

	start := time.Now()
	status := checker.CheckReadiness(context.Background())

	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, StatusDegraded, status.Status)
	assert.Equal(t, ErrCheckTimeout.Error(), status.Checks["slow"].Message)
}

func TestCheckReadiness_LogsFailures(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	checker := New(time.Second, zap.New(core))
	checker.RegisterCheck("tracing", func(context.Context) error { return errors.New("tracer is shut down") })

	checker.CheckReadiness(context.Background())

	entries := logs.FilterMessage("readiness check failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "tracing", entries[0].ContextMap()["check"])
}

func TestLivenessHandler(t *testing.T) {
	checker := New(time.Second, nil)
	checker.RegisterCheck("broken", func(context.Context) error { return errors.New("down") })

	rec := httptest.NewRecorder()
	checker.LivenessHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var status HealthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, StatusOK, status.Status)
	assert.Empty(t, status.Checks)
}

func TestReadinessHandler(t *testing.T) {
	healthy := true
	checker := New(time.Second, nil)
	checker.RegisterCheck("tracing", func(context.Context) error {
		if healthy {
			return nil
		}
		return errors.New("tracer is shut down")
	})

	rec := httptest.NewRecorder()
	checker.ReadinessHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	healthy = false
	rec = httptest.NewRecorder()
	checker.ReadinessHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var status HealthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, StatusDegraded, status.Status)
	assert.Equal(t, "tracer is shut down", status.Checks["tracing"].Message)
}

func TestHandlers_MethodNotAllowed(t *testing.T) {
	checker := New(time.Second, nil)
	handlers := []http.HandlerFunc{
		checker.LivenessHandler(),
		checker.ReadinessHandler(),
		VersionHandler(VersionInfo{Version: "1.0.0"}),
	}

	for _, h := range handlers {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
		assert.Equal(t, "GET, HEAD", rec.Header().Get("Allow"))
	}
}

func TestHandlers_Head(t *testing.T) {
	rec := httptest.NewRecorder()
	New(time.Second, nil).LivenessHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodHead, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestVersionHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	VersionHandler(VersionInfo{Version: "1.2.3", Commit: "abc123"}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/version", nil))

	var info VersionInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.Equal(t, "1.2.3", info.Version)
	assert.Equal(t, "abc123", info.Commit)
	assert.NotEmpty(t, info.GoVersion)
}

func TestRegister(t *testing.T) {
	mux := http.NewServeMux()
	checker := New(time.Second, nil)
	Register(mux, checker, config.HealthConfig{LivenessPath: "/livez"}, VersionInfo{Version: "dev"})

	for path, want := range map[string]int{
		"/livez":   http.StatusOK,
		"/ready":   http.StatusOK,
		"/version": http.StatusOK,
		"/health":  http.StatusNotFound,
	} {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, want, rec.Code, path)
	}
}

func BenchmarkCheckReadiness(b *testing.B) {
	checker := New(time.Second, nil)
	for _, name := range []string{"tracing", "config", "secrets"} {
		checker.RegisterCheck(name, func(context.Context) error { return nil })
	}

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		checker.CheckReadiness(context.Background())
	}
}
