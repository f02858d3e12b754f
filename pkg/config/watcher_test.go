package config

import (
	"context"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestWatcher_ReloadsOnChange(t *testing.T) {
	path := writeConfig(t, "telemetry:\n  logging:\n    level: info\n")

	w, err := NewWatcher(path, zaptest.NewLogger(t))
	require.NoError(t, err)
	w.SetDebounceInterval(20 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var level atomic.Value
	done := make(chan error, 1)
	go func() {
		done <- w.Watch(ctx, func(cfg *Config) {
			level.Store(cfg.Telemetry.Logging.Level)
		})
	}()

	// The watch is registered asynchronously, so keep rewriting until an
	// event is observed.
	require.Eventually(t, func() bool {
		_ = os.WriteFile(path, []byte("telemetry:\n  logging:\n    level: debug\n"), 0644)
		v, _ := level.Load().(string)
		return v == "debug"
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop after cancel")
	}
}

func TestWatcher_InvalidReloadKeepsPrevious(t *testing.T) {
	path := writeConfig(t, "telemetry:\n  logging:\n    level: info\n")

	w, err := NewWatcher(path, zaptest.NewLogger(t))
	require.NoError(t, err)
	w.SetDebounceInterval(10 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	go func() {
		_ = w.Watch(ctx, func(*Config) { calls.Add(1) })
	}()

	for i := 0; i < 10; i++ {
		require.NoError(t, os.WriteFile(path, []byte("telemetry:\n  logging:\n    level: loud\n"), 0644))
		time.Sleep(30 * time.Millisecond)
	}

	assert.Equal(t, int32(0), calls.Load())
}

func TestNewWatcher_EmptyPath(t *testing.T) {
	_, err := NewWatcher("", nil)
	assert.Error(t, err)
}
