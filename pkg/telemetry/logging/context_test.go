package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func spanContext(t *testing.T, sampled bool) trace.SpanContext {
	t.Helper()
	traceID, err := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	require.NoError(t, err)
	spanID, err := trace.SpanIDFromHex("00f067aa0ba902b7")
	require.NoError(t, err)

	var flags trace.TraceFlags
	if sampled {
		flags = trace.FlagsSampled
	}
	return trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID, TraceFlags: flags})
}

func TestRequestID(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetRequestID(ctx))

	ctx = WithRequestID(ctx, "req-123")
	assert.Equal(t, "req-123", GetRequestID(ctx))
}

func TestContextFields(t *testing.T) {
	tests := []struct {
		name string
		ctx  func() context.Context
		want map[string]any
	}{
		{
			name: "empty context",
			ctx:  context.Background,
			want: map[string]any{},
		},
		{
			name: "request id only",
			ctx:  func() context.Context { return WithRequestID(context.Background(), "req-1") },
			want: map[string]any{"request_id": "req-1"},
		},
		{
			name: "sampled span",
			ctx: func() context.Context {
				return trace.ContextWithSpanContext(context.Background(), spanContext(t, true))
			},
			want: map[string]any{
				"trace_id": "4bf92f3577b34da6a3ce929d0e0e4736",
				"span_id":  "00f067aa0ba902b7",
			},
		},
		{
			name: "unsampled span is not correlated",
			ctx: func() context.Context {
				ctx := trace.ContextWithSpanContext(context.Background(), spanContext(t, false))
				return WithRequestID(ctx, "req-2")
			},
			want: map[string]any{"request_id": "req-2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.InfoLevel)
			FromContext(tt.ctx(), zap.New(core)).Info("entry")

			require.Equal(t, 1, logs.Len())
			assert.Equal(t, tt.want, logs.All()[0].ContextMap())
		})
	}
}

func TestContextFields_NilContext(t *testing.T) {
	//nolint:staticcheck // nil context is tolerated
	assert.Empty(t, ContextFields(nil))
}
