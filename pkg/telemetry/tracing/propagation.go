package tracing

import (
	"context"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// W3C Trace Context Propagation
//
// Only the traceparent header is read. Its format is:
//
//	version-trace_id-parent_id-trace_flags
//	00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01
//
//   - version: 2 lower-case hex digits, only 00 is understood
//   - trace_id: 32 lower-case hex digits, not all zero
//   - parent_id: 16 lower-case hex digits, not all zero
//   - trace_flags: 2 lower-case hex digits, bit 0 is "sampled"
//
// Anything else decodes to "absent" and the request starts a new trace.

const (
	// TraceParentHeader is the W3C trace context header name.
	TraceParentHeader = "traceparent"

	// TraceIDHeader is set on responses to expose the request's trace id.
	TraceIDHeader = "X-Trace-ID"

	supportedVersion = "00"
)

// TraceIdentity is the decoded upstream trace context.
type TraceIdentity struct {
	TraceID      trace.TraceID
	ParentSpanID trace.SpanID
	Flags        trace.TraceFlags
}

// Sampled reports whether the upstream service recorded this trace.
func (id TraceIdentity) Sampled() bool {
	return id.Flags.IsSampled()
}

// SpanContext returns a remote span context usable as a parent.
func (id TraceIdentity) SpanContext() trace.SpanContext {
	return trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    id.TraceID,
		SpanID:     id.ParentSpanID,
		TraceFlags: id.Flags,
		Remote:     true,
	})
}

// String formats the identity as a traceparent value.
func (id TraceIdentity) String() string {
	return FormatTraceParent(id)
}

// DecodeTraceParent decodes a traceparent value. Every failure wraps
// ErrInvalidTraceParent.
func DecodeTraceParent(value string) (TraceIdentity, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return TraceIdentity{}, fmt.Errorf("%w: empty header", ErrInvalidTraceParent)
	}

	parts := strings.Split(value, "-")
	if len(parts) != 4 {
		return TraceIdentity{}, fmt.Errorf("%w: expected 4 fields, got %d", ErrInvalidTraceParent, len(parts))
	}

	version, traceID, spanID, flags := parts[0], parts[1], parts[2], parts[3]
	if len(version) != 2 || !isLowerHex(version) {
		return TraceIdentity{}, fmt.Errorf("%w: malformed version %q", ErrInvalidTraceParent, version)
	}
	if version != supportedVersion {
		return TraceIdentity{}, fmt.Errorf("%w %q", ErrUnsupportedVersion, version)
	}

	tid, err := trace.TraceIDFromHex(traceID)
	if err != nil {
		return TraceIdentity{}, fmt.Errorf("%w: trace id: %v", ErrInvalidTraceParent, err)
	}
	sid, err := trace.SpanIDFromHex(spanID)
	if err != nil {
		return TraceIdentity{}, fmt.Errorf("%w: parent id: %v", ErrInvalidTraceParent, err)
	}

	if len(flags) != 2 || !isLowerHex(flags) {
		return TraceIdentity{}, fmt.Errorf("%w: malformed flags %q", ErrInvalidTraceParent, flags)
	}
	raw, err := hex.DecodeString(flags)
	if err != nil {
		return TraceIdentity{}, fmt.Errorf("%w: flags: %v", ErrInvalidTraceParent, err)
	}

	return TraceIdentity{
		TraceID:      tid,
		ParentSpanID: sid,
		Flags:        trace.TraceFlags(raw[0]),
	}, nil
}

// ParseTraceParent decodes a traceparent value, returning false when the
// value is malformed, carries zero ids, or uses an unsupported version.
func ParseTraceParent(value string) (TraceIdentity, bool) {
	id, err := DecodeTraceParent(value)
	if err != nil {
		return TraceIdentity{}, false
	}
	return id, true
}

// FormatTraceParent encodes id as a version 00 traceparent value.
func FormatTraceParent(id TraceIdentity) string {
	return fmt.Sprintf("%s-%s-%s-%s", supportedVersion, id.TraceID, id.ParentSpanID, hex.EncodeToString([]byte{byte(id.Flags)}))
}

// Extract reads the upstream trace identity from carrier.
func Extract(carrier propagation.TextMapCarrier) (TraceIdentity, bool) {
	return ParseTraceParent(carrier.Get(TraceParentHeader))
}

// Inject writes the span context held by ctx into carrier. Nothing is
// written when ctx has no valid span context.
func Inject(ctx context.Context, carrier propagation.TextMapCarrier) {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return
	}
	carrier.Set(TraceParentHeader, FormatTraceParent(TraceIdentity{
		TraceID:      sc.TraceID(),
		ParentSpanID: sc.SpanID(),
		Flags:        sc.TraceFlags() & trace.FlagsSampled,
	}))
}

// TraceContextPropagator is a propagation.TextMapPropagator limited to the
// traceparent header and the decoding rules above.
type TraceContextPropagator struct{}

var _ propagation.TextMapPropagator = TraceContextPropagator{}

// Extract returns ctx with the remote parent attached, or ctx unchanged
// when the carrier holds no usable traceparent.
func (TraceContextPropagator) Extract(ctx context.Context, carrier propagation.TextMapCarrier) context.Context {
	id, ok := Extract(carrier)
	if !ok {
		return ctx
	}
	return trace.ContextWithRemoteSpanContext(ctx, id.SpanContext())
}

func (TraceContextPropagator) Inject(ctx context.Context, carrier propagation.TextMapCarrier) {
	Inject(ctx, carrier)
}

func (TraceContextPropagator) Fields() []string {
	return []string{TraceParentHeader}
}

func isLowerHex(s string) bool {
	for _, c := range s {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
			return false
		}
	}
	return true
}

// PropagationDebugInfo returns debug information about trace propagation
// from HTTP headers.
func PropagationDebugInfo(headers http.Header) map[string]string {
	info := make(map[string]string)

	traceparent := CarrierFromHTTP(headers).Get(TraceParentHeader)
	if traceparent == "" {
		info["traceparent"] = "not present"
		return info
	}

	info["traceparent"] = traceparent
	id, err := DecodeTraceParent(traceparent)
	if err != nil {
		info["error"] = err.Error()
		return info
	}

	info["version"] = supportedVersion
	info["trace_id"] = id.TraceID.String()
	info["parent_id"] = id.ParentSpanID.String()
	info["flags"] = hex.EncodeToString([]byte{byte(id.Flags)})
	info["sampled"] = fmt.Sprintf("%t", id.Sampled())
	return info
}
