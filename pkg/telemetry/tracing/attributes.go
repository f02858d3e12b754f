package tracing

import (
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Span Attribute Helpers
//
// Server spans carry the HTTP attributes below, named after the OpenTelemetry
// HTTP semantic conventions in use when the first backends consuming these
// spans were built. Custom keys use the "lantern." namespace.

// Common attribute keys used throughout the system
const (
	// HTTP request attributes
	AttrHTTPMethod     = "http.method"
	AttrHTTPScheme     = "http.scheme"
	AttrHTTPHost       = "http.host"
	AttrHTTPServerName = "http.server_name"
	AttrHTTPTarget     = "http.target"
	AttrHTTPURL        = "http.url"
	AttrHTTPUserAgent  = "http.user_agent"
	AttrHTTPFlavor     = "http.flavor"
	AttrHTTPStatusCode = "http.status_code"
	AttrNetHostPort    = "net.host.port"
	AttrNetPeerIP      = "net.peer.ip"
	AttrNetPeerPort    = "net.peer.port"

	// Request attributes
	AttrRequestID = "lantern.request_id"

	// Error attributes
	AttrErrorType    = "lantern.error.type"
	AttrErrorMessage = "error.message"
)

// RequestAttributes collects the span attributes describing r. Fields that
// cannot be determined are omitted.
func RequestAttributes(r *http.Request) []attribute.KeyValue {
	ab := NewAttributeBuilder().WithRequest(r)
	return ab.Attributes()
}

// SetResponseAttributes records the response status on span. A 5xx status
// marks the span failed.
func SetResponseAttributes(span trace.Span, status int) {
	span.SetAttributes(attribute.Int(AttrHTTPStatusCode, status))
	if status >= http.StatusInternalServerError {
		span.SetStatus(codes.Error, http.StatusText(status))
	}
}

// SetErrorAttributes sets error-related attributes on a span.
// This also records the error using span.RecordError() and sets the span status.
//
// Example:
//
//	SetErrorAttributes(span, err, "timeout")
func SetErrorAttributes(span trace.Span, err error, errorType string) {
	if err == nil {
		return
	}

	span.SetAttributes(
		attribute.Bool("error", true),
		attribute.String(AttrErrorType, errorType),
		attribute.String(AttrErrorMessage, err.Error()),
	)

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// AddEvent adds a named event to the span with optional attributes.
//
// Example:
//
//	AddEvent(span, "cache_miss",
//	    attribute.String("key", key),
//	)
func AddEvent(span trace.Span, name string, attrs ...attribute.KeyValue) {
	span.AddEvent(name, trace.WithAttributes(attrs...))
}

// AttributeBuilder provides a fluent interface for building span attributes.
type AttributeBuilder struct {
	attrs []attribute.KeyValue
}

// NewAttributeBuilder creates a new attribute builder.
func NewAttributeBuilder() *AttributeBuilder {
	return &AttributeBuilder{
		attrs: make([]attribute.KeyValue, 0, 12),
	}
}

// WithRequest adds the HTTP attributes of r.
func (ab *AttributeBuilder) WithRequest(r *http.Request) *AttributeBuilder {
	scheme := requestScheme(r)
	target := r.RequestURI
	if target == "" {
		target = r.URL.RequestURI()
	}

	ab.withString(AttrHTTPMethod, r.Method)
	ab.withString(AttrHTTPScheme, scheme)
	ab.withString(AttrHTTPHost, r.Host)

	serverName, serverPort := splitHostPort(r.Host)
	if addr, ok := r.Context().Value(http.LocalAddrContextKey).(net.Addr); ok {
		if _, port := splitHostPort(addr.String()); port > 0 {
			serverPort = port
		}
	}
	if serverPort == 0 {
		serverPort = defaultPort(scheme)
	}
	ab.withString(AttrHTTPServerName, serverName)
	ab.attrs = append(ab.attrs, attribute.Int(AttrNetHostPort, serverPort))

	ab.withString(AttrHTTPTarget, target)
	if r.Host != "" {
		ab.withString(AttrHTTPURL, scheme+"://"+r.Host+target)
	}

	peerIP, peerPort := splitHostPort(r.RemoteAddr)
	ab.withString(AttrNetPeerIP, peerIP)
	if peerPort > 0 {
		ab.attrs = append(ab.attrs, attribute.Int(AttrNetPeerPort, peerPort))
	}

	ab.withString(AttrHTTPUserAgent, r.UserAgent())
	if r.ProtoMajor > 0 {
		ab.withString(AttrHTTPFlavor, fmt.Sprintf("%d.%d", r.ProtoMajor, r.ProtoMinor))
	}
	return ab
}

// WithRequestID adds the request correlation id.
func (ab *AttributeBuilder) WithRequestID(requestID string) *AttributeBuilder {
	ab.withString(AttrRequestID, requestID)
	return ab
}

// WithCustom adds a custom attribute.
func (ab *AttributeBuilder) WithCustom(key string, value interface{}) *AttributeBuilder {
	switch v := value.(type) {
	case string:
		ab.attrs = append(ab.attrs, attribute.String(key, v))
	case int:
		ab.attrs = append(ab.attrs, attribute.Int(key, v))
	case int64:
		ab.attrs = append(ab.attrs, attribute.Int64(key, v))
	case float64:
		ab.attrs = append(ab.attrs, attribute.Float64(key, v))
	case bool:
		ab.attrs = append(ab.attrs, attribute.Bool(key, v))
	default:
		ab.attrs = append(ab.attrs, attribute.String(key, fmt.Sprintf("%v", v)))
	}
	return ab
}

func (ab *AttributeBuilder) withString(key, value string) {
	if value != "" {
		ab.attrs = append(ab.attrs, attribute.String(key, value))
	}
}

// Apply applies the attributes to a span.
func (ab *AttributeBuilder) Apply(span trace.Span) {
	span.SetAttributes(ab.attrs...)
}

// Attributes returns the raw attribute slice.
func (ab *AttributeBuilder) Attributes() []attribute.KeyValue {
	return ab.attrs
}

func requestScheme(r *http.Request) string {
	if r.URL != nil && r.URL.Scheme != "" {
		return r.URL.Scheme
	}
	if r.TLS != nil {
		return "https"
	}
	return "http"
}

func defaultPort(scheme string) int {
	if scheme == "https" {
		return 443
	}
	return 80
}

// splitHostPort splits "host:port", tolerating a missing port.
func splitHostPort(hostport string) (string, int) {
	if hostport == "" {
		return "", 0
	}
	host, portStr, err := net.SplitHostPort(hostport)
	if err != nil {
		return strings.Trim(hostport, "[]"), 0
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return host, 0
	}
	return host, port
}
