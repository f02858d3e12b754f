package tracing

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTraceParent is wrapped by every traceparent decoding failure.
	// Decoding failures are never fatal: the request simply starts a new trace.
	ErrInvalidTraceParent = errors.New("invalid traceparent")

	// ErrUnsupportedVersion is returned for a well-formed traceparent whose
	// version is not 00.
	ErrUnsupportedVersion = fmt.Errorf("%w: unsupported version", ErrInvalidTraceParent)

	// ErrMissingCredentials is returned at startup when a remote destination
	// requires credentials that could not be resolved.
	ErrMissingCredentials = errors.New("missing exporter credentials")
)

// ExportError reports a failure of a single export destination. It is
// logged and counted by the pipeline and never returned to request code.
type ExportError struct {
	Destination string
	Err         error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export to %s failed: %v", e.Destination, e.Err)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}

// ConfigurationError reports a tracing setup problem found while building
// the tracer. It only occurs at startup.
type ConfigurationError struct {
	// Component is the part of the configuration at fault, e.g.
	// "sampler" or "destination honeycomb".
	Component string
	Err       error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("tracing configuration error in %s: %v", e.Component, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// HTTPStatusError marks a server span as failed because the handler
// answered with a 5xx status.
type HTTPStatusError struct {
	Code int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("HTTP %d", e.Code)
}
