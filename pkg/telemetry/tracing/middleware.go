package tracing

import (
	"bufio"
	"context"
	"errors"
	"net"
	"net/http"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Middleware wraps every request in a SERVER span named spanName.
//
// A valid upstream traceparent makes the span part of that trace; a
// missing or malformed one starts a new trace. The span carries the
// request attributes and the response status, fails on 5xx, and is ended
// (and exported when sampled) before the handler chain returns.
func (t *Tracer) Middleware(spanName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			opts := []SpanOption{
				WithKind(trace.SpanKindServer),
				WithAttributes(RequestAttributes(r)...),
				WithNewRoot(),
			}

			carrier := CarrierFromHTTP(r.Header)
			if header := carrier.Get(TraceParentHeader); header != "" {
				parent, err := DecodeTraceParent(header)
				if err != nil {
					t.logger.Debug("ignoring traceparent",
						zap.Any("propagation", PropagationDebugInfo(r.Header)),
						zap.Error(err),
					)
				} else {
					opts = append(opts, WithParent(parent))
				}
			}

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			_ = t.WithSpan(r.Context(), spanName, func(ctx context.Context) error {
				span := CurrentSpan(ctx)
				if sc := span.SpanContext(); sc.IsValid() {
					w.Header().Set(TraceIDHeader, sc.TraceID().String())
				}

				next.ServeHTTP(rec, r.WithContext(ctx))

				SetResponseAttributes(span, rec.status)
				if rec.status >= http.StatusInternalServerError {
					return &HTTPStatusError{Code: rec.status}
				}
				return nil
			}, opts...)
		})
	}
}

// statusRecorder captures the status code written by the handler.
type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (r *statusRecorder) WriteHeader(code int) {
	if !r.wroteHeader {
		r.status = code
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	r.wroteHeader = true
	return r.ResponseWriter.Write(b)
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if h, ok := r.ResponseWriter.(http.Hijacker); ok {
		return h.Hijack()
	}
	return nil, nil, errors.New("hijacking not supported")
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}
