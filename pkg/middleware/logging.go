package middleware

import (
	"net/http"
	"time"

	"lantern-hq/lantern/pkg/telemetry/logging"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// responseWriter wraps http.ResponseWriter to capture status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    bool
	bytes      int
}

// newResponseWriter creates a new response writer wrapper.
func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{
		ResponseWriter: w,
		statusCode:     http.StatusOK, // Default to 200
	}
}

// WriteHeader captures the status code before writing.
func (rw *responseWriter) WriteHeader(code int) {
	if !rw.written {
		rw.statusCode = code
		rw.written = true
		rw.ResponseWriter.WriteHeader(code)
	}
}

// Write ensures WriteHeader is called if not already done.
func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.written {
		rw.WriteHeader(http.StatusOK)
	}
	n, err := rw.ResponseWriter.Write(b)
	rw.bytes += n
	return n, err
}

func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// AccessLog logs every request on completion. 5xx responses log at error,
// 4xx at warn. Request headers are only logged at debug level, with
// credentials masked by redactor.
//
// Example entry (JSON):
//
//	{
//	  "level": "INFO",
//	  "msg": "request completed",
//	  "method": "GET",
//	  "path": "/server_request",
//	  "status": 200,
//	  "latency": 1.25,
//	  "request_id": "3f2c..."
//	}
func AccessLog(logger *zap.Logger, redactor *logging.Redactor) Middleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	if redactor == nil {
		redactor = logging.NewRedactor(nil)
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := newResponseWriter(w)
			log := logging.FromContext(r.Context(), logger)

			if ce := log.Check(zapcore.DebugLevel, "request started"); ce != nil {
				ce.Write(
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					redactor.HeadersField("headers", r.Header),
				)
			}

			next.ServeHTTP(rw, r)

			level := zapcore.InfoLevel
			if rw.statusCode >= 500 {
				level = zapcore.ErrorLevel
			} else if rw.statusCode >= 400 {
				level = zapcore.WarnLevel
			}

			log.Log(level, "request completed",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", rw.statusCode),
				zap.Int("bytes", rw.bytes),
				zap.Duration("latency", time.Since(start)),
				zap.String("remote_addr", r.RemoteAddr),
				zap.String("user_agent", r.UserAgent()),
			)
		})
	}
}
