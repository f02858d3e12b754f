package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"lantern-hq/lantern/pkg/telemetry/logging"

	"go.uber.org/zap"
)

// Recovery recovers from panics in HTTP handlers and returns a 500 Internal
// Server Error. It logs the panic with stack trace for debugging but does
// not expose internal details to clients.
//
// Example usage:
//
//	handler = Recovery(logger)(handler)
func Recovery(logger *zap.Logger) Middleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}

					logging.FromContext(r.Context(), logger).Error("panic in handler",
						zap.String("panic", fmt.Sprint(rec)),
						zap.String("method", r.Method),
						zap.String("path", r.URL.Path),
						zap.ByteString("stack", debug.Stack()),
					)

					http.Error(w, "An internal error occurred. Please try again later.", http.StatusInternalServerError)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
