package server

import (
	"io"
	"net/http"

	"lantern-hq/lantern/pkg/telemetry/logging"
	"lantern-hq/lantern/pkg/telemetry/tracing"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// handleServerRequest logs the param query value and answers "served".
// It runs inside the server_request span.
func (s *Server) handleServerRequest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	span := tracing.CurrentSpan(ctx)
	tracing.NewAttributeBuilder().
		WithRequestID(logging.GetRequestID(ctx)).
		Apply(span)

	param := s.redactor.RedactString(r.URL.Query().Get("param"))
	logging.FromContext(ctx, s.logger).Info("handling server_request", zap.String("param", param))
	tracing.AddEvent(span, "param_received", attribute.String("param", param))

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "served")
}
