// Package logging builds the process zap logger.
//
// # Overview
//
// The logging package wraps go.uber.org/zap to provide:
//   - JSON or console output with ISO8601 timestamps
//   - A level that can be changed at runtime (config hot reload)
//   - Correlation fields (request_id, trace_id, span_id) taken from a context
//   - Masking of credential headers before they are logged
//
// # Usage
//
//	logger, err := logging.New(logging.Config{
//	    Level:  "info",
//	    Format: "json",
//	})
//	if err != nil {
//	    return err
//	}
//	defer logger.Sync()
//
//	logger.WithContext(ctx).Info("request served", zap.String("param", param))
//
// Only sampled spans contribute trace_id and span_id, so every trace id
// that appears in a log line can be found in a tracing backend.
//
// # Redaction
//
// Authorization, cookies and exporter credential headers such as
// x-honeycomb-team are always masked; more names can be added with
// RedactHeaders:
//
//   - x-honeycomb-team: hcaik_01abcdef... → hcai***
//   - Bearer eyJhbGciOi... → Bearer ***
package logging
