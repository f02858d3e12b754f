package logging

import (
	"net/http"
	"regexp"
	"sort"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// defaultSensitiveHeaders are always masked.
var defaultSensitiveHeaders = []string{
	"authorization",
	"proxy-authorization",
	"cookie",
	"set-cookie",
	"x-api-key",
	"x-honeycomb-team",
}

// sensitiveKeyParts mark a header or field name as sensitive when contained
// in it.
var sensitiveKeyParts = []string{"secret", "token", "password", "api_key", "apikey", "write_key"}

var valuePatterns = []struct {
	regex       *regexp.Regexp
	replacement string
}{
	{regexp.MustCompile(`(?i)bearer\s+[a-zA-Z0-9\-._~+/]+=*`), "Bearer ***"},
	{regexp.MustCompile(`(?i)(password|passwd|pwd|secret|token)[:=]\s*[^\s&]+`), "$1=***"},
}

// Redactor masks credential values before they reach a log entry.
type Redactor struct {
	headers map[string]struct{}
}

// NewRedactor creates a redactor masking the default sensitive headers
// plus extra.
func NewRedactor(extra []string) *Redactor {
	r := &Redactor{headers: make(map[string]struct{}, len(defaultSensitiveHeaders)+len(extra))}
	for _, h := range defaultSensitiveHeaders {
		r.headers[h] = struct{}{}
	}
	for _, h := range extra {
		if h = strings.TrimSpace(h); h != "" {
			r.headers[strings.ToLower(h)] = struct{}{}
		}
	}
	return r
}

// IsSensitive reports whether values under name must be masked.
func (r *Redactor) IsSensitive(name string) bool {
	lower := strings.ToLower(name)
	if _, ok := r.headers[lower]; ok {
		return true
	}
	lower = strings.ReplaceAll(lower, "-", "_")
	for _, part := range sensitiveKeyParts {
		if strings.Contains(lower, part) {
			return true
		}
	}
	return false
}

// RedactValue masks a credential, keeping a short prefix for identification.
func RedactValue(value string) string {
	if value == "" {
		return ""
	}
	if len(value) <= 8 {
		return "***"
	}
	return value[:4] + "***"
}

// RedactString masks bearer tokens and key=value credentials inside free
// text such as query strings.
func (r *Redactor) RedactString(value string) string {
	for _, p := range valuePatterns {
		value = p.regex.ReplaceAllString(value, p.replacement)
	}
	return value
}

// RedactHeaders returns a flattened copy of h with sensitive values masked.
func (r *Redactor) RedactHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for name, values := range h {
		value := strings.Join(values, ",")
		if r.IsSensitive(name) {
			value = RedactValue(value)
		}
		out[strings.ToLower(name)] = value
	}
	return out
}

// HeadersField logs h under key with sensitive values masked.
func (r *Redactor) HeadersField(key string, h http.Header) zap.Field {
	return zap.Object(key, redactedHeaders(r.RedactHeaders(h)))
}

type redactedHeaders map[string]string

func (h redactedHeaders) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		enc.AddString(k, h[k])
	}
	return nil
}
