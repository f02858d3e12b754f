package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"reflect"
	"strings"
)

// OutputFormat selects how a command prints its result.
type OutputFormat string

const (
	// FormatText prints one line per value (default).
	FormatText OutputFormat = "text"
	// FormatJSON prints the value as indented JSON.
	FormatJSON OutputFormat = "json"
)

// ParseOutputFormat parses the --output flag value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(strings.ToLower(s)) {
	case FormatText, "":
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q: must be 'text' or 'json'", s)
	}
}

// Formatter writes a command result.
type Formatter interface {
	FormatTo(w io.Writer, v any) error
}

// TextFormatter prints errors by their message, fmt.Stringer values by
// their String method, and slices one element per line.
type TextFormatter struct{}

// FormatTo writes the text lines of v to w.
func (TextFormatter) FormatTo(w io.Writer, v any) error {
	for _, line := range textLines(v) {
		if _, err := io.WriteString(w, line+"\n"); err != nil {
			return err
		}
	}
	return nil
}

func textLines(v any) []string {
	switch v := v.(type) {
	case nil:
		return nil
	case error:
		return []string{v.Error()}
	case fmt.Stringer:
		return []string{v.String()}
	case string:
		return []string{v}
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return []string{fmt.Sprint(v)}
	}
	lines := make([]string, 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		lines = append(lines, textLines(rv.Index(i).Interface())...)
	}
	return lines
}

// JSONFormatter prints indented JSON. Empty slices print as [].
type JSONFormatter struct{}

// FormatTo encodes v to w.
func (JSONFormatter) FormatTo(w io.Writer, v any) error {
	if rv := reflect.ValueOf(v); rv.Kind() == reflect.Slice && rv.IsNil() {
		v = []any{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// NewFormatter returns the formatter for format. Unknown formats print text.
func NewFormatter(format OutputFormat) Formatter {
	if format == FormatJSON {
		return JSONFormatter{}
	}
	return TextFormatter{}
}
