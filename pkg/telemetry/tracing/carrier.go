package tracing

import (
	"net/http"
	"sort"
	"strings"

	"go.opentelemetry.io/otel/propagation"
)

// HeaderCarrier adapts request headers to the propagation API. Lookups are
// case-insensitive and a missing header reads as "".
//
// Keys are stored lower-cased; build carriers with NewHeaderCarrier or
// CarrierFromHTTP.
type HeaderCarrier map[string]string

var _ propagation.TextMapCarrier = HeaderCarrier(nil)

// NewHeaderCarrier copies headers into a carrier.
func NewHeaderCarrier(headers map[string]string) HeaderCarrier {
	c := make(HeaderCarrier, len(headers))
	for k, v := range headers {
		c[strings.ToLower(k)] = v
	}
	return c
}

// CarrierFromHTTP builds a carrier from HTTP headers, keeping the first
// value of each header.
func CarrierFromHTTP(h http.Header) HeaderCarrier {
	c := make(HeaderCarrier, len(h))
	for k, values := range h {
		if len(values) == 0 {
			continue
		}
		key := strings.ToLower(k)
		if _, exists := c[key]; !exists {
			c[key] = values[0]
		}
	}
	return c
}

// Get returns the value for name regardless of case.
func (c HeaderCarrier) Get(name string) string {
	if v, ok := c[strings.ToLower(name)]; ok {
		return v
	}
	// literal maps built without NewHeaderCarrier
	for k, v := range c {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

// Set stores value under the lower-cased name.
func (c HeaderCarrier) Set(name, value string) {
	c[strings.ToLower(name)] = value
}

// Keys returns the header names in sorted order.
func (c HeaderCarrier) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
