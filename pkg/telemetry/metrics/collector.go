package metrics

import (
	"strconv"
	"sync"
	"time"

	"lantern-hq/lantern/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Export outcomes used as the outcome label of spans_exported_total.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// overflowRoute replaces route labels once the cardinality limit is hit.
const overflowRoute = "other"

// Collector owns the lantern Prometheus registry. It records HTTP request
// metrics and, as the tracer's observer, export and sampling outcomes.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	requestMetrics *RequestMetrics
	tracingMetrics *TracingMetrics

	// Cardinality tracking
	cardinalityLimiter *CardinalityLimiter
}

// NewCollector creates a new metrics collector with the specified configuration
// and Prometheus registry. If registry is nil, a private registry is
// created.
//
// Example:
//
//	cfg := &config.MetricsConfig{
//		Enabled:   true,
//		Namespace: "lantern",
//	}
//	collector := metrics.NewCollector(cfg, nil)
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	// Set defaults if not specified
	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}
	if len(cfg.RequestDurationBuckets) == 0 {
		cfg.RequestDurationBuckets = config.DefaultRequestDurationBuckets
	}
	if len(cfg.ExportDurationBuckets) == 0 {
		cfg.ExportDurationBuckets = config.DefaultExportDurationBuckets
	}

	c := &Collector{
		config:             cfg,
		registry:           registry,
		cardinalityLimiter: NewCardinalityLimiter(1000),
	}

	c.requestMetrics = NewRequestMetrics(cfg, registry)
	c.tracingMetrics = NewTracingMetrics(cfg, registry)

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return c
}

// RecordRequest records metrics for a completed HTTP request.
//
// Example:
//
//	collector.RecordRequest("server_request", 200, 3*time.Millisecond)
func (c *Collector) RecordRequest(route string, status int, duration time.Duration) {
	if !c.config.Enabled {
		return
	}

	if !c.cardinalityLimiter.Allow(route) {
		route = overflowRoute
	}
	c.requestMetrics.RecordRequest(route, strconv.Itoa(status), duration)
}

// RequestStarted tracks a request in flight. The returned func must be
// called when the request completes.
func (c *Collector) RequestStarted() func() {
	if !c.config.Enabled {
		return func() {}
	}
	c.requestMetrics.inFlight.Inc()
	return c.requestMetrics.inFlight.Dec
}

// ObserveExport records one export attempt to destination.
func (c *Collector) ObserveExport(destination string, duration time.Duration, err error) {
	if !c.config.Enabled {
		return
	}

	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeError
	}
	c.tracingMetrics.RecordExport(destination, outcome, duration)
}

// ObserveDropped records a span ended without being exported.
func (c *Collector) ObserveDropped(reason string) {
	if !c.config.Enabled {
		return
	}

	c.tracingMetrics.RecordDropped(reason)
}

// ObserveSampling records a root sampling decision ("RECORD" or "DROP").
func (c *Collector) ObserveSampling(decision string) {
	if !c.config.Enabled {
		return
	}

	c.tracingMetrics.RecordSampling(decision)
}

// Registry returns the Prometheus registry used by this collector.
// This can be used to create an HTTP handler for the /metrics endpoint:
//
//	http.Handle("/metrics", promhttp.HandlerFor(
//		collector.Registry(),
//		promhttp.HandlerOpts{},
//	))
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// CardinalityLimiter prevents metric cardinality explosion by limiting
// the number of unique label combinations per metric.
type CardinalityLimiter struct {
	maxCardinality int
	current        map[string]struct{}
	mu             sync.RWMutex
}

// NewCardinalityLimiter creates a new cardinality limiter with the specified
// maximum cardinality.
func NewCardinalityLimiter(maxCardinality int) *CardinalityLimiter {
	return &CardinalityLimiter{
		maxCardinality: maxCardinality,
		current:        make(map[string]struct{}),
	}
}

// Allow checks if a label set is allowed. Returns true if the label set
// already exists or if we haven't reached the cardinality limit yet.
// Returns false if adding this label set would exceed the limit.
func (cl *CardinalityLimiter) Allow(labelSet string) bool {
	cl.mu.RLock()
	if _, exists := cl.current[labelSet]; exists {
		cl.mu.RUnlock()
		return true
	}
	cl.mu.RUnlock()

	cl.mu.Lock()
	defer cl.mu.Unlock()

	// Double-check after acquiring write lock
	if _, exists := cl.current[labelSet]; exists {
		return true
	}

	if len(cl.current) >= cl.maxCardinality {
		return false
	}

	cl.current[labelSet] = struct{}{}
	return true
}

// Count returns the current cardinality.
func (cl *CardinalityLimiter) Count() int {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return len(cl.current)
}
