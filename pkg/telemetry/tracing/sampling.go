package tracing

import (
	"crypto/sha1"
	"encoding/binary"
	"fmt"
	"math"

	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// Sampling strategies determine which traces are recorded and exported.
// Four strategies are supported:
//   - deterministic: keep 1 in N traces, decided from the trace id hash
//   - always: Sample 100% of traces (development/debugging)
//   - never: Sample 0% of traces (tracing effectively disabled)
//   - ratio: Sample a fraction of traces with the OpenTelemetry ratio sampler

const (
	// SamplerDeterministic keeps 1 in sample_rate traces
	SamplerDeterministic = "deterministic"

	// SamplerAlways samples all traces
	SamplerAlways = "always"

	// SamplerNever samples no traces
	SamplerNever = "never"

	// SamplerRatio samples a percentage of traces
	SamplerRatio = "ratio"
)

// SampleRateAttribute is attached to sampled spans so the backend can
// weight each kept span by the number of traces it stands for.
const SampleRateAttribute = "SampleRate"

// Decision is the outcome of the deterministic sampling function.
type Decision int

const (
	Drop Decision = iota
	Record
)

func (d Decision) String() string {
	if d == Record {
		return "RECORD"
	}
	return "DROP"
}

// Decide returns Record for roughly 1 in rate trace ids. The result depends
// only on the arguments: every process given the same trace id and rate
// reaches the same answer.
//
// The lower-case hex form of the trace id is hashed with SHA-1 and the first
// four bytes, read big-endian, are compared against MaxUint32/rate.
// A rate of 0 or 1 records everything.
func Decide(traceID trace.TraceID, rate uint) Decision {
	if rate <= 1 {
		return Record
	}
	threshold := uint64(math.MaxUint32) / uint64(rate)
	if uint64(traceHash(traceID)) < threshold {
		return Record
	}
	return Drop
}

func traceHash(traceID trace.TraceID) uint32 {
	sum := sha1.Sum([]byte(traceID.String()))
	return binary.BigEndian.Uint32(sum[:4])
}

// DeterministicSampler is an sdktrace.Sampler built on Decide.
//
// A valid parent's sampled flag always wins. Root spans that lose the draw
// are still recorded (RecordOnly) so scoped code sees a live span; the
// export pipeline discards them when they end.
type DeterministicSampler struct {
	rate     uint
	observer Observer
}

var _ sdktrace.Sampler = (*DeterministicSampler)(nil)

// NewDeterministicSampler returns a sampler keeping 1 in rate traces.
func NewDeterministicSampler(rate uint) *DeterministicSampler {
	return &DeterministicSampler{rate: rate, observer: nopObserver{}}
}

// Rate returns the configured sample rate.
func (s *DeterministicSampler) Rate() uint {
	return s.rate
}

func (s *DeterministicSampler) withObserver(o Observer) *DeterministicSampler {
	if o != nil {
		s.observer = o
	}
	return s
}

func (s *DeterministicSampler) ShouldSample(p sdktrace.SamplingParameters) sdktrace.SamplingResult {
	psc := trace.SpanContextFromContext(p.ParentContext)
	ts := psc.TraceState()

	if psc.IsValid() {
		if psc.IsSampled() {
			return s.recordResult(ts)
		}
		return sdktrace.SamplingResult{Decision: sdktrace.RecordOnly, Tracestate: ts}
	}

	decision := Decide(p.TraceID, s.rate)
	s.observer.ObserveSampling(decision.String())
	if decision == Record {
		return s.recordResult(ts)
	}
	return sdktrace.SamplingResult{Decision: sdktrace.RecordOnly, Tracestate: ts}
}

func (s *DeterministicSampler) recordResult(ts trace.TraceState) sdktrace.SamplingResult {
	return sdktrace.SamplingResult{
		Decision:   sdktrace.RecordAndSample,
		Attributes: []attribute.KeyValue{attribute.Int64(SampleRateAttribute, int64(s.effectiveRate()))},
		Tracestate: ts,
	}
}

func (s *DeterministicSampler) effectiveRate() uint {
	if s.rate == 0 {
		return 1
	}
	return s.rate
}

func (s *DeterministicSampler) Description() string {
	return fmt.Sprintf("DeterministicSampler{rate=%d}", s.rate)
}

// newSampler creates a sampler for the configured strategy.
//
// # Sampling Strategies
//
// Deterministic: the default. Keeps 1 in sample_rate traces and every
// service sharing the rate agrees on which ones.
//
//	telemetry:
//	  tracing:
//	    sampler: deterministic
//	    sample_rate: 5  # keep 1 trace in 5
//
// AlwaysOn and AlwaysOff sample everything or nothing.
//
// TraceIDRatioBased samples a fraction of traces:
//
//	telemetry:
//	  tracing:
//	    sampler: ratio
//	    sample_ratio: 0.1  # Sample 10% of traces
//
// # Parent-Based Sampling
//
// Every strategy respects a valid parent's sampling decision:
//   - If parent span is sampled → child is sampled
//   - If parent span is not sampled → child is not sampled
//   - If no parent span → use configured sampler
func newSampler(cfg SamplingConfig, observer Observer) (sdktrace.Sampler, error) {
	if err := ValidateSamplingConfig(cfg); err != nil {
		return nil, err
	}

	switch cfg.Strategy {
	case SamplerDeterministic:
		return NewDeterministicSampler(cfg.Rate).withObserver(observer), nil
	case SamplerAlways:
		return sdktrace.ParentBased(sdktrace.AlwaysSample()), nil
	case SamplerNever:
		return sdktrace.ParentBased(sdktrace.NeverSample()), nil
	default:
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.Ratio)), nil
	}
}

// SamplingConfig contains configuration for trace sampling.
type SamplingConfig struct {
	// Strategy is the sampling strategy ("deterministic", "always", "never", "ratio")
	Strategy string

	// Ratio is the sampling ratio for "ratio" strategy (0.0 to 1.0)
	Ratio float64

	// Rate is N for the "deterministic" strategy
	Rate uint
}

// ValidateSamplingConfig validates the sampling configuration.
func ValidateSamplingConfig(cfg SamplingConfig) error {
	switch cfg.Strategy {
	case SamplerDeterministic:
		if cfg.Rate < 1 {
			return fmt.Errorf("sample rate must be at least 1, got %d", cfg.Rate)
		}
	case SamplerAlways, SamplerNever:
	case SamplerRatio:
		if cfg.Ratio < 0.0 || cfg.Ratio > 1.0 {
			return fmt.Errorf("sample ratio must be between 0.0 and 1.0, got %f", cfg.Ratio)
		}
	default:
		return fmt.Errorf("invalid sampling strategy: %s (valid: deterministic, always, never, ratio)", cfg.Strategy)
	}
	return nil
}
