package tracing

import (
	"context"
	"math/rand"
	"strings"
	"sync"
	"testing"
	"time"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

func randomTraceIDs(n int, seed int64) []trace.TraceID {
	r := rand.New(rand.NewSource(seed))
	ids := make([]trace.TraceID, n)
	for i := range ids {
		for !ids[i].IsValid() {
			_, _ = r.Read(ids[i][:])
		}
	}
	return ids
}

func TestDecide_Deterministic(t *testing.T) {
	for _, id := range randomTraceIDs(1000, 1) {
		first := Decide(id, 5)
		for i := 0; i < 3; i++ {
			if got := Decide(id, 5); got != first {
				t.Fatalf("Decide(%s) changed from %s to %s", id, first, got)
			}
		}
	}
}

func TestDecide_Distribution(t *testing.T) {
	tests := []struct {
		rate uint
		want int
	}{
		{rate: 2, want: 50000},
		{rate: 5, want: 20000},
		{rate: 10, want: 10000},
		{rate: 100, want: 1000},
	}

	ids := randomTraceIDs(100000, 42)
	for _, tt := range tests {
		recorded := 0
		for _, id := range ids {
			if Decide(id, tt.rate) == Record {
				recorded++
			}
		}
		tolerance := tt.want / 20
		if tolerance < 200 {
			tolerance = 200
		}
		if recorded < tt.want-tolerance || recorded > tt.want+tolerance {
			t.Errorf("rate %d: recorded %d of 100000, want about %d", tt.rate, recorded, tt.want)
		}
	}
}

func TestDecide_RateOneOrZeroRecordsAll(t *testing.T) {
	for _, id := range randomTraceIDs(200, 7) {
		if Decide(id, 1) != Record || Decide(id, 0) != Record {
			t.Fatalf("expected RECORD for %s at rate 0 and 1", id)
		}
	}
}

func TestDecide_KnownHashes(t *testing.T) {
	tests := []struct {
		traceID string
		hash    uint32
		rate    uint
		want    Decision
	}{
		{traceID: "00000000000000000000000000000001", hash: 0x685638cd, rate: 5, want: Drop},
		{traceID: "00000000000000000000000000000001", hash: 0x685638cd, rate: 2, want: Record},
		{traceID: testTraceID, hash: 0x11d33efc, rate: 5, want: Record},
		{traceID: "0af7651916cd43dd8448eb211c80319c", hash: 0x0a24796d, rate: 10, want: Record},
	}

	for _, tt := range tests {
		id, err := trace.TraceIDFromHex(tt.traceID)
		if err != nil {
			t.Fatal(err)
		}
		if h := traceHash(id); h != tt.hash {
			t.Errorf("traceHash(%s) = %#x, want %#x", tt.traceID, h, tt.hash)
		}
		if got := Decide(id, tt.rate); got != tt.want {
			t.Errorf("Decide(%s, %d) = %s, want %s", tt.traceID, tt.rate, got, tt.want)
		}
	}
}

func TestDecision_String(t *testing.T) {
	if Record.String() != "RECORD" || Drop.String() != "DROP" {
		t.Errorf("unexpected decision names: %s %s", Record, Drop)
	}
}

type recordingObserver struct {
	mu        sync.Mutex
	sampling  []string
	dropped   []string
	exports   map[string][]error
	durations map[string][]time.Duration
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{exports: map[string][]error{}, durations: map[string][]time.Duration{}}
}

func (o *recordingObserver) ObserveExport(dest string, d time.Duration, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.exports[dest] = append(o.exports[dest], err)
	o.durations[dest] = append(o.durations[dest], d)
}

func (o *recordingObserver) ObserveDropped(reason string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.dropped = append(o.dropped, reason)
}

func (o *recordingObserver) ObserveSampling(decision string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sampling = append(o.sampling, decision)
}

func TestDeterministicSampler_RootDecision(t *testing.T) {
	obs := newRecordingObserver()
	s := NewDeterministicSampler(5).withObserver(obs)

	for _, id := range randomTraceIDs(500, 3) {
		res := s.ShouldSample(sdktrace.SamplingParameters{
			ParentContext: context.Background(),
			TraceID:       id,
			Name:          "op",
		})

		if Decide(id, 5) == Record {
			if res.Decision != sdktrace.RecordAndSample {
				t.Fatalf("expected RecordAndSample for %s, got %v", id, res.Decision)
			}
			if len(res.Attributes) != 1 || string(res.Attributes[0].Key) != SampleRateAttribute || res.Attributes[0].Value.AsInt64() != 5 {
				t.Fatalf("expected SampleRate=5 attribute, got %v", res.Attributes)
			}
		} else if res.Decision != sdktrace.RecordOnly {
			t.Fatalf("expected RecordOnly for %s, got %v", id, res.Decision)
		}
	}

	if len(obs.sampling) != 500 {
		t.Errorf("expected 500 observed decisions, got %d", len(obs.sampling))
	}
}

func TestDeterministicSampler_HonorsParent(t *testing.T) {
	s := NewDeterministicSampler(1000000)

	parentSampled, _ := ParseTraceParent(testTraceParent)
	ctx := trace.ContextWithRemoteSpanContext(context.Background(), parentSampled.SpanContext())
	res := s.ShouldSample(sdktrace.SamplingParameters{ParentContext: ctx, TraceID: parentSampled.TraceID})
	if res.Decision != sdktrace.RecordAndSample {
		t.Errorf("sampled parent must be honored, got %v", res.Decision)
	}

	parentDropped, _ := ParseTraceParent("00-" + testTraceID + "-" + testParentID + "-00")
	ctx = trace.ContextWithRemoteSpanContext(context.Background(), parentDropped.SpanContext())
	s = NewDeterministicSampler(1)
	res = s.ShouldSample(sdktrace.SamplingParameters{ParentContext: ctx, TraceID: parentDropped.TraceID})
	if res.Decision == sdktrace.RecordAndSample {
		t.Error("unsampled parent must be honored even at rate 1")
	}
}

func TestDeterministicSampler_Description(t *testing.T) {
	if got := NewDeterministicSampler(5).Description(); got != "DeterministicSampler{rate=5}" {
		t.Errorf("unexpected description %q", got)
	}
}

// TestNewSampler tests sampler creation
func TestNewSampler(t *testing.T) {
	tests := []struct {
		name     string
		strategy string
		ratio    float64
		rate     uint
		wantErr  bool
		wantDesc string
	}{
		{name: "deterministic", strategy: SamplerDeterministic, rate: 5, wantDesc: "DeterministicSampler"},
		{name: "deterministic zero rate", strategy: SamplerDeterministic, rate: 0, wantErr: true},
		{name: "always sampler", strategy: SamplerAlways, wantDesc: "ParentBased"},
		{name: "never sampler", strategy: SamplerNever, wantDesc: "ParentBased"},
		{name: "ratio sampler - 50%", strategy: SamplerRatio, ratio: 0.5, wantDesc: "TraceIDRatioBased"},
		{name: "ratio sampler - invalid negative", strategy: SamplerRatio, ratio: -0.1, wantErr: true},
		{name: "ratio sampler - invalid > 1", strategy: SamplerRatio, ratio: 1.5, wantErr: true},
		{name: "unknown strategy", strategy: "unknown", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sampler, err := newSampler(SamplingConfig{Strategy: tt.strategy, Ratio: tt.ratio, Rate: tt.rate}, nil)
			if (err != nil) != tt.wantErr {
				t.Fatalf("newSampler() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if !strings.Contains(sampler.Description(), tt.wantDesc) {
				t.Errorf("Description() = %q, want to contain %q", sampler.Description(), tt.wantDesc)
			}
		})
	}
}

// TestValidateSamplingConfig tests sampling config validation
func TestValidateSamplingConfig(t *testing.T) {
	tests := []struct {
		name    string
		config  SamplingConfig
		wantErr bool
	}{
		{name: "valid deterministic", config: SamplingConfig{Strategy: SamplerDeterministic, Rate: 1}},
		{name: "valid always", config: SamplingConfig{Strategy: SamplerAlways}},
		{name: "valid never", config: SamplingConfig{Strategy: SamplerNever}},
		{name: "valid ratio", config: SamplingConfig{Strategy: SamplerRatio, Ratio: 0.1}},
		{name: "ratio strategy with ratio 0", config: SamplingConfig{Strategy: SamplerRatio, Ratio: 0.0}},
		{name: "ratio strategy with ratio 1", config: SamplingConfig{Strategy: SamplerRatio, Ratio: 1.0}},
		{name: "invalid strategy", config: SamplingConfig{Strategy: "invalid"}, wantErr: true},
		{name: "invalid ratio - negative", config: SamplingConfig{Strategy: SamplerRatio, Ratio: -0.1}, wantErr: true},
		{name: "invalid ratio - too high", config: SamplingConfig{Strategy: SamplerRatio, Ratio: 1.5}, wantErr: true},
		{name: "deterministic without rate", config: SamplingConfig{Strategy: SamplerDeterministic}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSamplingConfig(tt.config)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateSamplingConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
