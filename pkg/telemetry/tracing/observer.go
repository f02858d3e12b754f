package tracing

import "time"

// Reasons reported to Observer.ObserveDropped.
const (
	DropReasonUnsampled = "unsampled"
	DropReasonShutdown  = "shutdown"
)

// Observer receives pipeline and sampler outcomes. The metrics collector
// implements it; every method must be safe for concurrent use.
type Observer interface {
	// ObserveExport is called once per destination per exported span.
	// err is nil on success.
	ObserveExport(destination string, duration time.Duration, err error)

	// ObserveDropped is called for each ended span that is not exported.
	ObserveDropped(reason string)

	// ObserveSampling is called for each root sampling decision.
	ObserveSampling(decision string)
}

type nopObserver struct{}

func (nopObserver) ObserveExport(string, time.Duration, error) {}
func (nopObserver) ObserveDropped(string)                      {}
func (nopObserver) ObserveSampling(string)                     {}
