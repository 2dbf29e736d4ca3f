// Package metrics provides metrics recording for oracle operations.
package metrics

import (
	"time"
)

// Recorder defines the interface for recording oracle call metrics.
type Recorder interface {
	// ObserveRequest records metrics for a completed oracle request.
	ObserveRequest(
		model, stage string,
		promptTokens, completionTokens int,
		success bool,
		errorType string,
		duration time.Duration,
	)

	// IncParseFallback increments the counter of structured outputs that
	// failed decoding and fell back to a default.
	IncParseFallback(model, stage string)
}

// NoopRecorder implements Recorder with no-op behavior for when metrics are disabled.
type NoopRecorder struct{}

// Nop returns a no-op metrics recorder that discards all metrics.
func Nop() Recorder {
	return &NoopRecorder{}
}

// ObserveRequest does nothing in the no-op recorder.
func (n *NoopRecorder) ObserveRequest(_, _ string, _, _ int, _ bool, _ string, _ time.Duration) {
}

// IncParseFallback does nothing in the no-op recorder.
func (n *NoopRecorder) IncParseFallback(_, _ string) {
}
