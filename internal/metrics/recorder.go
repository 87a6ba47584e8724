// Package metrics defines observability hooks for compile passes and the
// watch loop. Implementations may forward to Prometheus or stay silent; the
// NoopRecorder is the default when metrics are not configured.
package metrics

import "time"

// Recorder receives compile and watch observations. All methods must be
// cheap and safe to call from the compile path.
type Recorder interface {
	ObserveCompileDuration(d time.Duration)
	IncCompileOutcome(outcome string) // success|warning|failed
	AddDocumentsRendered(n int)
	AddAssetsCopied(n int)
	IncWatchEvents(n int)
}

// NoopRecorder is a Recorder that does nothing.
type NoopRecorder struct{}

func (NoopRecorder) ObserveCompileDuration(time.Duration) {}
func (NoopRecorder) IncCompileOutcome(string)             {}
func (NoopRecorder) AddDocumentsRendered(int)             {}
func (NoopRecorder) AddAssetsCopied(int)                  {}
func (NoopRecorder) IncWatchEvents(int)                   {}
