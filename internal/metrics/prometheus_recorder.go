package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	compileDuration prom.Histogram
	compileOutcome  *prom.CounterVec
	documents       prom.Counter
	assets          prom.Counter
	watchEvents     prom.Counter
}

// NewPrometheusRecorder constructs and registers the mdsite metrics on reg.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		compileDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: "mdsite",
			Name:      "compile_duration_seconds",
			Help:      "Duration of compile passes",
			Buckets:   prom.DefBuckets,
		}),
		compileOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "mdsite",
			Name:      "compile_outcomes_total",
			Help:      "Compile passes by final outcome",
		}, []string{"outcome"}),
		documents: prom.NewCounter(prom.CounterOpts{
			Namespace: "mdsite",
			Name:      "documents_rendered_total",
			Help:      "Markdown documents rendered and written",
		}),
		assets: prom.NewCounter(prom.CounterOpts{
			Namespace: "mdsite",
			Name:      "assets_copied_total",
			Help:      "Asset files copied to the output tree",
		}),
		watchEvents: prom.NewCounter(prom.CounterOpts{
			Namespace: "mdsite",
			Name:      "watch_events_total",
			Help:      "File-system events accepted by the watch coordinator",
		}),
	}
	reg.MustRegister(pr.compileDuration, pr.compileOutcome, pr.documents, pr.assets, pr.watchEvents)
	return pr
}

func (p *PrometheusRecorder) ObserveCompileDuration(d time.Duration) {
	p.compileDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncCompileOutcome(outcome string) {
	p.compileOutcome.WithLabelValues(outcome).Inc()
}

func (p *PrometheusRecorder) AddDocumentsRendered(n int) {
	p.documents.Add(float64(n))
}

func (p *PrometheusRecorder) AddAssetsCopied(n int) {
	p.assets.Add(float64(n))
}

func (p *PrometheusRecorder) IncWatchEvents(n int) {
	p.watchEvents.Add(float64(n))
}
