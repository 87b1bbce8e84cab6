// Package metrics exposes scheduler observability through Prometheus.
package metrics

import (
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// Recorder registers and updates the scheduler's Prometheus metrics.
type Recorder struct {
	once           sync.Once
	registered     prom.Gauge
	firings        *prom.CounterVec
	parseFailures  prom.Counter
	publishErrors  prom.Counter
	searchDuration prom.Histogram
	catchupWindow  prom.Histogram
	reloads        *prom.CounterVec
}

// NewRecorder constructs and registers the scheduler metrics. Each call
// registers a new set, so calling it twice with the same registry panics.
func NewRecorder(reg *prom.Registry) *Recorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	r := &Recorder{}
	r.once.Do(func() {
		r.registered = prom.NewGauge(prom.GaugeOpts{
			Namespace: "nanocron",
			Name:      "schedules_registered",
			Help:      "Number of live schedule entries in the registry",
		})
		r.firings = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "nanocron",
			Name:      "firings_total",
			Help:      "Schedule firings by schedule name",
		}, []string{"schedule"})
		r.parseFailures = prom.NewCounter(prom.CounterOpts{
			Namespace: "nanocron",
			Name:      "parse_failures_total",
			Help:      "Schedule expressions rejected by the parser",
		})
		r.publishErrors = prom.NewCounter(prom.CounterOpts{
			Namespace: "nanocron",
			Name:      "publish_errors_total",
			Help:      "Trigger events that failed to publish",
		})
		r.searchDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: "nanocron",
			Name:      "next_trigger_search_seconds",
			Help:      "Duration of next-trigger searches",
			Buckets:   prom.DefBuckets,
		})
		r.catchupWindow = prom.NewHistogram(prom.HistogramOpts{
			Namespace: "nanocron",
			Name:      "catchup_window_seconds",
			Help:      "Replayed interval length per executor pass",
			Buckets:   prom.ExponentialBuckets(0.001, 10, 8),
		})
		r.reloads = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "nanocron",
			Name:      "config_reloads_total",
			Help:      "Configuration reloads by outcome",
		}, []string{"result"})
		reg.MustRegister(r.registered, r.firings, r.parseFailures, r.publishErrors,
			r.searchDuration, r.catchupWindow, r.reloads)
	})
	return r
}

// SetRegistered records the current number of live schedule entries.
func (r *Recorder) SetRegistered(n int) {
	r.registered.Set(float64(n))
}

// IncFiring counts one firing of the named schedule.
func (r *Recorder) IncFiring(schedule string) {
	r.firings.WithLabelValues(schedule).Inc()
}

// IncParseFailure counts one rejected expression.
func (r *Recorder) IncParseFailure() {
	r.parseFailures.Inc()
}

// IncPublishError counts one failed event publish.
func (r *Recorder) IncPublishError() {
	r.publishErrors.Inc()
}

// ObserveSearch records the duration of a next-trigger search.
func (r *Recorder) ObserveSearch(d time.Duration) {
	r.searchDuration.Observe(d.Seconds())
}

// ObserveCatchup records the replayed interval length of an executor pass.
func (r *Recorder) ObserveCatchup(d time.Duration) {
	r.catchupWindow.Observe(d.Seconds())
}

// IncReload counts one configuration reload with the given outcome.
func (r *Recorder) IncReload(result string) {
	r.reloads.WithLabelValues(result).Inc()
}
