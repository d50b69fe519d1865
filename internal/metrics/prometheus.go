package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder exposes scan and provider metrics. A nil *Recorder is a valid no-op.
type Recorder struct {
	scans          prometheus.Counter
	symbols        *prometheus.CounterVec
	fetchLatency   *prometheus.HistogramVec
	fetchErrors    *prometheus.CounterVec
	explainLatency prometheus.Histogram
}

// New registers the FlowRadar metrics on reg.
func New(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		scans: f.NewCounter(prometheus.CounterOpts{
			Namespace: "flowradar",
			Name:      "scans_total",
			Help:      "Universe scans run",
		}),
		symbols: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "flowradar",
			Name:      "scan_symbols_total",
			Help:      "Symbols processed by universe scans, by status and skip reason",
		}, []string{"status", "reason"}),
		fetchLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "flowradar",
			Name:      "fetch_duration_seconds",
			Help:      "Price series fetch latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"provider"}),
		fetchErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "flowradar",
			Name:      "fetch_errors_total",
			Help:      "Failed price series fetches",
		}, []string{"provider"}),
		explainLatency: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "flowradar",
			Name:      "explain_duration_seconds",
			Help:      "Narrative explanation latency",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

// RecordScan counts one universe scan.
func (r *Recorder) RecordScan() {
	if r == nil {
		return
	}
	r.scans.Inc()
}

// RecordSymbol counts one symbol outcome.
func (r *Recorder) RecordSymbol(status, reason string) {
	if r == nil {
		return
	}
	r.symbols.WithLabelValues(status, reason).Inc()
}

// ObserveFetch records a provider call.
func (r *Recorder) ObserveFetch(provider string, d time.Duration, err error) {
	if r == nil {
		return
	}
	r.fetchLatency.WithLabelValues(provider).Observe(d.Seconds())
	if err != nil {
		r.fetchErrors.WithLabelValues(provider).Inc()
	}
}

// ObserveExplain records an explanation run.
func (r *Recorder) ObserveExplain(d time.Duration) {
	if r == nil {
		return
	}
	r.explainLatency.Observe(d.Seconds())
}
