package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// collection pipeline.
type Metrics struct {
	FeedCollections *prometheus.CounterVec // labels: feed, outcome={live,mock,cache,miss}
	FetchRetries    *prometheus.CounterVec // labels: feed
	RecordsAppended *prometheus.CounterVec // labels: stream
	AlertsEmitted   *prometheus.CounterVec // labels: stream
	NotifyErrors    *prometheus.CounterVec // labels: sink

	CycleDuration  prometheus.Histogram
	CycleErrors    prometheus.Counter
	MonitorRunning prometheus.Gauge
}

// NewMetrics creates and registers all monitor metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.FeedCollections,
		m.FetchRetries,
		m.RecordsAppended,
		m.AlertsEmitted,
		m.NotifyErrors,
		m.CycleDuration,
		m.CycleErrors,
		m.MonitorRunning,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		FeedCollections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hk_monitor",
			Name:      "feed_collections_total",
			Help:      "Feed collection attempts by feed and outcome.",
		}, []string{"feed", "outcome"}),
		FetchRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hk_monitor",
			Name:      "fetch_retries_total",
			Help:      "Retried fetch attempts by feed.",
		}, []string{"feed"}),
		RecordsAppended: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hk_monitor",
			Name:      "records_appended_total",
			Help:      "Records persisted to each stream.",
		}, []string{"stream"}),
		AlertsEmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hk_monitor",
			Name:      "alerts_emitted_total",
			Help:      "Category-change alerts emitted per stream.",
		}, []string{"stream"}),
		NotifyErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hk_monitor",
			Name:      "notify_errors_total",
			Help:      "Alert delivery failures by sink.",
		}, []string{"sink"}),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "hk_monitor",
			Name:      "cycle_duration_seconds",
			Help:      "Duration of a complete collection cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}),
		CycleErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hk_monitor",
			Name:      "cycle_errors_total",
			Help:      "Cycles that failed on a store or detector error.",
		}),
		MonitorRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "hk_monitor",
			Name:      "running",
			Help:      "1 while the monitor process is up.",
		}),
	}
}
