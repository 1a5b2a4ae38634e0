package telemetry

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the experiment collectors on a private registry. The
// registry is flushed to a node-exporter textfile at the end of a run, since
// a batch process has no scrape endpoint.
//
// All methods are safe on a nil *Metrics, which records nothing.
type Metrics struct {
	registry *prometheus.Registry

	candidates   *prometheus.CounterVec
	failures     *prometheus.CounterVec
	clusterTime  *prometheus.HistogramVec
	correlations *prometheus.GaugeVec
	runs         prometheus.Counter
}

// NewMetrics creates and registers every collector.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		candidates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clustersearch",
			Name:      "candidates_total",
			Help:      "Configurations clustered and scored during search",
		}, []string{"algorithm"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clustersearch",
			Name:      "score_failures_total",
			Help:      "Candidates a criterion could not score",
		}, []string{"criterion"}),
		clusterTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "clustersearch",
			Name:      "cluster_seconds",
			Help:      "Wall time of a single clustering run",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 10),
		}, []string{"algorithm"}),
		correlations: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "clustersearch",
			Name:      "rank_correlation",
			Help:      "Best rank correlation against the reference ranking",
		}, []string{"strategy"}),
		runs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "clustersearch",
			Name:      "runs_total",
			Help:      "Completed experiment runs",
		}),
	}
	m.registry.MustRegister(m.candidates, m.failures, m.clusterTime, m.correlations, m.runs)
	return m
}

// Registry exposes the private registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveCandidate counts one evaluated configuration and its run time.
func (m *Metrics) ObserveCandidate(algorithm string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.candidates.WithLabelValues(algorithm).Inc()
	m.clusterTime.WithLabelValues(algorithm).Observe(elapsed.Seconds())
}

// ScoreFailed counts a candidate the criterion could not score.
func (m *Metrics) ScoreFailed(criterion string) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(criterion).Inc()
}

// SetCorrelation records the best correlation found by a ranking strategy.
func (m *Metrics) SetCorrelation(strategy string, v float64) {
	if m == nil {
		return
	}
	m.correlations.WithLabelValues(strategy).Set(v)
}

// RunCompleted counts a finished experiment run.
func (m *Metrics) RunCompleted() {
	if m == nil {
		return
	}
	m.runs.Inc()
}

// WriteTextfile writes every collected metric to path in the Prometheus
// text exposition format.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("telemetry: write metrics to %s: %w", path, err)
	}
	return nil
}
