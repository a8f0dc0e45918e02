// Package prometheus exposes the engine's operational metrics: per-stage
// durations, run outcomes, and cluster population statistics.  All metrics
// live in a private registry so embedding applications control exposure.
package prometheus

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Pipeline stage labels used with Metrics.ObserveStage.
const (
	StageLoad      = "load"
	StageDistances = "distances"
	StageCluster   = "cluster"
	StageConsensus = "consensus"
	StageFeatures  = "features"
	StageScoring   = "scoring"
)

// Run outcome labels.
const (
	OutcomeOK        = "ok"
	OutcomeError     = "error"
	OutcomeCancelled = "cancelled"
)

var stageDurationBuckets = []float64{.01, .05, .1, .5, 1, 5, 15, 60, 300}

// Metrics aggregates the engine's Prometheus instrumentation.  A nil
// *Metrics is a valid no-op receiver, so callers never need a guard.
type Metrics struct {
	registry *prometheus.Registry

	runsTotal      *prometheus.CounterVec
	stageDuration  *prometheus.HistogramVec
	posesPerRun    prometheus.Histogram
	clustersPerRun prometheus.Histogram
	lowConfidence  prometheus.Counter
}

// NewMetrics registers the engine metric set under the given namespace on a
// fresh private registry.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "ftmap"
	}
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		runsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Completed analysis runs by outcome.",
		}, []string{"outcome"}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Wall-clock duration of each pipeline stage.",
			Buckets:   stageDurationBuckets,
		}, []string{"stage"}),
		posesPerRun: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "poses_per_run",
			Help:      "Input pose count per analysis run.",
			Buckets:   []float64{10, 100, 1000, 10000, 50000, 100000},
		}),
		clustersPerRun: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "clusters_per_run",
			Help:      "Consensus cluster count per analysis run.",
			Buckets:   []float64{1, 2, 5, 10, 25, 50, 100},
		}),
		lowConfidence: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "low_confidence_runs_total",
			Help:      "Runs that fell back to a single-strategy consensus.",
		}),
	}
	registry.MustRegister(m.runsTotal, m.stageDuration, m.posesPerRun, m.clustersPerRun, m.lowConfidence)
	return m
}

// Handler serves the private registry for scraping.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// ObserveStage records one pipeline stage duration.
func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// RunFinished records the outcome and shape of one analysis run.
func (m *Metrics) RunFinished(outcome string, poses, clusters int) {
	if m == nil {
		return
	}
	m.runsTotal.WithLabelValues(outcome).Inc()
	if outcome == OutcomeOK {
		m.posesPerRun.Observe(float64(poses))
		m.clustersPerRun.Observe(float64(clusters))
	}
}

// LowConfidenceRun counts a degenerate-consensus fallback.
func (m *Metrics) LowConfidenceRun() {
	if m == nil {
		return
	}
	m.lowConfidence.Inc()
}

// Registry exposes the underlying registry for embedding extra collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}
