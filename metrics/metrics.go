// Package metrics provides Prometheus metrics for jellyrequest runs.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/s0up4200/jellyrequest/reconcile"
)

const (
	// Namespace for all jellyrequest metrics
	namespace = "jellyrequest"
)

// Run results used as the "result" label of RunsTotal
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// Recorder owns the collectors and the registry they are exposed through
type Recorder struct {
	registry *prometheus.Registry

	// RunsTotal tracks completed runs by result
	RunsTotal *prometheus.CounterVec
	// ItemsTotal tracks per-title outcomes
	ItemsTotal *prometheus.CounterVec
	// RunDuration tracks how long a run takes
	RunDuration prometheus.Histogram
	// LastRun is the unix time the last run finished
	LastRun prometheus.Gauge
	// ExtractedMovies is the number of movies the last run extracted
	ExtractedMovies prometheus.Gauge
}

// New creates a Recorder with its own registry, including Go and process collectors
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		RunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_total",
				Help:      "Total number of reconciliation runs",
			},
			[]string{"result"},
		),
		ItemsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "items_total",
				Help:      "Total number of listing titles processed, by outcome",
			},
			[]string{"outcome"},
		),
		RunDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "run_duration_seconds",
				Help:      "Duration of reconciliation runs in seconds",
				Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
			},
		),
		LastRun: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_run_timestamp_seconds",
				Help:      "Unix timestamp of the last finished run",
			},
		),
		ExtractedMovies: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "extracted_movies",
				Help:      "Number of movies extracted from the listing by the last run",
			},
		),
	}

	r.registry.MustRegister(
		r.RunsTotal,
		r.ItemsTotal,
		r.RunDuration,
		r.LastRun,
		r.ExtractedMovies,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	// Expose every outcome from the first scrape
	for _, o := range reconcile.Outcomes {
		r.ItemsTotal.WithLabelValues(o.String())
	}
	r.RunsTotal.WithLabelValues(ResultSuccess)
	r.RunsTotal.WithLabelValues(ResultFailure)

	return r
}

// Registry returns the registry the collectors are registered with
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// ObserveRun records a finished run. A nil Recorder is a no-op.
func (r *Recorder) ObserveRun(result *reconcile.Result, runErr error) {
	if r == nil || result == nil {
		return
	}

	label := ResultSuccess
	if runErr != nil {
		label = ResultFailure
	}
	r.RunsTotal.WithLabelValues(label).Inc()

	for _, o := range reconcile.Outcomes {
		if n := result.Count(o); n > 0 {
			r.ItemsTotal.WithLabelValues(o.String()).Add(float64(n))
		}
	}

	r.ExtractedMovies.Set(float64(result.Total))
	r.RunDuration.Observe(result.Duration().Seconds())

	finished := result.FinishedAt
	if finished.IsZero() {
		finished = time.Now()
	}
	r.LastRun.Set(float64(finished.Unix()))
}
