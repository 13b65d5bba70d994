// Copyright (c) 2025 anirudhqwerty.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/anirudhqwerty/kastack-project/models"
)

const namespace = "olist"

// Pipeline stages reported in the rows gauge
const (
	StageExtracted = "extracted"
	StageJoined    = "joined"
	StageExcluded  = "excluded"
	StageLoaded    = "loaded"
)

// Metrics holds every collector of the service.
type Metrics struct {
	registry prometheus.Gatherer

	RunsTotal     *prometheus.CounterVec
	RunDuration   prometheus.Histogram
	Rows          *prometheus.GaugeVec
	ExcludedTotal *prometheus.CounterVec
	LastSuccess   prometheus.Gauge
	HTTPRequests  *prometheus.CounterVec
	HTTPDuration  *prometheus.HistogramVec
}

// New creates the collectors and registers them on a fresh registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.NewRegistry())
}

// NewWithRegistry registers the collectors on reg.
func NewWithRegistry(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		registry: reg,
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Pipeline runs by final status.",
		}, []string{"status"}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "run_duration_seconds",
			Help:      "Wall time of pipeline runs that were not skipped.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600},
		}),
		Rows: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "rows",
			Help:      "Row counts of the last completed run by stage.",
		}, []string{"stage"}),
		ExcludedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "excluded_rows_total",
			Help:      "Source rows excluded from the master table by reason.",
		}, []string{"reason"}),
		LastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful run.",
		}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "API requests by method, route and status code.",
		}, []string{"method", "route", "code"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "API request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	reg.MustRegister(
		m.RunsTotal,
		m.RunDuration,
		m.Rows,
		m.ExcludedTotal,
		m.LastSuccess,
		m.HTTPRequests,
		m.HTTPDuration,
	)
	return m
}

// ObserveRun records a finished pipeline run.
func (m *Metrics) ObserveRun(run models.RunSummary) {
	m.RunsTotal.WithLabelValues(run.Status).Inc()
	if run.Status == models.RunStatusSkipped {
		return
	}
	m.RunDuration.Observe(float64(run.DurationMS) / 1000)

	for reason, n := range run.ExcludedBy {
		m.ExcludedTotal.WithLabelValues(reason).Add(float64(n))
	}
	if !run.Succeeded() {
		return
	}

	var extracted int
	for _, n := range run.Extracted {
		extracted += n
	}
	var loaded int64
	for _, n := range run.Loaded {
		loaded += n
	}
	m.Rows.WithLabelValues(StageExtracted).Set(float64(extracted))
	m.Rows.WithLabelValues(StageJoined).Set(float64(run.Joined))
	m.Rows.WithLabelValues(StageExcluded).Set(float64(run.Excluded))
	m.Rows.WithLabelValues(StageLoaded).Set(float64(loaded))
	m.LastSuccess.Set(float64(run.FinishedAt.Unix()))
}

// ObserveRequest records one API request.
func (m *Metrics) ObserveRequest(method, route string, code int, elapsed time.Duration) {
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
