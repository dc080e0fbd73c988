package infra

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service collectors on a dedicated registry. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	registry      *prometheus.Registry
	stageDuration *prometheus.HistogramVec
	jobs          *prometheus.CounterVec
	passes        *prometheus.CounterVec
}

// NewMetrics registers the collectors plus the Go and process collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "artistry",
			Name:      "stage_duration_seconds",
			Help:      "Duration of workflow stages.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}, []string{"stage", "outcome"}),
		jobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "artistry",
			Name:      "jobs_total",
			Help:      "Jobs by status reached.",
		}, []string{"status"}),
		passes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "artistry",
			Name:      "inpaint_passes_total",
			Help:      "Inpainting passes by outcome.",
		}, []string{"outcome"}),
	}
	m.registry.MustRegister(
		m.stageDuration,
		m.jobs,
		m.passes,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveStage records how long a stage took and whether it failed.
func (m *Metrics) ObserveStage(stage string, started time.Time, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.stageDuration.WithLabelValues(stage, outcome).Observe(time.Since(started).Seconds())
}

// IncJob counts a job reaching status.
func (m *Metrics) IncJob(status string) {
	if m == nil {
		return
	}
	m.jobs.WithLabelValues(status).Inc()
}

// RecordPass counts one inpainting pass outcome (ok, skipped, failed).
func (m *Metrics) RecordPass(outcome string) {
	if m == nil {
		return
	}
	m.passes.WithLabelValues(outcome).Inc()
}

// Registry exposes the underlying registry, mostly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
