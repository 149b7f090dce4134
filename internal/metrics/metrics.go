// Package metrics holds Prometheus instruments that are used across the
// orchestration layer.  All collectors are registered with the global
// registry, so importing this package in main.go is enough to expose them
// on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	UpstreamCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upstream_calls_total",
			Help: "Site-builder API calls by endpoint and outcome (ok, error, aborted).",
		},
		[]string{"endpoint", "outcome"})

	UpstreamCallSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "upstream_call_seconds",
			Help:    "Site-builder API call latency by endpoint.",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 180},
		},
		[]string{"endpoint"})

	SiteCreationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "site_creations_total",
			Help: "Creation workflow runs by outcome (created, linked, collision, error).",
		},
		[]string{"outcome"})

	CreationAttempts = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "site_creation_attempts",
			Help:    "Upstream creation attempts consumed per successful workflow run.",
			Buckets: []float64{1, 2, 3, 4, 5},
		})

	ReconciliationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "site_reconciliations_total",
			Help: "Existence-reconciler runs by outcome (matched, missed, error).",
		},
		[]string{"outcome"})

	PipelineStepsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_steps_total",
			Help: "Generation pipeline step executions by step and outcome.",
		},
		[]string{"step", "outcome"})
)

func init() {
	prometheus.MustRegister(
		UpstreamCallsTotal,
		UpstreamCallSeconds,
		SiteCreationsTotal,
		CreationAttempts,
		ReconciliationsTotal,
		PipelineStepsTotal,
	)
}
