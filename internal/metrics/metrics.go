// Package metrics holds the Prometheus collectors shared by the curator domains.
// Collectors register with the default registry on package init and are served
// by the /metrics endpoint of cmd/server.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ComparisonsTotal counts comparison outcomes by result (applied, duplicate, rejected).
	ComparisonsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "curator_comparisons_total",
		Help: "Comparisons processed by result",
	}, []string{"result"})

	// RatingRebuilds counts replays of the comparison log.
	RatingRebuilds = promauto.NewCounter(prometheus.CounterOpts{
		Name: "curator_rating_rebuilds_total",
		Help: "Rating cache rebuilds from the comparison log",
	})

	// ReconcileRuns counts reconciliation runs by outcome (ok, failed, busy, dry_run).
	ReconcileRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "curator_reconcile_runs_total",
		Help: "Reconciliation runs by outcome",
	}, []string{"outcome"})

	// ReconcileTransitions counts applied lifecycle transitions by target status.
	ReconcileTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "curator_reconcile_transitions_total",
		Help: "Lifecycle transitions applied by reconciliation",
	}, []string{"to"})

	// ReconcileDuration tracks wall time of a full reconciliation run.
	ReconcileDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "curator_reconcile_duration_seconds",
		Help:    "Reconciliation run duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~40s
	})

	// QueryDuration tracks read latency of the sampler and search index.
	QueryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "curator_query_duration_seconds",
		Help:    "Sampler and search query duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
	}, []string{"kind"})
)

// HTTPDuration tracks API request latency by method and status code.
var HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "curator_http_request_duration_seconds",
	Help:    "API request duration in seconds",
	Buckets: prometheus.DefBuckets,
}, []string{"method", "code"})

// ObserveQuery records the elapsed time since start under kind.
func ObserveQuery(kind string, start time.Time) {
	QueryDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
}
