package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// RequestsTotal counts local API requests by method, path, status.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "commenter_requests_total",
			Help: "Total local API requests",
		},
		[]string{"method", "path", "status"},
	)

	// RequestDurationSeconds measures local API latency.
	RequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "commenter_request_duration_seconds",
			Help:    "Local API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// ClaimAttempts counts grab attempts by outcome
	// (accepted, conflict, cooldown, error).
	ClaimAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "commenter_claim_attempts_total",
			Help: "Claim attempts by outcome",
		},
		[]string{"outcome"},
	)

	// PoolRefreshes counts task pool fetches by outcome.
	PoolRefreshes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "commenter_pool_refreshes_total",
			Help: "Task pool fetches by outcome",
		},
		[]string{"outcome"},
	)

	// Submissions counts evidence submissions by outcome
	// (accepted, validation, error).
	Submissions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "commenter_submissions_total",
			Help: "Evidence submissions by outcome",
		},
		[]string{"outcome"},
	)

	// ReconcileRuns counts periodic claim reconciliations.
	ReconcileRuns = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "commenter_reconcile_runs_total",
			Help: "Periodic claim reconciliation runs",
		},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDurationSeconds,
		ClaimAttempts,
		PoolRefreshes,
		Submissions,
		ReconcileRuns,
	)
}
