package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthAttempts records authentication attempts by result (success|failure).
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rotaiq_auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
		[]string{"result"},
	)

	// AuthzDecisions counts authorization checks and their outcome (allow|deny).
	AuthzDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rotaiq_authz_decisions_total",
			Help: "Total number of authorization decisions",
		},
		[]string{"action", "result"},
	)

	// ShiftTransitions counts shift state-machine transitions by kind
	// (claim|approve|decline|assign|close).
	ShiftTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rotaiq_shift_transitions_total",
			Help: "Total number of shift lifecycle transitions",
		},
		[]string{"transition", "result"},
	)

	// InvitationsIssued counts invitation tokens generated.
	InvitationsIssued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rotaiq_invitations_issued_total",
			Help: "Total number of invitations issued",
		},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rotaiq_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
