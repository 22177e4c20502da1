// Package metrics holds the Prometheus collectors of the service.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// HTTP layer
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// Ledger operations by type and outcome (accepted, pending, insufficient_funds, ...)
	LedgerOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_operations_total",
			Help: "Deposit and withdraw requests by outcome",
		},
		[]string{"type", "outcome"},
	)
	LedgerRetries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_contention_retries_total",
			Help: "Retries caused by wallet lock contention",
		},
		[]string{"type"},
	)
	SettlementTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_settlement_transitions_total",
			Help: "Transaction status moves applied by settlement",
		},
		[]string{"to"},
	)

	CacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_lookups_total",
			Help: "Read cache lookups by result",
		},
		[]string{"result"},
	)
	RateLimited = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limiter_blocked_total",
			Help: "Total requests blocked by the rate limiter",
		},
		[]string{"endpoint"},
	)
)

func init() {
	prometheus.MustRegister(
		HTTPRequests,
		HTTPDuration,
		LedgerOperations,
		LedgerRetries,
		SettlementTransitions,
		CacheLookups,
		RateLimited,
	)
}
