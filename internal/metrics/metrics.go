package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "creditgate"

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status_code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_in_flight",
			Help:      "Current number of HTTP requests being processed",
		},
	)
)

// Business metrics
var (
	// CreditDecisions counts gate outcomes. op is "check" or "consume";
	// tier keeps cardinality low (four values), identity keys are never
	// used as labels.
	CreditDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "credit_decisions_total",
			Help:      "Total credit gate decisions",
		},
		[]string{"op", "tier", "allowed"},
	)

	// BillingLookupFailures counts absorbed billing-provider errors.
	// These never surface to users, so this counter is the only way an
	// outage (and the resulting free-tier degradation) shows up.
	BillingLookupFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "billing_lookup_failures_total",
			Help:      "Total billing provider lookups that failed and fell back to the free tier",
		},
	)

	// LedgerErrors counts credit ledger storage failures (surfaced as 500s).
	LedgerErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_errors_total",
			Help:      "Total credit ledger storage failures",
		},
	)
)
