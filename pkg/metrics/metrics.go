// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "ledger"

// TransactionsCreated counts transactions recorded, by type and initial status.
var TransactionsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "transactions",
	Name:      "created_total",
	Help:      "Total transactions recorded.",
}, []string{"type", "status"})

// StatusTransitions counts applied status changes.
var StatusTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "transactions",
	Name:      "transitions_total",
	Help:      "Total transaction status transitions, by source and target status.",
}, []string{"from", "to"})

// Reversals counts compensating credits.
var Reversals = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "transactions",
	Name:      "reversals_total",
	Help:      "Total reversed transactions.",
})

// ConflictRetries counts optimistic writes that lost a race and were retried.
var ConflictRetries = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "ledger",
	Name:      "conflict_retries_total",
	Help:      "Total optimistic concurrency retries, by operation.",
}, []string{"operation"})

// AccrualTicks counts scheduler ticks by result (ok, skipped, error).
var AccrualTicks = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "accrual",
	Name:      "ticks_total",
	Help:      "Total accrual ticks.",
}, []string{"result"})

// AccrualDuration observes how long a tick takes.
var AccrualDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: namespace,
	Subsystem: "accrual",
	Name:      "tick_duration_seconds",
	Help:      "Duration of an accrual tick.",
	Buckets:   prometheus.DefBuckets,
})

// ProfitAccrued sums the profit credited by the accrual clock.
var ProfitAccrued = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "accrual",
	Name:      "profit_total",
	Help:      "Total profit credited by accrual.",
})

// ActiveContracts is the number of active contracts seen by the last tick.
var ActiveContracts = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: namespace,
	Subsystem: "accrual",
	Name:      "active_contracts",
	Help:      "Active investment contracts at the last tick.",
})

// ContractsMatured counts contracts that reached their end date.
var ContractsMatured = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "accrual",
	Name:      "matured_total",
	Help:      "Total contracts completed at maturity.",
})

// HTTPRequests counts API requests by route and status code.
var HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "http",
	Name:      "requests_total",
	Help:      "Total HTTP requests.",
}, []string{"method", "route", "code"})
