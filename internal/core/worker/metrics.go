package worker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	dispatchAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "reload_gateway",
			Name:      "dispatch_attempts_total",
			Help:      "Reload attempts by network and outcome.",
		},
		[]string{"network", "outcome"},
	)

	dispatchAttemptDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "reload_gateway",
			Name:      "dispatch_attempt_duration_seconds",
			Help:      "Wall time of a single reload attempt, routing included.",
			Buckets:   []float64{.1, .5, 1, 2.5, 5, 10, 15, 30, 45, 60, 90},
		},
		[]string{"network"},
	)

	transactionsSettledTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "reload_gateway",
			Name:      "transactions_settled_total",
			Help:      "Transactions that reached a terminal status.",
		},
		[]string{"status"},
	)

	queueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "reload_gateway",
			Name:      "queue_depth",
			Help:      "Transactions waiting in the dispatch queue.",
		},
	)

	dispatchInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "reload_gateway",
			Name:      "dispatch_in_flight",
			Help:      "1 while an attempt is running.",
		},
	)
)
