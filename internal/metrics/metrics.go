// Package metrics holds the prometheus collectors shared across the service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// StoreOperations counts container operations by name and outcome
	StoreOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "storefront",
			Name:      "store_operations_total",
			Help:      "Store state container operations",
		},
		[]string{"operation", "outcome"},
	)

	// SnapshotFailures counts snapshot reads and writes that failed
	SnapshotFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "storefront",
			Name:      "snapshot_failures_total",
			Help:      "Failed snapshot loads, saves and deletes",
		},
		[]string{"snapshot", "action"},
	)

	// ActiveSessions tracks containers currently held in memory
	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "storefront",
			Name:      "active_sessions",
			Help:      "Store containers held in memory",
		},
	)

	// OrdersPlaced counts successful checkouts
	OrdersPlaced = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "storefront",
			Name:      "orders_placed_total",
			Help:      "Orders placed through checkout",
		},
	)
)

// Outcome labels
const (
	OutcomeApplied = "applied"
	OutcomeNoop    = "noop"
	OutcomeFailed  = "failed"
)
