// Package metrics exposes Prometheus instrumentation for the warning
// engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WarningsIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fraudwatch_warnings_ingested_total",
			Help: "Total number of fraud warnings ingested",
		},
		[]string{"severity"},
	)

	LifecycleTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fraudwatch_lifecycle_transitions_total",
			Help: "Total number of warning lifecycle transitions applied",
		},
		[]string{"to_status"},
	)

	RefreshCycles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fraudwatch_refresh_cycles_total",
			Help: "Total refresh coordinator cycles by outcome",
		},
		[]string{"outcome"},
	)

	FeedEvictions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fraudwatch_feed_evictions_total",
			Help: "Total warnings evicted from the bounded feed view",
		},
	)

	WarningsHeld = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fraudwatch_warnings_held",
			Help: "Number of warnings currently held by the store",
		},
	)
)
