package circuitbreaker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// BreakerHealthy indicates whether fetches may hit the RPC endpoint.
	BreakerHealthy = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sandwichd_circuit_breaker_healthy",
		Help: "Whether the RPC circuit breaker allows fetches (1=closed/healthy, 0=open)",
	})

	// BreakerConsecutiveFailures tracks the current RPC failure streak.
	BreakerConsecutiveFailures = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sandwichd_circuit_breaker_consecutive_failures",
		Help: "Consecutive failed RPC round trips since the last success",
	})

	// BreakerStateChanges counts open/close transitions.
	BreakerStateChanges = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sandwichd_circuit_breaker_state_changes_total",
		Help: "Total number of times the RPC circuit breaker changed state",
	})

	// BreakerProbeDuration tracks the latency of health probe calls.
	BreakerProbeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "sandwichd_circuit_breaker_probe_duration_seconds",
		Help:    "Time taken by getSlot health probes while the breaker is open",
		Buckets: prometheus.DefBuckets,
	})
)
