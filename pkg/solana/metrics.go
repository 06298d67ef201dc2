package solana

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RPCRequestsTotal tracks RPC calls by method and outcome.
	RPCRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sandwichd_rpc_requests_total",
			Help: "Total number of Solana RPC requests",
		},
		[]string{"method", "status"},
	)

	// RPCRequestDuration tracks RPC round-trip latency by method.
	RPCRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sandwichd_rpc_request_duration_seconds",
			Help:    "Solana RPC request round-trip duration",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method"},
	)
)
