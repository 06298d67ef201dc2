package impact

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// EstimatesTotal tracks impact estimates by confidence grade.
	EstimatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sandwichd_impact_estimates_total",
			Help: "Total number of impact estimates, by confidence",
		},
		[]string{"confidence"},
	)

	// MCapDeltaPctObserved tracks estimated price moves in percent.
	MCapDeltaPctObserved = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "sandwichd_impact_mcap_delta_pct",
		Help:    "Estimated market-cap delta of observed swaps in percent",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 25, 50},
	})

	// SOLPriceUSD publishes the last polled SOL price.
	SOLPriceUSD = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sandwichd_sol_price_usd",
		Help: "Last known SOL/USD price",
	})

	// McapGateRejectionsTotal tracks pools screened out by market cap.
	McapGateRejectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sandwichd_mcap_gate_rejections_total",
			Help: "Total number of pools rejected by the market-cap gate",
		},
		[]string{"bound"},
	)
)
