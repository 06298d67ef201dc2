package evaluator

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// OpportunitiesAcceptedTotal tracks accepted opportunities.
	OpportunitiesAcceptedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sandwichd_opportunities_accepted_total",
		Help: "Total number of accepted sandwich opportunities",
	})

	// OpportunitiesRejectedTotal tracks rejections by reason.
	OpportunitiesRejectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sandwichd_opportunities_rejected_total",
			Help: "Total number of rejected sandwich opportunities",
		},
		[]string{"reason"},
	)

	// NetProfitLamports tracks estimated net profit of accepted
	// opportunities.
	NetProfitLamports = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "sandwichd_net_profit_lamports",
		Help:    "Estimated net profit of accepted opportunities in lamports",
		Buckets: prometheus.ExponentialBuckets(100_000, 4, 10),
	})
)
