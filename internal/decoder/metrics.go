package decoder

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DecodesTotal tracks decode outcomes by venue.
	DecodesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sandwichd_decodes_total",
			Help: "Total number of swap decode attempts, by venue and outcome",
		},
		[]string{"venue", "outcome"},
	)
)
