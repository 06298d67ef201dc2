package classifier

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RecordsClassifiedTotal tracks classification outcomes by venue.
	RecordsClassifiedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sandwichd_records_classified_total",
			Help: "Total number of log records classified, by venue",
		},
		[]string{"venue"},
	)
)
