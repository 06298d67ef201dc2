package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RecordOutcomesTotal tracks terminal states by state and reason.
	RecordOutcomesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sandwichd_record_outcomes_total",
			Help: "Total number of records by terminal state and reason",
		},
		[]string{"state", "reason"},
	)

	// PipelineDuration tracks end-to-end per-record latency.
	PipelineDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "sandwichd_pipeline_duration_seconds",
		Help:    "Per-record pipeline duration from receipt to verdict",
		Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	})

	// ActivePipelines tracks records currently in flight.
	ActivePipelines = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sandwichd_active_pipelines",
		Help: "Number of records currently being processed",
	})

	// AcceptedDroppedTotal tracks accepted opportunities dropped
	// because the outcome channel was full.
	AcceptedDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sandwichd_accepted_dropped_total",
		Help: "Accepted opportunities dropped due to a full outcome channel",
	})
)
