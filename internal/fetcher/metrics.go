package fetcher

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FetchesTotal tracks fetch outcomes.
	FetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sandwichd_fetches_total",
			Help: "Total number of transaction fetches, by outcome",
		},
		[]string{"outcome"},
	)

	// FetchesDedupedTotal tracks fetches that shared another caller's
	// in-flight RPC result.
	FetchesDedupedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sandwichd_fetches_deduped_total",
		Help: "Total number of fetches coalesced into an in-flight call",
	})

	// FetchNotFoundRetriesTotal tracks not-yet-visible retries.
	FetchNotFoundRetriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sandwichd_fetch_not_found_retries_total",
		Help: "Total number of retries for transactions not yet visible",
	})

	// FetchDuration tracks end-to-end fetch latency including retries.
	FetchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "sandwichd_fetch_duration_seconds",
		Help:    "Transaction fetch duration including retries",
		Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	})
)
