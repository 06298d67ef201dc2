package websocket

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ActiveConnections tracks whether the log stream is up.
	ActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sandwichd_ws_active_connections",
		Help: "Number of active WebSocket connections",
	})

	// ReconnectAttemptsTotal tracks reconnection attempts.
	ReconnectAttemptsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sandwichd_ws_reconnect_attempts_total",
		Help: "Total number of WebSocket reconnection attempts",
	})

	// ReconnectFailuresTotal tracks reconnection failures.
	ReconnectFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sandwichd_ws_reconnect_failures_total",
		Help: "Total number of WebSocket reconnection failures",
	})

	// ReconnectGapSeconds tracks stream downtime per outage. Records
	// emitted during the gap are lost, not replayed.
	ReconnectGapSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "sandwichd_ws_reconnect_gap_seconds",
		Help:    "Stream downtime per disconnect, during which records are missed",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
	})

	// RecordsReceivedTotal tracks log notifications received.
	RecordsReceivedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sandwichd_ws_records_received_total",
		Help: "Total number of log records received from the stream",
	})

	// RecordsDroppedTotal tracks records evicted under backpressure.
	RecordsDroppedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sandwichd_ws_records_dropped_total",
			Help: "Total number of log records dropped",
		},
		[]string{"reason"},
	)

	// SubscriptionCount tracks confirmed log subscriptions.
	SubscriptionCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sandwichd_ws_subscription_count",
		Help: "Number of confirmed logsSubscribe subscriptions",
	})

	// ConnectionDuration tracks connection lifetime before a drop.
	ConnectionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "sandwichd_ws_connection_duration_seconds",
		Help:    "Duration of WebSocket connections before disconnect",
		Buckets: []float64{60, 300, 600, 1800, 3600, 7200, 14400, 28800, 43200, 86400},
	})
)
