package websocket

import (
	"testing"
)

// TestMetrics_Registration tests all metrics are initialized
func TestMetrics_Registration(t *testing.T) {
	if ActiveConnections == nil {
		t.Error("ActiveConnections not registered")
	}

	if ReconnectAttemptsTotal == nil {
		t.Error("ReconnectAttemptsTotal not registered")
	}

	if ReconnectFailuresTotal == nil {
		t.Error("ReconnectFailuresTotal not registered")
	}

	if ReconnectGapSeconds == nil {
		t.Error("ReconnectGapSeconds not registered")
	}

	if RecordsReceivedTotal == nil {
		t.Error("RecordsReceivedTotal not registered")
	}

	if RecordsDroppedTotal == nil {
		t.Error("RecordsDroppedTotal not registered")
	}

	if SubscriptionCount == nil {
		t.Error("SubscriptionCount not registered")
	}

	if ConnectionDuration == nil {
		t.Error("ConnectionDuration not registered")
	}
}

// TestMetrics_CounterIncrement tests counter can be incremented
func TestMetrics_CounterIncrement(t *testing.T) {
	ReconnectAttemptsTotal.Inc()
	ReconnectFailuresTotal.Inc()
	RecordsReceivedTotal.Inc()
	RecordsDroppedTotal.WithLabelValues("buffer_full").Inc()
}

// TestMetrics_GaugeSet tests gauge can be set
func TestMetrics_GaugeSet(t *testing.T) {
	ActiveConnections.Set(1)
	SubscriptionCount.Set(1)
}

// TestMetrics_HistogramObserve tests histogram can observe values
func TestMetrics_HistogramObserve(t *testing.T) {
	ReconnectGapSeconds.Observe(0.5)
	ConnectionDuration.Observe(3600)
}

// TestMetrics_Labels tests label values are accepted
func TestMetrics_Labels(t *testing.T) {
	RecordsDroppedTotal.WithLabelValues("buffer_full").Inc()
	RecordsDroppedTotal.WithLabelValues("malformed").Inc()
}
