package types

import "time"

// ReserveSnapshot captures a pool's reserves at a point in time.
// ReserveIn/ReserveOut are oriented from the victim swap's perspective:
// ReserveIn holds the token the victim pays in.
type ReserveSnapshot struct {
	PoolID     string
	ReserveIn  uint64
	ReserveOut uint64
	MintIn     string
	MintOut    string
	Slot       uint64
	TakenAt    time.Time
}

// Age returns how old the snapshot is relative to now.
func (s ReserveSnapshot) Age(now time.Time) time.Duration {
	return now.Sub(s.TakenAt)
}

// SwapEffect is the venue-independent result of decoding a swap.
// Amounts are base units and always non-negative.
type SwapEffect struct {
	Signature      string
	Venue          Venue
	PoolID         string
	TokenIn        string
	AmountIn       uint64
	TokenOut       string
	AmountOut      uint64
	ReservesBefore ReserveSnapshot
}

// Confidence grades how much an impact estimate can be trusted,
// based on reserve snapshot age.
type Confidence string

const (
	ConfidenceHigh     Confidence = "high"
	ConfidenceDegraded Confidence = "degraded"
	ConfidenceStale    Confidence = "stale"
)

// ImpactEstimate is the estimated market effect of a victim swap.
// Prices are in input-token units per output token. MCapDeltaPct is
// the relative move of the victim's realized price versus pre-swap
// spot, in percent.
type ImpactEstimate struct {
	PoolID       string
	PriceBefore  float64
	PriceAfter   float64
	MCapDeltaPct float64
	SnapshotAge  time.Duration
	Confidence   Confidence
}
