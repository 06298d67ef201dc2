// Package impact estimates the market effect of a decoded swap using
// constant-product math over the pool's reserve snapshot.
package impact

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/solscope/sandwichd/pkg/cache"
	"github.com/solscope/sandwichd/pkg/types"
)

var hundred = decimal.NewFromInt(100)

// Estimator turns swap effects into impact estimates. Snapshots are
// also published to a shared cache, latest slot wins, so other
// consumers see the freshest known reserves per pool.
type Estimator struct {
	stalenessThreshold time.Duration
	snapshots          cache.Cache
	logger             *zap.Logger
	now                func() time.Time
}

// Config holds estimator configuration.
type Config struct {
	StalenessThreshold time.Duration
	SnapshotCache      cache.Cache
	Logger             *zap.Logger
}

// New creates an estimator.
func New(cfg Config) *Estimator {
	return &Estimator{
		stalenessThreshold: cfg.StalenessThreshold,
		snapshots:          cfg.SnapshotCache,
		logger:             cfg.Logger,
		now:                time.Now,
	}
}

// Estimate computes the price move caused by the swap.
//
// price_before is the pre-swap spot price of the output token in
// input-token units (reserve_in / reserve_out). price_after is the
// victim's realized average execution price under constant-product:
// delta_out = reserve_out * delta_in / (reserve_in + delta_in), so
// delta_in / delta_out = (reserve_in + delta_in) / reserve_out. The
// relative move therefore reduces to delta_in / reserve_in.
//
// Confidence grades the snapshot's age against the staleness
// threshold; a stale snapshot is still estimated, never guessed past.
func (e *Estimator) Estimate(effect *types.SwapEffect) (*types.ImpactEstimate, error) {
	snap := effect.ReservesBefore

	if snap.ReserveIn == 0 || snap.ReserveOut == 0 {
		return nil, fmt.Errorf("pool %s: zero reserve in snapshot", snap.PoolID)
	}
	if effect.AmountIn == 0 {
		return nil, fmt.Errorf("pool %s: zero input amount", snap.PoolID)
	}

	reserveIn := decimal.NewFromUint64(snap.ReserveIn)
	reserveOut := decimal.NewFromUint64(snap.ReserveOut)
	amountIn := decimal.NewFromUint64(effect.AmountIn)

	priceBefore := reserveIn.Div(reserveOut)
	priceAfter := reserveIn.Add(amountIn).Div(reserveOut)
	deltaPct := priceAfter.Sub(priceBefore).Div(priceBefore).Mul(hundred)

	age := snap.Age(e.now())
	confidence := e.gradeConfidence(age)

	e.publishSnapshot(snap)

	estimate := &types.ImpactEstimate{
		PoolID:       snap.PoolID,
		PriceBefore:  priceBefore.InexactFloat64(),
		PriceAfter:   priceAfter.InexactFloat64(),
		MCapDeltaPct: deltaPct.InexactFloat64(),
		SnapshotAge:  age,
		Confidence:   confidence,
	}

	EstimatesTotal.WithLabelValues(string(confidence)).Inc()
	MCapDeltaPctObserved.Observe(estimate.MCapDeltaPct)

	return estimate, nil
}

// gradeConfidence degrades monotonically with snapshot age: High
// below half the threshold, Degraded below it, Stale at or past it.
func (e *Estimator) gradeConfidence(age time.Duration) types.Confidence {
	switch {
	case age >= e.stalenessThreshold:
		return types.ConfidenceStale
	case age >= e.stalenessThreshold/2:
		return types.ConfidenceDegraded
	default:
		return types.ConfidenceHigh
	}
}

// publishSnapshot stores the snapshot unless the cache already holds
// a newer one for the pool.
func (e *Estimator) publishSnapshot(snap types.ReserveSnapshot) {
	if e.snapshots == nil {
		return
	}

	key := "reserves:" + snap.PoolID
	if existing, found := e.snapshots.Get(key); found {
		if prev, ok := existing.(types.ReserveSnapshot); ok && prev.Slot > snap.Slot {
			return
		}
	}

	e.snapshots.Set(key, snap, 2*e.stalenessThreshold)
}

// LatestSnapshot returns the freshest cached snapshot for a pool.
func (e *Estimator) LatestSnapshot(poolID string) (types.ReserveSnapshot, bool) {
	if e.snapshots == nil {
		return types.ReserveSnapshot{}, false
	}
	v, found := e.snapshots.Get("reserves:" + poolID)
	if !found {
		return types.ReserveSnapshot{}, false
	}
	snap, ok := v.(types.ReserveSnapshot)
	return snap, ok
}
