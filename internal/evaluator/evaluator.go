// Package evaluator decides whether an estimated impact clears the
// cost of capturing it. The decision is a pure function of the effect,
// the estimate and the configured cost model.
package evaluator

import (
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/solscope/sandwichd/pkg/config"
	"github.com/solscope/sandwichd/pkg/types"
)

const bpsDenominator = 10_000

// Evaluator prices sandwich attempts against the cost model.
type Evaluator struct {
	cost   config.CostModel
	logger *zap.Logger
	now    func() time.Time
}

// Config holds evaluator configuration.
type Config struct {
	Cost   config.CostModel
	Logger *zap.Logger
}

// New creates an evaluator.
func New(cfg Config) *Evaluator {
	return &Evaluator{
		cost:   cfg.Cost,
		logger: cfg.Logger,
		now:    time.Now,
	}
}

// Evaluate accepts the candidate iff estimated profit exceeds
// estimated cost plus a safety margin. The margin scales inversely
// with confidence: degraded estimates must clear a higher bar, and
// stale ones are rejected outright rather than priced.
func (e *Evaluator) Evaluate(effect *types.SwapEffect, estimate *types.ImpactEstimate) *types.Opportunity {
	opp := e.newOpportunity(effect, estimate)

	if estimate.Confidence == types.ConfidenceStale {
		opp.Decision = types.DecisionReject
		opp.Reason = types.ReasonLowConfidence
		OpportunitiesRejectedTotal.WithLabelValues(opp.Reason).Inc()
		return opp
	}

	position := e.cost.PositionSizeLamports
	profit := scaleByPct(position, math.Abs(estimate.MCapDeltaPct))
	cost := e.roundTripCost(position)
	margin := e.safetyMargin(position, estimate.Confidence)

	opp.EstimatedProfit = profit
	opp.EstimatedCost = cost
	opp.SafetyMargin = margin

	if profit > cost+margin {
		opp.Decision = types.DecisionAccept
		OpportunitiesAcceptedTotal.Inc()
		NetProfitLamports.Observe(float64(profit - cost))
		e.logger.Info("opportunity-accepted",
			zap.String("signature", effect.Signature),
			zap.String("pool", effect.PoolID),
			zap.Float64("mcap-delta-pct", estimate.MCapDeltaPct),
			zap.Uint64("profit-lamports", profit),
			zap.Uint64("cost-lamports", cost))
		return opp
	}

	opp.Decision = types.DecisionReject
	opp.Reason = types.ReasonLowMargin
	OpportunitiesRejectedTotal.WithLabelValues(opp.Reason).Inc()
	return opp
}

// Reject builds a rejected opportunity for reasons decided upstream,
// keeping the stored record shape uniform.
func (e *Evaluator) Reject(effect *types.SwapEffect, estimate *types.ImpactEstimate, reason string) *types.Opportunity {
	opp := e.newOpportunity(effect, estimate)
	opp.Decision = types.DecisionReject
	opp.Reason = reason
	OpportunitiesRejectedTotal.WithLabelValues(reason).Inc()
	return opp
}

func (e *Evaluator) newOpportunity(effect *types.SwapEffect, estimate *types.ImpactEstimate) *types.Opportunity {
	opp := &types.Opportunity{
		ID:         uuid.New().String(),
		Signature:  effect.Signature,
		Venue:      effect.Venue,
		PoolID:     effect.PoolID,
		DetectedAt: e.now(),
	}
	if estimate != nil {
		opp.MCapDeltaPct = estimate.MCapDeltaPct
		opp.Confidence = estimate.Confidence
	}
	return opp
}

// roundTripCost prices the two bracketing trades: swap fees on both
// legs, expected slippage on the position, and a priority fee per
// transaction.
func (e *Evaluator) roundTripCost(position uint64) uint64 {
	fees := 2 * scaleByBps(position, e.cost.FeeBps)
	slippage := scaleByBps(position, e.cost.SlippageBps)
	priority := 2 * e.cost.PriorityFeeLamports
	return fees + slippage + priority
}

// safetyMargin doubles for degraded confidence.
func (e *Evaluator) safetyMargin(position uint64, confidence types.Confidence) uint64 {
	margin := scaleByBps(position, e.cost.BaseMarginBps)
	if confidence == types.ConfidenceDegraded {
		margin *= 2
	}
	return margin
}

func scaleByBps(amount uint64, bps int) uint64 {
	return amount * uint64(bps) / bpsDenominator
}

func scaleByPct(amount uint64, pct float64) uint64 {
	if pct <= 0 {
		return 0
	}
	return uint64(float64(amount) * pct / 100)
}
