package evaluator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/solscope/sandwichd/pkg/config"
	"github.com/solscope/sandwichd/pkg/types"
)

func defaultCost() config.CostModel {
	return config.CostModel{
		FeeBps:               25,
		SlippageBps:          200,
		PriorityFeeLamports:  500_000,
		PositionSizeLamports: 670_000_000,
		BaseMarginBps:        50,
	}
}

func newTestEvaluator(cost config.CostModel) *Evaluator {
	logger, _ := zap.NewDevelopment()
	return New(Config{Cost: cost, Logger: logger})
}

func testEffect() *types.SwapEffect {
	return &types.SwapEffect{
		Signature: "sig",
		Venue:     types.VenueRaydium,
		PoolID:    "pool1",
		AmountIn:  10_000_000_000,
	}
}

func estimate(deltaPct float64, confidence types.Confidence) *types.ImpactEstimate {
	return &types.ImpactEstimate{
		PoolID:       "pool1",
		PriceBefore:  20.0,
		PriceAfter:   20.0 * (1 + deltaPct/100),
		MCapDeltaPct: deltaPct,
		Confidence:   confidence,
	}
}

func TestEvaluate_WorkedScenarioRejectsLowMargin(t *testing.T) {
	// A 1% move on a 0.67 SOL position earns 6.7M lamports; fees,
	// slippage and priority fees cost 17.75M. Clear rejection.
	e := newTestEvaluator(defaultCost())

	opp := e.Evaluate(testEffect(), estimate(1.0, types.ConfidenceHigh))

	assert.Equal(t, types.DecisionReject, opp.Decision)
	assert.Equal(t, types.ReasonLowMargin, opp.Reason)
	assert.Equal(t, uint64(6_700_000), opp.EstimatedProfit)
	assert.Equal(t, uint64(17_750_000), opp.EstimatedCost)
	assert.False(t, opp.Accepted())
}

func TestEvaluate_AcceptsWhenProfitClearsCostAndMargin(t *testing.T) {
	e := newTestEvaluator(defaultCost())

	// 5% move: 33.5M profit vs 17.75M cost + 3.35M margin.
	opp := e.Evaluate(testEffect(), estimate(5.0, types.ConfidenceHigh))

	require.Equal(t, types.DecisionAccept, opp.Decision)
	assert.Empty(t, opp.Reason)
	assert.True(t, opp.Accepted())
	assert.NotEmpty(t, opp.ID)
	assert.Equal(t, "sig", opp.Signature)
}

func TestEvaluate_StaleAlwaysRejectedBeforePricing(t *testing.T) {
	e := newTestEvaluator(defaultCost())

	// Even an enormous move is rejected on stale data.
	opp := e.Evaluate(testEffect(), estimate(50.0, types.ConfidenceStale))

	assert.Equal(t, types.DecisionReject, opp.Decision)
	assert.Equal(t, types.ReasonLowConfidence, opp.Reason)
	assert.Zero(t, opp.EstimatedProfit, "stale candidates are not priced")
}

func TestEvaluate_DegradedConfidenceDoublesMargin(t *testing.T) {
	cost := defaultCost()
	cost.SlippageBps = 0
	cost.PriorityFeeLamports = 0
	// Cost is now just 2x25bps fees = 3.35M; margin 3.35M (high) or
	// 6.7M (degraded). A 1.2% move earns 8.04M: clears high-confidence
	// margin but not the degraded one.
	e := newTestEvaluator(cost)

	accepted := e.Evaluate(testEffect(), estimate(1.2, types.ConfidenceHigh))
	assert.Equal(t, types.DecisionAccept, accepted.Decision)

	rejected := e.Evaluate(testEffect(), estimate(1.2, types.ConfidenceDegraded))
	assert.Equal(t, types.DecisionReject, rejected.Decision)
	assert.Equal(t, types.ReasonLowMargin, rejected.Reason)
}

func TestEvaluate_NegativeDeltaUsesMagnitude(t *testing.T) {
	e := newTestEvaluator(defaultCost())

	// A sell pushing price down is as sandwichable as a buy pushing
	// it up; magnitude decides.
	up := e.Evaluate(testEffect(), estimate(5.0, types.ConfidenceHigh))
	down := e.Evaluate(testEffect(), estimate(-5.0, types.ConfidenceHigh))

	assert.Equal(t, up.Decision, down.Decision)
	assert.Equal(t, up.EstimatedProfit, down.EstimatedProfit)
}

func TestEvaluate_Deterministic(t *testing.T) {
	e := newTestEvaluator(defaultCost())
	effect := testEffect()
	est := estimate(2.5, types.ConfidenceHigh)

	first := e.Evaluate(effect, est)
	for i := 0; i < 10; i++ {
		again := e.Evaluate(effect, est)
		assert.Equal(t, first.Decision, again.Decision)
		assert.Equal(t, first.Reason, again.Reason)
		assert.Equal(t, first.EstimatedProfit, again.EstimatedProfit)
		assert.Equal(t, first.EstimatedCost, again.EstimatedCost)
	}
}

func TestReject_BuildsUniformRecord(t *testing.T) {
	e := newTestEvaluator(defaultCost())

	opp := e.Reject(testEffect(), estimate(3.0, types.ConfidenceHigh), types.ReasonMcapOutOfRange)

	assert.Equal(t, types.DecisionReject, opp.Decision)
	assert.Equal(t, types.ReasonMcapOutOfRange, opp.Reason)
	assert.Equal(t, types.VenueRaydium, opp.Venue)
	assert.InDelta(t, 3.0, opp.MCapDeltaPct, 1e-9)
}
