package pipeline

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/solscope/sandwichd/pkg/types"
)

type fakeClassifier struct {
	venue types.Venue
}

func (f *fakeClassifier) Classify(record *types.LogRecord) types.Venue {
	return f.venue
}

type fakeFetcher struct {
	calls atomic.Int64
	tx    *types.TransactionDetail
	err   error
	delay time.Duration
}

func (f *fakeFetcher) Fetch(ctx context.Context, signature string, commitment types.Commitment) (*types.TransactionDetail, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, &types.FetchError{Code: types.FetchTimeout, Signature: signature, Message: "deadline", Err: ctx.Err()}
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.tx, nil
}

type fakeDecoder struct {
	effect *types.SwapEffect
	err    error
}

func (f *fakeDecoder) Decode(venue types.Venue, tx *types.TransactionDetail) (*types.SwapEffect, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.effect, nil
}

type fakeEstimator struct {
	estimate *types.ImpactEstimate
	err      error
	seen     *types.SwapEffect
}

func (f *fakeEstimator) Estimate(effect *types.SwapEffect) (*types.ImpactEstimate, error) {
	f.seen = effect
	if f.err != nil {
		return nil, f.err
	}
	return f.estimate, nil
}

type fakeEvaluator struct {
	decision types.Decision
	delay    time.Duration
}

func (f *fakeEvaluator) Evaluate(effect *types.SwapEffect, estimate *types.ImpactEstimate) *types.Opportunity {
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	opp := &types.Opportunity{
		ID:         "opp-1",
		Signature:  effect.Signature,
		Venue:      effect.Venue,
		PoolID:     effect.PoolID,
		Decision:   f.decision,
		DetectedAt: time.Now(),
	}
	if f.decision == types.DecisionReject {
		opp.Reason = types.ReasonLowMargin
	}
	return opp
}

func (f *fakeEvaluator) Reject(effect *types.SwapEffect, estimate *types.ImpactEstimate, reason string) *types.Opportunity {
	return &types.Opportunity{
		ID:         "opp-1",
		Signature:  effect.Signature,
		Venue:      effect.Venue,
		PoolID:     effect.PoolID,
		Decision:   types.DecisionReject,
		Reason:     reason,
		DetectedAt: time.Now(),
	}
}

type fakeGate struct {
	allow bool
}

func (f *fakeGate) Allows(ctx context.Context, effect *types.SwapEffect) bool {
	return f.allow
}

type fakeStore struct {
	stored atomic.Int64
}

func (f *fakeStore) StoreOpportunity(ctx context.Context, opp *types.Opportunity) error {
	f.stored.Add(1)
	return nil
}

func (f *fakeStore) Close() error { return nil }

func testRecord() *types.LogRecord {
	return &types.LogRecord{
		Signature:  "sig-1",
		Slot:       100,
		ReceivedAt: time.Now(),
	}
}

func testEffect() *types.SwapEffect {
	return &types.SwapEffect{
		Signature: "sig-1",
		Venue:     types.VenueRaydium,
		PoolID:    "pool-1",
		AmountIn:  10_000_000_000,
		ReservesBefore: types.ReserveSnapshot{
			PoolID:     "pool-1",
			ReserveIn:  1_000_000_000_000,
			ReserveOut: 50_000_000_000,
			Slot:       100,
		},
	}
}

type fixtures struct {
	classifier *fakeClassifier
	fetcher    *fakeFetcher
	decoder    *fakeDecoder
	estimator  *fakeEstimator
	evaluator  *fakeEvaluator
	gate       *fakeGate
	store      *fakeStore
}

func newFixtures() *fixtures {
	return &fixtures{
		classifier: &fakeClassifier{venue: types.VenueRaydium},
		fetcher:    &fakeFetcher{tx: &types.TransactionDetail{Signature: "sig-1"}},
		decoder:    &fakeDecoder{effect: testEffect()},
		estimator:  &fakeEstimator{estimate: &types.ImpactEstimate{PoolID: "pool-1", MCapDeltaPct: 1.0, Confidence: types.ConfidenceHigh}},
		evaluator:  &fakeEvaluator{decision: types.DecisionAccept},
		gate:       &fakeGate{allow: true},
		store:      &fakeStore{},
	}
}

func newTestCoordinator(f *fixtures, deadline time.Duration) *Coordinator {
	logger, _ := zap.NewDevelopment()
	return New(Config{
		Classifier:        f.classifier,
		Fetcher:           f.fetcher,
		Decoder:           f.decoder,
		Estimator:         f.estimator,
		Evaluator:         f.evaluator,
		Gate:              f.gate,
		Storage:           f.store,
		Commitment:        types.CommitmentConfirmed,
		PerRecordDeadline: deadline,
		Logger:            logger,
	})
}

func TestProcess_AcceptedFlowsToChannelAndRing(t *testing.T) {
	f := newFixtures()
	c := newTestCoordinator(f, time.Second)

	state, reason := c.Process(context.Background(), testRecord())

	assert.Equal(t, StateAccepted, state)
	assert.Empty(t, reason)

	select {
	case opp := <-c.Accepted():
		assert.Equal(t, "sig-1", opp.Signature)
		assert.True(t, opp.Accepted())
	default:
		t.Fatal("expected an opportunity on the accepted channel")
	}

	recent := c.Recent()
	require.Len(t, recent, 1)
	assert.Equal(t, "sig-1", recent[0].Signature)
	assert.Equal(t, int64(1), f.store.stored.Load())
}

func TestProcess_UnknownVenueDroppedWithoutFetch(t *testing.T) {
	f := newFixtures()
	f.classifier.venue = types.VenueUnknown
	c := newTestCoordinator(f, time.Second)

	state, reason := c.Process(context.Background(), testRecord())

	assert.Equal(t, StateDropped, state)
	assert.Equal(t, types.ReasonUnknownVenue, reason)
	assert.Zero(t, f.fetcher.calls.Load(), "unknown venue must not reach the fetcher")
}

func TestProcess_SlowFetchDropsOnDeadline(t *testing.T) {
	f := newFixtures()
	f.fetcher.delay = 200 * time.Millisecond
	c := newTestCoordinator(f, 20*time.Millisecond)

	state, reason := c.Process(context.Background(), testRecord())

	assert.Equal(t, StateDropped, state)
	assert.Equal(t, types.ReasonDeadlineExceeded, reason)
}

func TestProcess_FetchErrorDropsAsFetchFailed(t *testing.T) {
	f := newFixtures()
	f.fetcher.err = &types.FetchError{Code: types.FetchNotFound, Signature: "sig-1", Message: "not found after retries"}
	c := newTestCoordinator(f, time.Second)

	state, reason := c.Process(context.Background(), testRecord())

	assert.Equal(t, StateDropped, state)
	assert.Equal(t, types.ReasonFetchFailed, reason)
}

func TestProcess_FetchTimeoutDropsAsDeadlineExceeded(t *testing.T) {
	f := newFixtures()
	f.fetcher.err = &types.FetchError{Code: types.FetchTimeout, Signature: "sig-1", Message: "deadline", Err: context.DeadlineExceeded}
	c := newTestCoordinator(f, time.Second)

	state, reason := c.Process(context.Background(), testRecord())

	assert.Equal(t, StateDropped, state)
	assert.Equal(t, types.ReasonDeadlineExceeded, reason)
}

func TestProcess_DecodeErrorDropsAsDecodeFailed(t *testing.T) {
	f := newFixtures()
	f.decoder.err = &types.DecodeError{Code: types.DecodeMalformed, Venue: types.VenueRaydium, Signature: "sig-1", Message: "no vault pair"}
	c := newTestCoordinator(f, time.Second)

	state, reason := c.Process(context.Background(), testRecord())

	assert.Equal(t, StateDropped, state)
	assert.Equal(t, types.ReasonDecodeFailed, reason)
}

func TestProcess_StampsSnapshotTimeFromReceipt(t *testing.T) {
	f := newFixtures()
	c := newTestCoordinator(f, time.Second)

	record := testRecord()
	record.ReceivedAt = time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)

	c.Process(context.Background(), record)

	require.NotNil(t, f.estimator.seen)
	assert.Equal(t, record.ReceivedAt, f.estimator.seen.ReservesBefore.TakenAt)
}

func TestProcess_GateRejectionIsRejectedNotDropped(t *testing.T) {
	f := newFixtures()
	f.gate.allow = false
	c := newTestCoordinator(f, time.Second)

	state, reason := c.Process(context.Background(), testRecord())

	assert.Equal(t, StateRejected, state)
	assert.Equal(t, types.ReasonMcapOutOfRange, reason)

	recent := c.Recent()
	require.Len(t, recent, 1)
	assert.Equal(t, types.ReasonMcapOutOfRange, recent[0].Reason)
}

func TestProcess_OverrunNeverBecomesAccept(t *testing.T) {
	f := newFixtures()
	f.evaluator.delay = 60 * time.Millisecond
	c := newTestCoordinator(f, 30*time.Millisecond)

	// The evaluator returns an accept, but only after the deadline has
	// passed. The verdict must still be a drop.
	state, reason := c.Process(context.Background(), testRecord())

	assert.Equal(t, StateDropped, state)
	assert.Equal(t, types.ReasonDeadlineExceeded, reason)

	select {
	case <-c.Accepted():
		t.Fatal("overrun record must not reach the accepted channel")
	default:
	}
}

func TestProcess_EstimateErrorDrops(t *testing.T) {
	f := newFixtures()
	f.estimator.err = assert.AnError
	c := newTestCoordinator(f, time.Second)

	state, reason := c.Process(context.Background(), testRecord())

	assert.Equal(t, StateDropped, state)
	assert.Equal(t, types.ReasonEstimateFailed, reason)
}

func TestRun_ProcessesRecordsUntilChannelCloses(t *testing.T) {
	f := newFixtures()
	c := newTestCoordinator(f, time.Second)

	records := make(chan *types.LogRecord, 3)
	for i := 0; i < 3; i++ {
		records <- testRecord()
	}
	close(records)

	c.Run(context.Background(), records)
	c.Close()

	assert.Equal(t, int64(3), f.fetcher.calls.Load())
	assert.Equal(t, int64(3), f.store.stored.Load())
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	f := newFixtures()
	c := newTestCoordinator(f, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	records := make(chan *types.LogRecord)
	done := make(chan struct{})
	go func() {
		c.Run(ctx, records)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after context cancellation")
	}
}

func TestRecentRing_NewestFirstAndBounded(t *testing.T) {
	r := newRecentRing(3)

	for i := 0; i < 5; i++ {
		r.add(&types.Opportunity{ID: string(rune('a' + i))})
	}

	got := r.snapshot()
	require.Len(t, got, 3)
	assert.Equal(t, "e", got[0].ID)
	assert.Equal(t, "d", got[1].ID)
	assert.Equal(t, "c", got[2].ID)
}
