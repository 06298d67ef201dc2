// Package pipeline runs each log record through classification,
// fetch, decode, impact estimation and evaluation under a per-record
// deadline. Records are independent: one record's failure or overrun
// never blocks another.
package pipeline

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/solscope/sandwichd/internal/storage"
	"github.com/solscope/sandwichd/pkg/types"
)

// Record states, also used as metric labels.
const (
	StateAccepted = "accepted"
	StateRejected = "rejected"
	StateDropped  = "dropped"
)

// Classifier tags a record with its venue.
type Classifier interface {
	Classify(record *types.LogRecord) types.Venue
}

// Fetcher retrieves the full transaction for a signature.
type Fetcher interface {
	Fetch(ctx context.Context, signature string, commitment types.Commitment) (*types.TransactionDetail, error)
}

// Decoder extracts a swap effect for a venue-tagged transaction.
type Decoder interface {
	Decode(venue types.Venue, tx *types.TransactionDetail) (*types.SwapEffect, error)
}

// Estimator computes the market impact of a swap effect.
type Estimator interface {
	Estimate(effect *types.SwapEffect) (*types.ImpactEstimate, error)
}

// Evaluator prices a candidate and renders the accept/reject verdict.
type Evaluator interface {
	Evaluate(effect *types.SwapEffect, estimate *types.ImpactEstimate) *types.Opportunity
	Reject(effect *types.SwapEffect, estimate *types.ImpactEstimate, reason string) *types.Opportunity
}

// Gate screens pools before evaluation.
type Gate interface {
	Allows(ctx context.Context, effect *types.SwapEffect) bool
}

// Coordinator drives the per-record state machine.
type Coordinator struct {
	classifier Classifier
	fetcher    Fetcher
	decoder    Decoder
	estimator  Estimator
	evaluator  Evaluator
	gate       Gate
	store      storage.Storage

	commitment types.Commitment
	deadline   time.Duration
	workers    *semaphore.Weighted

	accepted chan *types.Opportunity
	recent   *recentRing

	logger *zap.Logger
	wg     sync.WaitGroup
}

// Config holds coordinator configuration.
type Config struct {
	Classifier        Classifier
	Fetcher           Fetcher
	Decoder           Decoder
	Estimator         Estimator
	Evaluator         Evaluator
	Gate              Gate
	Storage           storage.Storage
	Commitment        types.Commitment
	PerRecordDeadline time.Duration
	Workers           int
	AcceptedBuffer    int
	RecentSize        int
	Logger            *zap.Logger
}

// New creates a coordinator.
func New(cfg Config) *Coordinator {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 64
	}
	acceptedBuffer := cfg.AcceptedBuffer
	if acceptedBuffer <= 0 {
		acceptedBuffer = 64
	}
	recentSize := cfg.RecentSize
	if recentSize <= 0 {
		recentSize = 256
	}

	return &Coordinator{
		classifier: cfg.Classifier,
		fetcher:    cfg.Fetcher,
		decoder:    cfg.Decoder,
		estimator:  cfg.Estimator,
		evaluator:  cfg.Evaluator,
		gate:       cfg.Gate,
		store:      cfg.Storage,
		commitment: cfg.Commitment,
		deadline:   cfg.PerRecordDeadline,
		workers:    semaphore.NewWeighted(int64(workers)),
		accepted:   make(chan *types.Opportunity, acceptedBuffer),
		recent:     newRecentRing(recentSize),
		logger:     cfg.Logger,
	}
}

// Run consumes records until the channel closes or ctx is canceled.
// Each record gets its own goroutine, bounded by the worker limit.
func (c *Coordinator) Run(ctx context.Context, records <-chan *types.LogRecord) {
	for {
		select {
		case <-ctx.Done():
			return
		case record, ok := <-records:
			if !ok {
				return
			}
			if err := c.workers.Acquire(ctx, 1); err != nil {
				return
			}

			c.wg.Add(1)
			go func() {
				defer c.wg.Done()
				defer c.workers.Release(1)
				c.Process(ctx, record)
			}()
		}
	}
}

// Process runs one record through the state machine and returns its
// terminal state and reason. The per-record deadline is attached here;
// overruns always terminate in Dropped(deadline_exceeded), even when
// the work itself finished.
func (c *Coordinator) Process(parent context.Context, record *types.LogRecord) (state, reason string) {
	start := time.Now()
	ActivePipelines.Inc()
	defer func() {
		ActivePipelines.Dec()
		PipelineDuration.Observe(time.Since(start).Seconds())
		RecordOutcomesTotal.WithLabelValues(state, reason).Inc()
	}()

	ctx, cancel := context.WithTimeout(parent, c.deadline)
	defer cancel()

	// Classified
	venue := c.classifier.Classify(record)
	if venue == types.VenueUnknown {
		return c.drop(record, types.ReasonUnknownVenue)
	}

	if ctx.Err() != nil {
		return c.drop(record, types.ReasonDeadlineExceeded)
	}

	// Fetching
	tx, err := c.fetcher.Fetch(ctx, record.Signature, c.commitment)
	if err != nil {
		if ctx.Err() != nil || types.IsFetchCode(err, types.FetchTimeout) {
			return c.drop(record, types.ReasonDeadlineExceeded)
		}
		c.logger.Debug("fetch-failed",
			zap.String("signature", record.Signature),
			zap.Error(err))
		return c.drop(record, types.ReasonFetchFailed)
	}

	if ctx.Err() != nil {
		return c.drop(record, types.ReasonDeadlineExceeded)
	}

	// Decoding
	effect, err := c.decoder.Decode(venue, tx)
	if err != nil {
		c.logger.Debug("decode-failed",
			zap.String("signature", record.Signature),
			zap.String("venue", string(venue)),
			zap.Error(err))
		return c.drop(record, types.ReasonDecodeFailed)
	}

	// Reserves observed when the record arrived; the estimator grades
	// staleness off this timestamp.
	effect.ReservesBefore.TakenAt = record.ReceivedAt

	if ctx.Err() != nil {
		return c.drop(record, types.ReasonDeadlineExceeded)
	}

	// Estimating
	estimate, err := c.estimator.Estimate(effect)
	if err != nil {
		c.logger.Debug("estimate-failed",
			zap.String("signature", record.Signature),
			zap.Error(err))
		return c.drop(record, types.ReasonEstimateFailed)
	}

	if ctx.Err() != nil {
		return c.drop(record, types.ReasonDeadlineExceeded)
	}

	// Evaluating
	var opp *types.Opportunity
	if c.gate != nil && !c.gate.Allows(ctx, effect) {
		opp = c.evaluator.Reject(effect, estimate, types.ReasonMcapOutOfRange)
	} else {
		opp = c.evaluator.Evaluate(effect, estimate)
	}

	// A deadline overrun can never become an accept.
	if ctx.Err() != nil {
		return c.drop(record, types.ReasonDeadlineExceeded)
	}

	c.finish(parent, opp)

	if opp.Accepted() {
		return StateAccepted, ""
	}
	return StateRejected, opp.Reason
}

func (c *Coordinator) drop(record *types.LogRecord, reason string) (string, string) {
	c.logger.Debug("record-dropped",
		zap.String("signature", record.Signature),
		zap.String("reason", reason))
	return StateDropped, reason
}

// finish records the verdict: storage, the recent ring, and for
// accepts the outcome channel consumed by downstream executors.
func (c *Coordinator) finish(ctx context.Context, opp *types.Opportunity) {
	c.recent.add(opp)

	if c.store != nil {
		if err := c.store.StoreOpportunity(ctx, opp); err != nil {
			c.logger.Warn("store-opportunity-failed",
				zap.String("id", opp.ID),
				zap.Error(err))
		}
	}

	if !opp.Accepted() {
		return
	}

	select {
	case c.accepted <- opp:
	default:
		AcceptedDroppedTotal.Inc()
		c.logger.Warn("accepted-channel-full", zap.String("id", opp.ID))
	}
}

// Accepted returns the channel of accepted opportunities.
func (c *Coordinator) Accepted() <-chan *types.Opportunity {
	return c.accepted
}

// Recent returns the most recent opportunities, newest first.
func (c *Coordinator) Recent() []*types.Opportunity {
	return c.recent.snapshot()
}

// Close waits for in-flight records to finish.
func (c *Coordinator) Close() {
	c.wg.Wait()
	close(c.accepted)
}
