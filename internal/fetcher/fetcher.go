// Package fetcher retrieves full transactions by signature with
// per-signature deduplication and a global concurrency bound.
package fetcher

import (
	"context"
	"errors"
	"time"

	"github.com/mr-tron/base58"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"

	"github.com/solscope/sandwichd/pkg/solana"
	"github.com/solscope/sandwichd/pkg/types"
)

const signatureByteLen = 64

// HealthReporter receives RPC outcomes and gates new fetches. A nil
// reporter disables the gate.
type HealthReporter interface {
	IsHealthy() bool
	RecordSuccess()
	RecordFailure()
}

// Fetcher wraps the RPC client. Concurrent fetches of the same
// signature collapse into a single RPC call whose result is shared;
// total in-flight RPCs never exceed the configured limit.
type Fetcher struct {
	client          solana.Client
	breaker         HealthReporter
	sem             *semaphore.Weighted
	group           singleflight.Group
	retryDelay      time.Duration
	notFoundRetries int
	logger          *zap.Logger
}

// Config holds fetcher configuration.
type Config struct {
	Client           solana.Client
	Breaker          HealthReporter
	ConcurrencyLimit int
	RetryDelay       time.Duration
	NotFoundRetries  int
	Logger           *zap.Logger
}

// New creates a fetcher.
func New(cfg Config) *Fetcher {
	retries := cfg.NotFoundRetries
	if retries <= 0 {
		retries = 5
	}

	return &Fetcher{
		client:          cfg.Client,
		breaker:         cfg.Breaker,
		sem:             semaphore.NewWeighted(int64(cfg.ConcurrencyLimit)),
		retryDelay:      cfg.RetryDelay,
		notFoundRetries: retries,
		logger:          cfg.Logger,
	}
}

// Fetch retrieves the transaction for a signature at the given
// commitment. Not-yet-visible transactions are retried a bounded
// number of times while the context allows. All failures surface as
// *types.FetchError.
func (f *Fetcher) Fetch(ctx context.Context, signature string, commitment types.Commitment) (*types.TransactionDetail, error) {
	if err := validateSignature(signature); err != nil {
		FetchesTotal.WithLabelValues("invalid_signature").Inc()
		return nil, &types.FetchError{
			Code:      types.FetchRPCError,
			Signature: signature,
			Message:   "invalid signature",
			Err:       err,
		}
	}

	// The winning caller performs the RPC; everyone else waits on its
	// result channel so each signature costs at most one call.
	ch := f.group.DoChan(signature, func() (any, error) {
		return f.fetchWithRetry(ctx, signature, commitment)
	})

	select {
	case <-ctx.Done():
		FetchesTotal.WithLabelValues("timeout").Inc()
		return nil, &types.FetchError{
			Code:      types.FetchTimeout,
			Signature: signature,
			Message:   "deadline exceeded waiting for fetch",
			Err:       ctx.Err(),
		}
	case res := <-ch:
		if res.Shared {
			FetchesDedupedTotal.Inc()
		}
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*types.TransactionDetail), nil
	}
}

func (f *Fetcher) fetchWithRetry(ctx context.Context, signature string, commitment types.Commitment) (*types.TransactionDetail, error) {
	// Fail fast while the endpoint is known-bad instead of burning the
	// record's deadline on a doomed call.
	if f.breaker != nil && !f.breaker.IsHealthy() {
		FetchesTotal.WithLabelValues("circuit_open").Inc()
		return nil, &types.FetchError{
			Code:      types.FetchRPCError,
			Signature: signature,
			Message:   "rpc circuit open",
		}
	}

	if err := f.sem.Acquire(ctx, 1); err != nil {
		FetchesTotal.WithLabelValues("timeout").Inc()
		return nil, &types.FetchError{
			Code:      types.FetchTimeout,
			Signature: signature,
			Message:   "deadline exceeded acquiring fetch slot",
			Err:       err,
		}
	}
	defer f.sem.Release(1)

	start := time.Now()
	defer func() {
		FetchDuration.Observe(time.Since(start).Seconds())
	}()

	for attempt := 0; ; attempt++ {
		tx, err := f.client.GetTransaction(ctx, signature, commitment)
		if err == nil {
			f.reportOutcome(true)
			FetchesTotal.WithLabelValues("ok").Inc()
			return tx, nil
		}

		if ctx.Err() != nil {
			// Our own deadline, not an endpoint failure. Leave the
			// breaker alone.
			FetchesTotal.WithLabelValues("timeout").Inc()
			return nil, &types.FetchError{
				Code:      types.FetchTimeout,
				Signature: signature,
				Message:   "deadline exceeded during fetch",
				Err:       ctx.Err(),
			}
		}

		if !errors.Is(err, solana.ErrNotFound) {
			f.reportOutcome(false)
			FetchesTotal.WithLabelValues("rpc_error").Inc()
			return nil, &types.FetchError{
				Code:      types.FetchRPCError,
				Signature: signature,
				Message:   "rpc call failed",
				Err:       err,
			}
		}

		// Not-found is a well-formed response from a live endpoint.
		f.reportOutcome(true)

		if attempt >= f.notFoundRetries {
			FetchesTotal.WithLabelValues("not_found").Inc()
			return nil, &types.FetchError{
				Code:      types.FetchNotFound,
				Signature: signature,
				Message:   "transaction not visible after retries",
				Err:       err,
			}
		}

		f.logger.Debug("transaction-not-visible-retrying",
			zap.String("signature", signature),
			zap.Int("attempt", attempt+1))
		FetchNotFoundRetriesTotal.Inc()

		select {
		case <-ctx.Done():
			FetchesTotal.WithLabelValues("timeout").Inc()
			return nil, &types.FetchError{
				Code:      types.FetchTimeout,
				Signature: signature,
				Message:   "deadline exceeded between retries",
				Err:       ctx.Err(),
			}
		case <-time.After(f.retryDelay):
		}
	}
}

func (f *Fetcher) reportOutcome(ok bool) {
	if f.breaker == nil {
		return
	}
	if ok {
		f.breaker.RecordSuccess()
	} else {
		f.breaker.RecordFailure()
	}
}

// validateSignature checks the signature is base58 of 64 bytes.
func validateSignature(signature string) error {
	raw, err := base58.Decode(signature)
	if err != nil {
		return err
	}
	if len(raw) != signatureByteLen {
		return errors.New("signature must decode to 64 bytes")
	}
	return nil
}
