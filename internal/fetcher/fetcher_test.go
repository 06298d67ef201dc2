package fetcher

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/solscope/sandwichd/pkg/solana"
	"github.com/solscope/sandwichd/pkg/types"
)

// mockRPC counts GetTransaction calls and serves canned responses.
type mockRPC struct {
	calls    atomic.Int32
	inFlight atomic.Int32
	maxSeen  atomic.Int32
	delay    time.Duration
	respond  func(signature string, call int32) (*types.TransactionDetail, error)
}

func (m *mockRPC) GetTransaction(ctx context.Context, signature string, commitment types.Commitment) (*types.TransactionDetail, error) {
	call := m.calls.Add(1)

	cur := m.inFlight.Add(1)
	for {
		max := m.maxSeen.Load()
		if cur <= max || m.maxSeen.CompareAndSwap(max, cur) {
			break
		}
	}
	defer m.inFlight.Add(-1)

	if m.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(m.delay):
		}
	}

	return m.respond(signature, call)
}

func (m *mockRPC) GetSlot(ctx context.Context, commitment types.Commitment) (uint64, error) {
	return 0, nil
}

func (m *mockRPC) GetTokenSupply(ctx context.Context, mint string) (solana.TokenAmount, error) {
	return solana.TokenAmount{}, nil
}

func (m *mockRPC) GetTokenAccountBalance(ctx context.Context, account string) (solana.TokenAmount, error) {
	return solana.TokenAmount{}, nil
}

func validSignature(fill byte) string {
	return base58.Encode(bytes.Repeat([]byte{fill}, 64))
}

func newTestFetcher(client solana.Client, limit int) *Fetcher {
	logger, _ := zap.NewDevelopment()
	return New(Config{
		Client:           client,
		ConcurrencyLimit: limit,
		RetryDelay:       5 * time.Millisecond,
		NotFoundRetries:  3,
		Logger:           logger,
	})
}

func TestFetch_Success(t *testing.T) {
	sig := validSignature(1)
	mock := &mockRPC{respond: func(signature string, call int32) (*types.TransactionDetail, error) {
		return &types.TransactionDetail{Signature: signature, Slot: 42}, nil
	}}

	f := newTestFetcher(mock, 4)
	tx, err := f.Fetch(context.Background(), sig, types.CommitmentConfirmed)
	require.NoError(t, err)
	assert.Equal(t, sig, tx.Signature)
	assert.Equal(t, uint64(42), tx.Slot)
	assert.Equal(t, int32(1), mock.calls.Load())
}

func TestFetch_ConcurrentCallersShareOneRPC(t *testing.T) {
	sig := validSignature(2)
	mock := &mockRPC{
		delay: 50 * time.Millisecond,
		respond: func(signature string, call int32) (*types.TransactionDetail, error) {
			return &types.TransactionDetail{Signature: signature}, nil
		},
	}

	f := newTestFetcher(mock, 8)

	const callers = 20
	var wg sync.WaitGroup
	results := make([]*types.TransactionDetail, callers)
	errs := make([]error, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = f.Fetch(context.Background(), sig, types.CommitmentConfirmed)
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		require.NotNil(t, results[i])
		assert.Equal(t, sig, results[i].Signature)
	}

	assert.Equal(t, int32(1), mock.calls.Load(), "all callers must share one RPC call")
}

func TestFetch_ConcurrencyBounded(t *testing.T) {
	mock := &mockRPC{
		delay: 30 * time.Millisecond,
		respond: func(signature string, call int32) (*types.TransactionDetail, error) {
			return &types.TransactionDetail{Signature: signature}, nil
		},
	}

	const limit = 3
	f := newTestFetcher(mock, limit)

	var wg sync.WaitGroup
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sig := validSignature(byte(10 + i))
			_, err := f.Fetch(context.Background(), sig, types.CommitmentConfirmed)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.LessOrEqual(t, mock.maxSeen.Load(), int32(limit),
		"in-flight RPCs must never exceed the concurrency limit")
}

func TestFetch_NotFoundRetriedThenSurfaced(t *testing.T) {
	sig := validSignature(3)
	mock := &mockRPC{respond: func(signature string, call int32) (*types.TransactionDetail, error) {
		return nil, solana.ErrNotFound
	}}

	f := newTestFetcher(mock, 4)
	_, err := f.Fetch(context.Background(), sig, types.CommitmentConfirmed)
	require.Error(t, err)
	assert.True(t, types.IsFetchCode(err, types.FetchNotFound))
	// Initial attempt plus three retries.
	assert.Equal(t, int32(4), mock.calls.Load())
}

func TestFetch_NotFoundResolvesOnRetry(t *testing.T) {
	sig := validSignature(4)
	mock := &mockRPC{respond: func(signature string, call int32) (*types.TransactionDetail, error) {
		if call < 3 {
			return nil, solana.ErrNotFound
		}
		return &types.TransactionDetail{Signature: signature}, nil
	}}

	f := newTestFetcher(mock, 4)
	tx, err := f.Fetch(context.Background(), sig, types.CommitmentConfirmed)
	require.NoError(t, err)
	assert.Equal(t, sig, tx.Signature)
	assert.Equal(t, int32(3), mock.calls.Load())
}

func TestFetch_RPCErrorNotRetried(t *testing.T) {
	sig := validSignature(5)
	mock := &mockRPC{respond: func(signature string, call int32) (*types.TransactionDetail, error) {
		return nil, errors.New("node exploded")
	}}

	f := newTestFetcher(mock, 4)
	_, err := f.Fetch(context.Background(), sig, types.CommitmentConfirmed)
	require.Error(t, err)
	assert.True(t, types.IsFetchCode(err, types.FetchRPCError))
	assert.Equal(t, int32(1), mock.calls.Load())
}

func TestFetch_DeadlineSurfacesAsTimeout(t *testing.T) {
	sig := validSignature(6)
	mock := &mockRPC{
		delay: time.Second,
		respond: func(signature string, call int32) (*types.TransactionDetail, error) {
			return &types.TransactionDetail{}, nil
		},
	}

	f := newTestFetcher(mock, 4)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := f.Fetch(ctx, sig, types.CommitmentConfirmed)
	require.Error(t, err)
	assert.True(t, types.IsFetchCode(err, types.FetchTimeout))
}

// recordingBreaker captures health reports and serves a fixed state.
type recordingBreaker struct {
	healthy   bool
	successes atomic.Int32
	failures  atomic.Int32
}

func (b *recordingBreaker) IsHealthy() bool { return b.healthy }
func (b *recordingBreaker) RecordSuccess() { b.successes.Add(1) }
func (b *recordingBreaker) RecordFailure() { b.failures.Add(1) }

func TestFetch_OpenBreakerFailsFastWithoutRPC(t *testing.T) {
	sig := validSignature(7)
	mock := &mockRPC{respond: func(signature string, call int32) (*types.TransactionDetail, error) {
		return &types.TransactionDetail{Signature: signature}, nil
	}}

	logger, _ := zap.NewDevelopment()
	f := New(Config{
		Client:           mock,
		Breaker:          &recordingBreaker{healthy: false},
		ConcurrencyLimit: 4,
		RetryDelay:       5 * time.Millisecond,
		Logger:           logger,
	})

	_, err := f.Fetch(context.Background(), sig, types.CommitmentConfirmed)
	require.Error(t, err)
	assert.True(t, types.IsFetchCode(err, types.FetchRPCError))
	assert.Equal(t, int32(0), mock.calls.Load(), "open breaker must short-circuit the RPC")
}

func TestFetch_ReportsOutcomesToBreaker(t *testing.T) {
	breaker := &recordingBreaker{healthy: true}
	logger, _ := zap.NewDevelopment()

	newBreakerFetcher := func(mock *mockRPC) *Fetcher {
		return New(Config{
			Client:           mock,
			Breaker:          breaker,
			ConcurrencyLimit: 4,
			RetryDelay:       5 * time.Millisecond,
			NotFoundRetries:  1,
			Logger:           logger,
		})
	}

	okMock := &mockRPC{respond: func(signature string, call int32) (*types.TransactionDetail, error) {
		return &types.TransactionDetail{Signature: signature}, nil
	}}
	_, err := newBreakerFetcher(okMock).Fetch(context.Background(), validSignature(8), types.CommitmentConfirmed)
	require.NoError(t, err)
	assert.Equal(t, int32(1), breaker.successes.Load())

	failMock := &mockRPC{respond: func(signature string, call int32) (*types.TransactionDetail, error) {
		return nil, errors.New("node exploded")
	}}
	_, err = newBreakerFetcher(failMock).Fetch(context.Background(), validSignature(9), types.CommitmentConfirmed)
	require.Error(t, err)
	assert.Equal(t, int32(1), breaker.failures.Load())

	// Not-found means the endpoint answered; it counts as success.
	nfMock := &mockRPC{respond: func(signature string, call int32) (*types.TransactionDetail, error) {
		return nil, solana.ErrNotFound
	}}
	_, err = newBreakerFetcher(nfMock).Fetch(context.Background(), validSignature(10), types.CommitmentConfirmed)
	require.Error(t, err)
	assert.Equal(t, int32(1), breaker.failures.Load(), "not-found must not count as a failure")
}

func TestFetch_InvalidSignatureRejectedWithoutRPC(t *testing.T) {
	mock := &mockRPC{respond: func(signature string, call int32) (*types.TransactionDetail, error) {
		return &types.TransactionDetail{}, nil
	}}

	f := newTestFetcher(mock, 4)

	for _, sig := range []string{"", "not-base58-0OIl", base58.Encode([]byte{1, 2, 3})} {
		_, err := f.Fetch(context.Background(), sig, types.CommitmentConfirmed)
		require.Error(t, err, "signature %q", sig)
		assert.True(t, types.IsFetchCode(err, types.FetchRPCError))
	}

	assert.Equal(t, int32(0), mock.calls.Load(), "invalid signatures must not reach the RPC")
}
