package types

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseVenue(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Venue
	}{
		{"raydium", "raydium", VenueRaydium},
		{"orca", "orca", VenueOrca},
		{"meteora", "meteora", VenueMeteora},
		{"jupiter", "jupiter", VenueJupiter},
		{"serum", "serum", VenueSerum},
		{"unrecognized name", "uniswap", VenueUnknown},
		{"empty", "", VenueUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseVenue(tt.in))
		})
	}
}

func TestCommitmentValid(t *testing.T) {
	assert.True(t, CommitmentProcessed.Valid())
	assert.True(t, CommitmentConfirmed.Valid())
	assert.True(t, CommitmentFinalized.Valid())
	assert.False(t, Commitment("final").Valid())
	assert.False(t, Commitment("").Valid())
}

func TestBalanceDelta(t *testing.T) {
	tx := &TransactionDetail{
		PreTokenBalances: []TokenBalance{
			{Account: "vaultA", Mint: "SOL", Amount: 1000},
			{Account: "vaultB", Mint: "USDC", Amount: 50000},
		},
		PostTokenBalances: []TokenBalance{
			{Account: "vaultA", Mint: "SOL", Amount: 1010},
			{Account: "vaultB", Mint: "USDC", Amount: 49505},
		},
	}

	assert.Equal(t, int64(10), tx.BalanceDelta("vaultA"))
	assert.Equal(t, int64(-495), tx.BalanceDelta("vaultB"))
	assert.Equal(t, int64(0), tx.BalanceDelta("missing"))
}

func TestFetchErrorUnwrap(t *testing.T) {
	inner := errors.New("connection refused")
	fe := &FetchError{Code: FetchRPCError, Signature: "sig", Message: "post failed", Err: inner}
	wrapped := fmt.Errorf("stage fetch: %w", fe)

	assert.True(t, IsFetchCode(wrapped, FetchRPCError))
	assert.False(t, IsFetchCode(wrapped, FetchNotFound))
	assert.ErrorIs(t, wrapped, inner)
}

func TestDecodeErrorCode(t *testing.T) {
	de := &DecodeError{Code: DecodeUnsupported, Venue: VenueJupiter, Signature: "sig", Message: "routed swap"}
	wrapped := fmt.Errorf("stage decode: %w", de)

	assert.True(t, IsDecodeCode(wrapped, DecodeUnsupported))
	assert.False(t, IsDecodeCode(wrapped, DecodeMalformed))
	assert.False(t, IsDecodeCode(errors.New("other"), DecodeUnsupported))
}

func TestSnapshotAge(t *testing.T) {
	now := time.Now()
	s := ReserveSnapshot{TakenAt: now.Add(-250 * time.Millisecond)}
	assert.Equal(t, 250*time.Millisecond, s.Age(now))
}
