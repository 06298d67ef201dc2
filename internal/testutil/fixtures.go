// Package testutil holds shared fixtures and mocks for pipeline and
// component tests.
package testutil

import (
	"encoding/binary"
	"time"

	"github.com/mr-tron/base58"

	"github.com/solscope/sandwichd/internal/classifier"
	"github.com/solscope/sandwichd/pkg/types"
)

// Well-known mints and accounts used across fixtures.
const (
	SOLMint  = "So11111111111111111111111111111111111111112"
	USDCMint = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"

	PoolAuthority = "5Q544fKrFoe6tsEbD7S8EmxGTJYAKtTVhAW5Q5pge4j1"
	VaultSOL      = "VaultSo1Account111111111111111111111111111"
	VaultUSDC     = "VaultUsdcAccount11111111111111111111111111"
	VictimWallet  = "VictimOwner1111111111111111111111111111111"
	VictimSOLAcc  = "VictimSo1Account11111111111111111111111111"
	VictimUSDCAcc = "VictimUsdcAccount1111111111111111111111111"
)

// Reserve and trade sizes of the canonical fixture pool: a victim
// buys USDC with 10 SOL against a 1000 SOL / 50000 USDC pool.
const (
	FixtureReserveSOL  = 1_000_000_000_000
	FixtureReserveUSDC = 50_000_000_000
	FixtureAmountIn    = 10_000_000_000
	FixtureAmountOut   = 495_049_504
)

const raydiumSwapBaseInDisc = 9

// CreateTestLogRecord creates a log record mentioning the given
// program.
func CreateTestLogRecord(signature string, programID string) *types.LogRecord {
	return &types.LogRecord{
		Signature:  signature,
		Slot:       1000,
		ProgramIDs: []string{programID},
		Logs: []string{
			"Program " + programID + " invoke [1]",
			"Program log: Instruction: Swap",
			"Program " + programID + " success",
		},
		ReceivedAt: time.Now(),
	}
}

// CreateTestSwapTransaction creates a Raydium AMM v4 swap transaction
// for the canonical fixture pool.
func CreateTestSwapTransaction(signature string) *types.TransactionDetail {
	data := make([]byte, 17)
	data[0] = raydiumSwapBaseInDisc
	binary.LittleEndian.PutUint64(data[1:9], FixtureAmountIn)
	binary.LittleEndian.PutUint64(data[9:17], 490_000_000)

	return &types.TransactionDetail{
		Signature: signature,
		Slot:      1000,
		Instructions: []types.Instruction{
			{
				ProgramID: classifier.RaydiumAMMV4,
				Accounts:  []string{"tokenProgram", "ammId", PoolAuthority, VaultSOL, VaultUSDC},
				Data:      base58.Encode(data),
			},
		},
		PreTokenBalances: []types.TokenBalance{
			{Account: VaultSOL, Mint: SOLMint, Owner: PoolAuthority, Amount: FixtureReserveSOL, Decimals: 9},
			{Account: VaultUSDC, Mint: USDCMint, Owner: PoolAuthority, Amount: FixtureReserveUSDC, Decimals: 6},
			{Account: VictimSOLAcc, Mint: SOLMint, Owner: VictimWallet, Amount: 20_000_000_000, Decimals: 9},
			{Account: VictimUSDCAcc, Mint: USDCMint, Owner: VictimWallet, Amount: 0, Decimals: 6},
		},
		PostTokenBalances: []types.TokenBalance{
			{Account: VaultSOL, Mint: SOLMint, Owner: PoolAuthority, Amount: FixtureReserveSOL + FixtureAmountIn, Decimals: 9},
			{Account: VaultUSDC, Mint: USDCMint, Owner: PoolAuthority, Amount: FixtureReserveUSDC - FixtureAmountOut, Decimals: 6},
			{Account: VictimSOLAcc, Mint: SOLMint, Owner: VictimWallet, Amount: 10_000_000_000, Decimals: 9},
			{Account: VictimUSDCAcc, Mint: USDCMint, Owner: VictimWallet, Amount: FixtureAmountOut, Decimals: 6},
		},
	}
}

// CreateTestSwapEffect creates the swap effect the canonical fixture
// transaction decodes to.
func CreateTestSwapEffect(signature string) *types.SwapEffect {
	return &types.SwapEffect{
		Signature: signature,
		Venue:     types.VenueRaydium,
		PoolID:    PoolAuthority,
		TokenIn:   SOLMint,
		AmountIn:  FixtureAmountIn,
		TokenOut:  USDCMint,
		AmountOut: FixtureAmountOut,
		ReservesBefore: types.ReserveSnapshot{
			PoolID:     PoolAuthority,
			ReserveIn:  FixtureReserveSOL,
			ReserveOut: FixtureReserveUSDC,
			MintIn:     SOLMint,
			MintOut:    USDCMint,
			Slot:       1000,
			TakenAt:    time.Now(),
		},
	}
}

// CreateTestOpportunity creates an evaluated opportunity for the
// canonical fixture swap.
func CreateTestOpportunity(signature string, decision types.Decision) *types.Opportunity {
	opp := &types.Opportunity{
		ID:              "test-opp-" + signature,
		Signature:       signature,
		Venue:           types.VenueRaydium,
		PoolID:          PoolAuthority,
		MCapDeltaPct:    1.0,
		Confidence:      types.ConfidenceHigh,
		EstimatedProfit: 6_700_000,
		EstimatedCost:   17_750_000,
		SafetyMargin:    3_350_000,
		Decision:        decision,
		DetectedAt:      time.Now(),
	}
	if decision == types.DecisionReject {
		opp.Reason = types.ReasonLowMargin
	}
	return opp
}
