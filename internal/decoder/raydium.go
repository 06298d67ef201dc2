package decoder

import (
	"encoding/binary"

	"github.com/mr-tron/base58"

	"github.com/solscope/sandwichd/internal/classifier"
	"github.com/solscope/sandwichd/pkg/types"
)

// Raydium AMM v4 instruction discriminators.
const (
	raydiumSwapBaseIn  = 9
	raydiumSwapBaseOut = 11
)

// RaydiumDecoder decodes Raydium AMM v4 swaps. The v4 program uses a
// single-byte discriminator followed by two little-endian u64 amounts.
// Concentrated-liquidity (CLMM) pools use different math and are
// reported as unsupported rather than approximated.
type RaydiumDecoder struct{}

// NewRaydiumDecoder creates a Raydium decoder.
func NewRaydiumDecoder() *RaydiumDecoder {
	return &RaydiumDecoder{}
}

// Venue returns the venue handled by this decoder.
func (d *RaydiumDecoder) Venue() types.Venue {
	return types.VenueRaydium
}

// raydiumSwapArgs is the decoded instruction payload of a v4 swap.
type raydiumSwapArgs struct {
	discriminator byte
	amountIn      uint64 // swapBaseIn: amount_in; swapBaseOut: max_amount_in
	amountOut     uint64 // swapBaseIn: minimum_amount_out; swapBaseOut: amount_out
}

func parseRaydiumSwapData(data string) (*raydiumSwapArgs, bool) {
	raw, err := base58.Decode(data)
	if err != nil || len(raw) < 17 {
		return nil, false
	}
	if raw[0] != raydiumSwapBaseIn && raw[0] != raydiumSwapBaseOut {
		return nil, false
	}
	return &raydiumSwapArgs{
		discriminator: raw[0],
		amountIn:      binary.LittleEndian.Uint64(raw[1:9]),
		amountOut:     binary.LittleEndian.Uint64(raw[9:17]),
	}, true
}

// Decode extracts the swap. Amounts come from vault balance deltas,
// which reflect what actually moved; the instruction payload only
// proves the transaction is a swap.
func (d *RaydiumDecoder) Decode(tx *types.TransactionDetail) (*types.SwapEffect, error) {
	if tx.Failed {
		return nil, &types.DecodeError{
			Code:      types.DecodeSwapFailed,
			Venue:     types.VenueRaydium,
			Signature: tx.Signature,
			Message:   "transaction failed on-chain",
		}
	}

	inst := findInstruction(tx, classifier.RaydiumAMMV4)
	if inst == nil {
		if findInstruction(tx, classifier.RaydiumCLMM) != nil {
			return nil, &types.DecodeError{
				Code:      types.DecodeUnsupported,
				Venue:     types.VenueRaydium,
				Signature: tx.Signature,
				Message:   "concentrated-liquidity pool",
			}
		}
		return nil, &types.DecodeError{
			Code:      types.DecodeMalformed,
			Venue:     types.VenueRaydium,
			Signature: tx.Signature,
			Message:   "no amm instruction present",
		}
	}

	if _, ok := parseRaydiumSwapData(inst.Data); !ok {
		return nil, &types.DecodeError{
			Code:      types.DecodeUnsupported,
			Venue:     types.VenueRaydium,
			Signature: tx.Signature,
			Message:   "amm instruction is not a swap",
		}
	}

	ps := swapFromBalances(tx)
	if ps == nil {
		return nil, &types.DecodeError{
			Code:      types.DecodeMalformed,
			Venue:     types.VenueRaydium,
			Signature: tx.Signature,
			Message:   "no pool vault pair in token balances",
		}
	}

	return effectFromPoolSwap(tx, types.VenueRaydium, ps), nil
}
