package decoder

import (
	"github.com/solscope/sandwichd/internal/classifier"
	"github.com/solscope/sandwichd/pkg/types"
)

// MeteoraDecoder decodes Meteora swaps from vault balance deltas.
// DLMM bins make instruction-level amounts unreliable; the vault
// deltas are exact for both DLMM and the classic pools program.
type MeteoraDecoder struct{}

// NewMeteoraDecoder creates a Meteora decoder.
func NewMeteoraDecoder() *MeteoraDecoder {
	return &MeteoraDecoder{}
}

// Venue returns the venue handled by this decoder.
func (d *MeteoraDecoder) Venue() types.Venue {
	return types.VenueMeteora
}

// Decode extracts the swap effect.
func (d *MeteoraDecoder) Decode(tx *types.TransactionDetail) (*types.SwapEffect, error) {
	if tx.Failed {
		return nil, &types.DecodeError{
			Code:      types.DecodeSwapFailed,
			Venue:     types.VenueMeteora,
			Signature: tx.Signature,
			Message:   "transaction failed on-chain",
		}
	}

	if findInstruction(tx, classifier.MeteoraDLMM) == nil &&
		findInstruction(tx, classifier.MeteoraPools) == nil {
		return nil, &types.DecodeError{
			Code:      types.DecodeMalformed,
			Venue:     types.VenueMeteora,
			Signature: tx.Signature,
			Message:   "no meteora instruction present",
		}
	}

	ps := swapFromBalances(tx)
	if ps == nil {
		return nil, &types.DecodeError{
			Code:      types.DecodeMalformed,
			Venue:     types.VenueMeteora,
			Signature: tx.Signature,
			Message:   "no pool vault pair in token balances",
		}
	}

	return effectFromPoolSwap(tx, types.VenueMeteora, ps), nil
}
