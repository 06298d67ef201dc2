package decoder

import (
	"github.com/solscope/sandwichd/internal/classifier"
	"github.com/solscope/sandwichd/pkg/types"
)

// OrcaDecoder decodes Orca swaps from vault balance deltas. Whirlpool
// instructions carry 8-byte anchor discriminators whose amounts do not
// line up with what actually moves through the vaults, so the deltas
// are the source of truth for both program generations.
type OrcaDecoder struct{}

// NewOrcaDecoder creates an Orca decoder.
func NewOrcaDecoder() *OrcaDecoder {
	return &OrcaDecoder{}
}

// Venue returns the venue handled by this decoder.
func (d *OrcaDecoder) Venue() types.Venue {
	return types.VenueOrca
}

// Decode extracts the swap effect.
func (d *OrcaDecoder) Decode(tx *types.TransactionDetail) (*types.SwapEffect, error) {
	if tx.Failed {
		return nil, &types.DecodeError{
			Code:      types.DecodeSwapFailed,
			Venue:     types.VenueOrca,
			Signature: tx.Signature,
			Message:   "transaction failed on-chain",
		}
	}

	if findInstruction(tx, classifier.OrcaWhirlpool) == nil &&
		findInstruction(tx, classifier.OrcaTokenSwap) == nil {
		return nil, &types.DecodeError{
			Code:      types.DecodeMalformed,
			Venue:     types.VenueOrca,
			Signature: tx.Signature,
			Message:   "no orca instruction present",
		}
	}

	ps := swapFromBalances(tx)
	if ps == nil {
		return nil, &types.DecodeError{
			Code:      types.DecodeMalformed,
			Venue:     types.VenueOrca,
			Signature: tx.Signature,
			Message:   "no pool vault pair in token balances",
		}
	}

	return effectFromPoolSwap(tx, types.VenueOrca, ps), nil
}
