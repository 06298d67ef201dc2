package decoder

import (
	"github.com/solscope/sandwichd/pkg/types"
)

// JupiterDecoder rejects Jupiter-routed transactions. A route may
// split across several pools and venues; attributing the impact to a
// single constant-product pool would be a guess.
type JupiterDecoder struct{}

// NewJupiterDecoder creates a Jupiter decoder.
func NewJupiterDecoder() *JupiterDecoder {
	return &JupiterDecoder{}
}

// Venue returns the venue handled by this decoder.
func (d *JupiterDecoder) Venue() types.Venue {
	return types.VenueJupiter
}

// Decode always reports the route as unsupported.
func (d *JupiterDecoder) Decode(tx *types.TransactionDetail) (*types.SwapEffect, error) {
	if tx.Failed {
		return nil, &types.DecodeError{
			Code:      types.DecodeSwapFailed,
			Venue:     types.VenueJupiter,
			Signature: tx.Signature,
			Message:   "transaction failed on-chain",
		}
	}

	return nil, &types.DecodeError{
		Code:      types.DecodeUnsupported,
		Venue:     types.VenueJupiter,
		Signature: tx.Signature,
		Message:   "multi-hop route cannot be attributed to one pool",
	}
}

// SerumDecoder rejects Serum transactions: an order book has no
// constant-product reserves to estimate impact against.
type SerumDecoder struct{}

// NewSerumDecoder creates a Serum decoder.
func NewSerumDecoder() *SerumDecoder {
	return &SerumDecoder{}
}

// Venue returns the venue handled by this decoder.
func (d *SerumDecoder) Venue() types.Venue {
	return types.VenueSerum
}

// Decode always reports the venue as unsupported.
func (d *SerumDecoder) Decode(tx *types.TransactionDetail) (*types.SwapEffect, error) {
	return nil, &types.DecodeError{
		Code:      types.DecodeUnsupported,
		Venue:     types.VenueSerum,
		Signature: tx.Signature,
		Message:   "order-book venue has no pool reserves",
	}
}
