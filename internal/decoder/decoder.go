// Package decoder turns fetched transactions into venue-independent
// swap effects. Decoding is pure: no I/O, no guessing. When a swap
// cannot be extracted with certainty a typed DecodeError says why.
package decoder

import (
	"go.uber.org/zap"

	"github.com/solscope/sandwichd/pkg/types"
)

// Decoder extracts a swap effect from a transaction of its venue.
type Decoder interface {
	Venue() types.Venue
	Decode(tx *types.TransactionDetail) (*types.SwapEffect, error)
}

// Registry dispatches transactions to the decoder of their venue.
type Registry struct {
	decoders map[types.Venue]Decoder
	logger   *zap.Logger
}

// NewRegistry creates a registry over the given decoders.
func NewRegistry(logger *zap.Logger, decoders ...Decoder) *Registry {
	m := make(map[types.Venue]Decoder, len(decoders))
	for _, d := range decoders {
		m[d.Venue()] = d
	}
	return &Registry{decoders: m, logger: logger}
}

// DefaultRegistry wires up all built-in venue decoders.
func DefaultRegistry(logger *zap.Logger) *Registry {
	return NewRegistry(logger,
		NewRaydiumDecoder(),
		NewOrcaDecoder(),
		NewMeteoraDecoder(),
		NewJupiterDecoder(),
		NewSerumDecoder(),
	)
}

// Decode extracts the swap effect for a venue-tagged transaction.
func (r *Registry) Decode(venue types.Venue, tx *types.TransactionDetail) (*types.SwapEffect, error) {
	d, ok := r.decoders[venue]
	if !ok {
		DecodesTotal.WithLabelValues(string(venue), "unsupported").Inc()
		return nil, &types.DecodeError{
			Code:      types.DecodeUnsupported,
			Venue:     venue,
			Signature: tx.Signature,
			Message:   "no decoder for venue",
		}
	}

	effect, err := d.Decode(tx)
	if err != nil {
		outcome := "malformed"
		if de, isDecodeErr := err.(*types.DecodeError); isDecodeErr {
			switch de.Code {
			case types.DecodeUnsupported:
				outcome = "unsupported"
			case types.DecodeSwapFailed:
				outcome = "swap_failed"
			}
		}
		DecodesTotal.WithLabelValues(string(venue), outcome).Inc()
		return nil, err
	}

	DecodesTotal.WithLabelValues(string(venue), "ok").Inc()
	return effect, nil
}

// vaultMove is one token account's balance change in a transaction.
type vaultMove struct {
	account string
	mint    string
	owner   string
	pre     uint64
	post    uint64
}

func (v vaultMove) delta() int64 {
	return int64(v.post) - int64(v.pre)
}

// poolSwap is the outcome of balance-delta extraction: the pool's
// in-vault gained tokens (the victim paid in) and the out-vault lost
// tokens (the victim received).
type poolSwap struct {
	owner    string
	inVault  vaultMove
	outVault vaultMove
}

// swapFromBalances recovers the dominant pool swap from pre/post token
// balances. Pool vaults are recognized as token accounts sharing an
// owner, holding different mints, whose deltas have opposite signs and
// whose pre-swap balances are both non-zero. When several owners
// qualify (the victim's own wallet can mirror the pool's move) the
// pair with the deepest in-side reserve wins. Returns nil when no
// such pair exists.
func swapFromBalances(tx *types.TransactionDetail) *poolSwap {
	pre := make(map[string]vaultMove)
	for _, b := range tx.PreTokenBalances {
		if b.Account == "" || b.Owner == "" {
			continue
		}
		pre[b.Account] = vaultMove{account: b.Account, mint: b.Mint, owner: b.Owner, pre: b.Amount}
	}

	byOwner := make(map[string][]vaultMove)
	for _, b := range tx.PostTokenBalances {
		mv, ok := pre[b.Account]
		if !ok {
			continue
		}
		mv.post = b.Amount
		byOwner[mv.owner] = append(byOwner[mv.owner], mv)
	}

	var best *poolSwap
	var bestSize uint64

	for owner, moves := range byOwner {
		if len(moves) < 2 {
			continue
		}
		for i := 0; i < len(moves); i++ {
			for j := 0; j < len(moves); j++ {
				in, out := moves[i], moves[j]
				if in.mint == out.mint {
					continue
				}
				if in.delta() <= 0 || out.delta() >= 0 {
					continue
				}
				if in.pre == 0 || out.pre == 0 {
					continue
				}
				if best == nil || in.pre > bestSize {
					best = &poolSwap{owner: owner, inVault: in, outVault: out}
					bestSize = in.pre
				}
			}
		}
	}

	return best
}

// effectFromPoolSwap builds the venue-independent effect. Reserve
// snapshots carry the pre-swap vault balances; TakenAt is stamped by
// the caller so decoding itself stays deterministic.
func effectFromPoolSwap(tx *types.TransactionDetail, venue types.Venue, ps *poolSwap) *types.SwapEffect {
	return &types.SwapEffect{
		Signature: tx.Signature,
		Venue:     venue,
		PoolID:    ps.owner,
		TokenIn:   ps.inVault.mint,
		AmountIn:  uint64(ps.inVault.delta()),
		TokenOut:  ps.outVault.mint,
		AmountOut: uint64(-ps.outVault.delta()),
		ReservesBefore: types.ReserveSnapshot{
			PoolID:     ps.owner,
			ReserveIn:  ps.inVault.pre,
			ReserveOut: ps.outVault.pre,
			MintIn:     ps.inVault.mint,
			MintOut:    ps.outVault.mint,
			Slot:       tx.Slot,
		},
	}
}

// findInstruction returns the first top-level or inner instruction of
// the given program, or nil.
func findInstruction(tx *types.TransactionDetail, programID string) *types.Instruction {
	for i := range tx.Instructions {
		if tx.Instructions[i].ProgramID == programID {
			return &tx.Instructions[i]
		}
	}
	for i := range tx.InnerInstructions {
		if tx.InnerInstructions[i].ProgramID == programID {
			return &tx.InnerInstructions[i]
		}
	}
	return nil
}
