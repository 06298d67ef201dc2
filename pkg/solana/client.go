// Package solana implements a minimal Solana JSON-RPC 2.0 client
// covering the read methods the monitor needs.
package solana

import (
	"context"
	"errors"

	"github.com/solscope/sandwichd/pkg/types"
)

// ErrNotFound is returned when the node has no record of the
// requested transaction at the given commitment.
var ErrNotFound = errors.New("transaction not found")

// TokenAmount is a token balance with its decimal scale.
type TokenAmount struct {
	Amount   uint64
	Decimals uint8
}

// Client is the RPC surface used by the pipeline.
type Client interface {
	// GetTransaction fetches a confirmed transaction by signature.
	// Returns ErrNotFound when the node does not know it yet.
	GetTransaction(ctx context.Context, signature string, commitment types.Commitment) (*types.TransactionDetail, error)

	// GetSlot returns the current slot at the given commitment.
	GetSlot(ctx context.Context, commitment types.Commitment) (uint64, error)

	// GetTokenSupply returns the total supply of a mint.
	GetTokenSupply(ctx context.Context, mint string) (TokenAmount, error)

	// GetTokenAccountBalance returns the balance of a token account.
	GetTokenAccountBalance(ctx context.Context, account string) (TokenAmount, error)
}

// RPCError is a JSON-RPC error object returned by the node.
// RPC-level errors are never retried.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return e.Message
}
