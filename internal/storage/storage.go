package storage

import (
	"context"

	"github.com/solscope/sandwichd/pkg/types"
)

// Storage is the interface for persisting evaluated opportunities.
type Storage interface {
	// StoreOpportunity persists one evaluated opportunity.
	StoreOpportunity(ctx context.Context, opp *types.Opportunity) error

	// Close closes the storage connection.
	Close() error
}
