package testutil

import (
	"context"
	"sync"

	"github.com/solscope/sandwichd/pkg/solana"
	"github.com/solscope/sandwichd/pkg/types"
)

// MockRPC is an in-memory RPC client. Transactions become visible
// after AddTransaction; everything else returns canned values.
type MockRPC struct {
	mu           sync.RWMutex
	transactions map[string]*types.TransactionDetail
	supplies     map[string]solana.TokenAmount
	slot         uint64
	calls        int
}

// NewMockRPC creates an empty mock RPC client.
func NewMockRPC() *MockRPC {
	return &MockRPC{
		transactions: make(map[string]*types.TransactionDetail),
		supplies:     make(map[string]solana.TokenAmount),
		slot:         1000,
	}
}

// AddTransaction makes a transaction visible to GetTransaction.
func (m *MockRPC) AddTransaction(tx *types.TransactionDetail) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transactions[tx.Signature] = tx
}

// SetSupply sets the supply returned for a mint.
func (m *MockRPC) SetSupply(mint string, supply solana.TokenAmount) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.supplies[mint] = supply
}

// Calls returns how many RPC calls were made.
func (m *MockRPC) Calls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.calls
}

// GetTransaction returns the stored transaction or ErrNotFound.
func (m *MockRPC) GetTransaction(ctx context.Context, signature string, commitment types.Commitment) (*types.TransactionDetail, error) {
	m.mu.Lock()
	m.calls++
	tx, ok := m.transactions[signature]
	m.mu.Unlock()

	if !ok {
		return nil, solana.ErrNotFound
	}
	return tx, nil
}

// GetSlot returns the mock slot.
func (m *MockRPC) GetSlot(ctx context.Context, commitment types.Commitment) (uint64, error) {
	m.mu.Lock()
	m.calls++
	slot := m.slot
	m.mu.Unlock()
	return slot, nil
}

// GetTokenSupply returns the configured supply for a mint.
func (m *MockRPC) GetTokenSupply(ctx context.Context, mint string) (solana.TokenAmount, error) {
	m.mu.Lock()
	m.calls++
	supply, ok := m.supplies[mint]
	m.mu.Unlock()

	if !ok {
		return solana.TokenAmount{}, solana.ErrNotFound
	}
	return supply, nil
}

// GetTokenAccountBalance is unused by fixtures; returns zero.
func (m *MockRPC) GetTokenAccountBalance(ctx context.Context, account string) (solana.TokenAmount, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	return solana.TokenAmount{}, nil
}

// MockStorage is an in-memory storage implementation for testing.
type MockStorage struct {
	Opportunities []*types.Opportunity
	mu            sync.Mutex
}

// NewMockStorage creates a new mock storage.
func NewMockStorage() *MockStorage {
	return &MockStorage{
		Opportunities: make([]*types.Opportunity, 0),
	}
}

// StoreOpportunity stores an opportunity in memory.
func (m *MockStorage) StoreOpportunity(ctx context.Context, opp *types.Opportunity) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Store a copy to avoid race conditions
	oppCopy := *opp
	m.Opportunities = append(m.Opportunities, &oppCopy)
	return nil
}

// Close is a no-op for mock storage.
func (m *MockStorage) Close() error {
	return nil
}

// GetOpportunities returns all stored opportunities.
func (m *MockStorage) GetOpportunities() []*types.Opportunity {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := make([]*types.Opportunity, len(m.Opportunities))
	copy(result, m.Opportunities)
	return result
}

// Clear clears all stored opportunities.
func (m *MockStorage) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Opportunities = m.Opportunities[:0]
}
