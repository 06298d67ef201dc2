package storage

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/solscope/sandwichd/pkg/types"
)

// ConsoleStorage implements Storage by pretty-printing to console.
type ConsoleStorage struct {
	logger *zap.Logger
}

// NewConsoleStorage creates a new console storage.
func NewConsoleStorage(logger *zap.Logger) *ConsoleStorage {
	logger.Info("console-storage-initialized")
	return &ConsoleStorage{
		logger: logger,
	}
}

// StoreOpportunity pretty-prints an evaluated opportunity to console.
func (c *ConsoleStorage) StoreOpportunity(ctx context.Context, opp *types.Opportunity) error {
	verdict := "ACCEPTED"
	if !opp.Accepted() {
		verdict = "REJECTED (" + opp.Reason + ")"
	}

	fmt.Println("\n" + "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Printf("🥪 SANDWICH CANDIDATE %s\n", verdict)
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Printf("ID:         %s\n", opp.ID[:8])
	fmt.Printf("Signature:  %s\n", opp.Signature)
	fmt.Printf("Venue:      %s\n", opp.Venue)
	fmt.Printf("Pool:       %s\n", opp.PoolID)
	fmt.Printf("Time:       %s\n", opp.DetectedAt.Format("2006-01-02 15:04:05"))
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Printf("📊 IMPACT\n")
	fmt.Printf("  Mcap Delta:  %+.4f%%\n", opp.MCapDeltaPct)
	fmt.Printf("  Confidence:  %s\n", opp.Confidence)
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Printf("💰 PROFIT ANALYSIS (lamports)\n")
	fmt.Printf("  Est. Profit:    %d\n", opp.EstimatedProfit)
	fmt.Printf("  Est. Cost:      %d\n", opp.EstimatedCost)
	fmt.Printf("  Safety Margin:  %d\n", opp.SafetyMargin)
	if opp.Accepted() {
		fmt.Printf("  ✅ Clears cost plus margin\n")
	} else {
		fmt.Printf("  ❌ Does not clear cost plus margin\n")
	}
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")

	return nil
}

// Close is a no-op for console storage.
func (c *ConsoleStorage) Close() error {
	c.logger.Info("closing-console-storage")
	return nil
}
