package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var rootCmd = &cobra.Command{
	Use:   "sandwichd",
	Short: "Solana DEX sandwich-opportunity monitor",
	Long: `sandwichd watches swap activity on Solana DEX venues in real time,
estimates the market impact of each victim swap, and flags the ones
profitable enough to sandwich after fees, slippage and priority fees.

The monitor subscribes to program logs over WebSocket, fetches and
decodes each transaction, and runs every record through an impact
estimator and profitability evaluator under a per-record deadline.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	// Flags can be added here if needed
}
