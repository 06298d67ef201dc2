package cmd

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/solscope/sandwichd/internal/app"
	"github.com/solscope/sandwichd/pkg/config"
)

//nolint:gochecknoglobals // Cobra boilerplate
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the sandwich monitor",
	Long: `Starts the sandwich monitor, which will:
1. Subscribe to program logs for the configured DEX venues
2. Fetch and decode each swap transaction
3. Estimate the market impact of each victim swap
4. Accept or reject each candidate against the cost model

Use --venues to override the configured venue list.`,
	RunE: runMonitor,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringSliceP("venues", "v", nil, "Comma-separated venues to monitor (overrides VENUES)")
}

func runMonitor(cmd *cobra.Command, args []string) error {
	// Load .env if present
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Warning: .env file not found\n")
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := config.NewLogger()
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	venues, _ := cmd.Flags().GetStringSlice("venues")

	opts := &app.Options{
		Venues: venues,
	}

	application, err := app.New(cfg, logger, opts)
	if err != nil {
		return fmt.Errorf("create app: %w", err)
	}

	err = application.Run()
	if err != nil {
		return fmt.Errorf("run app: %w", err)
	}

	return nil
}
