package cmd

import (
	"context"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/solscope/sandwichd/internal/classifier"
	"github.com/solscope/sandwichd/internal/decoder"
	"github.com/solscope/sandwichd/internal/evaluator"
	"github.com/solscope/sandwichd/internal/fetcher"
	"github.com/solscope/sandwichd/internal/impact"
	"github.com/solscope/sandwichd/pkg/cache"
	"github.com/solscope/sandwichd/pkg/config"
	"github.com/solscope/sandwichd/pkg/solana"
	"github.com/solscope/sandwichd/pkg/types"
)

//nolint:gochecknoglobals // Cobra boilerplate
var analyzeCmd = &cobra.Command{
	Use:   "analyze <signature>",
	Short: "Run one transaction through the pipeline",
	Long: `Fetches a single confirmed transaction by signature, decodes the
swap, estimates its market impact and prints the evaluator's verdict.

Useful for replaying a transaction seen in the logs without running
the full monitor.`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(analyzeCmd)
}

// analysisReport is the JSON document printed for one signature.
type analysisReport struct {
	Signature string                `json:"signature"`
	Venue     string                `json:"venue"`
	Effect    *types.SwapEffect     `json:"effect,omitempty"`
	Estimate  *types.ImpactEstimate `json:"estimate,omitempty"`
	Verdict   *types.Opportunity    `json:"verdict,omitempty"`
}

func runAnalyze(cmd *cobra.Command, args []string) error {
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

	signature := args[0]

	appCache, err := cache.NewRistrettoCache(&cache.RistrettoConfig{
		NumCounters: 1000,
		MaxCost:     100,
		BufferItems: 64,
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("create cache: %w", err)
	}
	defer appCache.Close()

	rpcClient := solana.NewHTTPClient(cfg.RPCEndpoint, logger,
		solana.WithTimeout(cfg.RPCTimeout),
		solana.WithRetryDelay(cfg.FetchRetryDelay),
	)

	txFetcher := fetcher.New(fetcher.Config{
		Client:           rpcClient,
		ConcurrencyLimit: 1,
		RetryDelay:       cfg.FetchRetryDelay,
		Logger:           logger,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	tx, err := txFetcher.Fetch(ctx, signature, cfg.Commitment)
	if err != nil {
		return fmt.Errorf("fetch transaction: %w", err)
	}

	// Classify off the fetched transaction's program IDs; analyze is
	// not limited to the configured venue list.
	venueClassifier := classifier.New(classifier.Config{
		Venues: classifier.AllVenues(),
		Logger: logger,
	})
	venue := venueClassifier.Classify(&types.LogRecord{
		Signature:  signature,
		ProgramIDs: programIDs(tx),
		Logs:       tx.LogMessages,
		ReceivedAt: time.Now(),
	})

	report := analysisReport{
		Signature: signature,
		Venue:     string(venue),
	}

	if venue == types.VenueUnknown {
		return printReport(&report)
	}

	registry := decoder.DefaultRegistry(logger)
	effect, err := registry.Decode(venue, tx)
	if err != nil {
		fmt.Printf("decode: %v\n", err)
		return printReport(&report)
	}
	effect.ReservesBefore.TakenAt = time.Now()
	report.Effect = effect

	estimator := impact.New(impact.Config{
		StalenessThreshold: cfg.ReserveStalenessThreshold,
		SnapshotCache:      appCache,
		Logger:             logger,
	})
	estimate, err := estimator.Estimate(effect)
	if err != nil {
		fmt.Printf("estimate: %v\n", err)
		return printReport(&report)
	}
	report.Estimate = estimate

	eval := evaluator.New(evaluator.Config{
		Cost:   cfg.Cost,
		Logger: logger,
	})
	report.Verdict = eval.Evaluate(effect, estimate)

	return printReport(&report)
}

func programIDs(tx *types.TransactionDetail) []string {
	seen := make(map[string]bool)
	var ids []string
	for _, inst := range tx.Instructions {
		if !seen[inst.ProgramID] {
			seen[inst.ProgramID] = true
			ids = append(ids, inst.ProgramID)
		}
	}
	for _, inner := range tx.InnerInstructions {
		if !seen[inner.ProgramID] {
			seen[inner.ProgramID] = true
			ids = append(ids, inner.ProgramID)
		}
	}
	return ids
}

func printReport(report *analysisReport) error {
	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	fmt.Println(string(out))
	return nil
}
