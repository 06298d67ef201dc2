package cmd

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/solscope/sandwichd/pkg/config"
	"github.com/solscope/sandwichd/pkg/solana"
)

//nolint:gochecknoglobals // Cobra boilerplate
var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Measure RPC endpoint latency",
	Long: `Issues a series of getSlot calls against the configured RPC
endpoint and prints latency percentiles. Optionally benchmarks
getTransaction against a known signature with --signature.

The per-record deadline only holds when RPC round trips are fast;
this command shows what the endpoint can actually deliver.`,
	RunE: runBench,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(benchCmd)
	benchCmd.Flags().IntP("count", "n", 20, "Number of calls per method")
	benchCmd.Flags().StringP("signature", "s", "", "Signature for getTransaction benchmarking")
}

func runBench(cmd *cobra.Command, args []string) error {
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

	count, _ := cmd.Flags().GetInt("count")
	signature, _ := cmd.Flags().GetString("signature")

	rpcClient := solana.NewHTTPClient(cfg.RPCEndpoint, logger,
		solana.WithTimeout(cfg.RPCTimeout),
		solana.WithMaxRetries(0),
	)

	ctx := context.Background()

	fmt.Printf("Endpoint: %s\n\n", cfg.RPCEndpoint)

	slotLatencies, errs := benchCalls(count, func() error {
		_, callErr := rpcClient.GetSlot(ctx, cfg.Commitment)
		return callErr
	})
	printLatencies("getSlot", slotLatencies, errs)

	if signature != "" {
		txLatencies, txErrs := benchCalls(count, func() error {
			_, callErr := rpcClient.GetTransaction(ctx, signature, cfg.Commitment)
			return callErr
		})
		printLatencies("getTransaction", txLatencies, txErrs)
	}

	return nil
}

func benchCalls(count int, call func() error) (latencies []time.Duration, errs int) {
	for i := 0; i < count; i++ {
		start := time.Now()
		err := call()
		elapsed := time.Since(start)
		if err != nil {
			errs++
			continue
		}
		latencies = append(latencies, elapsed)
	}
	return latencies, errs
}

func printLatencies(method string, latencies []time.Duration, errs int) {
	fmt.Printf("%s: %d ok, %d failed\n", method, len(latencies), errs)
	if len(latencies) == 0 {
		fmt.Println()
		return
	}

	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })

	var total time.Duration
	for _, l := range latencies {
		total += l
	}

	fmt.Printf("  min:  %v\n", latencies[0])
	fmt.Printf("  p50:  %v\n", percentile(latencies, 50))
	fmt.Printf("  p95:  %v\n", percentile(latencies, 95))
	fmt.Printf("  p99:  %v\n", percentile(latencies, 99))
	fmt.Printf("  max:  %v\n", latencies[len(latencies)-1])
	fmt.Printf("  mean: %v\n\n", total/time.Duration(len(latencies)))
}

// percentile returns the nearest-rank percentile of sorted latencies.
func percentile(sorted []time.Duration, pct int) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	rank := (pct*len(sorted) + 99) / 100
	if rank < 1 {
		rank = 1
	}
	if rank > len(sorted) {
		rank = len(sorted)
	}
	return sorted[rank-1]
}
