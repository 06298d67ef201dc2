package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/solscope/sandwichd/pkg/types"
)

// CostModel holds the fee assumptions used to price a sandwich attempt.
// All basis-point values apply per bracketing trade.
type CostModel struct {
	FeeBps               int
	SlippageBps          int
	PriorityFeeLamports  uint64
	PositionSizeLamports uint64
	BaseMarginBps        int
}

// Config holds all application configuration.
type Config struct {
	// Application
	LogLevel string
	HTTPPort string

	// Solana endpoints
	RPCEndpoint string
	WSEndpoint  string

	// Monitoring
	Venues     []types.Venue
	Commitment types.Commitment

	// Pipeline
	PerRecordDeadline time.Duration
	PipelineWorkers   int

	// Fetcher
	FetchConcurrencyLimit int
	FetchRetryDelay       time.Duration
	RPCTimeout            time.Duration

	// RPC circuit breaker
	RPCBreakerCheckInterval    time.Duration
	RPCBreakerFailureThreshold int
	RPCBreakerProbeSuccesses   int

	// Impact estimation
	ReserveStalenessThreshold time.Duration
	MinMcapUSD                float64
	MaxMcapUSD                float64

	// Cost model
	Cost CostModel

	// WebSocket
	WSDialTimeout           time.Duration
	WSPongTimeout           time.Duration
	WSPingInterval          time.Duration
	WSReconnectInitialDelay time.Duration
	WSReconnectMaxDelay     time.Duration
	WSReconnectBackoffMult  float64
	WSReconnectJitterPct    float64
	WSRecordBufferSize      int

	// Storage
	StorageMode  string // "postgres" or "console"
	PostgresHost string
	PostgresPort string
	PostgresUser string
	PostgresPass string
	PostgresDB   string
	PostgresSSL  string
}

// LoadFromEnv loads configuration from environment variables with defaults.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		// Application defaults
		LogLevel: getEnvOrDefault("LOG_LEVEL", "info"),
		HTTPPort: getEnvOrDefault("HTTP_PORT", "8080"),

		// Solana endpoint defaults (public mainnet RPC)
		RPCEndpoint: getEnvOrDefault("RPC_ENDPOINT", "https://api.mainnet-beta.solana.com"),
		WSEndpoint:  getEnvOrDefault("WS_ENDPOINT", "wss://api.mainnet-beta.solana.com"),

		// Monitoring defaults
		Venues:     parseVenueList(getEnvOrDefault("VENUES", "raydium,orca,meteora")),
		Commitment: types.Commitment(getEnvOrDefault("COMMITMENT", "confirmed")),

		// Pipeline defaults
		PerRecordDeadline: getDurationOrDefault("PER_RECORD_DEADLINE_MS", 2*time.Second),
		PipelineWorkers:   getIntOrDefault("PIPELINE_WORKERS", 64),

		// Fetcher defaults
		FetchConcurrencyLimit: getIntOrDefault("FETCH_CONCURRENCY_LIMIT", 16),
		FetchRetryDelay:       getDurationOrDefault("FETCH_RETRY_DELAY", 200*time.Millisecond),
		RPCTimeout:            getDurationOrDefault("RPC_TIMEOUT", 5*time.Second),

		// RPC circuit breaker defaults
		RPCBreakerCheckInterval:    getDurationOrDefault("RPC_BREAKER_CHECK_INTERVAL", 5*time.Second),
		RPCBreakerFailureThreshold: getIntOrDefault("RPC_BREAKER_FAILURE_THRESHOLD", 5),
		RPCBreakerProbeSuccesses:   getIntOrDefault("RPC_BREAKER_PROBE_SUCCESSES", 2),

		// Impact defaults
		ReserveStalenessThreshold: getDurationOrDefault("RESERVE_STALENESS_THRESHOLD_MS", 2*time.Second),
		MinMcapUSD:                getFloat64OrDefault("MIN_MCAP_USD", 500_000),
		MaxMcapUSD:                getFloat64OrDefault("MAX_MCAP_USD", 10_000_000),

		// Cost model defaults
		Cost: CostModel{
			FeeBps:               getIntOrDefault("FEE_BPS", 25),
			SlippageBps:          getIntOrDefault("SLIPPAGE_BPS", 200),
			PriorityFeeLamports:  uint64(getIntOrDefault("PRIORITY_FEE_LAMPORTS", 500_000)),
			PositionSizeLamports: uint64(getIntOrDefault("POSITION_SIZE_LAMPORTS", 670_000_000)),
			BaseMarginBps:        getIntOrDefault("BASE_MARGIN_BPS", 50),
		},

		// WebSocket defaults
		WSDialTimeout:           getDurationOrDefault("WS_DIAL_TIMEOUT", 10*time.Second),
		WSPongTimeout:           getDurationOrDefault("WS_PONG_TIMEOUT", 15*time.Second),
		WSPingInterval:          getDurationOrDefault("WS_PING_INTERVAL", 10*time.Second),
		WSReconnectInitialDelay: getDurationOrDefault("WS_RECONNECT_INITIAL_DELAY", 100*time.Millisecond),
		WSReconnectMaxDelay:     getDurationOrDefault("WS_RECONNECT_MAX_DELAY", 5*time.Second),
		WSReconnectBackoffMult:  getFloat64OrDefault("WS_RECONNECT_BACKOFF_MULTIPLIER", 2.0),
		WSReconnectJitterPct:    getFloat64OrDefault("WS_RECONNECT_JITTER_PCT", 0.2),
		WSRecordBufferSize:      getIntOrDefault("WS_RECORD_BUFFER_SIZE", 1000),

		// Storage defaults
		StorageMode:  getEnvOrDefault("STORAGE_MODE", "console"),
		PostgresHost: getEnvOrDefault("POSTGRES_HOST", "localhost"),
		PostgresPort: getEnvOrDefault("POSTGRES_PORT", "5432"),
		PostgresUser: getEnvOrDefault("POSTGRES_USER", "sandwichd"),
		PostgresPass: getEnvOrDefault("POSTGRES_PASSWORD", "sandwichd"),
		PostgresDB:   getEnvOrDefault("POSTGRES_DB", "sandwichd"),
		PostgresSSL:  getEnvOrDefault("POSTGRES_SSLMODE", "disable"),
	}

	err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// Validate checks that configuration values are valid.
func (c *Config) Validate() error {
	if c.HTTPPort == "" {
		return fmt.Errorf("HTTP_PORT cannot be empty")
	}

	if c.RPCEndpoint == "" {
		return fmt.Errorf("RPC_ENDPOINT cannot be empty")
	}

	if c.WSEndpoint == "" {
		return fmt.Errorf("WS_ENDPOINT cannot be empty")
	}

	if len(c.Venues) == 0 {
		return fmt.Errorf("VENUES must name at least one venue")
	}

	for _, v := range c.Venues {
		if v == types.VenueUnknown {
			return fmt.Errorf("VENUES contains an unrecognized venue name")
		}
	}

	if !c.Commitment.Valid() {
		return fmt.Errorf("COMMITMENT must be processed, confirmed or finalized, got %q", c.Commitment)
	}

	if c.PerRecordDeadline <= 0 {
		return fmt.Errorf("PER_RECORD_DEADLINE_MS must be positive, got %v", c.PerRecordDeadline)
	}

	if c.FetchConcurrencyLimit <= 0 {
		return fmt.Errorf("FETCH_CONCURRENCY_LIMIT must be positive, got %d", c.FetchConcurrencyLimit)
	}

	if c.RPCBreakerFailureThreshold <= 0 {
		return fmt.Errorf("RPC_BREAKER_FAILURE_THRESHOLD must be positive, got %d", c.RPCBreakerFailureThreshold)
	}

	if c.RPCBreakerProbeSuccesses <= 0 {
		return fmt.Errorf("RPC_BREAKER_PROBE_SUCCESSES must be positive, got %d", c.RPCBreakerProbeSuccesses)
	}

	if c.PipelineWorkers <= 0 {
		return fmt.Errorf("PIPELINE_WORKERS must be positive, got %d", c.PipelineWorkers)
	}

	if c.ReserveStalenessThreshold <= 0 {
		return fmt.Errorf("RESERVE_STALENESS_THRESHOLD_MS must be positive, got %v", c.ReserveStalenessThreshold)
	}

	if c.Cost.FeeBps < 0 || c.Cost.SlippageBps < 0 || c.Cost.BaseMarginBps < 0 {
		return fmt.Errorf("cost model basis points cannot be negative")
	}

	if c.StorageMode != "console" && c.StorageMode != "postgres" {
		return fmt.Errorf("STORAGE_MODE must be 'console' or 'postgres', got %q", c.StorageMode)
	}

	return nil
}

func parseVenueList(csv string) []types.Venue {
	var venues []types.Venue
	for _, name := range strings.Split(csv, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		venues = append(venues, types.ParseVenue(name))
	}
	return venues
}

func getEnvOrDefault(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	intVal, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intVal
}

func getFloat64OrDefault(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	floatVal, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}

	return floatVal
}

// getDurationOrDefault accepts either a Go duration string ("500ms")
// or, for *_MS keys, a bare integer interpreted as milliseconds.
func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if ms, err := strconv.Atoi(value); err == nil {
		return time.Duration(ms) * time.Millisecond
	}

	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}

	return duration
}
