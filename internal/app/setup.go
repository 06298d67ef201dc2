package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/solscope/sandwichd/internal/circuitbreaker"
	"github.com/solscope/sandwichd/internal/classifier"
	"github.com/solscope/sandwichd/internal/decoder"
	"github.com/solscope/sandwichd/internal/evaluator"
	"github.com/solscope/sandwichd/internal/fetcher"
	"github.com/solscope/sandwichd/internal/impact"
	"github.com/solscope/sandwichd/internal/pipeline"
	"github.com/solscope/sandwichd/internal/storage"
	"github.com/solscope/sandwichd/pkg/cache"
	"github.com/solscope/sandwichd/pkg/config"
	"github.com/solscope/sandwichd/pkg/healthprobe"
	"github.com/solscope/sandwichd/pkg/httpserver"
	"github.com/solscope/sandwichd/pkg/solana"
	"github.com/solscope/sandwichd/pkg/types"
	"github.com/solscope/sandwichd/pkg/websocket"
)

// New creates a new application instance.
func New(cfg *config.Config, logger *zap.Logger, opts *Options) (*App, error) {
	if opts == nil {
		opts = &Options{}
	}

	venues := cfg.Venues
	if len(opts.Venues) > 0 {
		venues = make([]types.Venue, 0, len(opts.Venues))
		for _, name := range opts.Venues {
			v := types.ParseVenue(name)
			if v == types.VenueUnknown {
				return nil, fmt.Errorf("unrecognized venue %q", name)
			}
			venues = append(venues, v)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())

	healthChecker := healthprobe.New()

	appCache, err := setupCache(logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup cache: %w", err)
	}

	rpcClient := setupRPCClient(cfg, logger)

	rpcBreaker, err := circuitbreaker.New(&circuitbreaker.Config{
		CheckInterval:    cfg.RPCBreakerCheckInterval,
		FailureThreshold: cfg.RPCBreakerFailureThreshold,
		ProbeSuccesses:   cfg.RPCBreakerProbeSuccesses,
		Client:           rpcClient,
		Commitment:       cfg.Commitment,
		Logger:           logger,
	})
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup circuit breaker: %w", err)
	}

	priceTracker := impact.NewSOLPriceTracker(impact.TrackerConfig{Logger: logger})

	oppStorage, err := setupStorage(cfg, logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup storage: %w", err)
	}

	coordinator := setupPipeline(cfg, logger, venues, rpcClient, rpcBreaker, appCache, priceTracker, oppStorage)
	wsManager := setupLogStream(cfg, logger, venues)
	httpServer := setupHTTPServer(cfg, logger, healthChecker, coordinator)

	return &App{
		cfg:           cfg,
		logger:        logger,
		healthChecker: healthChecker,
		httpServer:    httpServer,
		wsManager:     wsManager,
		rpcClient:     rpcClient,
		rpcBreaker:    rpcBreaker,
		priceTracker:  priceTracker,
		coordinator:   coordinator,
		appCache:      appCache,
		storage:       oppStorage,
		ctx:           ctx,
		cancel:        cancel,
	}, nil
}

func setupCache(logger *zap.Logger) (cache.Cache, error) {
	return cache.NewRistrettoCache(&cache.RistrettoConfig{
		NumCounters: 100000, // 10x expected max items (pools + mints)
		MaxCost:     10000,  // Maximum 10000 items in cache
		BufferItems: 64,     // Buffer size for Get operations
		Logger:      logger,
	})
}

func setupRPCClient(cfg *config.Config, logger *zap.Logger) *solana.HTTPClient {
	return solana.NewHTTPClient(cfg.RPCEndpoint, logger,
		solana.WithTimeout(cfg.RPCTimeout),
		solana.WithRetryDelay(cfg.FetchRetryDelay),
	)
}

func setupStorage(cfg *config.Config, logger *zap.Logger) (storage.Storage, error) {
	if cfg.StorageMode == "postgres" {
		pgStorage, err := storage.NewPostgresStorage(&storage.PostgresConfig{
			Host:     cfg.PostgresHost,
			Port:     cfg.PostgresPort,
			User:     cfg.PostgresUser,
			Password: cfg.PostgresPass,
			Database: cfg.PostgresDB,
			SSLMode:  cfg.PostgresSSL,
			Logger:   logger,
		})
		if err != nil {
			return nil, fmt.Errorf("create postgres storage: %w", err)
		}
		return pgStorage, nil
	}

	return storage.NewConsoleStorage(logger), nil
}

func setupPipeline(
	cfg *config.Config,
	logger *zap.Logger,
	venues []types.Venue,
	rpcClient *solana.HTTPClient,
	rpcBreaker *circuitbreaker.RPCCircuitBreaker,
	appCache cache.Cache,
	priceTracker *impact.SOLPriceTracker,
	oppStorage storage.Storage,
) *pipeline.Coordinator {
	venueClassifier := classifier.New(classifier.Config{
		Venues: venues,
		Logger: logger,
	})

	txFetcher := fetcher.New(fetcher.Config{
		Client:           rpcClient,
		Breaker:          rpcBreaker,
		ConcurrencyLimit: cfg.FetchConcurrencyLimit,
		RetryDelay:       cfg.FetchRetryDelay,
		Logger:           logger,
	})

	registry := decoder.DefaultRegistry(logger)

	estimator := impact.New(impact.Config{
		StalenessThreshold: cfg.ReserveStalenessThreshold,
		SnapshotCache:      appCache,
		Logger:             logger,
	})

	gate := impact.NewMcapGate(impact.GateConfig{
		Client:      rpcClient,
		SupplyCache: appCache,
		PriceSource: priceTracker,
		MinMcapUSD:  cfg.MinMcapUSD,
		MaxMcapUSD:  cfg.MaxMcapUSD,
		Logger:      logger,
	})

	eval := evaluator.New(evaluator.Config{
		Cost:   cfg.Cost,
		Logger: logger,
	})

	return pipeline.New(pipeline.Config{
		Classifier:        venueClassifier,
		Fetcher:           txFetcher,
		Decoder:           registry,
		Estimator:         estimator,
		Evaluator:         eval,
		Gate:              gate,
		Storage:           oppStorage,
		Commitment:        cfg.Commitment,
		PerRecordDeadline: cfg.PerRecordDeadline,
		Workers:           cfg.PipelineWorkers,
		Logger:            logger,
	})
}

func setupLogStream(cfg *config.Config, logger *zap.Logger, venues []types.Venue) *websocket.Manager {
	return websocket.New(websocket.Config{
		URL:                   cfg.WSEndpoint,
		Commitment:            cfg.Commitment,
		ProgramIDs:            classifier.ProgramIDsForVenues(venues),
		DialTimeout:           cfg.WSDialTimeout,
		PongTimeout:           cfg.WSPongTimeout,
		PingInterval:          cfg.WSPingInterval,
		ReconnectInitialDelay: cfg.WSReconnectInitialDelay,
		ReconnectMaxDelay:     cfg.WSReconnectMaxDelay,
		ReconnectBackoffMult:  cfg.WSReconnectBackoffMult,
		ReconnectJitterPct:    cfg.WSReconnectJitterPct,
		RecordBufferSize:      cfg.WSRecordBufferSize,
		Logger:                logger,
	})
}

func setupHTTPServer(
	cfg *config.Config,
	logger *zap.Logger,
	healthChecker *healthprobe.HealthChecker,
	coordinator *pipeline.Coordinator,
) *httpserver.Server {
	return httpserver.New(&httpserver.Config{
		Port:          cfg.HTTPPort,
		Logger:        logger,
		HealthChecker: healthChecker,
		Opportunities: coordinator,
	})
}
