// Package app wires configuration, the log stream, the processing
// pipeline and the HTTP surface into one runnable monitor.
package app

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/solscope/sandwichd/internal/circuitbreaker"
	"github.com/solscope/sandwichd/internal/impact"
	"github.com/solscope/sandwichd/internal/pipeline"
	"github.com/solscope/sandwichd/internal/storage"
	"github.com/solscope/sandwichd/pkg/cache"
	"github.com/solscope/sandwichd/pkg/config"
	"github.com/solscope/sandwichd/pkg/healthprobe"
	"github.com/solscope/sandwichd/pkg/httpserver"
	"github.com/solscope/sandwichd/pkg/solana"
	"github.com/solscope/sandwichd/pkg/websocket"
)

// App is the main application orchestrator.
type App struct {
	cfg           *config.Config
	logger        *zap.Logger
	healthChecker *healthprobe.HealthChecker
	httpServer    *httpserver.Server
	wsManager     *websocket.Manager
	rpcClient     *solana.HTTPClient
	rpcBreaker    *circuitbreaker.RPCCircuitBreaker
	priceTracker  *impact.SOLPriceTracker
	coordinator   *pipeline.Coordinator
	appCache      cache.Cache
	storage       storage.Storage
	ctx           context.Context
	cancel        context.CancelFunc
	wg            sync.WaitGroup
}

// Options holds application options.
type Options struct {
	// Venues overrides the configured venue list when non-empty.
	// Used by the CLI for one-off runs against a single venue.
	Venues []string
}
