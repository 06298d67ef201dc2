package app

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// Run starts the application and blocks until shutdown.
func (a *App) Run() error {
	a.logger.Info("monitor-starting",
		zap.String("commitment", string(a.cfg.Commitment)),
		zap.Duration("per-record-deadline", a.cfg.PerRecordDeadline),
		zap.String("log-level", a.cfg.LogLevel))

	err := a.startComponents()
	if err != nil {
		return err
	}

	// Mark as ready
	a.healthChecker.SetReady(true)

	a.logger.Info("monitor-ready",
		zap.String("http-addr", ":"+a.cfg.HTTPPort),
		zap.String("ws-url", a.cfg.WSEndpoint))

	// Wait for shutdown signal
	return a.waitForShutdown()
}

func (a *App) startComponents() error {
	// Start HTTP server
	a.wg.Add(1)
	go a.runHTTPServer()

	// Give HTTP server a moment to start
	time.Sleep(100 * time.Millisecond)

	// Start SOL price polling (feeds the market-cap gate)
	a.priceTracker.Start(a.ctx)

	// Start RPC health probing (gates the fetch stage)
	a.rpcBreaker.Start(a.ctx)

	// Start the pipeline before the stream so early records have a
	// consumer.
	a.wg.Add(1)
	go a.runPipeline()

	// Drain accepted opportunities
	a.wg.Add(1)
	go a.drainAccepted()

	// Start log stream
	err := a.wsManager.Start()
	if err != nil {
		return fmt.Errorf("start log stream: %w", err)
	}

	return nil
}

func (a *App) runHTTPServer() {
	defer a.wg.Done()
	err := a.httpServer.Start()
	if err != nil {
		a.logger.Error("http-server-error", zap.Error(err))
	}
}

func (a *App) runPipeline() {
	defer a.wg.Done()
	a.coordinator.Run(a.ctx, a.wsManager.Records())
	a.coordinator.Close()
}

// drainAccepted consumes accepted opportunities. There is no executor
// wired behind the monitor; accepts are logged so the channel never
// backs up.
func (a *App) drainAccepted() {
	defer a.wg.Done()
	for opp := range a.coordinator.Accepted() {
		a.logger.Info("opportunity-accepted",
			zap.String("id", opp.ID),
			zap.String("signature", opp.Signature),
			zap.String("venue", string(opp.Venue)),
			zap.String("pool", opp.PoolID),
			zap.Float64("mcap-delta-pct", opp.MCapDeltaPct),
			zap.Uint64("estimated-profit-lamports", opp.EstimatedProfit),
			zap.Uint64("estimated-cost-lamports", opp.EstimatedCost))
	}
}

func (a *App) waitForShutdown() error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		a.logger.Info("shutdown-signal-received", zap.String("signal", sig.String()))
	case <-a.ctx.Done():
		a.logger.Info("context-cancelled")
	}

	return a.Shutdown()
}
