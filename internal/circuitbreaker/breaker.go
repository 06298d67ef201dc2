// Package circuitbreaker guards the fetch stage against a degraded
// RPC endpoint. When consecutive RPC failures cross a threshold the
// breaker opens and fetches fail fast instead of burning their
// per-record deadline; a background probe closes it again once the
// endpoint recovers.
package circuitbreaker

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/solscope/sandwichd/pkg/types"
)

// SlotFetcher issues the probe call used to test endpoint health.
type SlotFetcher interface {
	GetSlot(ctx context.Context, commitment types.Commitment) (uint64, error)
}

// RPCCircuitBreaker tracks RPC health from fetch outcomes. IsHealthy
// is lock-free and safe to call on the hot path.
type RPCCircuitBreaker struct {
	healthy atomic.Bool

	// Configuration
	checkInterval    time.Duration
	failureThreshold int
	probeSuccesses   int
	client           SlotFetcher
	commitment       types.Commitment
	logger           *zap.Logger

	// Protected by mutex
	mu                  sync.RWMutex
	consecutiveFailures int
	consecutiveProbes   int
	lastProbe           time.Time
	openedAt            time.Time
}

// Config holds circuit breaker configuration.
type Config struct {
	CheckInterval    time.Duration
	FailureThreshold int
	ProbeSuccesses   int
	Client           SlotFetcher
	Commitment       types.Commitment
	Logger           *zap.Logger
}

// Status holds current circuit breaker status for debugging.
type Status struct {
	Healthy             bool
	ConsecutiveFailures int
	LastProbe           time.Time
	OpenedAt            time.Time
}

// New creates a circuit breaker. It starts closed (healthy).
func New(cfg *Config) (*RPCCircuitBreaker, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if cfg.Client == nil {
		return nil, fmt.Errorf("client cannot be nil")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}
	if cfg.CheckInterval <= 0 {
		return nil, fmt.Errorf("check interval must be positive")
	}
	if cfg.FailureThreshold <= 0 {
		return nil, fmt.Errorf("failure threshold must be positive")
	}
	if cfg.ProbeSuccesses <= 0 {
		return nil, fmt.Errorf("probe successes must be positive")
	}

	breaker := &RPCCircuitBreaker{
		checkInterval:    cfg.CheckInterval,
		failureThreshold: cfg.FailureThreshold,
		probeSuccesses:   cfg.ProbeSuccesses,
		client:           cfg.Client,
		commitment:       cfg.Commitment,
		logger:           cfg.Logger,
	}
	breaker.healthy.Store(true)

	BreakerHealthy.Set(1)
	BreakerConsecutiveFailures.Set(0)

	return breaker, nil
}

// IsHealthy returns true if fetches should hit the endpoint.
func (b *RPCCircuitBreaker) IsHealthy() bool {
	return b.healthy.Load()
}

// RecordSuccess resets the failure streak. Call it after any RPC
// round trip that got a well-formed response, including not-found.
func (b *RPCCircuitBreaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.consecutiveFailures == 0 {
		return
	}
	b.consecutiveFailures = 0
	BreakerConsecutiveFailures.Set(0)
}

// RecordFailure counts a failed RPC round trip and opens the breaker
// once the streak reaches the threshold.
func (b *RPCCircuitBreaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.consecutiveFailures++
	BreakerConsecutiveFailures.Set(float64(b.consecutiveFailures))

	if !b.healthy.Load() || b.consecutiveFailures < b.failureThreshold {
		return
	}

	b.healthy.Store(false)
	b.openedAt = time.Now()
	BreakerHealthy.Set(0)
	BreakerStateChanges.Inc()

	b.logger.Warn("rpc-circuit-opened",
		zap.Int("consecutive_failures", b.consecutiveFailures),
		zap.Int("failure_threshold", b.failureThreshold))
}

// probe tests the endpoint with a getSlot call. Probe successes
// accumulate; the breaker closes after enough of them in a row, so a
// single lucky response does not flap it back to healthy.
func (b *RPCCircuitBreaker) probe(ctx context.Context) {
	start := time.Now()
	_, err := b.client.GetSlot(ctx, b.commitment)
	BreakerProbeDuration.Observe(time.Since(start).Seconds())

	b.mu.Lock()
	defer b.mu.Unlock()

	b.lastProbe = time.Now()

	if err != nil {
		b.consecutiveProbes = 0
		b.logger.Debug("rpc-probe-failed", zap.Error(err))
		return
	}

	b.consecutiveProbes++
	if b.consecutiveProbes < b.probeSuccesses {
		b.logger.Debug("rpc-probe-succeeded",
			zap.Int("consecutive", b.consecutiveProbes),
			zap.Int("required", b.probeSuccesses))
		return
	}

	b.healthy.Store(true)
	b.consecutiveFailures = 0
	b.consecutiveProbes = 0
	BreakerHealthy.Set(1)
	BreakerConsecutiveFailures.Set(0)
	BreakerStateChanges.Inc()

	b.logger.Info("rpc-circuit-closed",
		zap.Duration("open_for", time.Since(b.openedAt)))
}

// Start begins the background probe loop. It runs until the context
// is canceled.
func (b *RPCCircuitBreaker) Start(ctx context.Context) {
	b.logger.Info("rpc-circuit-breaker-started",
		zap.Duration("check_interval", b.checkInterval),
		zap.Int("failure_threshold", b.failureThreshold),
		zap.Int("probe_successes", b.probeSuccesses))

	go b.monitorLoop(ctx)
}

// monitorLoop probes the endpoint while the breaker is open. While it
// is closed the regular fetch traffic supplies the health signal and
// no extra RPC calls are spent.
func (b *RPCCircuitBreaker) monitorLoop(ctx context.Context) {
	ticker := time.NewTicker(b.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			b.logger.Info("rpc-circuit-breaker-stopped")
			return
		case <-ticker.C:
			if b.healthy.Load() {
				continue
			}

			probeCtx, cancel := context.WithTimeout(ctx, b.checkInterval)
			b.probe(probeCtx)
			cancel()
		}
	}
}

// GetStatus returns current breaker status for debugging.
func (b *RPCCircuitBreaker) GetStatus() Status {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return Status{
		Healthy:             b.healthy.Load(),
		ConsecutiveFailures: b.consecutiveFailures,
		LastProbe:           b.lastProbe,
		OpenedAt:            b.openedAt,
	}
}
