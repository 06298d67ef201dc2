package websocket

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ReconnectConfig holds the exponential backoff parameters.
type ReconnectConfig struct {
	InitialDelay      time.Duration
	MaxDelay          time.Duration
	BackoffMultiplier float64
	JitterPercent     float64 // 0.2 = up to 20% added on top of the base delay
}

// ReconnectManager retries a connect function with jittered
// exponential backoff until it succeeds or the context ends.
type ReconnectManager struct {
	config         ReconnectConfig
	logger         *zap.Logger
	currentBackoff time.Duration
	mu             sync.Mutex
}

// NewReconnectManager creates a reconnection manager.
func NewReconnectManager(cfg ReconnectConfig, logger *zap.Logger) *ReconnectManager {
	return &ReconnectManager{
		config:         cfg,
		logger:         logger,
		currentBackoff: cfg.InitialDelay,
	}
}

// Reconnect retries connectFunc until it succeeds. Each failure grows
// the delay by the multiplier, capped at MaxDelay. Success resets the
// backoff for the next outage.
func (rm *ReconnectManager) Reconnect(ctx context.Context, connectFunc func(context.Context) error) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		backoff := rm.nextBackoff()

		rm.logger.Info("reconnect-waiting", zap.Duration("backoff", backoff))
		ReconnectAttemptsTotal.Inc()

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return ctx.Err()
		}

		err := connectFunc(ctx)
		if err == nil {
			rm.Reset()
			rm.logger.Info("reconnect-succeeded")
			return nil
		}

		rm.logger.Warn("reconnect-attempt-failed", zap.Error(err))
		ReconnectFailuresTotal.Inc()

		rm.incrementBackoff()
	}
}

// Reset restores the backoff to the initial delay.
func (rm *ReconnectManager) Reset() {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	rm.currentBackoff = rm.config.InitialDelay
}

// nextBackoff returns the current delay with jitter applied.
func (rm *ReconnectManager) nextBackoff() time.Duration {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	jitter := rand.Float64() * rm.config.JitterPercent
	return time.Duration(float64(rm.currentBackoff) * (1.0 + jitter))
}

// incrementBackoff grows the delay, capped at MaxDelay.
func (rm *ReconnectManager) incrementBackoff() {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	next := time.Duration(float64(rm.currentBackoff) * rm.config.BackoffMultiplier)
	if next > rm.config.MaxDelay {
		next = rm.config.MaxDelay
	}
	rm.currentBackoff = next
}
