package impact

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

const (
	// Fallback used until the first successful poll, and kept when the
	// price source is unreachable.
	fallbackSOLPriceUSD = 221.0

	defaultPriceURL      = "https://api.coingecko.com/api/v3/simple/price?ids=solana&vs_currencies=usd"
	defaultPriceInterval = 60 * time.Second
)

// SOLPriceTracker polls an external source for the SOL/USD price and
// serves the last good value. The price is advisory: it only feeds
// the market-cap range gate, never the profit math.
type SOLPriceTracker struct {
	url        string
	interval   time.Duration
	httpClient *http.Client
	logger     *zap.Logger
	priceBits  atomic.Uint64
	cancel     context.CancelFunc
	wg         sync.WaitGroup
}

// TrackerConfig holds price tracker configuration.
type TrackerConfig struct {
	URL      string
	Interval time.Duration
	Logger   *zap.Logger
}

// NewSOLPriceTracker creates a tracker primed with the fallback price.
func NewSOLPriceTracker(cfg TrackerConfig) *SOLPriceTracker {
	url := cfg.URL
	if url == "" {
		url = defaultPriceURL
	}
	interval := cfg.Interval
	if interval <= 0 {
		interval = defaultPriceInterval
	}

	t := &SOLPriceTracker{
		url:        url,
		interval:   interval,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     cfg.Logger,
	}
	t.priceBits.Store(math.Float64bits(fallbackSOLPriceUSD))

	return t
}

// Price returns the last known SOL/USD price.
func (t *SOLPriceTracker) Price() float64 {
	return math.Float64frombits(t.priceBits.Load())
}

// Start begins polling. Non-blocking.
func (t *SOLPriceTracker) Start(ctx context.Context) {
	ctx, t.cancel = context.WithCancel(ctx)

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()

		t.poll(ctx)

		ticker := time.NewTicker(t.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				t.poll(ctx)
			}
		}
	}()
}

func (t *SOLPriceTracker) poll(ctx context.Context) {
	price, err := t.fetchPrice(ctx)
	if err != nil {
		t.logger.Warn("sol-price-poll-failed", zap.Error(err))
		return
	}

	t.priceBits.Store(math.Float64bits(price))
	SOLPriceUSD.Set(price)
	t.logger.Debug("sol-price-updated", zap.Float64("usd", price))
}

func (t *SOLPriceTracker) fetchPrice(ctx context.Context) (float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.url, nil)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("get: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var payload struct {
		Solana struct {
			USD float64 `json:"usd"`
		} `json:"solana"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, fmt.Errorf("decode: %w", err)
	}

	if payload.Solana.USD <= 0 {
		return 0, fmt.Errorf("non-positive price %f", payload.Solana.USD)
	}

	return payload.Solana.USD, nil
}

// Close stops the polling loop.
func (t *SOLPriceTracker) Close() {
	if t.cancel != nil {
		t.cancel()
	}
	t.wg.Wait()
}
