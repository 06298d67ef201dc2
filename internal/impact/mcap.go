package impact

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/solscope/sandwichd/pkg/cache"
	"github.com/solscope/sandwichd/pkg/solana"
	"github.com/solscope/sandwichd/pkg/types"
)

// WSOLMint is the wrapped-SOL mint address.
const WSOLMint = "So11111111111111111111111111111111111111112"

const supplyCacheTTL = 5 * time.Minute

// McapGate screens pools by token market cap in USD. Small caps move
// enough to sandwich; large caps are too deep to matter. The gate is
// advisory: when supply or price data is unavailable it passes the
// pool through rather than guessing.
type McapGate struct {
	client   solana.Client
	supplies cache.Cache
	prices   *SOLPriceTracker
	minUSD   float64
	maxUSD   float64
	logger   *zap.Logger
}

// GateConfig holds market-cap gate configuration.
type GateConfig struct {
	Client      solana.Client
	SupplyCache cache.Cache
	PriceSource *SOLPriceTracker
	MinMcapUSD  float64
	MaxMcapUSD  float64
	Logger      *zap.Logger
}

// NewMcapGate creates a gate. With zero bounds the gate is disabled.
func NewMcapGate(cfg GateConfig) *McapGate {
	return &McapGate{
		client:   cfg.Client,
		supplies: cfg.SupplyCache,
		prices:   cfg.PriceSource,
		minUSD:   cfg.MinMcapUSD,
		maxUSD:   cfg.MaxMcapUSD,
		logger:   cfg.Logger,
	}
}

// Allows reports whether the pool's non-SOL token sits inside the
// configured market-cap range. Only SOL-quoted pools can be priced;
// everything else passes through.
func (g *McapGate) Allows(ctx context.Context, effect *types.SwapEffect) bool {
	if g.minUSD <= 0 && g.maxUSD <= 0 {
		return true
	}

	tokenMint, solReserve, tokenReserve, ok := g.orientPool(effect)
	if !ok {
		return true
	}

	supply, err := g.tokenSupply(ctx, tokenMint)
	if err != nil {
		g.logger.Debug("mcap-gate-skipped", zap.String("mint", tokenMint), zap.Error(err))
		return true
	}

	if tokenReserve == 0 || supply.Amount == 0 {
		return true
	}

	// price per token in SOL, then USD. Decimals cancel out of the
	// reserve ratio only when scaled explicitly.
	priceSOL := float64(solReserve) / 1e9 / (float64(tokenReserve) / math.Pow10(int(supply.Decimals)))
	mcapUSD := priceSOL * g.prices.Price() * float64(supply.Amount) / math.Pow10(int(supply.Decimals))

	if g.minUSD > 0 && mcapUSD < g.minUSD {
		McapGateRejectionsTotal.WithLabelValues("below_min").Inc()
		return false
	}
	if g.maxUSD > 0 && mcapUSD > g.maxUSD {
		McapGateRejectionsTotal.WithLabelValues("above_max").Inc()
		return false
	}

	return true
}

// orientPool returns the non-SOL mint and the (sol, token) reserves,
// or ok=false when the pool is not SOL-quoted.
func (g *McapGate) orientPool(effect *types.SwapEffect) (tokenMint string, solReserve, tokenReserve uint64, ok bool) {
	snap := effect.ReservesBefore
	switch {
	case snap.MintIn == WSOLMint && snap.MintOut != WSOLMint:
		return snap.MintOut, snap.ReserveIn, snap.ReserveOut, true
	case snap.MintOut == WSOLMint && snap.MintIn != WSOLMint:
		return snap.MintIn, snap.ReserveOut, snap.ReserveIn, true
	default:
		return "", 0, 0, false
	}
}

func (g *McapGate) tokenSupply(ctx context.Context, mint string) (solana.TokenAmount, error) {
	key := "supply:" + mint
	if g.supplies != nil {
		if v, found := g.supplies.Get(key); found {
			if supply, ok := v.(solana.TokenAmount); ok {
				return supply, nil
			}
		}
	}

	supply, err := g.client.GetTokenSupply(ctx, mint)
	if err != nil {
		return solana.TokenAmount{}, fmt.Errorf("get token supply: %w", err)
	}

	if g.supplies != nil {
		g.supplies.Set(key, supply, supplyCacheTTL)
	}

	return supply, nil
}
