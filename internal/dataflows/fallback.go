package dataflows

import (
	"context"
	"fmt"
	"log"

	"github.com/quorumtrade/boardroom/internal/models"
)

// FallbackChain is a MarketDataProvider that tries each configured provider
// in order, transparent to callers. The secondary only runs when the primary
// errors.
type FallbackChain struct {
	providers []MarketDataProvider
}

// NewFallbackChain wires providers in priority order; nil entries are skipped
// so an unconfigured secondary simply drops out of the chain.
func NewFallbackChain(providers ...MarketDataProvider) *FallbackChain {
	chain := &FallbackChain{}
	for _, p := range providers {
		if p != nil {
			chain.providers = append(chain.providers, p)
		}
	}
	return chain
}

func (fc *FallbackChain) Name() string { return "fallback-chain" }

func (fc *FallbackChain) GetStockData(ctx context.Context, ticker string) (*models.StockData, error) {
	var lastErr error
	for _, p := range fc.providers {
		data, err := p.GetStockData(ctx, ticker)
		if err == nil {
			return data, nil
		}
		log.Printf("provider %s failed for %s: %v", p.Name(), ticker, err)
		lastErr = err
	}
	if lastErr == nil {
		return nil, fmt.Errorf("no market data providers configured")
	}
	return nil, fmt.Errorf("all market data providers failed for %s: %w", ticker, lastErr)
}

func (fc *FallbackChain) GetPriceHistory(ctx context.Context, ticker string, days int) ([]models.PriceBar, error) {
	var lastErr error
	for _, p := range fc.providers {
		bars, err := p.GetPriceHistory(ctx, ticker, days)
		if err == nil {
			return bars, nil
		}
		log.Printf("provider %s failed for %s history: %v", p.Name(), ticker, err)
		lastErr = err
	}
	if lastErr == nil {
		return nil, fmt.Errorf("no market data providers configured")
	}
	return nil, fmt.Errorf("all market data providers failed for %s: %w", ticker, lastErr)
}
