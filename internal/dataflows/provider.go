// Package dataflows supplies the external data collaborators: market data
// (Yahoo primary, Longport secondary, chained fallback), fundamentals and
// news via Finnhub, and Google News scraping for social chatter.
package dataflows

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/quorumtrade/boardroom/internal/models"
)

// MarketDataProvider serves quotes and daily price history for a ticker.
type MarketDataProvider interface {
	Name() string
	GetStockData(ctx context.Context, ticker string) (*models.StockData, error)
	GetPriceHistory(ctx context.Context, ticker string, days int) ([]models.PriceBar, error)
}

// FundamentalsProvider serves the latest quarterly fundamentals snapshot.
type FundamentalsProvider interface {
	GetFundamentals(ctx context.Context, ticker string) (*models.FundamentalSnapshot, error)
}

// SearchProvider serves recent news and social content for a ticker.
type SearchProvider interface {
	SearchNews(ctx context.Context, ticker string, hours int) ([]models.SearchResult, error)
	SearchSocial(ctx context.Context, ticker string, hours int) ([]models.SearchResult, error)
}

var symbolPattern = regexp.MustCompile(`^[A-Z0-9.\-]{1,12}$`)

// ValidateSymbol rejects obviously malformed ticker symbols before they hit
// an upstream API.
func ValidateSymbol(symbol string) error {
	symbol = NormalizeSymbol(symbol)
	if symbol == "" {
		return fmt.Errorf("symbol is empty")
	}
	if !symbolPattern.MatchString(symbol) {
		return fmt.Errorf("invalid symbol %q", symbol)
	}
	return nil
}

// NormalizeSymbol upper-cases and trims a ticker symbol.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
