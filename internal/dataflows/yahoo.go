package dataflows

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"
	"github.com/piquette/finance-go/quote"

	"github.com/quorumtrade/boardroom/internal/models"
)

// YahooClient is the primary market-data provider.
type YahooClient struct {
	cache    *CacheManager
	memCache *MemoryCache
}

// NewYahooClient creates a Yahoo Finance client with layered caching.
func NewYahooClient(cacheDir string, cacheEnabled bool) *YahooClient {
	return &YahooClient{
		cache:    NewCacheManager(filepath.Join(cacheDir, "yahoo"), MarketDataTTL, cacheEnabled),
		memCache: NewMemoryCache(MarketDataTTL),
	}
}

func (yc *YahooClient) Name() string { return "yahoo" }

// GetStockData returns the current quote with a trailing year of history.
func (yc *YahooClient) GetStockData(ctx context.Context, ticker string) (*models.StockData, error) {
	if err := ValidateSymbol(ticker); err != nil {
		return nil, err
	}
	ticker = NormalizeSymbol(ticker)

	memKey := "stock_data:" + ticker
	var cached models.StockData
	if yc.memCache.Get(memKey, &cached) {
		return &cached, nil
	}

	var result *models.StockData
	err := WithRetry(DefaultRetryConfig(), func() error {
		q, err := quote.Get(ticker)
		if err != nil {
			return fmt.Errorf("get quote for %s: %w", ticker, err)
		}
		if q == nil {
			return fmt.Errorf("no quote returned for %s", ticker)
		}

		result = &models.StockData{
			Ticker:       ticker,
			CurrentPrice: q.RegularMarketPrice,
			Open:         q.RegularMarketOpen,
			High:         q.RegularMarketDayHigh,
			Low:          q.RegularMarketDayLow,
			Volume:       int64(q.RegularMarketVolume),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	history, err := yc.GetPriceHistory(ctx, ticker, 365)
	if err == nil {
		result.History = history
	}

	yc.memCache.Set(memKey, result)
	return result, nil
}

// GetPriceHistory returns up to days of daily bars, ascending by date.
func (yc *YahooClient) GetPriceHistory(ctx context.Context, ticker string, days int) ([]models.PriceBar, error) {
	if err := ValidateSymbol(ticker); err != nil {
		return nil, err
	}
	ticker = NormalizeSymbol(ticker)

	end := time.Now()
	start := end.AddDate(0, 0, -days)

	cacheKey := map[string]interface{}{
		"symbol": ticker,
		"start":  start.Format("2006-01-02"),
		"end":    end.Format("2006-01-02"),
	}

	var cached []models.PriceBar
	if yc.cache.Get("yahoo", "historical", cacheKey, &cached) {
		return cached, nil
	}

	var result []models.PriceBar
	err := WithRetry(DefaultRetryConfig(), func() error {
		params := &chart.Params{
			Symbol:   ticker,
			Start:    datetime.New(&start),
			End:      datetime.New(&end),
			Interval: datetime.OneDay,
		}

		iter := chart.Get(params)

		result = result[:0]
		for iter.Next() {
			bar := iter.Bar()
			result = append(result, models.PriceBar{
				Ticker:   ticker,
				Date:     time.Unix(int64(bar.Timestamp), 0).UTC(),
				Open:     bar.Open.InexactFloat64(),
				High:     bar.High.InexactFloat64(),
				Low:      bar.Low.InexactFloat64(),
				Close:    bar.Close.InexactFloat64(),
				AdjClose: bar.AdjClose.InexactFloat64(),
				Volume:   int64(bar.Volume),
			})
		}
		if err := iter.Err(); err != nil {
			return fmt.Errorf("get historical data for %s: %w", ticker, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	yc.cache.Set("yahoo", "historical", cacheKey, result)
	return result, nil
}
