package dataflows

import (
	"context"
	"errors"
	"fmt"
	"time"

	lpconfig "github.com/longportapp/openapi-go/config"
	lpquote "github.com/longportapp/openapi-go/quote"

	"github.com/quorumtrade/boardroom/config"
	"github.com/quorumtrade/boardroom/internal/models"
)

// LongportClient is the secondary market-data provider used when Yahoo is
// unreachable. It requires Longport API credentials.
type LongportClient struct {
	quoteCtx *lpquote.QuoteContext
}

// NewLongportClient connects to the Longport quote API; it fails fast when
// credentials are missing so the fallback chain can skip it.
func NewLongportClient(cfg *config.Config) (*LongportClient, error) {
	if cfg.LongportAppKey == "" || cfg.LongportAppSecret == "" || cfg.LongportAccessToken == "" {
		return nil, errors.New("longport API credentials not configured")
	}

	conf, err := lpconfig.New(lpconfig.WithConfigKey(cfg.LongportAppKey, cfg.LongportAppSecret, cfg.LongportAccessToken))
	if err != nil {
		return nil, err
	}

	quoteContext, err := lpquote.NewFromCfg(conf)
	if err != nil {
		return nil, err
	}

	return &LongportClient{quoteCtx: quoteContext}, nil
}

func (lc *LongportClient) Name() string { return "longport" }

func (lc *LongportClient) GetStockData(ctx context.Context, ticker string) (*models.StockData, error) {
	if lc.quoteCtx == nil {
		return nil, errors.New("quote context is nil")
	}
	ticker = NormalizeSymbol(ticker)

	history, err := lc.GetPriceHistory(ctx, ticker, 365)
	if err != nil {
		return nil, err
	}
	if len(history) == 0 {
		return nil, fmt.Errorf("no candlesticks returned for %s", ticker)
	}

	latest := history[len(history)-1]
	return &models.StockData{
		Ticker:       ticker,
		CurrentPrice: latest.Close,
		Open:         latest.Open,
		High:         latest.High,
		Low:          latest.Low,
		Volume:       latest.Volume,
		History:      history,
	}, nil
}

func (lc *LongportClient) GetPriceHistory(ctx context.Context, ticker string, days int) ([]models.PriceBar, error) {
	if lc.quoteCtx == nil {
		return nil, errors.New("quote context is nil")
	}
	ticker = NormalizeSymbol(ticker)

	sticks, err := lc.quoteCtx.Candlesticks(ctx, ticker, lpquote.PeriodDay, int32(days), lpquote.AdjustTypeNo)
	if err != nil {
		return nil, fmt.Errorf("get candlesticks for %s: %w", ticker, err)
	}

	bars := make([]models.PriceBar, 0, len(sticks))
	for _, stick := range sticks {
		open, _ := stick.Open.Float64()
		high, _ := stick.High.Float64()
		low, _ := stick.Low.Float64()
		closePrice, _ := stick.Close.Float64()
		bars = append(bars, models.PriceBar{
			Ticker:   ticker,
			Date:     time.Unix(stick.Timestamp, 0).UTC(),
			Open:     open,
			High:     high,
			Low:      low,
			Close:    closePrice,
			AdjClose: closePrice,
			Volume:   stick.Volume,
		})
	}
	return bars, nil
}
