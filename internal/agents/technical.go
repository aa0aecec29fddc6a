package agents

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/eino/schema"

	"github.com/quorumtrade/boardroom/internal/dataflows"
	"github.com/quorumtrade/boardroom/internal/indicators"
	"github.com/quorumtrade/boardroom/internal/llm"
	"github.com/quorumtrade/boardroom/internal/models"
)

// TechnicalAnalyst computes indicator readings over a trailing year of
// prices and asks the LLM to interpret them. The numeric fields of the
// report come from the indicator library, not from the model's text.
type TechnicalAnalyst struct {
	*BaseAgent
	market dataflows.MarketDataProvider
}

func NewTechnicalAnalyst(provider llm.Provider, market dataflows.MarketDataProvider) *TechnicalAnalyst {
	return &TechnicalAnalyst{
		BaseAgent: NewBaseAgent(NameTechnical, provider),
		market:    market,
	}
}

func (t *TechnicalAnalyst) Analyze(ctx context.Context, ticker string) (*models.TechnicalReport, error) {
	bars, err := t.market.GetPriceHistory(ctx, ticker, 365)
	if err != nil {
		return nil, fmt.Errorf("technical analyst price history: %w", err)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("technical analyst: no price history for %s", ticker)
	}

	closes := make([]float64, 0, len(bars))
	for _, b := range bars {
		if b.AdjClose > 0 {
			closes = append(closes, b.AdjClose)
		}
	}
	if len(closes) == 0 {
		return nil, fmt.Errorf("technical analyst: no usable closes for %s", ticker)
	}

	current := closes[len(closes)-1]
	ma50 := indicators.MovingAverage(closes, 50)
	ma200 := indicators.MovingAverage(closes, 200)
	rsi := indicators.RSI(closes, 14)
	macd := indicators.MACD(closes)
	bands := indicators.BollingerBands(closes, 20, 2)
	atr := indicators.ATR(bars, 14)
	trend := indicators.ClassifyTrend(current, ma50, ma200)

	prompt := fmt.Sprintf(`Indicator readings for %s:
Price: %.2f
MA50: %.2f  MA200: %.2f  Trend: %s
RSI(14): %.1f
MACD: %.3f  Signal: %.3f  Histogram: %.3f
Bollinger(20,2): upper %.2f / middle %.2f / lower %.2f
ATR(14): %.2f`,
		ticker, current, ma50, ma200, trend, rsi,
		macd.MACD, macd.Signal, macd.Histogram,
		bands.Upper, bands.Middle, bands.Lower, atr)

	messages := []*schema.Message{
		schema.SystemMessage(`You are a technical analyst.
Interpret the indicator readings, then finish with two labeled lines:
Rating: BUY, SELL, or HOLD
Confidence: a value between 0 and 1`),
		schema.UserMessage(prompt),
	}

	text, err := t.llm.Complete(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("technical analyst completion: %w", err)
	}

	return &models.TechnicalReport{
		Ticker:     ticker,
		Trend:      trend,
		RSI:        rsi,
		MA50:       ma50,
		MA200:      ma200,
		Rating:     ParseRating(text),
		Confidence: ParseConfidence(text),
		Summary:    Summarize(text, 4),
		CreatedAt:  time.Now().UTC(),
	}, nil
}
