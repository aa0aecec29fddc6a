package agents

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"

	"github.com/quorumtrade/boardroom/internal/dataflows"
	"github.com/quorumtrade/boardroom/internal/llm"
	"github.com/quorumtrade/boardroom/internal/models"
)

// FundamentalAnalyst rates a company's valuation, growth, leverage, and
// profitability from its latest fundamentals.
type FundamentalAnalyst struct {
	*BaseAgent
	market       dataflows.MarketDataProvider
	fundamentals dataflows.FundamentalsProvider
}

func NewFundamentalAnalyst(provider llm.Provider, market dataflows.MarketDataProvider, fundamentals dataflows.FundamentalsProvider) *FundamentalAnalyst {
	return &FundamentalAnalyst{
		BaseAgent:    NewBaseAgent(NameFundamental, provider),
		market:       market,
		fundamentals: fundamentals,
	}
}

// Analyze produces an immutable fundamental report for one run. A failing
// fundamentals source degrades the prompt; a failing market-data source or
// LLM transport aborts the run.
func (f *FundamentalAnalyst) Analyze(ctx context.Context, ticker string) (*models.FundamentalReport, error) {
	data, err := f.market.GetStockData(ctx, ticker)
	if err != nil {
		return nil, fmt.Errorf("fundamental analyst market data: %w", err)
	}

	var snapshot *models.FundamentalSnapshot
	if f.fundamentals != nil {
		snapshot, _ = f.fundamentals.GetFundamentals(ctx, ticker)
	}

	messages := []*schema.Message{
		schema.SystemMessage(`You are a senior fundamental analyst on an equity research desk.
Assess valuation, revenue growth, leverage, and profitability, then finish with two labeled lines:
Rating: BUY, SELL, or HOLD
Confidence: a value between 0 and 1`),
		schema.UserMessage(fundamentalContext(ticker, data, snapshot)),
	}

	text, err := f.llm.Complete(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("fundamental analyst completion: %w", err)
	}

	report := &models.FundamentalReport{
		Ticker:     ticker,
		Rating:     ParseRating(text),
		Confidence: ParseConfidence(text),
		Summary:    Summarize(text, 4),
		CreatedAt:  time.Now().UTC(),
	}
	if snapshot != nil {
		report.PERatio = snapshot.PERatio
	}
	if data.MarketCap != nil {
		report.MarketCap = data.MarketCap
	}
	return report, nil
}

func fundamentalContext(ticker string, data *models.StockData, snapshot *models.FundamentalSnapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Company: %s\nCurrent price: %.2f\n", ticker, data.CurrentPrice)

	if snapshot == nil {
		b.WriteString("No quarterly fundamentals are available; rate conservatively.\n")
		return b.String()
	}

	if snapshot.PERatio != nil {
		fmt.Fprintf(&b, "P/E ratio: %.2f\n", *snapshot.PERatio)
	}
	if snapshot.RevenueGrowth != nil {
		fmt.Fprintf(&b, "Revenue growth (YoY): %.1f%%\n", *snapshot.RevenueGrowth*100)
	}
	if snapshot.EarningsGrowth != nil {
		fmt.Fprintf(&b, "Earnings growth (YoY): %.1f%%\n", *snapshot.EarningsGrowth*100)
	}
	if snapshot.DebtToEquity != nil {
		fmt.Fprintf(&b, "Debt/equity: %.2f\n", *snapshot.DebtToEquity)
	}
	if snapshot.NetIncome != nil {
		fmt.Fprintf(&b, "Net income (TTM): %.2f\n", *snapshot.NetIncome)
	}
	if snapshot.Sector != "" {
		fmt.Fprintf(&b, "Sector: %s\n", snapshot.Sector)
	}
	return b.String()
}
