package backtest

import (
	"testing"
	"time"

	"github.com/quorumtrade/boardroom/internal/models"
)

func day(i int) time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i)
}

func risingBars(n int, start float64, step float64) []models.PriceBar {
	bars := make([]models.PriceBar, n)
	price := start
	for i := range bars {
		bars[i] = models.PriceBar{
			Ticker:   "TEST",
			Date:     day(i),
			Open:     price,
			High:     price + 1,
			Low:      price - 1,
			Close:    price,
			AdjClose: price,
			Volume:   1000,
		}
		price += step
	}
	return bars
}

// momentumStrategy puts all the weight on the sentiment scorer so a steady
// rise produces a BUY through the standard thresholds.
func momentumStrategy() models.Strategy {
	return models.Strategy{
		Name: "momentum",
		Weights: map[string]float64{
			models.AgentFundamental: 0,
			models.AgentTechnical:   0,
			models.AgentSentiment:   1,
		},
		BuyThreshold:  models.DefaultBuyThreshold,
		SellThreshold: models.DefaultSellThreshold,
	}
}

func baseConfig() Config {
	return Config{
		Ticker:          "TEST",
		Strategy:        momentumStrategy(),
		StartDate:       day(0),
		EndDate:         day(39),
		InitialCapital:  10000,
		Frequency:       FrequencyDaily,
		PositionSizePct: 0.5,
	}
}

func TestRunRisingMarket(t *testing.T) {
	bars := risingBars(40, 100, 1)
	result, err := Run(baseConfig(), bars, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	var buys, sells int
	for _, trade := range result.Trades {
		switch trade.Type {
		case models.ActionBuy:
			buys++
		case models.ActionSell:
			sells++
		}
	}
	if buys == 0 {
		t.Fatal("expected at least one BUY in a steadily rising market")
	}
	if sells == 0 {
		t.Fatal("expected the open position to be closed at range end")
	}
	last := result.Trades[len(result.Trades)-1]
	if last.Type != models.ActionSell || last.Reason != ReasonEndOfRange {
		t.Fatalf("expected final end_of_range SELL, got %s/%s", last.Type, last.Reason)
	}

	if result.FinalEquity <= result.InitialCapital {
		t.Fatalf("expected a profit, initial %v final %v", result.InitialCapital, result.FinalEquity)
	}
	if result.TotalReturn <= 0 {
		t.Fatalf("expected positive total return, got %v", result.TotalReturn)
	}
	if result.MaxDrawdown > 0 {
		t.Fatalf("max drawdown must be <= 0, got %v", result.MaxDrawdown)
	}
	if result.BuyAndHoldReturn <= 0 {
		t.Fatalf("expected positive buy-and-hold benchmark, got %v", result.BuyAndHoldReturn)
	}
}

func TestRunEqualWeightsRisingMarket(t *testing.T) {
	bars := risingBars(30, 100, 1)
	cfg := Config{
		Ticker:          "TEST",
		Strategy:        models.DefaultStrategy("equal"),
		StartDate:       day(0),
		EndDate:         day(29),
		InitialCapital:  10000,
		Frequency:       FrequencyDaily,
		PositionSizePct: 0.5,
	}

	result, err := Run(cfg, bars, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	var buys int
	for _, trade := range result.Trades {
		if trade.Type == models.ActionBuy {
			buys++
		}
	}
	if buys == 0 {
		t.Fatal("expected at least one BUY under equal weights in a 30-day rise")
	}
	if result.FinalEquity <= cfg.InitialCapital {
		t.Fatalf("expected final equity above %v, got %v", cfg.InitialCapital, result.FinalEquity)
	}
	if result.MaxDrawdown > 0 {
		t.Fatalf("max drawdown must be <= 0, got %v", result.MaxDrawdown)
	}
}

func TestRunEquityCurvePerDecisionDate(t *testing.T) {
	bars := risingBars(40, 100, 1)
	result, err := Run(baseConfig(), bars, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.EquityCurve) != 40 {
		t.Fatalf("expected one equity point per daily bar, got %d", len(result.EquityCurve))
	}
	for i := 1; i < len(result.EquityCurve); i++ {
		if !result.EquityCurve[i].Date.After(result.EquityCurve[i-1].Date) {
			t.Fatal("equity curve dates must ascend")
		}
	}
}

func TestRunDeterministic(t *testing.T) {
	bars := risingBars(40, 100, 1)
	first, err := Run(baseConfig(), bars, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	second, err := Run(baseConfig(), bars, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if first.FinalEquity != second.FinalEquity || len(first.Trades) != len(second.Trades) {
		t.Fatal("identical inputs must produce identical results")
	}
}

func TestRunStopLoss(t *testing.T) {
	// Rise long enough to trigger a BUY, then gap down hard in one day so
	// the stop fires before the scoring decision gets a say.
	bars := risingBars(30, 100, 1)
	for i := 30; i < 40; i++ {
		price := 108.0
		bars = append(bars, models.PriceBar{
			Ticker: "TEST", Date: day(i),
			Open: price, High: price + 1, Low: price - 1,
			Close: price, AdjClose: price, Volume: 1000,
		})
	}

	cfg := baseConfig()
	stop := 0.05
	cfg.Strategy.StopLossPct = &stop

	result, err := Run(cfg, bars, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	var sawStop bool
	for _, trade := range result.Trades {
		if trade.Type == models.ActionSell && trade.Reason == ReasonStopLoss {
			sawStop = true
		}
	}
	if !sawStop {
		t.Fatal("expected a stop-loss SELL after the crash")
	}
	if result.MaxDrawdown >= 0 {
		t.Fatalf("expected a negative drawdown, got %v", result.MaxDrawdown)
	}
}

func TestRunWeeklyFrequency(t *testing.T) {
	bars := risingBars(40, 100, 1)
	cfg := baseConfig()
	cfg.Frequency = FrequencyWeekly

	result, err := Run(cfg, bars, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.EquityCurve) >= 40 {
		t.Fatalf("weekly run must evaluate fewer points than daily, got %d", len(result.EquityCurve))
	}
	for i := 1; i < len(result.EquityCurve); i++ {
		gap := result.EquityCurve[i].Date.Sub(result.EquityCurve[i-1].Date)
		if gap < 7*24*time.Hour {
			t.Fatalf("weekly decision points must be at least 7 days apart, got %v", gap)
		}
	}
}

func TestRunValidation(t *testing.T) {
	bars := risingBars(10, 100, 1)

	cfg := baseConfig()
	cfg.InitialCapital = 0
	if _, err := Run(cfg, bars, nil); err == nil {
		t.Fatal("expected error for zero capital")
	}

	cfg = baseConfig()
	cfg.PositionSizePct = 1.5
	if _, err := Run(cfg, bars, nil); err == nil {
		t.Fatal("expected error for oversized position fraction")
	}

	cfg = baseConfig()
	cfg.EndDate = cfg.StartDate
	if _, err := Run(cfg, bars, nil); err == nil {
		t.Fatal("expected error for empty date range")
	}

	cfg = baseConfig()
	cfg.Frequency = "hourly"
	if _, err := Run(cfg, bars, nil); err == nil {
		t.Fatal("expected error for unknown frequency")
	}

	cfg = baseConfig()
	cfg.Strategy.Weights[models.AgentSentiment] = 0.5
	if _, err := Run(cfg, bars, nil); err == nil {
		t.Fatal("expected error for weights not summing to 1")
	}
}

func TestRunNoBarsInRange(t *testing.T) {
	bars := risingBars(10, 100, 1)
	cfg := baseConfig()
	cfg.StartDate = day(100)
	cfg.EndDate = day(120)
	if _, err := Run(cfg, bars, nil); err == nil {
		t.Fatal("expected error when no bars fall inside the range")
	}
}

func TestAnnualize(t *testing.T) {
	got := annualize(0.10, day(0), day(365))
	if got < 0.099 || got > 0.101 {
		t.Fatalf("10%% over a year should annualize to ~10%%, got %v", got)
	}
	if annualize(0.10, day(0), day(0)) != 0 {
		t.Fatal("zero elapsed days must annualize to 0")
	}
}
