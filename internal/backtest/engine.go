// Package backtest replays a scoring strategy over historical prices. The
// engine is pure and deterministic: identical inputs produce identical
// results, and nothing here reads the clock or external providers.
package backtest

import (
	"fmt"
	"time"

	"github.com/quorumtrade/boardroom/internal/models"
	"github.com/quorumtrade/boardroom/internal/scoring"
)

// Frequency is how often the engine re-evaluates the strategy.
type Frequency string

const (
	FrequencyDaily  Frequency = "daily"
	FrequencyWeekly Frequency = "weekly"
)

// periodsPerYear returns the annualization factor for Sharpe math.
func (f Frequency) periodsPerYear() float64 {
	if f == FrequencyWeekly {
		return 52
	}
	return 252
}

// Trade reasons recorded on simulated executions.
const (
	ReasonSignal     = "signal"
	ReasonStopLoss   = "stop_loss"
	ReasonTakeProfit = "take_profit"
	ReasonEndOfRange = "end_of_range"
)

// Config describes one backtest run.
type Config struct {
	Ticker          string
	Strategy        models.Strategy
	StartDate       time.Time
	EndDate         time.Time
	InitialCapital  float64
	Frequency       Frequency
	PositionSizePct float64
}

// Run replays the strategy over the supplied bars and fundamentals. Bars
// must be sorted ascending by date; bars before StartDate seed the trailing
// score window and are never traded on. Any open position is closed at the
// last decision price so the metrics reflect a fully realized outcome.
func Run(cfg Config, bars []models.PriceBar, snapshots []models.FundamentalSnapshot) (*models.BacktestResult, error) {
	if err := validate(cfg); err != nil {
		return nil, err
	}

	var (
		cash     = cfg.InitialCapital
		quantity float64
		avgEntry float64

		curve    []models.EquityPoint
		trades   []models.BacktestTrade
		lastEval time.Time
	)

	sell := func(price float64, date time.Time, reason string) {
		proceeds := quantity * price
		cash += proceeds
		trades = append(trades, models.BacktestTrade{
			Ticker:     cfg.Ticker,
			Type:       models.ActionSell,
			Quantity:   quantity,
			Price:      price,
			TotalValue: proceeds,
			ExecutedAt: date,
			Reason:     reason,
		})
		quantity = 0
		avgEntry = 0
	}

	var lastPrice float64
	var lastDate time.Time

	for i, bar := range bars {
		if bar.Date.Before(cfg.StartDate) || bar.Date.After(cfg.EndDate) {
			continue
		}
		if cfg.Frequency == FrequencyWeekly && !lastEval.IsZero() && bar.Date.Sub(lastEval) < 7*24*time.Hour {
			continue
		}
		lastEval = bar.Date

		price := bar.AdjClose
		if price <= 0 {
			continue
		}
		lastPrice, lastDate = price, bar.Date

		closes := make([]float64, 0, i+1)
		for _, b := range bars[:i+1] {
			if b.AdjClose > 0 {
				closes = append(closes, b.AdjClose)
			}
		}

		scores := scoring.ScoreDate(closes, bar.Date, snapshots)
		action, _, err := scoring.WeightedDecision(scores, cfg.Strategy.Weights,
			cfg.Strategy.BuyThreshold, cfg.Strategy.SellThreshold)
		if err != nil {
			return nil, fmt.Errorf("decision at %s: %w", bar.Date.Format("2006-01-02"), err)
		}

		switch {
		case quantity == 0 && action == models.ActionBuy:
			spend := cash * cfg.PositionSizePct
			if spend > 0 {
				quantity = spend / price
				avgEntry = price
				cash -= spend
				trades = append(trades, models.BacktestTrade{
					Ticker:     cfg.Ticker,
					Type:       models.ActionBuy,
					Quantity:   quantity,
					Price:      price,
					TotalValue: spend,
					ExecutedAt: bar.Date,
					Reason:     ReasonSignal,
				})
			}
		case quantity > 0:
			ret := price/avgEntry - 1
			switch {
			case cfg.Strategy.StopLossPct != nil && ret <= -*cfg.Strategy.StopLossPct:
				sell(price, bar.Date, ReasonStopLoss)
			case cfg.Strategy.TakeProfitPct != nil && ret >= *cfg.Strategy.TakeProfitPct:
				sell(price, bar.Date, ReasonTakeProfit)
			case action == models.ActionSell:
				sell(price, bar.Date, ReasonSignal)
			}
		}

		curve = append(curve, models.EquityPoint{
			Date:   bar.Date,
			Equity: cash + quantity*price,
		})
	}

	if len(curve) == 0 {
		return nil, fmt.Errorf("no tradable bars between %s and %s",
			cfg.StartDate.Format("2006-01-02"), cfg.EndDate.Format("2006-01-02"))
	}

	if quantity > 0 {
		sell(lastPrice, lastDate, ReasonEndOfRange)
		curve[len(curve)-1].Equity = cash
	}

	// ID and CreatedAt are assigned by the store on save, keeping the
	// engine output reproducible for identical inputs.
	result := &models.BacktestResult{
		Ticker:         cfg.Ticker,
		StrategyID:     cfg.Strategy.ID,
		StartDate:      cfg.StartDate,
		EndDate:        cfg.EndDate,
		InitialCapital: cfg.InitialCapital,
		FinalEquity:    curve[len(curve)-1].Equity,
		TotalTrades:    len(trades),
		EquityCurve:    curve,
		Trades:         trades,
	}
	fillMetrics(result, cfg, bars)
	return result, nil
}

func validate(cfg Config) error {
	if cfg.Ticker == "" {
		return fmt.Errorf("ticker is required")
	}
	if cfg.InitialCapital <= 0 {
		return fmt.Errorf("initial capital must be positive, got %.2f", cfg.InitialCapital)
	}
	if cfg.PositionSizePct <= 0 || cfg.PositionSizePct > 1 {
		return fmt.Errorf("position size must be in (0, 1], got %.2f", cfg.PositionSizePct)
	}
	if !cfg.EndDate.After(cfg.StartDate) {
		return fmt.Errorf("end date must follow start date")
	}
	if cfg.Frequency != FrequencyDaily && cfg.Frequency != FrequencyWeekly {
		return fmt.Errorf("unknown frequency %q", cfg.Frequency)
	}
	return scoring.ValidateStrategy(cfg.Strategy)
}
