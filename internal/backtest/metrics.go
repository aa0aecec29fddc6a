package backtest

import (
	"math"
	"time"

	"github.com/quorumtrade/boardroom/internal/models"
)

// sharpeVarianceFloor treats return series below this variance as flat;
// Sharpe is undefined for them.
const sharpeVarianceFloor = 1e-12

// fillMetrics derives the aggregate statistics from the completed equity
// curve and trade list.
func fillMetrics(result *models.BacktestResult, cfg Config, bars []models.PriceBar) {
	result.TotalReturn = (result.FinalEquity - result.InitialCapital) / result.InitialCapital
	result.AnnualizedReturn = annualize(result.TotalReturn, cfg.StartDate, cfg.EndDate)
	result.MaxDrawdown = maxDrawdown(result.EquityCurve)
	result.SharpeRatio = sharpe(result.EquityCurve, cfg.Frequency)
	result.WinRate = winRate(result.Trades)
	result.BuyAndHoldReturn = buyAndHold(bars, cfg)
}

// annualize compounds a total return over the elapsed days to a 365-day
// basis.
func annualize(totalReturn float64, start, end time.Time) float64 {
	days := end.Sub(start).Hours() / 24
	if days <= 0 {
		return 0
	}
	growth := 1 + totalReturn
	if growth <= 0 {
		return -1
	}
	return math.Pow(growth, 365/days) - 1
}

// maxDrawdown is the most negative peak-to-trough drop along the curve,
// always <= 0.
func maxDrawdown(curve []models.EquityPoint) float64 {
	var worst float64
	peak := math.Inf(-1)
	for _, p := range curve {
		if p.Equity > peak {
			peak = p.Equity
		}
		if peak > 0 {
			dd := p.Equity/peak - 1
			if dd < worst {
				worst = dd
			}
		}
	}
	return worst
}

// sharpe is the annualized mean/std of period returns, or nil when the
// series has near-zero variance.
func sharpe(curve []models.EquityPoint, freq Frequency) *float64 {
	if len(curve) < 3 {
		return nil
	}
	returns := make([]float64, 0, len(curve)-1)
	for i := 1; i < len(curve); i++ {
		if curve[i-1].Equity == 0 {
			continue
		}
		returns = append(returns, curve[i].Equity/curve[i-1].Equity-1)
	}
	if len(returns) < 2 {
		return nil
	}

	var sum float64
	for _, r := range returns {
		sum += r
	}
	mean := sum / float64(len(returns))

	var variance float64
	for _, r := range returns {
		d := r - mean
		variance += d * d
	}
	variance /= float64(len(returns))
	if variance < sharpeVarianceFloor {
		return nil
	}

	s := mean / math.Sqrt(variance) * math.Sqrt(freq.periodsPerYear())
	return &s
}

// winRate pairs each SELL with the BUY that opened it. The engine trades
// full positions only, so pairs are strictly alternating.
func winRate(trades []models.BacktestTrade) float64 {
	var wins, pairs int
	var openCost float64
	for _, t := range trades {
		switch t.Type {
		case models.ActionBuy:
			openCost = t.TotalValue
		case models.ActionSell:
			if openCost == 0 {
				continue
			}
			pairs++
			if t.TotalValue > openCost {
				wins++
			}
			openCost = 0
		}
	}
	if pairs == 0 {
		return 0
	}
	return float64(wins) / float64(pairs)
}

// buyAndHold is the benchmark return of holding from the first to the last
// in-range price.
func buyAndHold(bars []models.PriceBar, cfg Config) float64 {
	var first, last float64
	for _, bar := range bars {
		if bar.Date.Before(cfg.StartDate) || bar.Date.After(cfg.EndDate) || bar.AdjClose <= 0 {
			continue
		}
		if first == 0 {
			first = bar.AdjClose
		}
		last = bar.AdjClose
	}
	if first == 0 {
		return 0
	}
	return last/first - 1
}
