// Package scoring implements the deterministic rule-based scorers the
// backtest engine replays in place of live LLM agents. Every scorer maps its
// inputs to [0, 100] with 50 as the neutral baseline and degrades to neutral
// on thin or missing data instead of failing.
package scoring

import (
	"time"

	"github.com/quorumtrade/boardroom/internal/indicators"
	"github.com/quorumtrade/boardroom/internal/models"
)

const neutral = 50.0

// Minimum history depth before a scorer produces a non-neutral reading.
// The moving averages tolerate partial windows, so the technical scorer
// reads as soon as the RSI and momentum inputs are meaningful.
const (
	minTechnicalPoints = 20
	minSentimentPoints = 20
)

// TechnicalScore scores a closing-price series on moving-average crossovers,
// price position, RSI bands, and short-term momentum.
func TechnicalScore(closes []float64) float64 {
	if len(closes) < minTechnicalPoints {
		return neutral
	}

	score := neutral
	current := closes[len(closes)-1]

	ma20 := indicators.MovingAverage(closes, 20)
	ma50 := indicators.MovingAverage(closes, 50)
	if ma20 > ma50 {
		score += 20
	} else {
		score -= 20
	}

	if current > ma50 {
		score += 20
	} else {
		score -= 20
	}

	rsi := indicators.RSI(closes, 14)
	switch {
	case rsi < 30:
		score += 30
	case rsi < 40:
		score += 15
	case rsi < 60:
		// neutral band
	case rsi < 70:
		score -= 10
	default:
		score -= 20
	}

	if r := trailingReturn(closes, 5); r > 0.03 {
		score += 10
	} else if r < -0.03 {
		score -= 10
	}

	return clamp(score)
}

// FundamentalScore scores a quarterly snapshot on valuation, growth,
// leverage, and profitability tiers. A nil snapshot is neutral, and missing
// individual fields contribute nothing.
func FundamentalScore(f *models.FundamentalSnapshot) float64 {
	if f == nil {
		return neutral
	}

	score := neutral

	if f.PERatio != nil && *f.PERatio > 0 {
		switch pe := *f.PERatio; {
		case pe < 15:
			score += 20
		case pe < 25:
			score += 10
		default:
			score -= 10
		}
	}

	growth := f.RevenueGrowth
	if growth == nil {
		growth = f.EarningsGrowth
	}
	if growth != nil {
		switch g := *growth; {
		case g > 0.15:
			score += 20
		case g >= 0.05:
			score += 10
		case g < 0:
			score -= 20
		}
	}

	if f.DebtToEquity != nil {
		switch de := *f.DebtToEquity; {
		case de < 0.5:
			score += 15
		case de < 1.5:
			score += 5
		default:
			score -= 15
		}
	}

	if f.NetIncome != nil {
		if *f.NetIncome > 0 {
			score += 15
		} else {
			score -= 25
		}
	}

	return clamp(score)
}

// SentimentScore proxies market sentiment with 5-day and 20-day price
// momentum; backtests have no live news or social feed to replay.
func SentimentScore(closes []float64) float64 {
	if len(closes) < minSentimentPoints {
		return neutral
	}

	score := neutral

	switch r5 := trailingReturn(closes, 5); {
	case r5 > 0.05:
		score += 30
	case r5 > 0.02:
		score += 15
	case r5 < -0.05:
		score -= 30
	case r5 < -0.02:
		score -= 15
	}

	switch r20 := trailingReturn(closes, 20); {
	case r20 > 0.10:
		score += 20
	case r20 > 0.05:
		score += 10
	case r20 < -0.10:
		score -= 20
	case r20 < -0.05:
		score -= 10
	}

	return clamp(score)
}

// WeightedDecision combines per-agent scores into a BUY/SELL/HOLD decision by
// thresholding the weight-weighted sum. Both thresholds are inclusive: a
// weighted score exactly at the buy threshold buys, exactly at the sell
// threshold sells. The score and weight key sets must match exactly and the
// weights must sum to 1.0 within tolerance; a mismatch is a configuration
// error, never a silent default.
func WeightedDecision(scores, weights map[string]float64, buyThreshold, sellThreshold float64) (models.Action, float64, error) {
	if err := validateWeights(weights); err != nil {
		return models.ActionHold, 0, err
	}
	if err := matchKeySets(scores, weights); err != nil {
		return models.ActionHold, 0, err
	}

	weighted := 0.0
	for agent, score := range scores {
		weighted += score * weights[agent]
	}

	switch {
	case weighted >= buyThreshold:
		return models.ActionBuy, weighted, nil
	case weighted <= sellThreshold:
		return models.ActionSell, weighted, nil
	default:
		return models.ActionHold, weighted, nil
	}
}

// ScoreDate runs the three component scorers for one decision date and
// returns the score map keyed for WeightedDecision.
func ScoreDate(closes []float64, asOf time.Time, snapshots []models.FundamentalSnapshot) map[string]float64 {
	return map[string]float64{
		models.AgentTechnical:   TechnicalScore(closes),
		models.AgentFundamental: FundamentalScore(models.FundamentalsAsOf(snapshots, asOf)),
		models.AgentSentiment:   SentimentScore(closes),
	}
}

// trailingReturn is the simple return over the last n steps, 0 when the
// series is too short or the base price is not positive.
func trailingReturn(closes []float64, n int) float64 {
	if len(closes) < n+1 {
		return 0.0
	}
	base := closes[len(closes)-1-n]
	if base <= 0 {
		return 0.0
	}
	return closes[len(closes)-1]/base - 1
}

func clamp(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
