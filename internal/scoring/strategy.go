package scoring

import (
	"fmt"
	"math"

	"github.com/quorumtrade/boardroom/internal/models"
)

// weightTolerance is the allowed deviation of the weight sum from 1.0.
const weightTolerance = 0.01

// ValidateStrategy rejects misconfigured strategies at save time. Weights
// are never silently renormalized.
func ValidateStrategy(s models.Strategy) error {
	if err := validateWeights(s.Weights); err != nil {
		return err
	}
	if s.BuyThreshold <= s.SellThreshold {
		return fmt.Errorf("buy threshold %.1f must exceed sell threshold %.1f", s.BuyThreshold, s.SellThreshold)
	}
	if s.BuyThreshold < 0 || s.BuyThreshold > 100 || s.SellThreshold < 0 || s.SellThreshold > 100 {
		return fmt.Errorf("thresholds must lie in [0, 100]: buy=%.1f sell=%.1f", s.BuyThreshold, s.SellThreshold)
	}
	if s.StopLossPct != nil && *s.StopLossPct <= 0 {
		return fmt.Errorf("stop loss pct must be positive, got %.4f", *s.StopLossPct)
	}
	if s.TakeProfitPct != nil && *s.TakeProfitPct <= 0 {
		return fmt.Errorf("take profit pct must be positive, got %.4f", *s.TakeProfitPct)
	}
	if s.MaxPositionSizePct != nil && (*s.MaxPositionSizePct <= 0 || *s.MaxPositionSizePct > 1) {
		return fmt.Errorf("max position size pct must lie in (0, 1], got %.4f", *s.MaxPositionSizePct)
	}
	return nil
}

func validateWeights(weights map[string]float64) error {
	if len(weights) == 0 {
		return fmt.Errorf("strategy weights are empty")
	}
	total := 0.0
	for agent, w := range weights {
		if w < 0 {
			return fmt.Errorf("weight for %q is negative: %.4f", agent, w)
		}
		total += w
	}
	if math.Abs(total-1.0) > weightTolerance {
		return fmt.Errorf("weights must sum to 1.0 (±%.2f), got %.4f", weightTolerance, total)
	}
	return nil
}

func matchKeySets(scores, weights map[string]float64) error {
	if len(scores) != len(weights) {
		return fmt.Errorf("score keys (%d) and weight keys (%d) do not match", len(scores), len(weights))
	}
	for agent := range scores {
		if _, ok := weights[agent]; !ok {
			return fmt.Errorf("score key %q has no matching weight", agent)
		}
	}
	return nil
}
