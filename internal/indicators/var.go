package indicators

import "math"

// z-score for a one-sided 95% confidence interval.
const z95 = -1.645

// VaR95 computes parametric 95% value-at-risk from a series of closing
// prices: the log returns' -(mean + z*std), floored at zero. Fewer than two
// points yields 0.
func VaR95(closes []float64) float64 {
	if len(closes) < 2 {
		return 0.0
	}

	returns := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		if closes[i-1] <= 0 || closes[i] <= 0 {
			continue
		}
		returns = append(returns, math.Log(closes[i]/closes[i-1]))
	}
	if len(returns) == 0 {
		return 0.0
	}

	mean := sum(returns) / float64(len(returns))
	variance := 0.0
	for _, r := range returns {
		diff := r - mean
		variance += diff * diff
	}
	variance /= float64(len(returns))
	std := math.Sqrt(variance)

	v := -(mean + z95*std)
	if v < 0 {
		return 0.0
	}
	return v
}
