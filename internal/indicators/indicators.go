// Package indicators provides the pure technical-analysis functions used by
// the scoring engine and the technical analyst. Every function degrades to a
// documented neutral or zero sentinel when the input is too short; none of
// them returns an error.
package indicators

import (
	"math"

	"github.com/quorumtrade/boardroom/internal/models"
)

// MovingAverage returns the mean of the last period values. With fewer than
// period values it averages whatever is available. Empty input or period=0
// yields 0.
func MovingAverage(prices []float64, period int) float64 {
	if len(prices) == 0 || period <= 0 {
		return 0.0
	}
	if period > len(prices) {
		period = len(prices)
	}
	sum := 0.0
	for _, p := range prices[len(prices)-period:] {
		sum += p
	}
	return sum / float64(period)
}

// RSI computes the Wilder-smoothed relative strength index over the trailing
// period deltas. Fewer than period+1 points yields the neutral 50. A window
// with no losses yields exactly 100.
func RSI(prices []float64, period int) float64 {
	if period <= 0 || len(prices) < period+1 {
		return 50.0
	}

	var gains, losses []float64
	for i := 1; i <= period; i++ {
		change := prices[i] - prices[i-1]
		if change > 0 {
			gains = append(gains, change)
			losses = append(losses, 0)
		} else {
			gains = append(gains, 0)
			losses = append(losses, -change)
		}
	}

	avgGain := sum(gains) / float64(period)
	avgLoss := sum(losses) / float64(period)

	for i := period + 1; i < len(prices); i++ {
		change := prices[i] - prices[i-1]
		var gain, loss float64
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
	}

	if avgLoss == 0 {
		return 100.0
	}
	rs := avgGain / avgLoss
	return 100 - (100 / (1 + rs))
}

// ClassifyTrend labels the moving-average regime. BULLISH requires
// price > ma50 > ma200 and BEARISH the strict inverse; everything in between,
// including a price above both averages while the 50 sits below the 200, is
// NEUTRAL.
func ClassifyTrend(currentPrice, ma50, ma200 float64) models.Trend {
	switch {
	case currentPrice > ma50 && ma50 > ma200:
		return models.TrendBullish
	case currentPrice < ma50 && ma50 < ma200:
		return models.TrendBearish
	default:
		return models.TrendNeutral
	}
}

// MACDResult bundles the MACD line, its 9-period signal, and the histogram.
type MACDResult struct {
	MACD      float64
	Signal    float64
	Histogram float64
}

// MACD computes the 12/26/9 moving average convergence divergence at the end
// of the series. Fewer than 35 points (26 for the slow EMA plus 9 for the
// signal) yields the zero sentinel.
func MACD(prices []float64) MACDResult {
	const (
		fast   = 12
		slow   = 26
		signal = 9
	)
	if len(prices) < slow+signal {
		return MACDResult{}
	}

	fastEMA := emaSeries(prices, fast)
	slowEMA := emaSeries(prices, slow)

	// Align both EMA series to the slow series' dates.
	offset := len(fastEMA) - len(slowEMA)
	macdLine := make([]float64, len(slowEMA))
	for i := range slowEMA {
		macdLine[i] = fastEMA[i+offset] - slowEMA[i]
	}

	signalLine := emaSeries(macdLine, signal)
	if len(signalLine) == 0 {
		return MACDResult{}
	}

	m := macdLine[len(macdLine)-1]
	s := signalLine[len(signalLine)-1]
	return MACDResult{MACD: m, Signal: s, Histogram: m - s}
}

// Bands holds a Bollinger band triple.
type Bands struct {
	Upper  float64
	Middle float64
	Lower  float64
}

// BollingerBands computes the period-SMA band with stdDevs standard
// deviations at the end of the series. Insufficient input collapses the band
// to zero width around the available mean.
func BollingerBands(prices []float64, period int, stdDevs float64) Bands {
	mid := MovingAverage(prices, period)
	if len(prices) < period || period <= 0 {
		return Bands{Upper: mid, Middle: mid, Lower: mid}
	}

	window := prices[len(prices)-period:]
	variance := 0.0
	for _, p := range window {
		diff := p - mid
		variance += diff * diff
	}
	variance /= float64(period)
	sd := math.Sqrt(variance)

	return Bands{
		Upper:  mid + stdDevs*sd,
		Middle: mid,
		Lower:  mid - stdDevs*sd,
	}
}

// ATR computes the average true range over the trailing period. Bars with
// malformed high/low/close fields are skipped rather than failing the whole
// computation. Fewer than period+1 usable bars yields 0.
func ATR(bars []models.PriceBar, period int) float64 {
	if period <= 0 {
		return 0.0
	}

	usable := make([]models.PriceBar, 0, len(bars))
	for _, b := range bars {
		if b.High > 0 && b.Low > 0 && b.Close > 0 {
			usable = append(usable, b)
		}
	}
	if len(usable) < period+1 {
		return 0.0
	}

	trueRanges := make([]float64, 0, len(usable)-1)
	for i := 1; i < len(usable); i++ {
		tr1 := usable[i].High - usable[i].Low
		tr2 := math.Abs(usable[i].High - usable[i-1].Close)
		tr3 := math.Abs(usable[i].Low - usable[i-1].Close)
		trueRanges = append(trueRanges, math.Max(tr1, math.Max(tr2, tr3)))
	}

	window := trueRanges[len(trueRanges)-period:]
	return sum(window) / float64(period)
}

// emaSeries returns the exponential moving average series starting at the
// first full window. Empty when the input is shorter than period.
func emaSeries(values []float64, period int) []float64 {
	if len(values) < period || period <= 0 {
		return nil
	}

	multiplier := 2.0 / (float64(period) + 1.0)
	result := make([]float64, 0, len(values)-period+1)

	ema := sum(values[:period]) / float64(period)
	result = append(result, ema)

	for i := period; i < len(values); i++ {
		ema = values[i]*multiplier + ema*(1-multiplier)
		result = append(result, ema)
	}
	return result
}

func sum(values []float64) float64 {
	total := 0.0
	for _, v := range values {
		total += v
	}
	return total
}
