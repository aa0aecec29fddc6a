package indicators

import (
	"math"
	"testing"

	"github.com/quorumtrade/boardroom/internal/models"
)

func TestMovingAverage(t *testing.T) {
	if got := MovingAverage(nil, 5); got != 0 {
		t.Fatalf("empty series: expected 0, got %v", got)
	}
	if got := MovingAverage([]float64{10, 20, 30}, 0); got != 0 {
		t.Fatalf("zero period: expected 0, got %v", got)
	}
	// Fewer points than the period averages what is there.
	if got := MovingAverage([]float64{10, 20}, 5); got != 15 {
		t.Fatalf("partial window: expected 15, got %v", got)
	}
	if got := MovingAverage([]float64{1, 2, 3, 4, 5, 6}, 3); got != 5 {
		t.Fatalf("trailing window: expected 5, got %v", got)
	}
}

func TestRSINeutralOnShortSeries(t *testing.T) {
	prices := make([]float64, 14)
	for i := range prices {
		prices[i] = 100 + float64(i)
	}
	if got := RSI(prices, 14); got != 50 {
		t.Fatalf("expected neutral 50 for short series, got %v", got)
	}
}

func TestRSIMonotonicRise(t *testing.T) {
	prices := make([]float64, 21)
	for i := range prices {
		prices[i] = 100 + float64(i)
	}
	if got := RSI(prices, 14); got != 100 {
		t.Fatalf("expected 100 with no losses, got %v", got)
	}
}

func TestRSIBounded(t *testing.T) {
	prices := []float64{100, 102, 99, 103, 98, 104, 97, 105, 96, 106, 95, 107, 94, 108, 93, 109, 92, 110, 91, 111, 90}
	got := RSI(prices, 14)
	if got < 0 || got > 100 {
		t.Fatalf("RSI out of range: %v", got)
	}
}

func TestClassifyTrend(t *testing.T) {
	cases := []struct {
		name  string
		price float64
		ma50  float64
		ma200 float64
		want  models.Trend
	}{
		{"bullish stack", 110, 105, 100, models.TrendBullish},
		{"bearish stack", 90, 95, 100, models.TrendBearish},
		{"mixed", 110, 100, 105, models.TrendNeutral},
		{"price below ma50", 100, 105, 100, models.TrendNeutral},
	}
	for _, tc := range cases {
		if got := ClassifyTrend(tc.price, tc.ma50, tc.ma200); got != tc.want {
			t.Errorf("%s: expected %s, got %s", tc.name, tc.want, got)
		}
	}
}

func TestMACDShortSeries(t *testing.T) {
	prices := make([]float64, 30)
	for i := range prices {
		prices[i] = 100 + float64(i)
	}
	got := MACD(prices)
	if got.MACD != 0 || got.Signal != 0 || got.Histogram != 0 {
		t.Fatalf("expected zero sentinel for short series, got %+v", got)
	}
}

func TestBollingerBandsCollapse(t *testing.T) {
	prices := make([]float64, 25)
	for i := range prices {
		prices[i] = 100
	}
	bands := BollingerBands(prices, 20, 2)
	if bands.Upper != bands.Lower || bands.Upper != bands.Middle {
		t.Fatalf("constant series should collapse the bands, got %+v", bands)
	}
}

func TestATRSkipsMalformedBars(t *testing.T) {
	bars := []models.PriceBar{
		{High: 105, Low: 95, Close: 100, Open: 100},
		{High: 0, Low: 0, Close: 0, Open: 0},
		{High: 110, Low: 100, Close: 108, Open: 101},
		{High: 112, Low: 104, Close: 110, Open: 108},
	}
	if got := ATR(bars, 2); got <= 0 {
		t.Fatalf("expected positive ATR, got %v", got)
	}
}

func TestVaR95(t *testing.T) {
	if got := VaR95(nil); got != 0 {
		t.Fatalf("empty series: expected 0, got %v", got)
	}
	if got := VaR95([]float64{100}); got != 0 {
		t.Fatalf("single point: expected 0, got %v", got)
	}

	steady := []float64{100, 101, 100, 101, 100, 101, 100, 101}
	choppy := []float64{100, 110, 95, 112, 90, 115, 85, 120}
	if VaR95(choppy) <= VaR95(steady) {
		t.Fatalf("higher volatility must raise VaR: steady %v, choppy %v",
			VaR95(steady), VaR95(choppy))
	}

	rising := make([]float64, 50)
	for i := range rising {
		rising[i] = 100 * math.Pow(1.001, float64(i))
	}
	// A smooth rise has a strongly positive mean return; VaR floors at 0.
	if got := VaR95(rising); got != 0 {
		t.Fatalf("expected floored VaR 0 for smooth rise, got %v", got)
	}

	declining := make([]float64, 50)
	for i := range declining {
		declining[i] = 100 * math.Pow(0.995, float64(i))
	}
	if got := VaR95(declining); got <= 0 {
		t.Fatalf("declining series must carry positive VaR, got %v", got)
	}
}
