package models

import "time"

// Agent keys used in strategy weights and score maps.
const (
	AgentFundamental = "fundamental"
	AgentTechnical   = "technical"
	AgentSentiment   = "sentiment"
)

// Default decision thresholds on the 0-100 weighted score.
const (
	DefaultBuyThreshold  = 70.0
	DefaultSellThreshold = 30.0
)

// Strategy is a user-owned configuration referenced by paper accounts and
// backtest results. The engines never mutate it.
type Strategy struct {
	ID                 string             `json:"id"`
	Name               string             `json:"name"`
	Weights            map[string]float64 `json:"weights"`
	BuyThreshold       float64            `json:"buy_threshold"`
	SellThreshold      float64            `json:"sell_threshold"`
	StopLossPct        *float64           `json:"stop_loss_pct,omitempty"`
	TakeProfitPct      *float64           `json:"take_profit_pct,omitempty"`
	MaxPositionSizePct *float64           `json:"max_position_size_pct,omitempty"`
	CreatedAt          time.Time          `json:"created_at"`
}

// DefaultStrategy returns an equal-weight strategy with the stock thresholds.
func DefaultStrategy(name string) Strategy {
	return Strategy{
		Name: name,
		Weights: map[string]float64{
			AgentFundamental: 1.0 / 3.0,
			AgentTechnical:   1.0 / 3.0,
			AgentSentiment:   1.0 / 3.0,
		},
		BuyThreshold:  DefaultBuyThreshold,
		SellThreshold: DefaultSellThreshold,
	}
}
