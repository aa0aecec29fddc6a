package models

import "time"

// EquityPoint is one mark of total account value on the equity curve.
type EquityPoint struct {
	Date   time.Time `json:"date"`
	Equity float64   `json:"equity"`
}

// BacktestTrade is a simulated execution inside a backtest run.
type BacktestTrade struct {
	Ticker     string    `json:"ticker"`
	Type       Action    `json:"type"`
	Quantity   float64   `json:"quantity"`
	Price      float64   `json:"price"`
	TotalValue float64   `json:"total_value"`
	ExecutedAt time.Time `json:"executed_at"`
	Reason     string    `json:"reason,omitempty"`
}

// BacktestResult is the immutable summary of one completed run.
// SharpeRatio is nil when the return series has near-zero variance.
type BacktestResult struct {
	ID               string          `json:"id"`
	Ticker           string          `json:"ticker"`
	StrategyID       string          `json:"strategy_id,omitempty"`
	StartDate        time.Time       `json:"start_date"`
	EndDate          time.Time       `json:"end_date"`
	InitialCapital   float64         `json:"initial_capital"`
	FinalEquity      float64         `json:"final_equity"`
	TotalReturn      float64         `json:"total_return"`
	AnnualizedReturn float64         `json:"annualized_return"`
	SharpeRatio      *float64        `json:"sharpe_ratio,omitempty"`
	MaxDrawdown      float64         `json:"max_drawdown"`
	WinRate          float64         `json:"win_rate"`
	TotalTrades      int             `json:"total_trades"`
	BuyAndHoldReturn float64         `json:"buy_and_hold_return"`
	EquityCurve      []EquityPoint   `json:"equity_curve"`
	Trades           []BacktestTrade `json:"trades"`
	CreatedAt        time.Time       `json:"created_at"`
}
