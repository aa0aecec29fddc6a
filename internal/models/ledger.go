package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account is a paper-trading cash account. CashBalance never goes negative;
// balance updates are applied atomically with the trade that caused them.
type Account struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	StrategyID     string          `json:"strategy_id,omitempty"`
	CashBalance    decimal.Decimal `json:"cash_balance"`
	InitialBalance decimal.Decimal `json:"initial_balance"`
	CreatedAt      time.Time       `json:"created_at"`
}

// Position is an open holding. Quantity is always positive; a position whose
// quantity reaches zero is deleted, never persisted.
type Position struct {
	ID            string          `json:"id"`
	AccountID     string          `json:"account_id"`
	Ticker        string          `json:"ticker"`
	Quantity      decimal.Decimal `json:"quantity"`
	AvgEntryPrice decimal.Decimal `json:"avg_entry_price"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// Trade is an immutable, append-only execution record.
type Trade struct {
	ID         string          `json:"id"`
	AccountID  string          `json:"account_id"`
	Ticker     string          `json:"ticker"`
	Type       Action          `json:"type"`
	Quantity   decimal.Decimal `json:"quantity"`
	Price      decimal.Decimal `json:"price"`
	TotalValue decimal.Decimal `json:"total_value"`
	ExecutedAt time.Time       `json:"executed_at"`
}

// Performance summarizes realized results for a paper account. Pairing is a
// reverse-chronological SELL-to-BUY adjacency heuristic, not lot accounting.
type Performance struct {
	AccountID   string          `json:"account_id"`
	TotalReturn float64         `json:"total_return"`
	WinRate     float64         `json:"win_rate"`
	AvgWin      decimal.Decimal `json:"avg_win"`
	AvgLoss     decimal.Decimal `json:"avg_loss"`
	ClosedPairs int             `json:"closed_pairs"`
	TotalTrades int             `json:"total_trades"`
}
