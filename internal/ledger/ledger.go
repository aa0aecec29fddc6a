// Package ledger executes paper trades against stored accounts. It enforces
// the same position invariants as the backtest engine (weighted-average cost
// basis, cash and share sufficiency) but is driven by explicit requests at
// the latest known price.
package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/quorumtrade/boardroom/internal/models"
)

// Store is the persistence surface the ledger requires. ListTrades returns
// newest first; ApplyTrade must commit the trade, the position change, and
// the cash update as one unit.
type Store interface {
	GetAccount(ctx context.Context, id string) (*models.Account, error)
	GetPosition(ctx context.Context, accountID, ticker string) (*models.Position, error)
	ListPositions(ctx context.Context, accountID string) ([]models.Position, error)
	ListTrades(ctx context.Context, accountID string) ([]models.Trade, error)
	LatestPrice(ctx context.Context, ticker string) (decimal.Decimal, error)
	ApplyTrade(ctx context.Context, account *models.Account, position *models.Position, deletePosition bool, trade *models.Trade) error
}

// TradeRequest is one explicit paper-trade order. A nil Price means execute
// at the latest stored price for the ticker.
type TradeRequest struct {
	AccountID string
	Ticker    string
	Action    models.Action
	Quantity  decimal.Decimal
	Price     *decimal.Decimal
}

// Ledger serializes trades per account and applies them through the store.
type Ledger struct {
	store Store

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func New(store Store) *Ledger {
	return &Ledger{
		store: store,
		locks: make(map[string]*sync.Mutex),
	}
}

// accountLock returns the mutex serializing one account's trades.
func (l *Ledger) accountLock(accountID string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	lock, ok := l.locks[accountID]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[accountID] = lock
	}
	return lock
}

// ExecuteTrade validates and applies one trade. Rejections come back as
// *TradeError and leave the account unchanged.
func (l *Ledger) ExecuteTrade(ctx context.Context, req TradeRequest) (*models.Trade, error) {
	if req.Quantity.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("trade quantity must be positive, got %s", req.Quantity)
	}
	if req.Action != models.ActionBuy && req.Action != models.ActionSell {
		return nil, fmt.Errorf("unsupported trade action %q", req.Action)
	}

	lock := l.accountLock(req.AccountID)
	lock.Lock()
	defer lock.Unlock()

	account, err := l.store.GetAccount(ctx, req.AccountID)
	if err != nil {
		return nil, fmt.Errorf("load account: %w", err)
	}

	price, err := l.resolvePrice(ctx, req)
	if err != nil {
		return nil, err
	}
	total := req.Quantity.Mul(price)

	position, err := l.store.GetPosition(ctx, req.AccountID, req.Ticker)
	if err != nil {
		return nil, fmt.Errorf("load position: %w", err)
	}

	var deletePosition bool
	switch req.Action {
	case models.ActionBuy:
		if account.CashBalance.LessThan(total) {
			return nil, &TradeError{
				Kind:      InsufficientFunds,
				Ticker:    req.Ticker,
				Requested: total,
				Available: account.CashBalance,
			}
		}
		account.CashBalance = account.CashBalance.Sub(total)
		position = applyBuy(position, req, price)

	case models.ActionSell:
		held := decimal.Zero
		if position != nil {
			held = position.Quantity
		}
		if held.LessThan(req.Quantity) {
			return nil, &TradeError{
				Kind:      InsufficientShares,
				Ticker:    req.Ticker,
				Requested: req.Quantity,
				Available: held,
			}
		}
		account.CashBalance = account.CashBalance.Add(total)
		position.Quantity = position.Quantity.Sub(req.Quantity)
		position.UpdatedAt = time.Now().UTC()
		deletePosition = position.Quantity.IsZero()
	}

	trade := &models.Trade{
		ID:         uuid.NewString(),
		AccountID:  req.AccountID,
		Ticker:     req.Ticker,
		Type:       req.Action,
		Quantity:   req.Quantity,
		Price:      price,
		TotalValue: total,
		ExecutedAt: time.Now().UTC(),
	}

	if err := l.store.ApplyTrade(ctx, account, position, deletePosition, trade); err != nil {
		return nil, fmt.Errorf("apply trade: %w", err)
	}
	return trade, nil
}

func (l *Ledger) resolvePrice(ctx context.Context, req TradeRequest) (decimal.Decimal, error) {
	if req.Price != nil {
		if req.Price.LessThanOrEqual(decimal.Zero) {
			return decimal.Zero, fmt.Errorf("trade price must be positive, got %s", req.Price)
		}
		return *req.Price, nil
	}
	price, err := l.store.LatestPrice(ctx, req.Ticker)
	if err != nil {
		return decimal.Zero, fmt.Errorf("latest price for %s: %w", req.Ticker, err)
	}
	if price.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, fmt.Errorf("no usable stored price for %s", req.Ticker)
	}
	return price, nil
}

// applyBuy folds a purchase into the position at weighted-average cost.
func applyBuy(position *models.Position, req TradeRequest, price decimal.Decimal) *models.Position {
	now := time.Now().UTC()
	if position == nil {
		return &models.Position{
			ID:            uuid.NewString(),
			AccountID:     req.AccountID,
			Ticker:        req.Ticker,
			Quantity:      req.Quantity,
			AvgEntryPrice: price,
			UpdatedAt:     now,
		}
	}
	oldCost := position.Quantity.Mul(position.AvgEntryPrice)
	newCost := req.Quantity.Mul(price)
	total := position.Quantity.Add(req.Quantity)
	position.AvgEntryPrice = oldCost.Add(newCost).Div(total)
	position.Quantity = total
	position.UpdatedAt = now
	return position
}

// Performance recomputes realized statistics for an account. Pairing walks
// the trade history newest first, matching each SELL to the nearest earlier
// BUY of the same ticker.
func (l *Ledger) Performance(ctx context.Context, accountID string) (*models.Performance, error) {
	account, err := l.store.GetAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("load account: %w", err)
	}
	trades, err := l.store.ListTrades(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("load trades: %w", err)
	}
	positions, err := l.store.ListPositions(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("load positions: %w", err)
	}

	equity := account.CashBalance
	for _, p := range positions {
		mark := p.AvgEntryPrice
		if price, err := l.store.LatestPrice(ctx, p.Ticker); err == nil && price.IsPositive() {
			mark = price
		}
		equity = equity.Add(p.Quantity.Mul(mark))
	}

	perf := &models.Performance{
		AccountID:   accountID,
		TotalTrades: len(trades),
	}
	if account.InitialBalance.IsPositive() {
		ret, _ := equity.Sub(account.InitialBalance).Div(account.InitialBalance).Float64()
		perf.TotalReturn = ret
	}

	var wins int
	sumWin, sumLoss := decimal.Zero, decimal.Zero
	consumed := make([]bool, len(trades))
	for i, sell := range trades {
		if sell.Type != models.ActionSell {
			continue
		}
		for j := i + 1; j < len(trades); j++ {
			buy := trades[j]
			if consumed[j] || buy.Type != models.ActionBuy || buy.Ticker != sell.Ticker {
				continue
			}
			consumed[j] = true
			perf.ClosedPairs++
			pnl := sell.Price.Sub(buy.Price).Mul(sell.Quantity)
			if pnl.IsPositive() {
				wins++
				sumWin = sumWin.Add(pnl)
			} else {
				sumLoss = sumLoss.Add(pnl)
			}
			break
		}
	}
	if perf.ClosedPairs > 0 {
		perf.WinRate = float64(wins) / float64(perf.ClosedPairs)
		if wins > 0 {
			perf.AvgWin = sumWin.Div(decimal.NewFromInt(int64(wins)))
		}
		if losses := perf.ClosedPairs - wins; losses > 0 {
			perf.AvgLoss = sumLoss.Div(decimal.NewFromInt(int64(losses)))
		}
	}
	return perf, nil
}
