package ledger

import (
	"context"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/quorumtrade/boardroom/internal/models"
)

// memStore is an in-memory Store with the same atomicity contract as the
// sqlite implementation.
type memStore struct {
	accounts  map[string]*models.Account
	positions map[string]*models.Position // accountID + "/" + ticker
	trades    []models.Trade              // newest first
	prices    map[string]decimal.Decimal
	applyErr  error
}

func newMemStore() *memStore {
	return &memStore{
		accounts:  make(map[string]*models.Account),
		positions: make(map[string]*models.Position),
		prices:    make(map[string]decimal.Decimal),
	}
}

func (m *memStore) key(accountID, ticker string) string { return accountID + "/" + ticker }

func (m *memStore) GetAccount(ctx context.Context, id string) (*models.Account, error) {
	account, ok := m.accounts[id]
	if !ok {
		return nil, fmt.Errorf("account %s not found", id)
	}
	copied := *account
	return &copied, nil
}

func (m *memStore) GetPosition(ctx context.Context, accountID, ticker string) (*models.Position, error) {
	position, ok := m.positions[m.key(accountID, ticker)]
	if !ok {
		return nil, nil
	}
	copied := *position
	return &copied, nil
}

func (m *memStore) ListPositions(ctx context.Context, accountID string) ([]models.Position, error) {
	var out []models.Position
	for _, p := range m.positions {
		if p.AccountID == accountID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *memStore) ListTrades(ctx context.Context, accountID string) ([]models.Trade, error) {
	var out []models.Trade
	for _, t := range m.trades {
		if t.AccountID == accountID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *memStore) LatestPrice(ctx context.Context, ticker string) (decimal.Decimal, error) {
	price, ok := m.prices[ticker]
	if !ok {
		return decimal.Zero, fmt.Errorf("no stored price for %s", ticker)
	}
	return price, nil
}

func (m *memStore) ApplyTrade(ctx context.Context, account *models.Account, position *models.Position, deletePosition bool, trade *models.Trade) error {
	if m.applyErr != nil {
		return m.applyErr
	}
	copied := *account
	m.accounts[account.ID] = &copied
	switch {
	case deletePosition:
		delete(m.positions, m.key(trade.AccountID, trade.Ticker))
	case position != nil:
		copiedPos := *position
		m.positions[m.key(position.AccountID, position.Ticker)] = &copiedPos
	}
	m.trades = append([]models.Trade{*trade}, m.trades...)
	return nil
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func seedAccount(store *memStore, cash string) *models.Account {
	account := &models.Account{
		ID:             "acct-1",
		Name:           "test",
		CashBalance:    dec(cash),
		InitialBalance: dec(cash),
	}
	store.accounts[account.ID] = account
	return account
}

func buy(l *Ledger, ticker, qty, price string) (*models.Trade, error) {
	p := dec(price)
	return l.ExecuteTrade(context.Background(), TradeRequest{
		AccountID: "acct-1",
		Ticker:    ticker,
		Action:    models.ActionBuy,
		Quantity:  dec(qty),
		Price:     &p,
	})
}

func sell(l *Ledger, ticker, qty, price string) (*models.Trade, error) {
	p := dec(price)
	return l.ExecuteTrade(context.Background(), TradeRequest{
		AccountID: "acct-1",
		Ticker:    ticker,
		Action:    models.ActionSell,
		Quantity:  dec(qty),
		Price:     &p,
	})
}

func TestBuyAveragesCostBasis(t *testing.T) {
	store := newMemStore()
	seedAccount(store, "10000")
	l := New(store)

	if _, err := buy(l, "AAPL", "10", "150"); err != nil {
		t.Fatalf("first buy: %v", err)
	}
	if _, err := buy(l, "AAPL", "5", "180"); err != nil {
		t.Fatalf("second buy: %v", err)
	}

	position, err := store.GetPosition(context.Background(), "acct-1", "AAPL")
	if err != nil {
		t.Fatalf("GetPosition: %v", err)
	}
	if position == nil {
		t.Fatal("expected an open position")
	}
	if !position.Quantity.Equal(dec("15")) {
		t.Fatalf("expected quantity 15, got %s", position.Quantity)
	}
	if !position.AvgEntryPrice.Equal(dec("160")) {
		t.Fatalf("expected weighted average entry 160, got %s", position.AvgEntryPrice)
	}

	account, _ := store.GetAccount(context.Background(), "acct-1")
	if !account.CashBalance.Equal(dec("7600")) {
		t.Fatalf("expected cash 7600, got %s", account.CashBalance)
	}
}

func TestBuyInsufficientFunds(t *testing.T) {
	store := newMemStore()
	seedAccount(store, "100")
	l := New(store)

	_, err := buy(l, "AAPL", "10", "150")
	if !IsTradeError(err, InsufficientFunds) {
		t.Fatalf("expected InsufficientFunds, got %v", err)
	}

	account, _ := store.GetAccount(context.Background(), "acct-1")
	if !account.CashBalance.Equal(dec("100")) {
		t.Fatalf("rejected trade must not touch cash, got %s", account.CashBalance)
	}
	if len(store.trades) != 0 {
		t.Fatal("rejected trade must not be recorded")
	}
}

func TestSellInsufficientShares(t *testing.T) {
	store := newMemStore()
	seedAccount(store, "10000")
	l := New(store)

	if _, err := buy(l, "AAPL", "10", "150"); err != nil {
		t.Fatalf("buy: %v", err)
	}

	_, err := sell(l, "AAPL", "11", "160")
	if !IsTradeError(err, InsufficientShares) {
		t.Fatalf("expected InsufficientShares, got %v", err)
	}

	// Nothing moved.
	position, _ := store.GetPosition(context.Background(), "acct-1", "AAPL")
	if !position.Quantity.Equal(dec("10")) {
		t.Fatalf("rejected sell must not touch the position, got %s", position.Quantity)
	}
	account, _ := store.GetAccount(context.Background(), "acct-1")
	if !account.CashBalance.Equal(dec("8500")) {
		t.Fatalf("rejected sell must not touch cash, got %s", account.CashBalance)
	}
	if len(store.trades) != 1 {
		t.Fatalf("expected only the original buy recorded, got %d trades", len(store.trades))
	}
}

func TestSellToZeroDeletesPosition(t *testing.T) {
	store := newMemStore()
	seedAccount(store, "10000")
	l := New(store)

	if _, err := buy(l, "AAPL", "10", "150"); err != nil {
		t.Fatalf("buy: %v", err)
	}
	if _, err := sell(l, "AAPL", "10", "160"); err != nil {
		t.Fatalf("sell: %v", err)
	}

	position, err := store.GetPosition(context.Background(), "acct-1", "AAPL")
	if err != nil {
		t.Fatalf("GetPosition: %v", err)
	}
	if position != nil {
		t.Fatalf("zero-quantity position must be deleted, got %+v", position)
	}

	account, _ := store.GetAccount(context.Background(), "acct-1")
	if !account.CashBalance.Equal(dec("10100")) {
		t.Fatalf("expected cash 10100 after round trip, got %s", account.CashBalance)
	}
}

func TestExecuteTradeUsesLatestStoredPrice(t *testing.T) {
	store := newMemStore()
	seedAccount(store, "10000")
	store.prices["AAPL"] = dec("200")
	l := New(store)

	trade, err := l.ExecuteTrade(context.Background(), TradeRequest{
		AccountID: "acct-1",
		Ticker:    "AAPL",
		Action:    models.ActionBuy,
		Quantity:  dec("2"),
	})
	if err != nil {
		t.Fatalf("ExecuteTrade: %v", err)
	}
	if !trade.Price.Equal(dec("200")) {
		t.Fatalf("expected latest stored price 200, got %s", trade.Price)
	}

	// No stored price and no explicit price fails.
	_, err = l.ExecuteTrade(context.Background(), TradeRequest{
		AccountID: "acct-1",
		Ticker:    "MSFT",
		Action:    models.ActionBuy,
		Quantity:  dec("1"),
	})
	if err == nil {
		t.Fatal("expected error without any usable price")
	}
}

func TestExecuteTradeRejectsBadRequests(t *testing.T) {
	store := newMemStore()
	seedAccount(store, "10000")
	l := New(store)

	if _, err := buy(l, "AAPL", "0", "100"); err == nil {
		t.Fatal("expected error for zero quantity")
	}
	if _, err := l.ExecuteTrade(context.Background(), TradeRequest{
		AccountID: "acct-1",
		Ticker:    "AAPL",
		Action:    models.ActionHold,
		Quantity:  dec("1"),
	}); err == nil {
		t.Fatal("expected error for HOLD action")
	}
}

func TestPerformancePairing(t *testing.T) {
	store := newMemStore()
	seedAccount(store, "10000")
	l := New(store)

	// Winning round trip on AAPL, losing round trip on MSFT.
	if _, err := buy(l, "AAPL", "10", "100"); err != nil {
		t.Fatalf("buy AAPL: %v", err)
	}
	if _, err := sell(l, "AAPL", "10", "120"); err != nil {
		t.Fatalf("sell AAPL: %v", err)
	}
	if _, err := buy(l, "MSFT", "10", "100"); err != nil {
		t.Fatalf("buy MSFT: %v", err)
	}
	if _, err := sell(l, "MSFT", "10", "90"); err != nil {
		t.Fatalf("sell MSFT: %v", err)
	}

	perf, err := l.Performance(context.Background(), "acct-1")
	if err != nil {
		t.Fatalf("Performance: %v", err)
	}
	if perf.ClosedPairs != 2 {
		t.Fatalf("expected 2 closed pairs, got %d", perf.ClosedPairs)
	}
	if perf.WinRate != 0.5 {
		t.Fatalf("expected win rate 0.5, got %v", perf.WinRate)
	}
	if !perf.AvgWin.Equal(dec("200")) {
		t.Fatalf("expected avg win 200, got %s", perf.AvgWin)
	}
	if !perf.AvgLoss.Equal(dec("-100")) {
		t.Fatalf("expected avg loss -100, got %s", perf.AvgLoss)
	}
	if perf.TotalTrades != 4 {
		t.Fatalf("expected 4 trades, got %d", perf.TotalTrades)
	}

	// Cash round-tripped to 10100: +200 on AAPL, -100 on MSFT.
	if got := perf.TotalReturn; got < 0.0099 || got > 0.0101 {
		t.Fatalf("expected total return ~1%%, got %v", got)
	}
}
