// Package sqlite persists strategies, paper accounts, trade history, price
// history, and backtest results in a single SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/quorumtrade/boardroom/internal/models"
)

type Store struct {
	db *sql.DB
}

func Open(dbPath string) (*Store, error) {
	if strings.TrimSpace(dbPath) == "" {
		return nil, fmt.Errorf("db path is required")
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA busy_timeout=3000;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("set pragma %s: %w", p, err)
		}
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func initSchema(db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS strategies (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    weights_json TEXT NOT NULL,
    buy_threshold REAL NOT NULL,
    sell_threshold REAL NOT NULL,
    stop_loss_pct REAL,
    take_profit_pct REAL,
    max_position_size_pct REAL,
    created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS accounts (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    strategy_id TEXT REFERENCES strategies(id) ON DELETE SET NULL,
    cash_balance TEXT NOT NULL,
    initial_balance TEXT NOT NULL,
    created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS positions (
    id TEXT PRIMARY KEY,
    account_id TEXT NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
    ticker TEXT NOT NULL,
    quantity TEXT NOT NULL,
    avg_entry_price TEXT NOT NULL,
    updated_at DATETIME NOT NULL,
    UNIQUE(account_id, ticker)
);

CREATE TABLE IF NOT EXISTS trades (
    id TEXT PRIMARY KEY,
    account_id TEXT NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
    ticker TEXT NOT NULL,
    type TEXT NOT NULL,
    quantity TEXT NOT NULL,
    price TEXT NOT NULL,
    total_value TEXT NOT NULL,
    executed_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trades_account_executed ON trades(account_id, executed_at DESC);

CREATE TABLE IF NOT EXISTS backtest_results (
    id TEXT PRIMARY KEY,
    ticker TEXT NOT NULL,
    strategy_id TEXT,
    start_date DATETIME NOT NULL,
    end_date DATETIME NOT NULL,
    initial_capital REAL NOT NULL,
    final_equity REAL NOT NULL,
    total_return REAL NOT NULL,
    annualized_return REAL NOT NULL,
    sharpe_ratio REAL,
    max_drawdown REAL NOT NULL,
    win_rate REAL NOT NULL,
    total_trades INTEGER NOT NULL,
    buy_and_hold_return REAL NOT NULL,
    equity_curve_json TEXT NOT NULL,
    trades_json TEXT NOT NULL,
    created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS prices (
    ticker TEXT NOT NULL,
    date TEXT NOT NULL,
    open REAL NOT NULL,
    high REAL NOT NULL,
    low REAL NOT NULL,
    close REAL NOT NULL,
    adj_close REAL NOT NULL,
    volume INTEGER NOT NULL,
    UNIQUE(ticker, date)
);

CREATE TABLE IF NOT EXISTS fundamentals (
    ticker TEXT NOT NULL,
    quarter_end TEXT NOT NULL,
    pe_ratio REAL,
    revenue_growth REAL,
    earnings_growth REAL,
    debt_to_equity REAL,
    net_income REAL,
    sector TEXT,
    UNIQUE(ticker, quarter_end)
);
`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

// dateOnly is the storage format for price dates and quarter ends.
const dateOnly = "2006-01-02"

func (s *Store) SaveStrategy(ctx context.Context, strategy *models.Strategy) error {
	if strategy.ID == "" {
		strategy.ID = uuid.NewString()
	}
	if strategy.CreatedAt.IsZero() {
		strategy.CreatedAt = time.Now().UTC()
	}
	weights, err := json.Marshal(strategy.Weights)
	if err != nil {
		return fmt.Errorf("marshal weights: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
INSERT INTO strategies (id, name, weights_json, buy_threshold, sell_threshold,
    stop_loss_pct, take_profit_pct, max_position_size_pct, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    name=excluded.name,
    weights_json=excluded.weights_json,
    buy_threshold=excluded.buy_threshold,
    sell_threshold=excluded.sell_threshold,
    stop_loss_pct=excluded.stop_loss_pct,
    take_profit_pct=excluded.take_profit_pct,
    max_position_size_pct=excluded.max_position_size_pct
`, strategy.ID, strategy.Name, string(weights), strategy.BuyThreshold, strategy.SellThreshold,
		strategy.StopLossPct, strategy.TakeProfitPct, strategy.MaxPositionSizePct, strategy.CreatedAt)
	if err != nil {
		return fmt.Errorf("save strategy: %w", err)
	}
	return nil
}

func (s *Store) GetStrategy(ctx context.Context, id string) (*models.Strategy, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, name, weights_json, buy_threshold, sell_threshold,
    stop_loss_pct, take_profit_pct, max_position_size_pct, created_at
FROM strategies WHERE id = ?`, id)
	return scanStrategy(row)
}

func (s *Store) ListStrategies(ctx context.Context) ([]models.Strategy, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, name, weights_json, buy_threshold, sell_threshold,
    stop_loss_pct, take_profit_pct, max_position_size_pct, created_at
FROM strategies ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list strategies: %w", err)
	}
	defer rows.Close()

	var out []models.Strategy
	for rows.Next() {
		strategy, err := scanStrategy(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *strategy)
	}
	return out, rows.Err()
}

func (s *Store) DeleteStrategy(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM strategies WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete strategy: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStrategy(row rowScanner) (*models.Strategy, error) {
	var (
		strategy    models.Strategy
		weightsJSON string
	)
	err := row.Scan(&strategy.ID, &strategy.Name, &weightsJSON,
		&strategy.BuyThreshold, &strategy.SellThreshold,
		&strategy.StopLossPct, &strategy.TakeProfitPct, &strategy.MaxPositionSizePct,
		&strategy.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("scan strategy: %w", err)
	}
	if err := json.Unmarshal([]byte(weightsJSON), &strategy.Weights); err != nil {
		return nil, fmt.Errorf("unmarshal weights: %w", err)
	}
	return &strategy, nil
}
