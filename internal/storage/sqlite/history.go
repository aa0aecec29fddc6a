package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/quorumtrade/boardroom/internal/models"
)

// UpsertPrices stores daily bars, replacing any existing row for the same
// ticker and date.
func (s *Store) UpsertPrices(ctx context.Context, bars []models.PriceBar) error {
	if len(bars) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin price tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO prices (ticker, date, open, high, low, close, adj_close, volume)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(ticker, date) DO UPDATE SET
    open=excluded.open,
    high=excluded.high,
    low=excluded.low,
    close=excluded.close,
    adj_close=excluded.adj_close,
    volume=excluded.volume
`)
	if err != nil {
		return fmt.Errorf("prepare price upsert: %w", err)
	}
	defer stmt.Close()

	for _, bar := range bars {
		if _, err := stmt.ExecContext(ctx, bar.Ticker, bar.Date.Format(dateOnly),
			bar.Open, bar.High, bar.Low, bar.Close, bar.AdjClose, bar.Volume); err != nil {
			return fmt.Errorf("upsert price %s %s: %w", bar.Ticker, bar.Date.Format(dateOnly), err)
		}
	}
	return tx.Commit()
}

// GetPrices returns stored bars for the range, ascending by date.
func (s *Store) GetPrices(ctx context.Context, ticker string, from, to time.Time) ([]models.PriceBar, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT ticker, date, open, high, low, close, adj_close, volume
FROM prices WHERE ticker = ? AND date >= ? AND date <= ?
ORDER BY date`, ticker, from.Format(dateOnly), to.Format(dateOnly))
	if err != nil {
		return nil, fmt.Errorf("get prices: %w", err)
	}
	defer rows.Close()

	var out []models.PriceBar
	for rows.Next() {
		var (
			bar  models.PriceBar
			date string
		)
		if err := rows.Scan(&bar.Ticker, &date, &bar.Open, &bar.High, &bar.Low,
			&bar.Close, &bar.AdjClose, &bar.Volume); err != nil {
			return nil, fmt.Errorf("scan price: %w", err)
		}
		if bar.Date, err = time.Parse(dateOnly, date); err != nil {
			return nil, fmt.Errorf("parse price date: %w", err)
		}
		out = append(out, bar)
	}
	return out, rows.Err()
}

// UpsertFundamentals stores quarterly snapshots, replacing rows with the
// same ticker and quarter end.
func (s *Store) UpsertFundamentals(ctx context.Context, snapshots []models.FundamentalSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin fundamentals tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO fundamentals (ticker, quarter_end, pe_ratio, revenue_growth,
    earnings_growth, debt_to_equity, net_income, sector)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(ticker, quarter_end) DO UPDATE SET
    pe_ratio=excluded.pe_ratio,
    revenue_growth=excluded.revenue_growth,
    earnings_growth=excluded.earnings_growth,
    debt_to_equity=excluded.debt_to_equity,
    net_income=excluded.net_income,
    sector=excluded.sector
`)
	if err != nil {
		return fmt.Errorf("prepare fundamentals upsert: %w", err)
	}
	defer stmt.Close()

	for _, snap := range snapshots {
		if _, err := stmt.ExecContext(ctx, snap.Ticker, snap.QuarterEnd.Format(dateOnly),
			snap.PERatio, snap.RevenueGrowth, snap.EarningsGrowth,
			snap.DebtToEquity, snap.NetIncome, snap.Sector); err != nil {
			return fmt.Errorf("upsert fundamentals %s %s: %w", snap.Ticker, snap.QuarterEnd.Format(dateOnly), err)
		}
	}
	return tx.Commit()
}

// GetFundamentals returns stored snapshots ascending by quarter end.
func (s *Store) GetFundamentals(ctx context.Context, ticker string) ([]models.FundamentalSnapshot, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT ticker, quarter_end, pe_ratio, revenue_growth, earnings_growth,
    debt_to_equity, net_income, sector
FROM fundamentals WHERE ticker = ? ORDER BY quarter_end`, ticker)
	if err != nil {
		return nil, fmt.Errorf("get fundamentals: %w", err)
	}
	defer rows.Close()

	var out []models.FundamentalSnapshot
	for rows.Next() {
		var (
			snap    models.FundamentalSnapshot
			quarter string
			sector  sql.NullString
		)
		if err := rows.Scan(&snap.Ticker, &quarter, &snap.PERatio, &snap.RevenueGrowth,
			&snap.EarningsGrowth, &snap.DebtToEquity, &snap.NetIncome, &sector); err != nil {
			return nil, fmt.Errorf("scan fundamentals: %w", err)
		}
		if snap.QuarterEnd, err = time.Parse(dateOnly, quarter); err != nil {
			return nil, fmt.Errorf("parse quarter end: %w", err)
		}
		snap.Sector = sector.String
		out = append(out, snap)
	}
	return out, rows.Err()
}

// SaveBacktestResult assigns the result's ID and creation time and persists
// it with the curve and trade list as JSON.
func (s *Store) SaveBacktestResult(ctx context.Context, result *models.BacktestResult) error {
	if result.ID == "" {
		result.ID = uuid.NewString()
	}
	if result.CreatedAt.IsZero() {
		result.CreatedAt = time.Now().UTC()
	}

	curve, err := json.Marshal(result.EquityCurve)
	if err != nil {
		return fmt.Errorf("marshal equity curve: %w", err)
	}
	trades, err := json.Marshal(result.Trades)
	if err != nil {
		return fmt.Errorf("marshal trades: %w", err)
	}

	var strategyID any
	if result.StrategyID != "" {
		strategyID = result.StrategyID
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO backtest_results (id, ticker, strategy_id, start_date, end_date,
    initial_capital, final_equity, total_return, annualized_return, sharpe_ratio,
    max_drawdown, win_rate, total_trades, buy_and_hold_return,
    equity_curve_json, trades_json, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`, result.ID, result.Ticker, strategyID, result.StartDate, result.EndDate,
		result.InitialCapital, result.FinalEquity, result.TotalReturn, result.AnnualizedReturn,
		result.SharpeRatio, result.MaxDrawdown, result.WinRate, result.TotalTrades,
		result.BuyAndHoldReturn, string(curve), string(trades), result.CreatedAt)
	if err != nil {
		return fmt.Errorf("save backtest result: %w", err)
	}
	return nil
}

func (s *Store) GetBacktestResult(ctx context.Context, id string) (*models.BacktestResult, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, ticker, strategy_id, start_date, end_date, initial_capital, final_equity,
    total_return, annualized_return, sharpe_ratio, max_drawdown, win_rate,
    total_trades, buy_and_hold_return, equity_curve_json, trades_json, created_at
FROM backtest_results WHERE id = ?`, id)
	result, err := scanBacktestResult(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("backtest result %s not found", id)
	}
	return result, err
}

// ListBacktestResults returns a ticker's runs newest first.
func (s *Store) ListBacktestResults(ctx context.Context, ticker string) ([]models.BacktestResult, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, ticker, strategy_id, start_date, end_date, initial_capital, final_equity,
    total_return, annualized_return, sharpe_ratio, max_drawdown, win_rate,
    total_trades, buy_and_hold_return, equity_curve_json, trades_json, created_at
FROM backtest_results WHERE ticker = ? ORDER BY created_at DESC`, ticker)
	if err != nil {
		return nil, fmt.Errorf("list backtest results: %w", err)
	}
	defer rows.Close()

	var out []models.BacktestResult
	for rows.Next() {
		result, err := scanBacktestResult(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *result)
	}
	return out, rows.Err()
}

func scanBacktestResult(row rowScanner) (*models.BacktestResult, error) {
	var (
		result     models.BacktestResult
		strategyID sql.NullString
		curveJSON  string
		tradesJSON string
	)
	err := row.Scan(&result.ID, &result.Ticker, &strategyID, &result.StartDate, &result.EndDate,
		&result.InitialCapital, &result.FinalEquity, &result.TotalReturn, &result.AnnualizedReturn,
		&result.SharpeRatio, &result.MaxDrawdown, &result.WinRate, &result.TotalTrades,
		&result.BuyAndHoldReturn, &curveJSON, &tradesJSON, &result.CreatedAt)
	if err != nil {
		return nil, err
	}
	result.StrategyID = strategyID.String
	if err := json.Unmarshal([]byte(curveJSON), &result.EquityCurve); err != nil {
		return nil, fmt.Errorf("unmarshal equity curve: %w", err)
	}
	if err := json.Unmarshal([]byte(tradesJSON), &result.Trades); err != nil {
		return nil, fmt.Errorf("unmarshal trades: %w", err)
	}
	return &result, nil
}
