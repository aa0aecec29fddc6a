package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/quorumtrade/boardroom/internal/models"
)

func (s *Store) CreateAccount(ctx context.Context, account *models.Account) error {
	if account.ID == "" {
		account.ID = uuid.NewString()
	}
	if account.CreatedAt.IsZero() {
		account.CreatedAt = time.Now().UTC()
	}
	var strategyID any
	if account.StrategyID != "" {
		strategyID = account.StrategyID
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO accounts (id, name, strategy_id, cash_balance, initial_balance, created_at)
VALUES (?, ?, ?, ?, ?, ?)
`, account.ID, account.Name, strategyID,
		account.CashBalance.String(), account.InitialBalance.String(), account.CreatedAt)
	if err != nil {
		return fmt.Errorf("create account: %w", err)
	}
	return nil
}

func (s *Store) GetAccount(ctx context.Context, id string) (*models.Account, error) {
	var (
		account       models.Account
		strategyID    sql.NullString
		cash, initial string
	)
	err := s.db.QueryRowContext(ctx, `
SELECT id, name, strategy_id, cash_balance, initial_balance, created_at
FROM accounts WHERE id = ?`, id).Scan(
		&account.ID, &account.Name, &strategyID, &cash, &initial, &account.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("account %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	account.StrategyID = strategyID.String
	if account.CashBalance, err = decimal.NewFromString(cash); err != nil {
		return nil, fmt.Errorf("parse cash balance: %w", err)
	}
	if account.InitialBalance, err = decimal.NewFromString(initial); err != nil {
		return nil, fmt.Errorf("parse initial balance: %w", err)
	}
	return &account, nil
}

func (s *Store) ListAccounts(ctx context.Context) ([]models.Account, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM accounts ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan account id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]models.Account, 0, len(ids))
	for _, id := range ids {
		account, err := s.GetAccount(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, *account)
	}
	return out, nil
}

func (s *Store) DeleteAccount(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	return nil
}

// GetPosition returns nil without error when the account holds no position
// in the ticker.
func (s *Store) GetPosition(ctx context.Context, accountID, ticker string) (*models.Position, error) {
	position, err := scanPosition(s.db.QueryRowContext(ctx, `
SELECT id, account_id, ticker, quantity, avg_entry_price, updated_at
FROM positions WHERE account_id = ? AND ticker = ?`, accountID, ticker))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return position, err
}

func (s *Store) ListPositions(ctx context.Context, accountID string) ([]models.Position, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, account_id, ticker, quantity, avg_entry_price, updated_at
FROM positions WHERE account_id = ? ORDER BY ticker`, accountID)
	if err != nil {
		return nil, fmt.Errorf("list positions: %w", err)
	}
	defer rows.Close()

	var out []models.Position
	for rows.Next() {
		position, err := scanPosition(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *position)
	}
	return out, rows.Err()
}

func scanPosition(row rowScanner) (*models.Position, error) {
	var (
		position models.Position
		qty      string
		avg      string
	)
	err := row.Scan(&position.ID, &position.AccountID, &position.Ticker, &qty, &avg, &position.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if position.Quantity, err = decimal.NewFromString(qty); err != nil {
		return nil, fmt.Errorf("parse position quantity: %w", err)
	}
	if position.AvgEntryPrice, err = decimal.NewFromString(avg); err != nil {
		return nil, fmt.Errorf("parse entry price: %w", err)
	}
	return &position, nil
}

// ListTrades returns the account's trades newest first.
func (s *Store) ListTrades(ctx context.Context, accountID string) ([]models.Trade, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, account_id, ticker, type, quantity, price, total_value, executed_at
FROM trades WHERE account_id = ? ORDER BY executed_at DESC, id DESC`, accountID)
	if err != nil {
		return nil, fmt.Errorf("list trades: %w", err)
	}
	defer rows.Close()

	var out []models.Trade
	for rows.Next() {
		var (
			trade           models.Trade
			qty, price, tot string
		)
		if err := rows.Scan(&trade.ID, &trade.AccountID, &trade.Ticker, &trade.Type,
			&qty, &price, &tot, &trade.ExecutedAt); err != nil {
			return nil, fmt.Errorf("scan trade: %w", err)
		}
		if trade.Quantity, err = decimal.NewFromString(qty); err != nil {
			return nil, fmt.Errorf("parse trade quantity: %w", err)
		}
		if trade.Price, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("parse trade price: %w", err)
		}
		if trade.TotalValue, err = decimal.NewFromString(tot); err != nil {
			return nil, fmt.Errorf("parse trade total: %w", err)
		}
		out = append(out, trade)
	}
	return out, rows.Err()
}

// LatestPrice returns the most recent stored adjusted close for a ticker.
func (s *Store) LatestPrice(ctx context.Context, ticker string) (decimal.Decimal, error) {
	var adjClose float64
	err := s.db.QueryRowContext(ctx, `
SELECT adj_close FROM prices WHERE ticker = ? ORDER BY date DESC LIMIT 1`, ticker).Scan(&adjClose)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, fmt.Errorf("no stored price for %s", ticker)
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("latest price: %w", err)
	}
	return decimal.NewFromFloat(adjClose), nil
}

// ApplyTrade commits a trade, its position change, and the account's new
// cash balance in one transaction.
func (s *Store) ApplyTrade(ctx context.Context, account *models.Account, position *models.Position, deletePosition bool, trade *models.Trade) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin trade tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
INSERT INTO trades (id, account_id, ticker, type, quantity, price, total_value, executed_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`, trade.ID, trade.AccountID, trade.Ticker, string(trade.Type),
		trade.Quantity.String(), trade.Price.String(), trade.TotalValue.String(), trade.ExecutedAt)
	if err != nil {
		return fmt.Errorf("insert trade: %w", err)
	}

	switch {
	case deletePosition:
		if _, err := tx.ExecContext(ctx, `
DELETE FROM positions WHERE account_id = ? AND ticker = ?`, trade.AccountID, trade.Ticker); err != nil {
			return fmt.Errorf("delete position: %w", err)
		}
	case position != nil:
		if _, err := tx.ExecContext(ctx, `
INSERT INTO positions (id, account_id, ticker, quantity, avg_entry_price, updated_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(account_id, ticker) DO UPDATE SET
    quantity=excluded.quantity,
    avg_entry_price=excluded.avg_entry_price,
    updated_at=excluded.updated_at
`, position.ID, position.AccountID, position.Ticker,
			position.Quantity.String(), position.AvgEntryPrice.String(), position.UpdatedAt); err != nil {
			return fmt.Errorf("upsert position: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
UPDATE accounts SET cash_balance = ? WHERE id = ?`,
		account.CashBalance.String(), account.ID); err != nil {
		return fmt.Errorf("update cash balance: %w", err)
	}

	return tx.Commit()
}
