package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/dsbeauty/salon-backend/internal/models"
)

// BalanceRepository handles master balances. Every mutation is a single
// statement so concurrent settlements serialize on the balance row.
type BalanceRepository struct {
	db Queryer
}

// NewBalanceRepository creates a new balance repository
func NewBalanceRepository(db Queryer) *BalanceRepository {
	return &BalanceRepository{db: db}
}

// GetBalance returns the master's balance row, or nil if none exists
func (r *BalanceRepository) GetBalance(ctx context.Context, masterID int64) (*models.Balance, error) {
	var balance models.Balance
	query := `SELECT master_id, balance FROM balances WHERE master_id = $1`

	err := r.db.GetContext(ctx, &balance, query, masterID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get balance: %w", err)
	}
	return &balance, nil
}

// OpenBalance creates a zero balance for the master if it has none
func (r *BalanceRepository) OpenBalance(ctx context.Context, masterID int64) error {
	query := `
		INSERT INTO balances (master_id, balance)
		VALUES ($1, 0)
		ON CONFLICT (master_id) DO NOTHING
	`
	if _, err := r.db.ExecContext(ctx, query, masterID); err != nil {
		return fmt.Errorf("failed to open balance: %w", err)
	}
	return nil
}

// Credit adds amount to the master's balance, creating the row if needed,
// and returns the new balance
func (r *BalanceRepository) Credit(ctx context.Context, masterID int64, amount decimal.Decimal) (decimal.Decimal, error) {
	var newBalance decimal.Decimal
	query := `
		INSERT INTO balances (master_id, balance)
		VALUES ($1, $2)
		ON CONFLICT (master_id) DO UPDATE SET balance = balances.balance + EXCLUDED.balance
		RETURNING balance
	`
	if err := r.db.QueryRowxContext(ctx, query, masterID, amount).Scan(&newBalance); err != nil {
		return decimal.Zero, fmt.Errorf("failed to credit balance: %w", err)
	}
	return newBalance, nil
}

// Debit subtracts amount from the master's balance only if the balance
// covers it. ok is false when the balance is missing or too small.
func (r *BalanceRepository) Debit(ctx context.Context, masterID int64, amount decimal.Decimal) (newBalance decimal.Decimal, ok bool, err error) {
	query := `
		UPDATE balances
		SET balance = balance - $1
		WHERE master_id = $2 AND balance >= $1
		RETURNING balance
	`
	err = r.db.QueryRowxContext(ctx, query, amount, masterID).Scan(&newBalance)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, false, nil
	}
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("failed to debit balance: %w", err)
	}
	return newBalance, true, nil
}
