package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dsbeauty/salon-backend/internal/models"
)

// UnlockCodeRepository handles unlock codes. A row present means the
// account or salon membership it names is locked.
type UnlockCodeRepository struct {
	db Queryer
}

// NewUnlockCodeRepository creates a new unlock code repository
func NewUnlockCodeRepository(db Queryer) *UnlockCodeRepository {
	return &UnlockCodeRepository{db: db}
}

const unlockCodeColumns = `id, user_id, salon_id, code, block_type, qr_code`

// CreateCode inserts an unlock code and fills in its ID. It reports false
// without error when a code for the same key already exists.
func (r *UnlockCodeRepository) CreateCode(ctx context.Context, code *models.UnlockCode) (bool, error) {
	query := `
		INSERT INTO unlock_codes (user_id, salon_id, code, block_type, qr_code)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, block_type, (COALESCE(salon_id, 0))) DO NOTHING
		RETURNING id
	`
	err := r.db.QueryRowxContext(ctx, query, code.UserID, code.SalonID, code.Code, code.BlockType, code.QRCode).
		Scan(&code.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to create unlock code: %w", err)
	}
	return true, nil
}

// FindByKey returns the code locking key, or nil if the key is unlocked
func (r *UnlockCodeRepository) FindByKey(ctx context.Context, key models.ActivationKey) (*models.UnlockCode, error) {
	var code models.UnlockCode
	query := `SELECT ` + unlockCodeColumns + ` FROM unlock_codes
		WHERE user_id = $1 AND block_type = $2 AND salon_id IS NOT DISTINCT FROM $3
		ORDER BY id
		LIMIT 1`

	err := r.db.GetContext(ctx, &code, query, key.UserID, key.BlockType, key.SalonID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find unlock code: %w", err)
	}
	return &code, nil
}

// Exists reports whether any code locks key
func (r *UnlockCodeRepository) Exists(ctx context.Context, key models.ActivationKey) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM unlock_codes
		WHERE user_id = $1 AND block_type = $2 AND salon_id IS NOT DISTINCT FROM $3)`

	if err := r.db.GetContext(ctx, &exists, query, key.UserID, key.BlockType, key.SalonID); err != nil {
		return false, fmt.Errorf("failed to check unlock code: %w", err)
	}
	return exists, nil
}

// GetByCode returns the code row with the given value, or nil if none exists
func (r *UnlockCodeRepository) GetByCode(ctx context.Context, value string) (*models.UnlockCode, error) {
	var code models.UnlockCode
	query := `SELECT ` + unlockCodeColumns + ` FROM unlock_codes WHERE code = $1`

	err := r.db.GetContext(ctx, &code, query, value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get unlock code: %w", err)
	}
	return &code, nil
}

// DeleteByCode removes the code row with the given value and reports
// whether a row was deleted
func (r *UnlockCodeRepository) DeleteByCode(ctx context.Context, value string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM unlock_codes WHERE code = $1`, value)
	if err != nil {
		return false, fmt.Errorf("failed to delete unlock code: %w", err)
	}
	return affected(result)
}

// DeleteByKey removes every code locking key and reports whether any row
// was deleted
func (r *UnlockCodeRepository) DeleteByKey(ctx context.Context, key models.ActivationKey) (bool, error) {
	query := `DELETE FROM unlock_codes
		WHERE user_id = $1 AND block_type = $2 AND salon_id IS NOT DISTINCT FROM $3`

	result, err := r.db.ExecContext(ctx, query, key.UserID, key.BlockType, key.SalonID)
	if err != nil {
		return false, fmt.Errorf("failed to delete unlock code: %w", err)
	}
	return affected(result)
}

// ListPending returns every outstanding code, oldest first
func (r *UnlockCodeRepository) ListPending(ctx context.Context) ([]models.UnlockCode, error) {
	codes := []models.UnlockCode{}
	query := `SELECT ` + unlockCodeColumns + ` FROM unlock_codes ORDER BY id`

	if err := r.db.SelectContext(ctx, &codes, query); err != nil {
		return nil, fmt.Errorf("failed to list unlock codes: %w", err)
	}
	return codes, nil
}

func affected(result sql.Result) (bool, error) {
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows > 0, nil
}
