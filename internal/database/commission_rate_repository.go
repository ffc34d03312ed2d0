package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/dsbeauty/salon-backend/internal/models"
)

// CommissionRateRepository handles the odsetek table, one row per
// (master, procedure) pair
type CommissionRateRepository struct {
	db Queryer
}

// NewCommissionRateRepository creates a new commission rate repository
func NewCommissionRateRepository(db Queryer) *CommissionRateRepository {
	return &CommissionRateRepository{db: db}
}

// GetRate returns the rate row for the pair, or nil if none exists
func (r *CommissionRateRepository) GetRate(ctx context.Context, masterID, procedureID int64) (*models.CommissionRate, error) {
	var rate models.CommissionRate
	query := `
		SELECT id, master_id, procedure_id, percentage
		FROM odsetek
		WHERE master_id = $1 AND procedure_id = $2
	`
	err := r.db.GetContext(ctx, &rate, query, masterID, procedureID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get commission rate: %w", err)
	}
	return &rate, nil
}

// UpsertRate inserts or replaces the percentage for the pair
func (r *CommissionRateRepository) UpsertRate(ctx context.Context, masterID, procedureID int64, pct decimal.Decimal) (*models.CommissionRate, error) {
	rate := &models.CommissionRate{MasterID: masterID, ProcedureID: procedureID, Percentage: pct}
	query := `
		INSERT INTO odsetek (master_id, procedure_id, percentage)
		VALUES ($1, $2, $3)
		ON CONFLICT (master_id, procedure_id) DO UPDATE SET percentage = EXCLUDED.percentage
		RETURNING id
	`
	if err := r.db.QueryRowxContext(ctx, query, masterID, procedureID, pct).Scan(&rate.ID); err != nil {
		return nil, fmt.Errorf("failed to upsert commission rate: %w", err)
	}
	return rate, nil
}

// ListRatesByMaster returns the master's rates joined with procedure names
func (r *CommissionRateRepository) ListRatesByMaster(ctx context.Context, masterID int64) ([]models.ProcedureRate, error) {
	rates := []models.ProcedureRate{}
	query := `
		SELECT o.procedure_id, p.name AS procedure_name, o.percentage
		FROM odsetek o
		JOIN procedures p ON p.id = o.procedure_id
		WHERE o.master_id = $1
		ORDER BY p.created_at, p.id
	`
	if err := r.db.SelectContext(ctx, &rates, query, masterID); err != nil {
		return nil, fmt.Errorf("failed to list commission rates: %w", err)
	}
	return rates, nil
}
