package database

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dsbeauty/salon-backend/internal/models"
)

// OperationHistoryRepository appends and reads ledger entries. Entries are
// never updated or deleted.
type OperationHistoryRepository struct {
	db Queryer
}

// NewOperationHistoryRepository creates a new operation history repository
func NewOperationHistoryRepository(db Queryer) *OperationHistoryRepository {
	return &OperationHistoryRepository{db: db}
}

// AppendEntry records a ledger entry dated now
func (r *OperationHistoryRepository) AppendEntry(ctx context.Context, masterID int64, kind models.OperationKind, amount decimal.Decimal) (*models.OperationEntry, error) {
	entry := &models.OperationEntry{MasterID: masterID, Amount: amount, OperationType: kind}
	query := `
		INSERT INTO operation_history (master_id, amount, operation_type, operation_date, is_canceled)
		VALUES ($1, $2, $3, NOW(), FALSE)
		RETURNING id, operation_date
	`
	err := r.db.QueryRowxContext(ctx, query, masterID, amount, string(kind)).Scan(&entry.ID, &entry.OperationDate)
	if err != nil {
		return nil, fmt.Errorf("failed to append operation entry: %w", err)
	}
	return entry, nil
}

// ListByKind returns the master's entries of one kind, newest first
func (r *OperationHistoryRepository) ListByKind(ctx context.Context, masterID int64, kind models.OperationKind) ([]models.OperationEntry, error) {
	entries := []models.OperationEntry{}
	query := `
		SELECT id, master_id, amount, operation_type, operation_date, is_canceled
		FROM operation_history
		WHERE master_id = $1 AND operation_type = $2
		ORDER BY operation_date DESC, id DESC
	`
	if err := r.db.SelectContext(ctx, &entries, query, masterID, string(kind)); err != nil {
		return nil, fmt.Errorf("failed to list operation entries: %w", err)
	}
	return entries, nil
}

// ListBetween returns the master's entries in [from, to), newest first
func (r *OperationHistoryRepository) ListBetween(ctx context.Context, masterID int64, from, to time.Time) ([]models.OperationEntry, error) {
	entries := []models.OperationEntry{}
	query := `
		SELECT id, master_id, amount, operation_type, operation_date, is_canceled
		FROM operation_history
		WHERE master_id = $1 AND operation_date >= $2 AND operation_date < $3
		ORDER BY operation_date DESC, id DESC
	`
	if err := r.db.SelectContext(ctx, &entries, query, masterID, from, to); err != nil {
		return nil, fmt.Errorf("failed to list operation entries: %w", err)
	}
	return entries, nil
}

// Net returns the sum of income entries minus the sum of expense entries
func (r *OperationHistoryRepository) Net(ctx context.Context, masterID int64) (decimal.Decimal, error) {
	var net decimal.Decimal
	query := `
		SELECT COALESCE(SUM(CASE WHEN operation_type = 'income' THEN amount ELSE -amount END), 0)
		FROM operation_history
		WHERE master_id = $1 AND NOT is_canceled
	`
	if err := r.db.GetContext(ctx, &net, query, masterID); err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum operation entries: %w", err)
	}
	return net, nil
}
