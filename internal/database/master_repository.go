package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dsbeauty/salon-backend/internal/models"
)

// MasterRepository handles master database operations
type MasterRepository struct {
	db Queryer
}

// NewMasterRepository creates a new master repository
func NewMasterRepository(db Queryer) *MasterRepository {
	return &MasterRepository{db: db}
}

// CreateMaster inserts an active master and fills in its ID and creation time
func (r *MasterRepository) CreateMaster(ctx context.Context, m *models.Master) error {
	m.Status = models.MasterStatusActive
	query := `
		INSERT INTO masters (salon_id, name, status, created_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING id, created_at
	`
	if err := r.db.QueryRowxContext(ctx, query, m.SalonID, m.Name, m.Status).Scan(&m.ID, &m.CreatedAt); err != nil {
		return fmt.Errorf("failed to create master: %w", err)
	}
	return nil
}

// GetMasterByID returns the master with the given ID regardless of status,
// or nil if none exists
func (r *MasterRepository) GetMasterByID(ctx context.Context, id int64) (*models.Master, error) {
	var m models.Master
	query := `SELECT id, salon_id, name, status, created_at FROM masters WHERE id = $1`

	err := r.db.GetContext(ctx, &m, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get master: %w", err)
	}
	return &m, nil
}

// ListActiveMasters returns the salon's masters that are not terminated
func (r *MasterRepository) ListActiveMasters(ctx context.Context, salonID int64) ([]models.Master, error) {
	masters := []models.Master{}
	query := `
		SELECT id, salon_id, name, status, created_at
		FROM masters
		WHERE salon_id = $1 AND status = $2
		ORDER BY name, id
	`
	if err := r.db.SelectContext(ctx, &masters, query, salonID, models.MasterStatusActive); err != nil {
		return nil, fmt.Errorf("failed to list masters: %w", err)
	}
	return masters, nil
}

// TerminateMaster marks an active master terminated. It returns false when
// the master does not exist or is already terminated.
func (r *MasterRepository) TerminateMaster(ctx context.Context, id int64) (bool, error) {
	query := `UPDATE masters SET status = $1 WHERE id = $2 AND status = $3`

	result, err := r.db.ExecContext(ctx, query, models.MasterStatusTerminated, id, models.MasterStatusActive)
	if err != nil {
		return false, fmt.Errorf("failed to terminate master: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows > 0, nil
}
