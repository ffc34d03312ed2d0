package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dsbeauty/salon-backend/internal/models"
)

// ProcedureRepository handles procedure catalog database operations
type ProcedureRepository struct {
	db Queryer
}

// NewProcedureRepository creates a new procedure repository
func NewProcedureRepository(db Queryer) *ProcedureRepository {
	return &ProcedureRepository{db: db}
}

// CreateProcedure inserts a procedure and fills in its ID and creation time
func (r *ProcedureRepository) CreateProcedure(ctx context.Context, p *models.Procedure) error {
	query := `
		INSERT INTO procedures (salon_id, name, created_at)
		VALUES ($1, $2, NOW())
		RETURNING id, created_at
	`
	if err := r.db.QueryRowxContext(ctx, query, p.SalonID, p.Name).Scan(&p.ID, &p.CreatedAt); err != nil {
		return fmt.Errorf("failed to create procedure: %w", err)
	}
	return nil
}

// GetProcedureByID returns the procedure with the given ID, or nil if none exists
func (r *ProcedureRepository) GetProcedureByID(ctx context.Context, id int64) (*models.Procedure, error) {
	var p models.Procedure
	query := `SELECT id, salon_id, name, created_at FROM procedures WHERE id = $1`

	err := r.db.GetContext(ctx, &p, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get procedure: %w", err)
	}
	return &p, nil
}

// ListProceduresBySalon returns a salon's procedures in creation order.
// Positional rate seeding depends on this order being stable.
func (r *ProcedureRepository) ListProceduresBySalon(ctx context.Context, salonID int64) ([]models.Procedure, error) {
	procedures := []models.Procedure{}
	query := `
		SELECT id, salon_id, name, created_at
		FROM procedures
		WHERE salon_id = $1
		ORDER BY created_at, id
	`
	if err := r.db.SelectContext(ctx, &procedures, query, salonID); err != nil {
		return nil, fmt.Errorf("failed to list procedures: %w", err)
	}
	return procedures, nil
}
