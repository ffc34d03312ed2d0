package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dsbeauty/salon-backend/internal/models"
)

// SalonRepository handles salon and membership database operations
type SalonRepository struct {
	db Queryer
}

// NewSalonRepository creates a new salon repository
func NewSalonRepository(db Queryer) *SalonRepository {
	return &SalonRepository{db: db}
}

// CreateSalon inserts a salon and fills in its ID and creation time
func (r *SalonRepository) CreateSalon(ctx context.Context, salon *models.Salon) error {
	query := `
		INSERT INTO salons (name, password_hash, created_at)
		VALUES ($1, $2, NOW())
		RETURNING id, created_at
	`
	err := r.db.QueryRowxContext(ctx, query, salon.Name, salon.PasswordHash).
		Scan(&salon.ID, &salon.CreatedAt)
	if err != nil {
		if IsUniqueViolation(err) {
			return models.ErrSalonNameTaken
		}
		return fmt.Errorf("failed to create salon: %w", err)
	}
	return nil
}

// GetSalonByName returns the salon with the given name, or nil if none exists
func (r *SalonRepository) GetSalonByName(ctx context.Context, name string) (*models.Salon, error) {
	var salon models.Salon
	query := `SELECT id, name, password_hash, created_at FROM salons WHERE name = $1`

	err := r.db.GetContext(ctx, &salon, query, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get salon by name: %w", err)
	}
	return &salon, nil
}

// GetSalonByID returns the salon with the given ID, or nil if none exists
func (r *SalonRepository) GetSalonByID(ctx context.Context, id int64) (*models.Salon, error) {
	var salon models.Salon
	query := `SELECT id, name, password_hash, created_at FROM salons WHERE id = $1`

	err := r.db.GetContext(ctx, &salon, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get salon by id: %w", err)
	}
	return &salon, nil
}

// AddEmployee links a user to a salon
func (r *SalonRepository) AddEmployee(ctx context.Context, userID, salonID int64) (*models.Employee, error) {
	employee := &models.Employee{UserID: userID, SalonID: salonID}
	query := `
		INSERT INTO employees (user_id, salon_id, created_at)
		VALUES ($1, $2, NOW())
		RETURNING id, created_at
	`
	err := r.db.QueryRowxContext(ctx, query, userID, salonID).Scan(&employee.ID, &employee.CreatedAt)
	if err != nil {
		if IsUniqueViolation(err) {
			return nil, models.ErrAlreadyMember
		}
		return nil, fmt.Errorf("failed to add employee: %w", err)
	}
	return employee, nil
}

// IsEmployee reports whether the user belongs to the salon
func (r *SalonRepository) IsEmployee(ctx context.Context, userID, salonID int64) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM employees WHERE user_id = $1 AND salon_id = $2)`

	if err := r.db.GetContext(ctx, &exists, query, userID, salonID); err != nil {
		return false, fmt.Errorf("failed to check salon membership: %w", err)
	}
	return exists, nil
}

// ListSalonsByUser returns the salons a user belongs to
func (r *SalonRepository) ListSalonsByUser(ctx context.Context, userID int64) ([]models.Salon, error) {
	salons := []models.Salon{}
	query := `
		SELECT s.id, s.name, s.password_hash, s.created_at
		FROM salons s
		JOIN employees e ON e.salon_id = s.id
		WHERE e.user_id = $1
		ORDER BY s.name
	`
	if err := r.db.SelectContext(ctx, &salons, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list salons: %w", err)
	}
	return salons, nil
}
