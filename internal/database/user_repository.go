package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dsbeauty/salon-backend/internal/models"
)

// UserRepository handles user database operations
type UserRepository struct {
	db Queryer
}

// NewUserRepository creates a new user repository
func NewUserRepository(db Queryer) *UserRepository {
	return &UserRepository{db: db}
}

// CreateUser inserts a user and fills in its ID and creation time
func (r *UserRepository) CreateUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (login, password_hash, user_type, created_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING id, created_at
	`
	err := r.db.QueryRowxContext(ctx, query, user.Login, user.PasswordHash, user.UserType).
		Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		if IsUniqueViolation(err) {
			return models.ErrLoginTaken
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetUserByLogin returns the user with the given login, or nil if none exists
func (r *UserRepository) GetUserByLogin(ctx context.Context, login string) (*models.User, error) {
	var user models.User
	query := `SELECT id, login, password_hash, user_type, created_at FROM users WHERE login = $1`

	err := r.db.GetContext(ctx, &user, query, login)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by login: %w", err)
	}
	return &user, nil
}

// GetUserByID returns the user with the given ID, or nil if none exists
func (r *UserRepository) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	query := `SELECT id, login, password_hash, user_type, created_at FROM users WHERE id = $1`

	err := r.db.GetContext(ctx, &user, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	return &user, nil
}

// LoginExists reports whether a login is already registered
func (r *UserRepository) LoginExists(ctx context.Context, login string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE login = $1)`

	if err := r.db.GetContext(ctx, &exists, query, login); err != nil {
		return false, fmt.Errorf("failed to check login: %w", err)
	}
	return exists, nil
}
