package database

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/dsbeauty/salon-backend/internal/models"
)

// RefreshTokenRepository stores issued refresh tokens so they can be
// rotated and revoked
type RefreshTokenRepository struct {
	db Queryer
}

// NewRefreshTokenRepository creates a new refresh token repository
func NewRefreshTokenRepository(db Queryer) *RefreshTokenRepository {
	return &RefreshTokenRepository{db: db}
}

// HashToken returns the hex SHA-256 of a token, the form tokens are stored in
func HashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}

// StoreRefreshToken records a newly issued token
func (r *RefreshTokenRepository) StoreRefreshToken(ctx context.Context, userID int64, token string, meta models.ClientMeta, expiresAt time.Time) error {
	query := `
		INSERT INTO refresh_tokens (user_id, token_hash, device_type, ip_address, user_agent, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.ExecContext(ctx, query,
		userID,
		HashToken(token),
		nullIfEmpty(meta.DeviceType),
		nullIfEmpty(meta.IPAddress),
		nullIfEmpty(meta.UserAgent),
		expiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to store refresh token: %w", err)
	}
	return nil
}

// GetRefreshToken returns the stored token, or nil if it was never issued
func (r *RefreshTokenRepository) GetRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	var rt models.RefreshToken
	query := `
		SELECT id, user_id, token_hash, device_type, ip_address, user_agent,
		       created_at, expires_at, revoked, revoked_at
		FROM refresh_tokens
		WHERE token_hash = $1
	`
	err := r.db.GetContext(ctx, &rt, query, HashToken(token))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get refresh token: %w", err)
	}
	return &rt, nil
}

// RevokeToken marks a token revoked. It reports false when the token was
// unknown or already revoked.
func (r *RefreshTokenRepository) RevokeToken(ctx context.Context, token string) (bool, error) {
	query := `
		UPDATE refresh_tokens
		SET revoked = TRUE, revoked_at = NOW()
		WHERE token_hash = $1 AND revoked = FALSE
	`
	result, err := r.db.ExecContext(ctx, query, HashToken(token))
	if err != nil {
		return false, fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	return affected(result)
}

// RevokeAllUserTokens revokes every live token of a user
func (r *RefreshTokenRepository) RevokeAllUserTokens(ctx context.Context, userID int64) error {
	query := `
		UPDATE refresh_tokens
		SET revoked = TRUE, revoked_at = NOW()
		WHERE user_id = $1 AND revoked = FALSE
	`
	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("failed to revoke user tokens: %w", err)
	}
	return nil
}

// CleanupExpiredTokens deletes tokens that expired or were revoked before cutoff
func (r *RefreshTokenRepository) CleanupExpiredTokens(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `
		DELETE FROM refresh_tokens
		WHERE expires_at < $1 OR (revoked = TRUE AND revoked_at < $1)
	`
	result, err := r.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup refresh tokens: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n, nil
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
