package database

import (
	"context"
	"fmt"
	"time"

	"github.com/dsbeauty/salon-backend/internal/models"
)

// ErrorLogRepository stores errors reported by client applications
type ErrorLogRepository struct {
	db Queryer
}

// NewErrorLogRepository creates a new error log repository
func NewErrorLogRepository(db Queryer) *ErrorLogRepository {
	return &ErrorLogRepository{db: db}
}

// CreateErrorLog inserts a client error and fills in its ID and timestamp
func (r *ErrorLogRepository) CreateErrorLog(ctx context.Context, log *models.ErrorLog) error {
	query := `
		INSERT INTO error_logs (user_id, message, exception, device_type, platform, app_version, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		RETURNING id, timestamp
	`
	err := r.db.QueryRowxContext(ctx, query,
		log.UserID, log.Message, log.Exception, log.DeviceType, log.Platform, log.AppVersion,
	).Scan(&log.ID, &log.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to create error log: %w", err)
	}
	return nil
}

// ListRecent returns the newest client errors
func (r *ErrorLogRepository) ListRecent(ctx context.Context, limit int) ([]models.ErrorLog, error) {
	logs := []models.ErrorLog{}
	query := `
		SELECT id, user_id, message, exception, device_type, platform, app_version, timestamp
		FROM error_logs
		ORDER BY timestamp DESC
		LIMIT $1
	`
	if err := r.db.SelectContext(ctx, &logs, query, limit); err != nil {
		return nil, fmt.Errorf("failed to list error logs: %w", err)
	}
	return logs, nil
}

// DeleteOlderThan removes client errors reported before cutoff
func (r *ErrorLogRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM error_logs WHERE timestamp < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old error logs: %w", err)
	}
	return result.RowsAffected()
}
