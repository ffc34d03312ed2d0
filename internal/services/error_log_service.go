package services

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/dsbeauty/salon-backend/internal/database"
	"github.com/dsbeauty/salon-backend/internal/models"
	"github.com/dsbeauty/salon-backend/internal/utils"
)

const maxAppVersionLength = 50

// ErrorLogService stores errors reported by client applications
type ErrorLogService struct {
	logs   *database.ErrorLogRepository
	logger *logrus.Logger
}

// NewErrorLogService creates a new ErrorLogService
func NewErrorLogService(db database.DB, logger *logrus.Logger) *ErrorLogService {
	return &ErrorLogService{logs: database.NewErrorLogRepository(db), logger: logger}
}

// Record stores a client error with the device details parsed from the
// reporting client's user agent
func (s *ErrorLogService) Record(ctx context.Context, userID *int64, req *models.LogErrorRequest, userAgent, appVersion string) (*models.ErrorLog, error) {
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return nil, models.NewValidationError("message", "is required")
	}
	if len(appVersion) > maxAppVersionLength {
		appVersion = appVersion[:maxAppVersionLength]
	}

	device := utils.ParseUserAgent(userAgent)
	entry := &models.ErrorLog{
		UserID:     userID,
		Message:    message,
		Exception:  req.Exception,
		DeviceType: device.DeviceType,
		Platform:   device.Platform,
		AppVersion: appVersion,
	}
	if err := s.logs.CreateErrorLog(ctx, entry); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"error_log_id": entry.ID,
		"platform":     entry.Platform,
		"app_version":  entry.AppVersion,
	}).Warn("Client error reported")

	return entry, nil
}

// Recent returns the newest client errors
func (s *ErrorLogService) Recent(ctx context.Context, limit int) ([]models.ErrorLog, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return s.logs.ListRecent(ctx, limit)
}

// Prune deletes client errors reported before cutoff
func (s *ErrorLogService) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	return s.logs.DeleteOlderThan(ctx, cutoff)
}
