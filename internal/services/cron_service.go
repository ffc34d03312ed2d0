package services

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

const (
	refreshTokenGrace = 24 * time.Hour
	errorLogRetention = 90 * 24 * time.Hour
	maintenanceJobTTL = 5 * time.Minute
)

// CronService runs periodic housekeeping jobs
type CronService struct {
	cron      *cron.Cron
	auth      *AuthService
	errorLogs *ErrorLogService
	logger    *logrus.Logger
	now       func() time.Time
}

// NewCronService creates a new CronService
func NewCronService(auth *AuthService, errorLogs *ErrorLogService, logger *logrus.Logger) *CronService {
	return &CronService{
		cron:      cron.New(cron.WithSeconds()),
		auth:      auth,
		errorLogs: errorLogs,
		logger:    logger,
		now:       time.Now,
	}
}

// Start schedules the jobs and starts the scheduler
func (s *CronService) Start() error {
	// "0 0 3 * * *" = every day at 03:00
	if _, err := s.cron.AddFunc("0 0 3 * * *", s.cleanupTokensJob); err != nil {
		return fmt.Errorf("failed to schedule token cleanup job: %w", err)
	}
	// "0 30 3 * * 0" = Sundays at 03:30
	if _, err := s.cron.AddFunc("0 30 3 * * 0", s.pruneErrorLogsJob); err != nil {
		return fmt.Errorf("failed to schedule error log pruning job: %w", err)
	}

	s.cron.Start()
	s.logger.WithField("jobs", len(s.cron.Entries())).Info("Cron service started")
	return nil
}

// Stop stops the scheduler and waits for running jobs
func (s *CronService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Cron service stopped")
}

// CleanupTokens removes refresh tokens that expired more than a day ago
func (s *CronService) CleanupTokens(ctx context.Context) (int64, error) {
	return s.auth.CleanupTokens(ctx, s.now().Add(-refreshTokenGrace))
}

// PruneErrorLogs removes client errors older than the retention window
func (s *CronService) PruneErrorLogs(ctx context.Context) (int64, error) {
	return s.errorLogs.Prune(ctx, s.now().Add(-errorLogRetention))
}

func (s *CronService) cleanupTokensJob() {
	s.runJob("cleanup_refresh_tokens", s.CleanupTokens)
}

func (s *CronService) pruneErrorLogsJob() {
	s.runJob("prune_error_logs", s.PruneErrorLogs)
}

func (s *CronService) runJob(name string, job func(ctx context.Context) (int64, error)) {
	ctx, cancel := context.WithTimeout(context.Background(), maintenanceJobTTL)
	defer cancel()

	start := time.Now()
	removed, err := job(ctx)
	entry := s.logger.WithFields(logrus.Fields{
		"job":         name,
		"duration_ms": time.Since(start).Milliseconds(),
	})
	if err != nil {
		entry.WithError(err).Error("Cron job failed")
		return
	}
	entry.WithField("removed", removed).Info("Cron job completed")
}
