package services

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/dsbeauty/salon-backend/internal/clock"
	"github.com/dsbeauty/salon-backend/internal/database"
	"github.com/dsbeauty/salon-backend/internal/models"
	"github.com/dsbeauty/salon-backend/internal/utils"
)

// ActivationNotifier wakes waiters when a lock is released. Delivery is
// best effort; waiters keep polling the database regardless.
type ActivationNotifier interface {
	Subscribe(key models.ActivationKey) (<-chan struct{}, func())
	Publish(ctx context.Context, key models.ActivationKey) error
}

// ActivationService manages unlock codes. A creator account, or a creator's
// membership of a salon, is locked while an unlock code row exists for it
// and unlocked once an operator deletes the code.
type ActivationService struct {
	codes    *database.UnlockCodeRepository
	notifier ActivationNotifier
	clock    clock.Clock
	logger   *logrus.Logger
}

// NewActivationService creates a new ActivationService. notifier may be nil.
func NewActivationService(db database.DB, notifier ActivationNotifier, clk clock.Clock, logger *logrus.Logger) *ActivationService {
	return &ActivationService{
		codes:    database.NewUnlockCodeRepository(db),
		notifier: notifier,
		clock:    clk,
		logger:   logger,
	}
}

// IssueCode locks key with a fresh unlock code written through q. If the
// key is already locked the existing code is returned.
func (s *ActivationService) IssueCode(ctx context.Context, q database.Queryer, key models.ActivationKey) (*models.UnlockCode, error) {
	if key.UserID == 0 {
		return nil, models.NewValidationError("user_id", "unlock code requires an owner")
	}
	if key.BlockType != models.BlockTypeAuth && key.BlockType != models.BlockTypeSalon {
		return nil, models.NewValidationError("block_type", "must be auth or salon")
	}
	if key.BlockType == models.BlockTypeSalon && key.SalonID == nil {
		return nil, models.NewValidationError("salon_id", "salon unlock code requires a salon")
	}

	repo := database.NewUnlockCodeRepository(q)
	existing, err := repo.FindByKey(ctx, key)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	value, err := utils.GenerateUnlockCode()
	if err != nil {
		return nil, err
	}

	code := &models.UnlockCode{
		UserID:    key.UserID,
		SalonID:   key.SalonID,
		Code:      value,
		BlockType: key.BlockType,
	}
	created, err := repo.CreateCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if !created {
		// issued concurrently for the same key
		existing, err := repo.FindByKey(ctx, key)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			return nil, models.ErrUnlockCodeNotFound
		}
		return existing, nil
	}

	s.logger.WithFields(logrus.Fields{
		"user_id":    key.UserID,
		"block_type": key.BlockType,
		"salon_id":   key.SalonID,
	}).Info("Unlock code issued")

	return code, nil
}

// GetCode returns the code locking key
func (s *ActivationService) GetCode(ctx context.Context, key models.ActivationKey) (*models.UnlockCode, error) {
	code, err := s.codes.FindByKey(ctx, key)
	if err != nil {
		return nil, err
	}
	if code == nil {
		return nil, models.ErrUnlockCodeNotFound
	}
	return code, nil
}

// IsLocked reports whether an unlock code exists for key
func (s *ActivationService) IsLocked(ctx context.Context, key models.ActivationKey) (bool, error) {
	return s.codes.Exists(ctx, key)
}

// Activate deletes the unlock code with the given value, releasing its lock
func (s *ActivationService) Activate(ctx context.Context, value string) (*models.UnlockCode, error) {
	code, err := s.codes.GetByCode(ctx, value)
	if err != nil {
		return nil, err
	}
	if code == nil {
		return nil, models.ErrUnlockCodeNotFound
	}

	deleted, err := s.codes.DeleteByCode(ctx, value)
	if err != nil {
		return nil, err
	}
	if !deleted {
		return nil, models.ErrUnlockCodeNotFound
	}

	s.released(ctx, models.ActivationKey{UserID: code.UserID, BlockType: code.BlockType, SalonID: code.SalonID})
	return code, nil
}

// Release deletes every code locking key
func (s *ActivationService) Release(ctx context.Context, key models.ActivationKey) error {
	deleted, err := s.codes.DeleteByKey(ctx, key)
	if err != nil {
		return err
	}
	if !deleted {
		return models.ErrUnlockCodeNotFound
	}

	s.released(ctx, key)
	return nil
}

// ListPending returns every outstanding unlock code
func (s *ActivationService) ListPending(ctx context.Context) ([]models.UnlockCode, error) {
	return s.codes.ListPending(ctx)
}

func (s *ActivationService) released(ctx context.Context, key models.ActivationKey) {
	fields := logrus.Fields{
		"user_id":    key.UserID,
		"block_type": key.BlockType,
		"salon_id":   key.SalonID,
	}
	s.logger.WithFields(fields).Info("Unlock code activated")

	if s.notifier == nil {
		return
	}
	if err := s.notifier.Publish(ctx, key); err != nil {
		s.logger.WithError(err).WithFields(fields).Warn("Failed to publish activation")
	}
}

// AwaitActivation blocks until key is unlocked or maxWait has elapsed,
// checking the database every pollInterval and whenever the notifier fires.
// The deadline is measured on the wall clock, so slow polls cannot extend
// the wait. Cancelling ctx abandons the wait and returns ctx's error.
func (s *ActivationService) AwaitActivation(ctx context.Context, key models.ActivationKey, maxWait, pollInterval time.Duration) (models.ActivationOutcome, error) {
	if pollInterval <= 0 {
		return "", models.NewValidationError("poll_interval", "must be positive")
	}

	locked, err := s.codes.Exists(ctx, key)
	if err != nil {
		return "", err
	}
	if !locked {
		return models.ActivationAlreadyUnlocked, nil
	}

	deadline := s.clock.Now().Add(maxWait)

	var wake <-chan struct{}
	if s.notifier != nil {
		ch, release := s.notifier.Subscribe(key)
		defer release()
		wake = ch
	}

	for {
		remaining := deadline.Sub(s.clock.Now())
		if remaining <= 0 {
			return models.ActivationTimedOut, nil
		}

		timer := s.clock.NewTimer(min(pollInterval, remaining))
		select {
		case <-ctx.Done():
			timer.Stop()
			return "", ctx.Err()
		case <-wake:
			timer.Stop()
		case <-timer.C:
		}

		locked, err := s.codes.Exists(ctx, key)
		if err != nil {
			return "", err
		}
		if !locked {
			return models.ActivationActivated, nil
		}
	}
}
