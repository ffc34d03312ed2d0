package services

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dsbeauty/salon-backend/internal/clock"
	"github.com/dsbeauty/salon-backend/internal/models"
	"github.com/dsbeauty/salon-backend/internal/notify"
)

type awaitResult struct {
	outcome models.ActivationOutcome
	err     error
}

func expectLocked(mock sqlmock.Sqlmock, locked bool) {
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs(int64(7), models.BlockTypeAuth, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(locked))
}

func startAwait(ctx context.Context, svc *ActivationService, key models.ActivationKey, maxWait, interval time.Duration) <-chan awaitResult {
	done := make(chan awaitResult, 1)
	go func() {
		outcome, err := svc.AwaitActivation(ctx, key, maxWait, interval)
		done <- awaitResult{outcome, err}
	}()
	return done
}

func waitResult(t *testing.T, done <-chan awaitResult) awaitResult {
	t.Helper()
	select {
	case r := <-done:
		return r
	case <-time.After(2 * time.Second):
		t.Fatal("AwaitActivation did not return")
		return awaitResult{}
	}
}

func TestActivationService_AwaitActivation(t *testing.T) {
	key := models.ActivationKey{UserID: 7, BlockType: models.BlockTypeAuth}

	t.Run("already unlocked returns without waiting", func(t *testing.T) {
		db, mock := newMockDB(t)
		clk := clock.Fake(testTime)
		svc := NewActivationService(db, nil, clk, quietLogger())

		expectLocked(mock, false)

		outcome, err := svc.AwaitActivation(context.Background(), key, 5*time.Second, 5*time.Second)
		require.NoError(t, err)
		assert.Equal(t, models.ActivationAlreadyUnlocked, outcome)
		assert.Equal(t, 0, clk.PendingTimers())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("times out when the code is never deleted", func(t *testing.T) {
		db, mock := newMockDB(t)
		clk := clock.Fake(testTime)
		svc := NewActivationService(db, nil, clk, quietLogger())

		expectLocked(mock, true)
		expectLocked(mock, true)

		done := startAwait(context.Background(), svc, key, 5*time.Second, 5*time.Second)
		clk.WaitForTimers(1)
		clk.Advance(5 * time.Second)

		r := waitResult(t, done)
		require.NoError(t, r.err)
		assert.Equal(t, models.ActivationTimedOut, r.outcome)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("activated when the code disappears between polls", func(t *testing.T) {
		db, mock := newMockDB(t)
		clk := clock.Fake(testTime)
		svc := NewActivationService(db, nil, clk, quietLogger())

		expectLocked(mock, true)
		expectLocked(mock, true)
		expectLocked(mock, false)

		done := startAwait(context.Background(), svc, key, 15*time.Second, 5*time.Second)
		for i := 0; i < 2; i++ {
			clk.WaitForTimers(1)
			clk.Advance(5 * time.Second)
		}

		r := waitResult(t, done)
		require.NoError(t, r.err)
		assert.Equal(t, models.ActivationActivated, r.outcome)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("last wait is shortened to the deadline", func(t *testing.T) {
		db, mock := newMockDB(t)
		clk := clock.Fake(testTime)
		svc := NewActivationService(db, nil, clk, quietLogger())

		expectLocked(mock, true)
		expectLocked(mock, true)
		expectLocked(mock, true)

		done := startAwait(context.Background(), svc, key, 7*time.Second, 5*time.Second)
		clk.WaitForTimers(1)
		clk.Advance(5 * time.Second)
		clk.WaitForTimers(1)
		clk.Advance(2 * time.Second)

		r := waitResult(t, done)
		require.NoError(t, r.err)
		assert.Equal(t, models.ActivationTimedOut, r.outcome)
		assert.Equal(t, testTime.Add(7*time.Second), clk.Now())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("cancelled context abandons the wait", func(t *testing.T) {
		db, mock := newMockDB(t)
		clk := clock.Fake(testTime)
		svc := NewActivationService(db, nil, clk, quietLogger())

		expectLocked(mock, true)

		ctx, cancel := context.WithCancel(context.Background())
		done := startAwait(ctx, svc, key, time.Minute, 5*time.Second)
		clk.WaitForTimers(1)
		cancel()

		r := waitResult(t, done)
		assert.ErrorIs(t, r.err, context.Canceled)
		assert.Equal(t, 0, clk.PendingTimers())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("notification triggers an early check", func(t *testing.T) {
		db, mock := newMockDB(t)
		clk := clock.Fake(testTime)
		hub := notify.NewHub()
		svc := NewActivationService(db, hub, clk, quietLogger())

		expectLocked(mock, true)
		expectLocked(mock, false)

		done := startAwait(context.Background(), svc, key, time.Minute, 5*time.Second)
		clk.WaitForTimers(1)
		require.NoError(t, hub.Publish(context.Background(), key))

		r := waitResult(t, done)
		require.NoError(t, r.err)
		assert.Equal(t, models.ActivationActivated, r.outcome)
		assert.Equal(t, testTime, clk.Now())
		assert.Equal(t, 0, hub.Subscribers(key))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("non-positive poll interval", func(t *testing.T) {
		db, _ := newMockDB(t)
		svc := NewActivationService(db, nil, clock.Fake(testTime), quietLogger())

		_, err := svc.AwaitActivation(context.Background(), key, time.Minute, 0)
		assert.ErrorIs(t, err, models.ErrInvalidInput)
	})
}

func TestActivationService_Activate(t *testing.T) {
	ctx := context.Background()
	columns := []string{"id", "user_id", "salon_id", "code", "block_type", "qr_code"}

	t.Run("deletes the code and wakes waiters", func(t *testing.T) {
		db, mock := newMockDB(t)
		hub := notify.NewHub()
		svc := NewActivationService(db, hub, clock.Fake(testTime), quietLogger())

		salonID := int64(3)
		key := models.ActivationKey{UserID: 7, BlockType: models.BlockTypeSalon, SalonID: &salonID}
		wake, release := hub.Subscribe(key)
		defer release()

		mock.ExpectQuery(`FROM unlock_codes WHERE code`).WithArgs("abc123").
			WillReturnRows(sqlmock.NewRows(columns).AddRow(int64(1), int64(7), int64(3), "abc123", models.BlockTypeSalon, nil))
		mock.ExpectExec(`DELETE FROM unlock_codes WHERE code`).WithArgs("abc123").
			WillReturnResult(sqlmock.NewResult(0, 1))

		code, err := svc.Activate(ctx, "abc123")
		require.NoError(t, err)
		assert.Equal(t, int64(7), code.UserID)

		select {
		case <-wake:
		default:
			t.Fatal("waiter was not notified")
		}
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown code", func(t *testing.T) {
		db, mock := newMockDB(t)
		svc := NewActivationService(db, nil, clock.Fake(testTime), quietLogger())

		mock.ExpectQuery(`FROM unlock_codes WHERE code`).WithArgs("nope").
			WillReturnRows(sqlmock.NewRows(columns))

		_, err := svc.Activate(ctx, "nope")
		assert.ErrorIs(t, err, models.ErrUnlockCodeNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("code deleted concurrently", func(t *testing.T) {
		db, mock := newMockDB(t)
		svc := NewActivationService(db, nil, clock.Fake(testTime), quietLogger())

		mock.ExpectQuery(`FROM unlock_codes WHERE code`).WithArgs("abc123").
			WillReturnRows(sqlmock.NewRows(columns).AddRow(int64(1), int64(7), nil, "abc123", models.BlockTypeAuth, nil))
		mock.ExpectExec(`DELETE FROM unlock_codes WHERE code`).WithArgs("abc123").
			WillReturnResult(sqlmock.NewResult(0, 0))

		_, err := svc.Activate(ctx, "abc123")
		assert.ErrorIs(t, err, models.ErrUnlockCodeNotFound)
	})
}

func TestActivationService_IssueCode(t *testing.T) {
	ctx := context.Background()

	t.Run("salon lock requires a salon", func(t *testing.T) {
		db, mock := newMockDB(t)
		svc := NewActivationService(db, nil, clock.Fake(testTime), quietLogger())

		_, err := svc.IssueCode(ctx, db, models.ActivationKey{UserID: 7, BlockType: models.BlockTypeSalon})
		assert.ErrorIs(t, err, models.ErrInvalidInput)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("creates a code when none exists", func(t *testing.T) {
		db, mock := newMockDB(t)
		svc := NewActivationService(db, nil, clock.Fake(testTime), quietLogger())

		mock.ExpectQuery(`FROM unlock_codes`).
			WithArgs(int64(7), models.BlockTypeAuth, sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "salon_id", "code", "block_type", "qr_code"}))
		mock.ExpectQuery(`INSERT INTO unlock_codes`).
			WithArgs(int64(7), sqlmock.AnyArg(), sqlmock.AnyArg(), models.BlockTypeAuth, sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(15)))

		code, err := svc.IssueCode(ctx, db, models.ActivationKey{UserID: 7, BlockType: models.BlockTypeAuth})
		require.NoError(t, err)
		assert.Equal(t, int64(15), code.ID)
		assert.NotEmpty(t, code.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns the code issued concurrently for the same key", func(t *testing.T) {
		db, mock := newMockDB(t)
		svc := NewActivationService(db, nil, clock.Fake(testTime), quietLogger())
		columns := []string{"id", "user_id", "salon_id", "code", "block_type", "qr_code"}
		salonID := int64(3)

		mock.ExpectQuery(`FROM unlock_codes`).
			WithArgs(int64(7), models.BlockTypeSalon, sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows(columns))
		mock.ExpectQuery(`ON CONFLICT \(user_id, block_type, \(COALESCE\(salon_id, 0\)\)\) DO NOTHING`).
			WithArgs(int64(7), sqlmock.AnyArg(), sqlmock.AnyArg(), models.BlockTypeSalon, sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))
		mock.ExpectQuery(`FROM unlock_codes`).
			WithArgs(int64(7), models.BlockTypeSalon, sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows(columns).AddRow(int64(21), int64(7), int64(3), "first", models.BlockTypeSalon, nil))

		code, err := svc.IssueCode(ctx, db, models.ActivationKey{UserID: 7, BlockType: models.BlockTypeSalon, SalonID: &salonID})
		require.NoError(t, err)
		assert.Equal(t, int64(21), code.ID)
		assert.Equal(t, "first", code.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
