package database

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFinanceRepository_DailyStatistics(t *testing.T) {
	ctx := context.Background()
	columns := []string{"day", "total_cash", "total_card", "total_promo", "total_voucher"}

	t.Run("combines appointments, income and expenses per day", func(t *testing.T) {
		db, mock := newMockQueryer(t)
		repo := NewFinanceRepository(db)

		mock.ExpectQuery(`(?s)FROM appointments WHERE salon_id = \$1.*FROM income WHERE salon_id = \$1.*SELECT expense_date::date, -cash_amount, -card_amount.*GROUP BY day\s+ORDER BY day\s*$`).
			WithArgs(int64(9)).
			WillReturnRows(sqlmock.NewRows(columns).
				AddRow("2024-03-14", "80.00", "20.00", "0.00", "5.00").
				AddRow("2024-03-15", "-15.00", "40.00", "10.00", "0.00"))

		stats, err := repo.DailyStatistics(ctx, 9)
		require.NoError(t, err)
		require.Len(t, stats, 2)

		assert.Equal(t, "2024-03-14", stats[0].Date)
		assert.True(t, stats[0].TotalCash.Equal(decimal.RequireFromString("80")))
		assert.True(t, stats[0].TotalVoucher.Equal(decimal.RequireFromString("5")))

		assert.Equal(t, "2024-03-15", stats[1].Date)
		assert.True(t, stats[1].TotalCash.Equal(decimal.RequireFromString("-15")))
		assert.True(t, stats[1].TotalCard.Equal(decimal.RequireFromString("40")))
		assert.True(t, stats[1].TotalPromo.Equal(decimal.RequireFromString("10")))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no events", func(t *testing.T) {
		db, mock := newMockQueryer(t)
		repo := NewFinanceRepository(db)

		mock.ExpectQuery(`FROM events`).
			WithArgs(int64(9)).
			WillReturnRows(sqlmock.NewRows(columns))

		stats, err := repo.DailyStatistics(ctx, 9)
		require.NoError(t, err)
		assert.NotNil(t, stats)
		assert.Empty(t, stats)
	})

	t.Run("database error", func(t *testing.T) {
		db, mock := newMockQueryer(t)
		repo := NewFinanceRepository(db)

		mock.ExpectQuery(`FROM events`).
			WithArgs(int64(9)).
			WillReturnError(errors.New("connection reset"))

		_, err := repo.DailyStatistics(ctx, 9)
		assert.ErrorContains(t, err, "failed to compute daily statistics")
	})
}
