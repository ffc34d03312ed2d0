package services

import (
	"database/sql/driver"
	"io"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/dsbeauty/salon-backend/internal/database"
)

func newMockDB(t *testing.T) (database.DB, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })
	return &database.PostgresDB{DB: sqlx.NewDb(mockDB, "sqlmock")}, mock
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// decimalArg matches a decimal query argument by value, ignoring scale
type decimalArg string

func (d decimalArg) Match(v driver.Value) bool {
	var raw string
	switch x := v.(type) {
	case string:
		raw = x
	case []byte:
		raw = string(x)
	default:
		return false
	}
	got, err := decimal.NewFromString(raw)
	if err != nil {
		return false
	}
	return got.Equal(decimal.RequireFromString(string(d)))
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

var testTime = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

func masterRows(id, salonID int64, status string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "salon_id", "name", "status", "created_at"}).
		AddRow(id, salonID, "Anna", status, testTime)
}

func procedureRows(id, salonID int64, name string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "salon_id", "name", "created_at"}).
		AddRow(id, salonID, name, testTime)
}

func expectMaster(mock sqlmock.Sqlmock, id, salonID int64, status string) {
	mock.ExpectQuery(`FROM masters WHERE id`).
		WithArgs(id).
		WillReturnRows(masterRows(id, salonID, status))
}

func expectEntry(mock sqlmock.Sqlmock, masterID int64, kind, amount string, entryID int64) {
	mock.ExpectQuery(`INSERT INTO operation_history`).
		WithArgs(masterID, decimalArg(amount), kind).
		WillReturnRows(sqlmock.NewRows([]string{"id", "operation_date"}).AddRow(entryID, testTime))
}
