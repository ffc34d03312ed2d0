package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dsbeauty/salon-backend/internal/database"
	"github.com/dsbeauty/salon-backend/internal/models"
)

// LedgerCheck compares a master's balance with the sum of their entries
type LedgerCheck struct {
	MasterID   int64           `json:"master_id"`
	Balance    decimal.Decimal `json:"balance"`
	Net        decimal.Decimal `json:"net"`
	Consistent bool            `json:"consistent"`
}

// ReportService answers read-only questions about balances and salon totals
type ReportService struct {
	masters  *database.MasterRepository
	balances *database.BalanceRepository
	history  *database.OperationHistoryRepository
	finance  *database.FinanceRepository
}

// NewReportService creates a new ReportService
func NewReportService(db database.DB) *ReportService {
	return &ReportService{
		masters:  database.NewMasterRepository(db),
		balances: database.NewBalanceRepository(db),
		history:  database.NewOperationHistoryRepository(db),
		finance:  database.NewFinanceRepository(db),
	}
}

// MasterBalance returns the master's balance, the entries dated on day and
// the full income and expense history, newest first. Terminated masters
// are included.
func (s *ReportService) MasterBalance(ctx context.Context, masterID int64, day time.Time) (*models.BalanceReport, error) {
	master, err := s.masters.GetMasterByID(ctx, masterID)
	if err != nil {
		return nil, err
	}
	if master == nil {
		return nil, models.ErrMasterNotFound
	}

	balance, err := s.currentBalance(ctx, masterID)
	if err != nil {
		return nil, err
	}

	from, to := DayBounds(day)
	todays, err := s.history.ListBetween(ctx, masterID, from, to)
	if err != nil {
		return nil, err
	}
	incomes, err := s.history.ListByKind(ctx, masterID, models.OperationIncome)
	if err != nil {
		return nil, err
	}
	expenses, err := s.history.ListByKind(ctx, masterID, models.OperationExpense)
	if err != nil {
		return nil, err
	}

	return &models.BalanceReport{
		MasterID:         masterID,
		Balance:          balance,
		Date:             from.Format("2006-01-02"),
		TodaysOperations: todays,
		AllIncomes:       incomes,
		AllExpenses:      expenses,
	}, nil
}

// DailyStatistics returns the salon's per-day cash, card, promo and voucher
// totals, oldest day first. A salon without events gets an empty list.
func (s *ReportService) DailyStatistics(ctx context.Context, salonID int64) ([]models.DailyStatistics, error) {
	return s.finance.DailyStatistics(ctx, salonID)
}

// CheckLedger verifies that the master's balance equals income minus expense
func (s *ReportService) CheckLedger(ctx context.Context, masterID int64) (*LedgerCheck, error) {
	balance, err := s.currentBalance(ctx, masterID)
	if err != nil {
		return nil, err
	}
	net, err := s.history.Net(ctx, masterID)
	if err != nil {
		return nil, err
	}
	return &LedgerCheck{
		MasterID:   masterID,
		Balance:    balance,
		Net:        net,
		Consistent: balance.Equal(net),
	}, nil
}

func (s *ReportService) currentBalance(ctx context.Context, masterID int64) (decimal.Decimal, error) {
	balance, err := s.balances.GetBalance(ctx, masterID)
	if err != nil {
		return decimal.Zero, err
	}
	if balance == nil {
		return decimal.Zero, nil
	}
	return balance.Balance, nil
}
