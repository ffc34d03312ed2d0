package database

import (
	"context"
	"fmt"
	"time"

	"github.com/dsbeauty/salon-backend/internal/models"
)

// FinanceRepository handles appointments, income and expenses, the salon
// events that feed the ledger and the daily statistics
type FinanceRepository struct {
	db Queryer
}

// NewFinanceRepository creates a new finance repository
func NewFinanceRepository(db Queryer) *FinanceRepository {
	return &FinanceRepository{db: db}
}

// CreateAppointment inserts an appointment and fills in its ID
func (r *FinanceRepository) CreateAppointment(ctx context.Context, a *models.Appointment) error {
	query := `
		INSERT INTO appointments (
			salon_id, master_id, procedure_id, client_name,
			cash_amount, card_amount, promo_amount, voucher_amount,
			appointment_date, comment
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`
	err := r.db.QueryRowxContext(ctx, query,
		a.SalonID, a.MasterID, a.ProcedureID, a.ClientName,
		a.CashAmount, a.CardAmount, a.PromoAmount, a.VoucherAmount,
		a.AppointmentDate, a.Comment,
	).Scan(&a.ID)
	if err != nil {
		return fmt.Errorf("failed to create appointment: %w", err)
	}
	return nil
}

// ListAppointments returns a salon's appointments in [from, to)
func (r *FinanceRepository) ListAppointments(ctx context.Context, salonID int64, from, to time.Time) ([]models.Appointment, error) {
	appointments := []models.Appointment{}
	query := `
		SELECT id, salon_id, master_id, procedure_id, client_name,
			cash_amount, card_amount, promo_amount, voucher_amount,
			appointment_date, comment
		FROM appointments
		WHERE salon_id = $1 AND appointment_date >= $2 AND appointment_date < $3
		ORDER BY appointment_date, id
	`
	if err := r.db.SelectContext(ctx, &appointments, query, salonID, from, to); err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, nil
}

// CreateIncome inserts an income record and fills in its ID
func (r *FinanceRepository) CreateIncome(ctx context.Context, in *models.Income) error {
	query := `
		INSERT INTO income (salon_id, cash_amount, card_amount, income_date, comment)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	err := r.db.QueryRowxContext(ctx, query, in.SalonID, in.CashAmount, in.CardAmount, in.IncomeDate, in.Comment).
		Scan(&in.ID)
	if err != nil {
		return fmt.Errorf("failed to create income: %w", err)
	}
	return nil
}

// ListIncome returns a salon's income in [from, to)
func (r *FinanceRepository) ListIncome(ctx context.Context, salonID int64, from, to time.Time) ([]models.Income, error) {
	income := []models.Income{}
	query := `
		SELECT id, salon_id, cash_amount, card_amount, income_date, comment
		FROM income
		WHERE salon_id = $1 AND income_date >= $2 AND income_date < $3
		ORDER BY income_date, id
	`
	if err := r.db.SelectContext(ctx, &income, query, salonID, from, to); err != nil {
		return nil, fmt.Errorf("failed to list income: %w", err)
	}
	return income, nil
}

// CreateExpense inserts an expense and fills in its ID
func (r *FinanceRepository) CreateExpense(ctx context.Context, e *models.Expense) error {
	query := `
		INSERT INTO expenses (
			salon_id, cash_amount, card_amount, expense_date, comment,
			is_salary, master_id, deduct_from_cash
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	err := r.db.QueryRowxContext(ctx, query,
		e.SalonID, e.CashAmount, e.CardAmount, e.ExpenseDate, e.Comment,
		e.IsSalary, e.MasterID, e.DeductFromCash,
	).Scan(&e.ID)
	if err != nil {
		return fmt.Errorf("failed to create expense: %w", err)
	}
	return nil
}

// ListExpenses returns a salon's expenses in [from, to)
func (r *FinanceRepository) ListExpenses(ctx context.Context, salonID int64, from, to time.Time) ([]models.Expense, error) {
	expenses := []models.Expense{}
	query := `
		SELECT id, salon_id, cash_amount, card_amount, expense_date, comment,
			is_salary, master_id, deduct_from_cash
		FROM expenses
		WHERE salon_id = $1 AND expense_date >= $2 AND expense_date < $3
		ORDER BY expense_date, id
	`
	if err := r.db.SelectContext(ctx, &expenses, query, salonID, from, to); err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	return expenses, nil
}

// DailyStatistics returns per-day totals for a salon, oldest day first.
// Cash and card are appointment plus income minus expense amounts.
func (r *FinanceRepository) DailyStatistics(ctx context.Context, salonID int64) ([]models.DailyStatistics, error) {
	stats := []models.DailyStatistics{}
	query := `
		WITH events AS (
			SELECT appointment_date::date AS day, cash_amount AS cash, card_amount AS card,
				promo_amount AS promo, voucher_amount AS voucher
			FROM appointments WHERE salon_id = $1
			UNION ALL
			SELECT income_date::date, cash_amount, card_amount, 0, 0
			FROM income WHERE salon_id = $1
			UNION ALL
			SELECT expense_date::date, -cash_amount, -card_amount, 0, 0
			FROM expenses WHERE salon_id = $1
		)
		SELECT to_char(day, 'YYYY-MM-DD') AS day,
			SUM(cash) AS total_cash, SUM(card) AS total_card,
			SUM(promo) AS total_promo, SUM(voucher) AS total_voucher
		FROM events
		GROUP BY day
		ORDER BY day
	`
	if err := r.db.SelectContext(ctx, &stats, query, salonID); err != nil {
		return nil, fmt.Errorf("failed to compute daily statistics: %w", err)
	}
	return stats, nil
}
