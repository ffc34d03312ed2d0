package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/dsbeauty/salon-backend/internal/database"
	"github.com/dsbeauty/salon-backend/internal/models"
)

// SettlementError reports an appointment that was stored but could not be
// settled. It unwraps to the settlement failure.
type SettlementError struct {
	AppointmentID int64
	Err           error
}

func (e *SettlementError) Error() string {
	return fmt.Sprintf("appointment %d recorded but not settled: %v", e.AppointmentID, e.Err)
}

func (e *SettlementError) Unwrap() error {
	return e.Err
}

// FinanceService records appointments, income and expenses
type FinanceService struct {
	db         database.DB
	finance    *database.FinanceRepository
	masters    *database.MasterRepository
	procedures *database.ProcedureRepository
	settlement *SettlementService
	logger     *logrus.Logger
}

// NewFinanceService creates a new FinanceService
func NewFinanceService(db database.DB, settlement *SettlementService, logger *logrus.Logger) *FinanceService {
	return &FinanceService{
		db:         db,
		finance:    database.NewFinanceRepository(db),
		masters:    database.NewMasterRepository(db),
		procedures: database.NewProcedureRepository(db),
		settlement: settlement,
		logger:     logger,
	}
}

// CreateAppointment stores the appointment, then settles the master's
// commission as a separate step. When settlement fails the appointment
// stays recorded and a *SettlementError is returned with the result.
func (s *FinanceService) CreateAppointment(ctx context.Context, req *models.CreateAppointmentRequest) (*models.AppointmentResult, error) {
	appointment := &models.Appointment{
		SalonID:         req.SalonID,
		MasterID:        req.MasterID,
		ProcedureID:     req.ProcedureID,
		ClientName:      req.ClientName,
		CashAmount:      req.CashAmount,
		CardAmount:      req.CardAmount,
		PromoAmount:     req.PromoAmount,
		VoucherAmount:   req.VoucherAmount,
		AppointmentDate: req.AppointmentDate,
		Comment:         req.Comment,
	}
	if err := appointment.Split().Validate(); err != nil {
		return nil, err
	}

	master, err := s.masters.GetMasterByID(ctx, req.MasterID)
	if err != nil {
		return nil, err
	}
	if master == nil || master.SalonID != req.SalonID {
		return nil, models.ErrMasterNotFound
	}
	if !master.IsActive() {
		return nil, models.ErrMasterTerminated
	}

	procedure, err := s.procedures.GetProcedureByID(ctx, req.ProcedureID)
	if err != nil {
		return nil, err
	}
	if procedure == nil || procedure.SalonID != req.SalonID {
		return nil, models.ErrProcedureNotFound
	}

	if err := s.finance.CreateAppointment(ctx, appointment); err != nil {
		return nil, err
	}

	result := &models.AppointmentResult{Appointment: appointment}
	settlement, err := s.settlement.SettleAppointment(ctx, appointment.MasterID, appointment.ProcedureID, appointment.Split())
	if err != nil {
		result.SettlementError = err.Error()
		s.logger.WithError(err).WithFields(logrus.Fields{
			"appointment_id": appointment.ID,
			"master_id":      appointment.MasterID,
			"procedure_id":   appointment.ProcedureID,
		}).Warn("Appointment recorded without settlement")
		return result, &SettlementError{AppointmentID: appointment.ID, Err: err}
	}

	result.Settlement = settlement
	return result, nil
}

// ListAppointments returns a salon's appointments on the given day
func (s *FinanceService) ListAppointments(ctx context.Context, salonID int64, day time.Time) ([]models.Appointment, error) {
	from, to := DayBounds(day)
	return s.finance.ListAppointments(ctx, salonID, from, to)
}

// CreateIncome records income received outside appointments
func (s *FinanceService) CreateIncome(ctx context.Context, req *models.CreateIncomeRequest) (*models.Income, error) {
	if err := validateCashCard(req.CashAmount, req.CardAmount); err != nil {
		return nil, err
	}

	income := &models.Income{
		SalonID:    req.SalonID,
		CashAmount: req.CashAmount,
		CardAmount: req.CardAmount,
		IncomeDate: req.IncomeDate,
		Comment:    req.Comment,
	}
	if err := s.finance.CreateIncome(ctx, income); err != nil {
		return nil, err
	}
	return income, nil
}

// ListIncome returns a salon's income on the given day
func (s *FinanceService) ListIncome(ctx context.Context, salonID int64, day time.Time) ([]models.Income, error) {
	from, to := DayBounds(day)
	return s.finance.ListIncome(ctx, salonID, from, to)
}

// CreateExpense records an expense. A salary expense also debits the
// balance of a master of the same salon; both commit together or not at
// all. The debit is the cash part when DeductFromCash is set and cash plus
// card otherwise, so a salary paid by card with DeductFromCash unset takes
// the card part from the balance too and can fail with ErrInsufficientFunds.
func (s *FinanceService) CreateExpense(ctx context.Context, req *models.CreateExpenseRequest) (*models.ExpenseResult, error) {
	if err := validateCashCard(req.CashAmount, req.CardAmount); err != nil {
		return nil, err
	}
	if req.IsSalary && req.MasterID == nil {
		return nil, models.NewValidationError("master_id", "is required for salary expenses")
	}

	expense := &models.Expense{
		SalonID:        req.SalonID,
		CashAmount:     req.CashAmount,
		CardAmount:     req.CardAmount,
		ExpenseDate:    req.ExpenseDate,
		Comment:        req.Comment,
		IsSalary:       req.IsSalary,
		DeductFromCash: req.IsSalary && req.DeductFromCash,
	}
	if req.IsSalary {
		expense.MasterID = req.MasterID
	}

	result := &models.ExpenseResult{Expense: expense}
	err := database.WithTx(ctx, s.db, func(tx database.Queryer) error {
		if err := database.NewFinanceRepository(tx).CreateExpense(ctx, expense); err != nil {
			return err
		}
		if !expense.IsSalary {
			return nil
		}

		debit, err := s.settlement.SettleSalaryExpense(ctx, tx, expense.SalonID, *expense.MasterID, expense.CashAmount, expense.CardAmount, expense.DeductFromCash)
		if err != nil {
			return err
		}
		result.Debit = debit
		return nil
	})
	if err != nil {
		if !errors.Is(err, models.ErrInsufficientFunds) && !errors.Is(err, models.ErrMasterNotFound) {
			s.logger.WithError(err).WithField("salon_id", req.SalonID).Error("Failed to record expense")
		}
		return nil, err
	}
	return result, nil
}

// ListExpenses returns a salon's expenses on the given day
func (s *FinanceService) ListExpenses(ctx context.Context, salonID int64, day time.Time) ([]models.Expense, error) {
	from, to := DayBounds(day)
	return s.finance.ListExpenses(ctx, salonID, from, to)
}

func validateCashCard(cash, card decimal.Decimal) error {
	if err := models.ValidateAmount("cash_amount", cash); err != nil {
		return err
	}
	return models.ValidateAmount("card_amount", card)
}

// DayBounds returns [midnight, next midnight) of day in day's location
func DayBounds(day time.Time) (time.Time, time.Time) {
	from := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	return from, from.AddDate(0, 0, 1)
}
