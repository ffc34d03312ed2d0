package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Appointment is a completed, paid visit
type Appointment struct {
	ID              int64           `db:"id" json:"id"`
	SalonID         int64           `db:"salon_id" json:"salon_id"`
	MasterID        int64           `db:"master_id" json:"master_id"`
	ProcedureID     int64           `db:"procedure_id" json:"procedure_id"`
	ClientName      string          `db:"client_name" json:"client_name"`
	CashAmount      decimal.Decimal `db:"cash_amount" json:"cash_amount"`
	CardAmount      decimal.Decimal `db:"card_amount" json:"card_amount"`
	PromoAmount     decimal.Decimal `db:"promo_amount" json:"promo_amount"`
	VoucherAmount   decimal.Decimal `db:"voucher_amount" json:"voucher_amount"`
	AppointmentDate time.Time       `db:"appointment_date" json:"appointment_date"`
	Comment         *string         `db:"comment" json:"comment,omitempty"`
}

// Split returns the appointment's payment breakdown
func (a *Appointment) Split() PaymentSplit {
	return PaymentSplit{
		Cash:    a.CashAmount,
		Card:    a.CardAmount,
		Promo:   a.PromoAmount,
		Voucher: a.VoucherAmount,
	}
}

// CreateAppointmentRequest is the payload for recording an appointment
type CreateAppointmentRequest struct {
	SalonID         int64           `json:"salon_id" binding:"required"`
	MasterID        int64           `json:"master_id" binding:"required"`
	ProcedureID     int64           `json:"procedure_id" binding:"required"`
	ClientName      string          `json:"client_name"`
	CashAmount      decimal.Decimal `json:"cash_amount"`
	CardAmount      decimal.Decimal `json:"card_amount"`
	PromoAmount     decimal.Decimal `json:"promo_amount"`
	VoucherAmount   decimal.Decimal `json:"voucher_amount"`
	AppointmentDate time.Time       `json:"appointment_date" binding:"required"`
	Comment         *string         `json:"comment"`
}

// AppointmentResult reports the stored appointment and its settlement. The
// appointment is kept even when settlement fails; SettlementError then says why.
type AppointmentResult struct {
	Appointment     *Appointment `json:"appointment"`
	Settlement      *Settlement  `json:"settlement,omitempty"`
	SettlementError string       `json:"settlement_error,omitempty"`
}

// Income is money received by a salon outside appointments
type Income struct {
	ID         int64           `db:"id" json:"id"`
	SalonID    int64           `db:"salon_id" json:"salon_id"`
	CashAmount decimal.Decimal `db:"cash_amount" json:"cash_amount"`
	CardAmount decimal.Decimal `db:"card_amount" json:"card_amount"`
	IncomeDate time.Time       `db:"income_date" json:"income_date"`
	Comment    *string         `db:"comment" json:"comment,omitempty"`
}

// CreateIncomeRequest is the payload for recording income
type CreateIncomeRequest struct {
	SalonID    int64           `json:"salon_id" binding:"required"`
	CashAmount decimal.Decimal `json:"cash_amount"`
	CardAmount decimal.Decimal `json:"card_amount"`
	IncomeDate time.Time       `json:"income_date" binding:"required"`
	Comment    *string         `json:"comment"`
}

// Expense is money spent by a salon. Salary expenses pay out a master.
type Expense struct {
	ID             int64           `db:"id" json:"id"`
	SalonID        int64           `db:"salon_id" json:"salon_id"`
	CashAmount     decimal.Decimal `db:"cash_amount" json:"cash_amount"`
	CardAmount     decimal.Decimal `db:"card_amount" json:"card_amount"`
	ExpenseDate    time.Time       `db:"expense_date" json:"expense_date"`
	Comment        *string         `db:"comment" json:"comment,omitempty"`
	IsSalary       bool            `db:"is_salary" json:"is_salary"`
	MasterID       *int64          `db:"master_id" json:"master_id,omitempty"`
	DeductFromCash bool            `db:"deduct_from_cash" json:"deduct_from_cash"`
}

// CreateExpenseRequest is the payload for recording an expense
type CreateExpenseRequest struct {
	SalonID        int64           `json:"salon_id" binding:"required"`
	CashAmount     decimal.Decimal `json:"cash_amount"`
	CardAmount     decimal.Decimal `json:"card_amount"`
	ExpenseDate    time.Time       `json:"expense_date" binding:"required"`
	Comment        *string         `json:"comment"`
	IsSalary       bool            `json:"is_salary"`
	MasterID       *int64          `json:"master_id"`
	DeductFromCash bool            `json:"deduct_from_cash"`
}

// ExpenseResult reports the stored expense and, for salary, the balance debit
type ExpenseResult struct {
	Expense *Expense `json:"expense"`
	Debit   *Debit   `json:"debit,omitempty"`
}

// DailyStatistics are per-day salon totals. Cash and card are net of expenses.
type DailyStatistics struct {
	Date         string          `db:"day" json:"date"`
	TotalCash    decimal.Decimal `db:"total_cash" json:"total_cash"`
	TotalCard    decimal.Decimal `db:"total_card" json:"total_card"`
	TotalPromo   decimal.Decimal `db:"total_promo" json:"total_promo"`
	TotalVoucher decimal.Decimal `db:"total_voucher" json:"total_voucher"`
}
