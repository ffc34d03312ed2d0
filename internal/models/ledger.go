package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OperationKind is the direction of a ledger entry
type OperationKind string

const (
	OperationIncome  OperationKind = "income"
	OperationExpense OperationKind = "expense"
)

// Balance is a master's running commission balance
type Balance struct {
	MasterID int64           `db:"master_id" json:"master_id"`
	Balance  decimal.Decimal `db:"balance" json:"balance"`
}

// OperationEntry is an append-only ledger record. For every master,
// the income entries minus the expense entries equal the balance.
type OperationEntry struct {
	ID            int64           `db:"id" json:"id"`
	MasterID      int64           `db:"master_id" json:"master_id"`
	Amount        decimal.Decimal `db:"amount" json:"amount"`
	OperationType OperationKind   `db:"operation_type" json:"operation_type"`
	OperationDate time.Time       `db:"operation_date" json:"operation_date"`
	IsCanceled    bool            `db:"is_canceled" json:"is_canceled"`
}

// PaymentSplit is the breakdown of a payment across channels
type PaymentSplit struct {
	Cash    decimal.Decimal `json:"cash_amount"`
	Card    decimal.Decimal `json:"card_amount"`
	Promo   decimal.Decimal `json:"promo_amount"`
	Voucher decimal.Decimal `json:"voucher_amount"`
}

// Total sums every channel
func (p PaymentSplit) Total() decimal.Decimal {
	return p.Cash.Add(p.Card).Add(p.Promo).Add(p.Voucher)
}

// ValidateAmount rejects negative amounts and amounts finer than a cent.
// Balances and ledger entries are stored with two decimal places.
func ValidateAmount(field string, value decimal.Decimal) error {
	if value.IsNegative() {
		return NewValidationError(field, "must not be negative")
	}
	if !value.Equal(value.Round(2)) {
		return NewValidationError(field, "must have at most 2 decimal places")
	}
	return nil
}

// Validate rejects negative or sub-cent channel amounts
func (p PaymentSplit) Validate() error {
	fields := []struct {
		name  string
		value decimal.Decimal
	}{
		{"cash_amount", p.Cash},
		{"card_amount", p.Card},
		{"promo_amount", p.Promo},
		{"voucher_amount", p.Voucher},
	}
	for _, f := range fields {
		if err := ValidateAmount(f.name, f.value); err != nil {
			return err
		}
	}
	return nil
}

// Settlement is the outcome of crediting a master for an appointment
type Settlement struct {
	MasterID   int64           `json:"master_id"`
	Percentage decimal.Decimal `json:"percentage"`
	Commission decimal.Decimal `json:"commission"`
	NewBalance decimal.Decimal `json:"new_balance"`
	Entry      *OperationEntry `json:"entry"`
}

// Debit is the outcome of a withdrawal or salary deduction
type Debit struct {
	MasterID   int64           `json:"master_id"`
	Amount     decimal.Decimal `json:"amount"`
	NewBalance decimal.Decimal `json:"new_balance"`
	Entry      *OperationEntry `json:"entry,omitempty"`
}

// WithdrawRequest is the payload for a balance withdrawal
type WithdrawRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// BalanceReport is the master balance view
type BalanceReport struct {
	MasterID         int64            `json:"master_id"`
	Balance          decimal.Decimal  `json:"balance"`
	Date             string           `json:"date"`
	TodaysOperations []OperationEntry `json:"todays_operations"`
	AllIncomes       []OperationEntry `json:"all_incomes"`
	AllExpenses      []OperationEntry `json:"all_expenses"`
}
