package services

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/dsbeauty/salon-backend/internal/database"
	"github.com/dsbeauty/salon-backend/internal/models"
)

// SettlementService moves money in and out of master balances. Every
// balance change is paired with an operation history entry in the same
// transaction, so a master's income minus expense entries always equals
// their balance.
type SettlementService struct {
	db     database.DB
	logger *logrus.Logger
}

// NewSettlementService creates a new SettlementService
func NewSettlementService(db database.DB, logger *logrus.Logger) *SettlementService {
	return &SettlementService{db: db, logger: logger}
}

// Commission returns total*pct/100 rounded half away from zero to cents
func Commission(total, pct decimal.Decimal) decimal.Decimal {
	return total.Mul(pct).Div(hundred).Round(2)
}

// SettleAppointment credits the master's commission for a paid procedure.
// It fails with ErrRateNotFound when no rate row exists for the pair.
func (s *SettlementService) SettleAppointment(ctx context.Context, masterID, procedureID int64, split models.PaymentSplit) (*models.Settlement, error) {
	if err := split.Validate(); err != nil {
		return nil, err
	}

	var settlement *models.Settlement
	err := database.WithTx(ctx, s.db, func(tx database.Queryer) error {
		if _, err := requireMaster(ctx, tx, masterID); err != nil {
			return err
		}

		rate, err := database.NewCommissionRateRepository(tx).GetRate(ctx, masterID, procedureID)
		if err != nil {
			return err
		}
		if rate == nil {
			return models.ErrRateNotFound
		}

		commission := Commission(split.Total(), rate.Percentage)

		newBalance, err := database.NewBalanceRepository(tx).Credit(ctx, masterID, commission)
		if err != nil {
			return err
		}

		entry, err := database.NewOperationHistoryRepository(tx).AppendEntry(ctx, masterID, models.OperationIncome, commission)
		if err != nil {
			return err
		}

		settlement = &models.Settlement{
			MasterID:   masterID,
			Percentage: rate.Percentage,
			Commission: commission,
			NewBalance: newBalance,
			Entry:      entry,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"master_id":    masterID,
		"procedure_id": procedureID,
		"commission":   settlement.Commission.StringFixed(2),
		"balance":      settlement.NewBalance.StringFixed(2),
	}).Info("Appointment settled")

	return settlement, nil
}

// Withdraw pays out amount from the master's balance and records it as an
// expense entry. The balance is never driven negative.
func (s *SettlementService) Withdraw(ctx context.Context, masterID int64, amount decimal.Decimal) (*models.Debit, error) {
	if !amount.IsPositive() {
		return nil, models.ErrInvalidAmount
	}
	if err := models.ValidateAmount("amount", amount); err != nil {
		return nil, err
	}

	var debit *models.Debit
	err := database.WithTx(ctx, s.db, func(tx database.Queryer) error {
		if _, err := requireMaster(ctx, tx, masterID); err != nil {
			return err
		}
		var err error
		debit, err = s.debit(ctx, tx, masterID, amount)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"master_id": masterID,
		"amount":    amount.StringFixed(2),
		"balance":   debit.NewBalance.StringFixed(2),
	}).Info("Balance withdrawn")

	return debit, nil
}

// SalaryDeduction is the amount a salary expense takes from a master's
// balance: the cash part when deductFromCash is set, otherwise cash plus card
func SalaryDeduction(cash, card decimal.Decimal, deductFromCash bool) decimal.Decimal {
	if deductFromCash {
		return cash
	}
	return cash.Add(card)
}

// SettleSalaryExpense debits a salary payout from the balance of a master
// of salonID on q, which callers pass so the expense record and the debit
// commit together. The expense entry always equals the amount debited.
func (s *SettlementService) SettleSalaryExpense(ctx context.Context, q database.Queryer, salonID, masterID int64, cash, card decimal.Decimal, deductFromCash bool) (*models.Debit, error) {
	if err := models.ValidateAmount("cash_amount", cash); err != nil {
		return nil, err
	}
	if err := models.ValidateAmount("card_amount", card); err != nil {
		return nil, err
	}

	amount := SalaryDeduction(cash, card, deductFromCash)
	if !amount.IsPositive() {
		return nil, models.ErrInvalidAmount
	}

	master, err := requireMaster(ctx, q, masterID)
	if err != nil {
		return nil, err
	}
	if master.SalonID != salonID {
		return nil, models.ErrMasterNotFound
	}
	return s.debit(ctx, q, masterID, amount)
}

// debit must run inside a transaction: the conditional balance update and
// the expense entry stand or fall together
func (s *SettlementService) debit(ctx context.Context, q database.Queryer, masterID int64, amount decimal.Decimal) (*models.Debit, error) {
	balances := database.NewBalanceRepository(q)

	newBalance, ok, err := balances.Debit(ctx, masterID, amount)
	if err != nil {
		return nil, err
	}
	if !ok {
		available := decimal.Zero
		current, err := balances.GetBalance(ctx, masterID)
		if err != nil {
			return nil, err
		}
		if current != nil {
			available = current.Balance
		}
		return nil, &models.InsufficientFundsError{MasterID: masterID, Requested: amount, Available: available}
	}

	entry, err := database.NewOperationHistoryRepository(q).AppendEntry(ctx, masterID, models.OperationExpense, amount)
	if err != nil {
		return nil, err
	}

	return &models.Debit{MasterID: masterID, Amount: amount, NewBalance: newBalance, Entry: entry}, nil
}

func requireMaster(ctx context.Context, q database.Queryer, masterID int64) (*models.Master, error) {
	master, err := database.NewMasterRepository(q).GetMasterByID(ctx, masterID)
	if err != nil {
		return nil, err
	}
	if master == nil {
		return nil, models.ErrMasterNotFound
	}
	return master, nil
}
