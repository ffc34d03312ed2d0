package services

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/dsbeauty/salon-backend/internal/database"
	"github.com/dsbeauty/salon-backend/internal/models"
)

var hundred = decimal.NewFromInt(100)

// CommissionService resolves and maintains per-procedure commission rates
type CommissionService struct {
	db    database.DB
	rates *database.CommissionRateRepository
}

// NewCommissionService creates a new CommissionService
func NewCommissionService(db database.DB) *CommissionService {
	return &CommissionService{
		db:    db,
		rates: database.NewCommissionRateRepository(db),
	}
}

// Resolve returns the master's rate for a procedure. An unset pair is not
// an error: it resolves to 0% with Configured false.
func (s *CommissionService) Resolve(ctx context.Context, masterID, procedureID int64) (*models.Rate, error) {
	if _, _, err := s.loadPair(ctx, s.db, masterID, procedureID); err != nil {
		return nil, err
	}

	rate, err := s.rates.GetRate(ctx, masterID, procedureID)
	if err != nil {
		return nil, err
	}

	result := &models.Rate{MasterID: masterID, ProcedureID: procedureID, Percentage: decimal.Zero}
	if rate != nil {
		result.Percentage = rate.Percentage
		result.Configured = true
	}
	return result, nil
}

// SetRates upserts several rates for one master atomically
func (s *CommissionService) SetRates(ctx context.Context, masterID int64, assignments []models.RateAssignment) ([]models.ProcedureRate, error) {
	for _, a := range assignments {
		if err := ValidatePercentage(a.Percentage); err != nil {
			return nil, err
		}
	}

	var rates []models.ProcedureRate
	err := database.WithTx(ctx, s.db, func(tx database.Queryer) error {
		repo := database.NewCommissionRateRepository(tx)
		for _, a := range assignments {
			if _, _, err := s.loadPair(ctx, tx, masterID, a.ProcedureID); err != nil {
				return err
			}
			if _, err := repo.UpsertRate(ctx, masterID, a.ProcedureID, a.Percentage); err != nil {
				return err
			}
		}

		var err error
		rates, err = repo.ListRatesByMaster(ctx, masterID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rates, nil
}

// SeedRates creates one rate row per procedure of the master's salon.
// Procedures without an assignment get 0%. An assignment naming a procedure
// outside the salon is rejected.
func (s *CommissionService) SeedRates(ctx context.Context, q database.Queryer, master *models.Master, assignments []models.RateAssignment) error {
	procedures, err := database.NewProcedureRepository(q).ListProceduresBySalon(ctx, master.SalonID)
	if err != nil {
		return err
	}

	inSalon := make(map[int64]bool, len(procedures))
	for _, p := range procedures {
		inSalon[p.ID] = true
	}

	byProcedure := make(map[int64]decimal.Decimal, len(assignments))
	for _, a := range assignments {
		if err := ValidatePercentage(a.Percentage); err != nil {
			return err
		}
		if !inSalon[a.ProcedureID] {
			return models.NewValidationError("rates",
				fmt.Sprintf("procedure %d does not belong to salon %d", a.ProcedureID, master.SalonID))
		}
		byProcedure[a.ProcedureID] = a.Percentage
	}

	repo := database.NewCommissionRateRepository(q)
	for _, p := range procedures {
		pct, ok := byProcedure[p.ID]
		if !ok {
			pct = decimal.Zero
		}
		if _, err := repo.UpsertRate(ctx, master.ID, p.ID, pct); err != nil {
			return err
		}
	}
	return nil
}

// PositionalAssignments pairs the i-th percentage with the i-th procedure.
// procedures must be in creation order, as returned by
// ListProceduresBySalon; the pairing is only correct while that order is
// stable. Procedures past the end of percentages get 0%.
func PositionalAssignments(procedures []models.Procedure, percentages []decimal.Decimal) ([]models.RateAssignment, error) {
	if len(percentages) > len(procedures) {
		return nil, models.NewValidationError("procedures",
			fmt.Sprintf("%d percentages given for %d procedures", len(percentages), len(procedures)))
	}

	assignments := make([]models.RateAssignment, len(procedures))
	for i, p := range procedures {
		pct := decimal.Zero
		if i < len(percentages) {
			pct = percentages[i]
		}
		assignments[i] = models.RateAssignment{ProcedureID: p.ID, Percentage: pct}
	}
	return assignments, nil
}

// ValidatePercentage rejects percentages outside [0, 100]
func ValidatePercentage(pct decimal.Decimal) error {
	if pct.IsNegative() || pct.GreaterThan(hundred) {
		return models.NewValidationError("percentage", "must be between 0 and 100")
	}
	return nil
}

// loadPair checks that the master and procedure exist and share a salon
func (s *CommissionService) loadPair(ctx context.Context, q database.Queryer, masterID, procedureID int64) (*models.Master, *models.Procedure, error) {
	master, err := database.NewMasterRepository(q).GetMasterByID(ctx, masterID)
	if err != nil {
		return nil, nil, err
	}
	if master == nil {
		return nil, nil, models.ErrMasterNotFound
	}

	procedure, err := database.NewProcedureRepository(q).GetProcedureByID(ctx, procedureID)
	if err != nil {
		return nil, nil, err
	}
	if procedure == nil {
		return nil, nil, models.ErrProcedureNotFound
	}

	if procedure.SalonID != master.SalonID {
		return nil, nil, models.NewValidationError("procedure_id",
			fmt.Sprintf("procedure %d does not belong to the master's salon", procedureID))
	}
	return master, procedure, nil
}
