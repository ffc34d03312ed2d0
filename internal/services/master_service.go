package services

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/dsbeauty/salon-backend/internal/database"
	"github.com/dsbeauty/salon-backend/internal/models"
)

// MasterService handles the master roster
type MasterService struct {
	db          database.DB
	masters     *database.MasterRepository
	salons      *database.SalonRepository
	rates       *database.CommissionRateRepository
	commissions *CommissionService
	logger      *logrus.Logger
}

// NewMasterService creates a new MasterService
func NewMasterService(db database.DB, commissions *CommissionService, logger *logrus.Logger) *MasterService {
	return &MasterService{
		db:          db,
		masters:     database.NewMasterRepository(db),
		salons:      database.NewSalonRepository(db),
		rates:       database.NewCommissionRateRepository(db),
		commissions: commissions,
		logger:      logger,
	}
}

// CreateMaster adds a master to a salon with a zero balance and one rate
// per salon procedure
func (s *MasterService) CreateMaster(ctx context.Context, req *models.CreateMasterRequest) (*models.MasterWithRates, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, models.NewValidationError("name", "is required")
	}
	if len(req.Rates) > 0 && len(req.Procedures) > 0 {
		return nil, models.NewValidationError("rates", "use either rates or procedures, not both")
	}

	salon, err := s.salons.GetSalonByID(ctx, req.SalonID)
	if err != nil {
		return nil, err
	}
	if salon == nil {
		return nil, models.ErrSalonNotFound
	}

	result := &models.MasterWithRates{Master: models.Master{SalonID: salon.ID, Name: name}}
	err = database.WithTx(ctx, s.db, func(tx database.Queryer) error {
		if err := database.NewMasterRepository(tx).CreateMaster(ctx, &result.Master); err != nil {
			return err
		}
		if err := database.NewBalanceRepository(tx).OpenBalance(ctx, result.ID); err != nil {
			return err
		}

		assignments := req.Rates
		if len(req.Procedures) > 0 {
			procedures, err := database.NewProcedureRepository(tx).ListProceduresBySalon(ctx, salon.ID)
			if err != nil {
				return err
			}
			assignments, err = PositionalAssignments(procedures, req.Procedures)
			if err != nil {
				return err
			}
		}

		if err := s.commissions.SeedRates(ctx, tx, &result.Master, assignments); err != nil {
			return err
		}

		var err error
		result.Rates, err = database.NewCommissionRateRepository(tx).ListRatesByMaster(ctx, result.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"master_id": result.ID,
		"salon_id":  result.SalonID,
		"rates":     len(result.Rates),
	}).Info("Master created")

	return result, nil
}

// GetMaster returns a master regardless of status
func (s *MasterService) GetMaster(ctx context.Context, id int64) (*models.Master, error) {
	master, err := s.masters.GetMasterByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if master == nil {
		return nil, models.ErrMasterNotFound
	}
	return master, nil
}

// TerminateMaster takes a master off the roster. Their balance, history and
// rates are kept. Terminating twice is a no-op.
func (s *MasterService) TerminateMaster(ctx context.Context, id int64) error {
	master, err := s.GetMaster(ctx, id)
	if err != nil {
		return err
	}
	if !master.IsActive() {
		return nil
	}

	if _, err := s.masters.TerminateMaster(ctx, id); err != nil {
		return err
	}

	s.logger.WithField("master_id", id).Info("Master terminated")
	return nil
}

// ListRoster returns the salon's active masters with their rates
func (s *MasterService) ListRoster(ctx context.Context, salonID int64) ([]models.MasterWithRates, error) {
	masters, err := s.masters.ListActiveMasters(ctx, salonID)
	if err != nil {
		return nil, err
	}

	roster := make([]models.MasterWithRates, 0, len(masters))
	for _, m := range masters {
		rates, err := s.rates.ListRatesByMaster(ctx, m.ID)
		if err != nil {
			return nil, err
		}
		roster = append(roster, models.MasterWithRates{Master: m, Rates: rates})
	}
	return roster, nil
}
