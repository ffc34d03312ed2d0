package services

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/dsbeauty/salon-backend/internal/database"
	"github.com/dsbeauty/salon-backend/internal/models"
)

// SalonService handles salons, memberships and procedures
type SalonService struct {
	db         database.DB
	salons     *database.SalonRepository
	users      *database.UserRepository
	procedures *database.ProcedureRepository
	activation *ActivationService
	bcryptCost int
	logger     *logrus.Logger
}

// NewSalonService creates a new SalonService
func NewSalonService(db database.DB, activation *ActivationService, bcryptCost int, logger *logrus.Logger) *SalonService {
	return &SalonService{
		db:         db,
		salons:     database.NewSalonRepository(db),
		users:      database.NewUserRepository(db),
		procedures: database.NewProcedureRepository(db),
		activation: activation,
		bcryptCost: bcryptCost,
		logger:     logger,
	}
}

// CreateSalon creates a salon and makes the caller its first member
func (s *SalonService) CreateSalon(ctx context.Context, userID int64, req *models.CreateSalonRequest) (*models.Salon, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, models.NewValidationError("name", "is required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, err
	}

	salon := &models.Salon{Name: name, PasswordHash: string(hash)}
	err = database.WithTx(ctx, s.db, func(tx database.Queryer) error {
		repo := database.NewSalonRepository(tx)
		if err := repo.CreateSalon(ctx, salon); err != nil {
			return err
		}
		_, err := repo.AddEmployee(ctx, userID, salon.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"salon_id": salon.ID,
		"user_id":  userID,
	}).Info("Salon created")

	return salon, nil
}

// JoinSalon adds the caller to the salon named in req after checking the
// salon password. A creator joining a salon is locked out of it until an
// operator activates the salon unlock code.
func (s *SalonService) JoinSalon(ctx context.Context, userID int64, req *models.JoinSalonRequest) (*models.JoinSalonResponse, error) {
	salon, err := s.salons.GetSalonByName(ctx, strings.TrimSpace(req.Login))
	if err != nil {
		return nil, err
	}
	if salon == nil {
		return nil, models.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(salon.PasswordHash), []byte(req.Password)); err != nil {
		return nil, models.ErrInvalidCredentials
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.ErrUserNotFound
	}

	err = database.WithTx(ctx, s.db, func(tx database.Queryer) error {
		if _, err := database.NewSalonRepository(tx).AddEmployee(ctx, userID, salon.ID); err != nil {
			return err
		}
		if !user.IsCreator() {
			return nil
		}
		_, err := s.activation.IssueCode(ctx, tx, models.ActivationKey{
			UserID:    userID,
			BlockType: models.BlockTypeSalon,
			SalonID:   &salon.ID,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"salon_id": salon.ID,
		"user_id":  userID,
	}).Info("User joined salon")

	return &models.JoinSalonResponse{Salon: salon, Locked: user.IsCreator()}, nil
}

// MySalons returns the salons the user belongs to
func (s *SalonService) MySalons(ctx context.Context, userID int64) ([]models.Salon, error) {
	return s.salons.ListSalonsByUser(ctx, userID)
}

// IsMember reports whether the user belongs to the salon
func (s *SalonService) IsMember(ctx context.Context, userID, salonID int64) (bool, error) {
	return s.salons.IsEmployee(ctx, userID, salonID)
}

// CreateProcedure adds a procedure to a salon. Existing masters get no rate
// for it until one is set.
func (s *SalonService) CreateProcedure(ctx context.Context, req *models.CreateProcedureRequest) (*models.Procedure, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, models.NewValidationError("name", "is required")
	}

	salon, err := s.salons.GetSalonByID(ctx, req.SalonID)
	if err != nil {
		return nil, err
	}
	if salon == nil {
		return nil, models.ErrSalonNotFound
	}

	procedure := &models.Procedure{SalonID: salon.ID, Name: name}
	if err := s.procedures.CreateProcedure(ctx, procedure); err != nil {
		return nil, err
	}
	return procedure, nil
}

// ListProcedures returns the salon's procedures in creation order
func (s *SalonService) ListProcedures(ctx context.Context, salonID int64) ([]models.Procedure, error) {
	return s.procedures.ListProceduresBySalon(ctx, salonID)
}
