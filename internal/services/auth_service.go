package services

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/dsbeauty/salon-backend/internal/database"
	"github.com/dsbeauty/salon-backend/internal/models"
	"github.com/dsbeauty/salon-backend/pkg/jwt"
)

// AuthService handles registration, login and token refresh
type AuthService struct {
	db         database.DB
	users      *database.UserRepository
	tokens     *database.RefreshTokenRepository
	activation *ActivationService
	jwtService *jwt.Service
	bcryptCost int
	logger     *logrus.Logger
}

// NewAuthService creates a new AuthService
func NewAuthService(
	db database.DB,
	activation *ActivationService,
	jwtService *jwt.Service,
	bcryptCost int,
	logger *logrus.Logger,
) *AuthService {
	return &AuthService{
		db:         db,
		users:      database.NewUserRepository(db),
		tokens:     database.NewRefreshTokenRepository(db),
		activation: activation,
		jwtService: jwtService,
		bcryptCost: bcryptCost,
		logger:     logger,
	}
}

// Register creates an account. Creator accounts start locked behind an
// auth unlock code issued in the same transaction.
func (s *AuthService) Register(ctx context.Context, req *models.RegisterRequest, meta models.ClientMeta) (*models.AuthResponse, error) {
	login := strings.TrimSpace(req.Login)
	if login == "" {
		return nil, models.NewValidationError("login", "is required")
	}
	if !models.ValidUserType(req.UserType) {
		return nil, models.NewValidationError("user_type", "must be creator or employee")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{Login: login, PasswordHash: string(hash), UserType: req.UserType}
	err = database.WithTx(ctx, s.db, func(tx database.Queryer) error {
		if err := database.NewUserRepository(tx).CreateUser(ctx, user); err != nil {
			return err
		}
		if !user.IsCreator() {
			return nil
		}
		_, err := s.activation.IssueCode(ctx, tx, models.ActivationKey{UserID: user.ID, BlockType: models.BlockTypeAuth})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"user_id":   user.ID,
		"user_type": user.UserType,
	}).Info("User registered")

	return s.issueTokens(ctx, user, user.IsCreator(), meta)
}

// Login verifies credentials and returns fresh tokens. A locked creator
// still logs in; Locked tells the client to show the unlock code.
func (s *AuthService) Login(ctx context.Context, req *models.LoginRequest, meta models.ClientMeta) (*models.AuthResponse, error) {
	user, err := s.users.GetUserByLogin(ctx, strings.TrimSpace(req.Login))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, models.ErrInvalidCredentials
	}

	locked := false
	if user.IsCreator() {
		locked, err = s.activation.IsLocked(ctx, models.ActivationKey{UserID: user.ID, BlockType: models.BlockTypeAuth})
		if err != nil {
			return nil, err
		}
	}

	return s.issueTokens(ctx, user, locked, meta)
}

// Refresh exchanges a live refresh token for a new token pair. The old
// refresh token is revoked.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string, meta models.ClientMeta) (*models.AuthResponse, error) {
	claims, err := s.jwtService.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, models.ErrInvalidToken
	}

	revoked, err := s.tokens.RevokeToken(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	if !revoked {
		s.checkReplay(ctx, refreshToken)
		return nil, models.ErrInvalidToken
	}

	user, err := s.users.GetUserByID(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.ErrInvalidToken
	}

	locked := false
	if user.IsCreator() {
		locked, err = s.activation.IsLocked(ctx, models.ActivationKey{UserID: user.ID, BlockType: models.BlockTypeAuth})
		if err != nil {
			return nil, err
		}
	}

	return s.issueTokens(ctx, user, locked, meta)
}

// Logout revokes a refresh token
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	revoked, err := s.tokens.RevokeToken(ctx, refreshToken)
	if err != nil {
		return err
	}
	if !revoked {
		return models.ErrInvalidToken
	}
	return nil
}

// RevokeSessions revokes every live refresh token of a user
func (s *AuthService) RevokeSessions(ctx context.Context, userID int64) error {
	if err := s.tokens.RevokeAllUserTokens(ctx, userID); err != nil {
		return err
	}
	s.logger.WithField("user_id", userID).Info("User sessions revoked")
	return nil
}

// checkReplay revokes all of a user's sessions when an already rotated
// refresh token is presented again
func (s *AuthService) checkReplay(ctx context.Context, refreshToken string) {
	stored, err := s.tokens.GetRefreshToken(ctx, refreshToken)
	if err != nil {
		s.logger.WithError(err).Warn("Failed to look up rejected refresh token")
		return
	}
	if stored == nil || !stored.Revoked {
		return
	}

	s.logger.WithField("user_id", stored.UserID).Warn("Revoked refresh token reused")
	if err := s.tokens.RevokeAllUserTokens(ctx, stored.UserID); err != nil {
		s.logger.WithError(err).WithField("user_id", stored.UserID).Error("Failed to revoke sessions")
	}
}

// LoginAvailable reports whether no account uses login
func (s *AuthService) LoginAvailable(ctx context.Context, login string) (bool, error) {
	login = strings.TrimSpace(login)
	if login == "" {
		return false, models.NewValidationError("login", "is required")
	}
	exists, err := s.users.LoginExists(ctx, login)
	if err != nil {
		return false, err
	}
	return !exists, nil
}

// CleanupTokens removes refresh tokens that expired or were revoked before cutoff
func (s *AuthService) CleanupTokens(ctx context.Context, cutoff time.Time) (int64, error) {
	return s.tokens.CleanupExpiredTokens(ctx, cutoff)
}

func (s *AuthService) issueTokens(ctx context.Context, user *models.User, locked bool, meta models.ClientMeta) (*models.AuthResponse, error) {
	accessToken, err := s.jwtService.GenerateAccessToken(user.ID, user.Login, user.UserType)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.jwtService.GenerateRefreshToken(user.ID, user.Login)
	if err != nil {
		return nil, err
	}

	expiresAt := time.Now().Add(s.jwtService.RefreshTokenExpiry())
	if err := s.tokens.StoreRefreshToken(ctx, user.ID, refreshToken, meta, expiresAt); err != nil {
		return nil, err
	}

	return &models.AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.jwtService.AccessTokenExpiry().Seconds()),
		UserID:       user.ID,
		UserType:     user.UserType,
		Locked:       locked,
	}, nil
}
