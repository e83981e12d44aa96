package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/sepehrad/unienroll/internal/app/models"
	"github.com/sepehrad/unienroll/internal/app/models/dto"
	"github.com/sepehrad/unienroll/internal/pkg/apperrors"
	"github.com/sepehrad/unienroll/internal/pkg/auth"
)

// UserStore is the persistence surface the auth service needs.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
}

// AuthService handles registration, login and token rotation. Every
// issued access and refresh token goes through the session policy, so
// the per-role session bound applies to logins and refreshes alike.
type AuthService struct {
	users    UserStore
	sessions *SessionService
	jwt      *auth.JWTService
	logger   zerolog.Logger
}

// NewAuthService creates a new AuthService
func NewAuthService(users UserStore, sessions *SessionService, jwtService *auth.JWTService, logger zerolog.Logger) *AuthService {
	return &AuthService{
		users:    users,
		sessions: sessions,
		jwt:      jwtService,
		logger:   logger,
	}
}

// Register creates a new user account with a bcrypt-hashed password.
func (s *AuthService) Register(ctx context.Context, req *dto.RegisterRequest) (*models.User, error) {
	role := models.RoleType(req.RoleType)
	if role != models.RoleStudent && role != models.RoleProfessor && role != models.RoleAdmin {
		return nil, apperrors.NewCustomError(apperrors.ErrBadRequest, "invalid role type")
	}

	hashed, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user := &models.User{
		Email:     req.Email,
		Password:  hashed,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		RoleType:  role,
		IsActive:  true,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info().Str("email", user.Email).Str("role", string(role)).Msg("User registered")
	return user, nil
}

// Login verifies credentials and issues a token pair. Both halves are
// recorded as session rows, which may evict the user's oldest sessions.
func (s *AuthService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error) {
	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, err
	}

	if !user.IsActive {
		return nil, apperrors.ErrAccountDisabled
	}

	if !auth.CheckPassword(user.Password, req.Password) {
		return nil, apperrors.ErrInvalidCredentials
	}

	return s.issuePair(ctx, user)
}

// Refresh rotates a refresh token: the presented token row is revoked and
// a fresh pair is issued. An unknown or expired token is rejected.
func (s *AuthService) Refresh(ctx context.Context, req *dto.RefreshRequest) (*dto.TokenResponse, error) {
	stored, err := s.sessions.Lookup(ctx, req.RefreshToken, models.TokenRefresh)
	if err != nil {
		if errors.Is(err, apperrors.ErrTokenNotFound) {
			return nil, apperrors.ErrTokenInvalid
		}
		return nil, err
	}

	if time.Now().After(stored.ExpiresAt) {
		return nil, apperrors.ErrTokenExpired
	}

	user, err := s.users.GetByID(ctx, stored.UserID)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, apperrors.ErrAccountDisabled
	}

	if err := s.sessions.Revoke(ctx, stored); err != nil {
		return nil, err
	}

	return s.issuePair(ctx, user)
}

// Logout revokes every session of the user.
func (s *AuthService) Logout(ctx context.Context, userID int64) error {
	if err := s.sessions.RevokeAll(ctx, userID); err != nil {
		return err
	}

	s.logger.Info().Int64("userId", userID).Msg("User logged out")
	return nil
}

func (s *AuthService) issuePair(ctx context.Context, user *models.User) (*dto.TokenResponse, error) {
	pair, err := s.jwt.GenerateTokenPair(user)
	if err != nil {
		return nil, fmt.Errorf("error generating token pair: %w", err)
	}

	if _, err := s.sessions.IssueToken(ctx, user, models.TokenAccess, pair.AccessTokenID, s.jwt.GetAccessTokenExpiry()); err != nil {
		return nil, err
	}
	if _, err := s.sessions.IssueToken(ctx, user, models.TokenRefresh, pair.RefreshToken, s.jwt.GetRefreshTokenExpiry()); err != nil {
		return nil, err
	}

	return &dto.TokenResponse{
		AccessToken:      pair.AccessToken,
		RefreshToken:     pair.RefreshToken,
		TokenType:        "Bearer",
		ExpiresIn:        int64(pair.ExpiresIn),
		RefreshExpiresIn: int64(pair.RefreshExpiresIn),
	}, nil
}
