package service

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/lhwang/riverchat/internal/audit"
	"github.com/lhwang/riverchat/internal/domain"
	"github.com/lhwang/riverchat/internal/repository"
	"github.com/lhwang/riverchat/pkg/log"
	"github.com/lhwang/riverchat/pkg/token"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
)

type userServiceImpl struct {
	repo   repository.UserRepository
	tokens *token.Manager
}

// NewUserService creates a new user service.
func NewUserService(repo repository.UserRepository, tokens *token.Manager) UserService {
	return &userServiceImpl{
		repo:   repo,
		tokens: tokens,
	}
}

// Register registers a new user and logs them in.
func (s *userServiceImpl) Register(ctx context.Context, req *domain.RegisterRequest) (*domain.AuthResponse, error) {
	l := log.Ctx(ctx)

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		l.Error().Err(err).Msg("failed to hash password")
		return nil, err
	}

	user := &domain.User{
		Username:     req.Username,
		Email:        req.Email,
		DisplayName:  req.DisplayName,
		PasswordHash: string(hashedPassword),
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	audit.Log(ctx, audit.ActionRegister, user.ID, "user registered")

	return s.buildAuthResponse(user)
}

// Login authenticates a user by email and password.
func (s *userServiceImpl) Login(ctx context.Context, req *domain.LoginRequest) (*domain.AuthResponse, error) {
	l := log.Ctx(ctx)

	user, err := s.repo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			audit.LogWithDetail(ctx, audit.ActionLoginFailed, "", req.Email, "login failed: unknown email")
			return nil, ErrInvalidCredentials
		}
		l.Error().Err(err).Msg("failed to look up user")
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		audit.Log(ctx, audit.ActionLoginFailed, user.ID, "login failed: wrong password")
		return nil, ErrInvalidCredentials
	}

	audit.Log(ctx, audit.ActionLogin, user.ID, "user logged in")

	return s.buildAuthResponse(user)
}

// RefreshToken issues a new token pair from a valid refresh token.
func (s *userServiceImpl) RefreshToken(ctx context.Context, refreshToken string) (*domain.AuthResponse, error) {
	claims, err := s.tokens.ValidateToken(refreshToken)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	access, refresh, exp, err := s.tokens.RefreshTokens(refreshToken)
	if err != nil {
		return nil, err
	}

	return &domain.AuthResponse{
		User:         user.ToResponse(),
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    exp,
	}, nil
}

// Logout revokes every token for the user.
func (s *userServiceImpl) Logout(ctx context.Context, userID string) error {
	s.tokens.RevokeUserTokens(userID)
	audit.Log(ctx, audit.ActionLogout, userID, "user logged out")
	return nil
}

// GetUser retrieves a user by id.
func (s *userServiceImpl) GetUser(ctx context.Context, id string) (*domain.UserResponse, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	resp := user.ToResponse()
	return &resp, nil
}

func (s *userServiceImpl) buildAuthResponse(user *domain.User) (*domain.AuthResponse, error) {
	access, refresh, exp, err := s.tokens.GenerateTokenPair(user.ID, user.Email, user.Username, user.DisplayName)
	if err != nil {
		return nil, err
	}

	return &domain.AuthResponse{
		User:         user.ToResponse(),
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    exp,
	}, nil
}
