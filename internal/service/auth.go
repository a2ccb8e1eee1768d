package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bookreviewapp/bookreview-server/internal/auth"
	"github.com/bookreviewapp/bookreview-server/internal/domain"
	domainerrors "github.com/bookreviewapp/bookreview-server/internal/errors"
	"github.com/bookreviewapp/bookreview-server/internal/store"
	"github.com/bookreviewapp/bookreview-server/internal/validation"
)

// Messages returned to clients for the account flows.
const (
	msgIncomplete         = "Incomplete information!"
	msgInvalidCredentials = "Invalid credentials"
	msgEmailInUse         = "Email already in use"
)

// AuthService handles signup, login and token verification.
type AuthService struct {
	store    store.UserStore
	tokens   *auth.TokenService
	validate *validation.Validator
	now      func() time.Time
	logger   *slog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(store store.UserStore, tokens *auth.TokenService, logger *slog.Logger) *AuthService {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &AuthService{
		store:    store,
		tokens:   tokens,
		validate: validation.New(),
		now:      time.Now,
		logger:   logger,
	}
}

// SignupRequest contains the data for a new account.
type SignupRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,max=1024"`
	// Role is accepted for client compatibility and not stored.
	Role string `json:"role,omitempty"`
}

// LoginRequest contains user credentials.
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries the authenticated user and their signed token.
type LoginResponse struct {
	User  *domain.User
	Token auth.Token
}

// Signup creates a new account. The password is hashed before it reaches the store.
func (s *AuthService) Signup(ctx context.Context, req SignupRequest) (*domain.User, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)

	if err := s.validate.ValidateWithMessage(req, msgIncomplete); err != nil {
		return nil, err
	}

	user, err := domain.NewUser(req.Name, req.Email, req.Password, s.now())
	if err != nil {
		return nil, err
	}

	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.AlreadyExists(msgEmailInUse)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("User signed up", "user_id", user.ID)
	return user, nil
}

// Login checks credentials and issues a token.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	req.Email = strings.TrimSpace(req.Email)

	if err := s.validate.ValidateWithMessage(req, msgIncomplete); err != nil {
		return nil, err
	}

	user, err := s.store.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Don't leak whether email exists
			return nil, domainerrors.InvalidCredentials(msgInvalidCredentials)
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	valid, err := user.CheckPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !valid {
		return nil, domainerrors.InvalidCredentials(msgInvalidCredentials)
	}

	token, err := s.tokens.Issue(user.Identity())
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	s.logger.Info("User logged in", "user_id", user.ID)
	return &LoginResponse{User: user, Token: token}, nil
}

// VerifyToken resolves a token to the identity it was issued for.
func (s *AuthService) VerifyToken(token string) (auth.Identity, error) {
	ident, err := s.tokens.Verify(token)
	if err != nil {
		return auth.Identity{}, domainerrors.Wrap(err, domainerrors.CodeUnauthorized, "invalid or expired token")
	}
	return ident, nil
}

// TokenDuration is the lifetime of issued tokens.
func (s *AuthService) TokenDuration() time.Duration {
	return s.tokens.Duration()
}
