package auth

import (
	"context"
	"errors"
	"strings"

	"marketplace-backend/internal/domain"
	"marketplace-backend/internal/pkg/apperr"
	"marketplace-backend/internal/pkg/metrics"
	"marketplace-backend/internal/pkg/validation"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

// Service registers users and exchanges credentials for tokens.
type Service struct {
	Users      domain.UserRepository
	Tokens     *TokenService
	SaltRounds int
	Metrics    *metrics.Metrics
}

type RegisterInput struct {
	Username string `json:"username" validate:"required,min=4,max=20"`
	Email    string `json:"email" validate:"required,looseemail"`
	Password string `json:"password" validate:"required,min=8"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// NormalizeEmail trims and lower-cases an address the way it is stored.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates the account and returns a token for it.
func (s *Service) Register(ctx context.Context, in RegisterInput) (string, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = NormalizeEmail(in.Email)
	if err := validation.Check(in); err != nil {
		return "", err
	}

	if _, err := s.Users.FindByEmail(ctx, in.Email); err == nil {
		return "", apperr.Conflict("User already exists")
	} else if !errors.Is(err, domain.ErrNotFound) {
		return "", apperr.Internal("Registration failed", err)
	}
	if _, err := s.Users.FindByUsername(ctx, in.Username); err == nil {
		return "", apperr.Conflict("Username is already taken")
	} else if !errors.Is(err, domain.ErrNotFound) {
		return "", apperr.Internal("Registration failed", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost())
	if err != nil {
		return "", apperr.Internal("Registration failed", err)
	}
	u := &domain.User{Username: in.Username, Email: in.Email, PasswordHash: string(hash)}
	if err := s.Users.Create(ctx, u); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			return "", apperr.Conflict("User already exists")
		}
		return "", apperr.Internal("Registration failed", err)
	}
	s.Metrics.UserRegistered()
	log.Info().Str("user_id", u.ID).Msg("user registered")

	token, err := s.Tokens.Issue(u.ID)
	if err != nil {
		return "", apperr.Internal("Registration failed", err)
	}
	return token, nil
}

// Login verifies the credentials. Unknown email and wrong password are
// indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, in LoginInput) (string, error) {
	in.Email = NormalizeEmail(in.Email)
	if err := validation.Check(in); err != nil {
		return "", err
	}
	u, err := s.Users.FindByEmail(ctx, in.Email)
	if errors.Is(err, domain.ErrNotFound) {
		return "", apperr.Unauthorized("Invalid credentials")
	}
	if err != nil {
		return "", apperr.Internal("Login failed", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(in.Password)); err != nil {
		return "", apperr.Unauthorized("Invalid credentials")
	}
	token, err := s.Tokens.Issue(u.ID)
	if err != nil {
		return "", apperr.Internal("Login failed", err)
	}
	return token, nil
}

// Logout revokes token when it still parses. A malformed or expired token
// needs no revocation.
func (s *Service) Logout(ctx context.Context, token string) error {
	claims, err := s.Tokens.Parse(token)
	if err != nil {
		return nil
	}
	if err := s.Tokens.Revoke(ctx, claims); err != nil {
		return apperr.Internal("Logout failed", err)
	}
	return nil
}

func (s *Service) cost() int {
	if s.SaltRounds < bcrypt.MinCost || s.SaltRounds > bcrypt.MaxCost {
		return bcrypt.DefaultCost
	}
	return s.SaltRounds
}
