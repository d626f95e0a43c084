package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/foxseedlab/debaide/internal/apperr"
	"github.com/foxseedlab/debaide/internal/auth"
	"github.com/foxseedlab/debaide/internal/repository"
	"github.com/foxseedlab/debaide/internal/stats"
	"github.com/foxseedlab/debaide/pkg/debatedto"
	"github.com/google/uuid"
)

const tokenType = "bearer"

type Service struct {
	repo   repository.Repository
	tokens *auth.TokenIssuer
}

func NewService(repo repository.Repository, tokens *auth.TokenIssuer) *Service {
	return &Service{repo: repo, tokens: tokens}
}

func (s *Service) authResponse(u *repository.User) (debatedto.AuthResponse, error) {
	token, err := s.tokens.Issue(u.ID)
	if err != nil {
		return debatedto.AuthResponse{}, apperr.Internal("Could not issue token", err)
	}
	return debatedto.AuthResponse{
		AccessToken: token,
		TokenType:   tokenType,
		User:        debatedto.AuthUser{ID: u.ID, Username: u.Username, Email: u.Email},
	}, nil
}

func (s *Service) Register(ctx context.Context, username, email, password string) (debatedto.AuthResponse, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || email == "" || password == "" {
		return debatedto.AuthResponse{}, apperr.BadRequest("Username, email and password are required")
	}

	existing, err := s.repo.GetUserByUsername(ctx, username)
	if err != nil {
		return debatedto.AuthResponse{}, fmt.Errorf("lookup username: %w", err)
	}
	if existing != nil {
		return debatedto.AuthResponse{}, apperr.BadRequest("Username already taken")
	}
	existing, err = s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return debatedto.AuthResponse{}, fmt.Errorf("lookup email: %w", err)
	}
	if existing != nil {
		return debatedto.AuthResponse{}, apperr.BadRequest("Email already registered")
	}

	hashed, err := auth.HashPassword(password)
	if err != nil {
		return debatedto.AuthResponse{}, apperr.Internal("Could not hash password", err)
	}
	u, err := s.repo.CreateUser(ctx, repository.CreateUserInput{
		ID:             uuid.NewString(),
		Username:       username,
		Email:          email,
		HashedPassword: hashed,
	})
	if errors.Is(err, repository.ErrDuplicate) {
		return debatedto.AuthResponse{}, apperr.BadRequest("Username or email already registered")
	}
	if err != nil {
		return debatedto.AuthResponse{}, fmt.Errorf("create user: %w", err)
	}
	return s.authResponse(u)
}

func (s *Service) Login(ctx context.Context, username, password string) (debatedto.AuthResponse, error) {
	u, err := s.repo.GetUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return debatedto.AuthResponse{}, fmt.Errorf("lookup username: %w", err)
	}
	if u == nil || !auth.VerifyPassword(u.HashedPassword, password) {
		return debatedto.AuthResponse{}, apperr.Unauthorized("Invalid username or password")
	}
	return s.authResponse(u)
}

// Authenticate resolves a bearer token to its user.
func (s *Service) Authenticate(ctx context.Context, token string) (*repository.User, error) {
	if token == "" {
		return nil, apperr.Unauthorized("Not authenticated")
	}
	userID, err := s.tokens.Verify(token)
	if err != nil {
		return nil, apperr.Unauthorized("Invalid or expired token")
	}
	u, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if u == nil {
		return nil, apperr.NotFound("User not found")
	}
	return u, nil
}

func Me(u *repository.User) debatedto.Me {
	return debatedto.Me{ID: u.ID, Username: u.Username, Email: u.Email, CreatedAt: u.CreatedAt}
}

func (s *Service) Stats(ctx context.Context, u *repository.User) (debatedto.UserStats, error) {
	st, err := s.repo.GetStats(ctx, u.ID)
	if err != nil {
		return debatedto.UserStats{}, fmt.Errorf("get stats: %w", err)
	}
	return stats.ToDTO(*st, *u), nil
}
