package user

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	repositoryimpl "github.com/foxseedlab/debaide/external/repository"
	"github.com/foxseedlab/debaide/internal/apperr"
	"github.com/foxseedlab/debaide/internal/auth"
)

func newTestService() *Service {
	return NewService(repositoryimpl.NewMemoryRepository(), auth.NewTokenIssuer("test-secret", time.Hour))
}

func statusOf(t *testing.T, err error) int {
	t.Helper()
	var ae *apperr.Error
	if !errors.As(err, &ae) {
		t.Fatalf("expected *apperr.Error, got %v", err)
	}
	return ae.Status
}

func TestRegisterThenLogin(t *testing.T) {
	s := newTestService()
	ctx := context.Background()

	reg, err := s.Register(ctx, "alice", "alice@example.com", "pw-123456")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reg.TokenType != "bearer" || reg.AccessToken == "" || reg.User.Username != "alice" {
		t.Fatalf("unexpected register response: %+v", reg)
	}

	login, err := s.Login(ctx, "alice", "pw-123456")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	u, err := s.Authenticate(ctx, login.AccessToken)
	if err != nil || u.ID != reg.User.ID {
		t.Fatalf("unexpected authenticate result: %+v %v", u, err)
	}
}

func TestRegister_Duplicates(t *testing.T) {
	s := newTestService()
	ctx := context.Background()
	if _, err := s.Register(ctx, "alice", "alice@example.com", "pw"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := s.Register(ctx, "alice", "other@example.com", "pw")
	if statusOf(t, err) != http.StatusBadRequest {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err = s.Register(ctx, "bob", "alice@example.com", "pw")
	var ae *apperr.Error
	if !errors.As(err, &ae) || ae.Detail != "Email already registered" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	s := newTestService()
	ctx := context.Background()
	_, _ = s.Register(ctx, "alice", "alice@example.com", "pw")

	_, err := s.Login(ctx, "alice", "nope")
	if statusOf(t, err) != http.StatusUnauthorized {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err = s.Login(ctx, "ghost", "pw")
	if statusOf(t, err) != http.StatusUnauthorized {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestAuthenticate_Rejects(t *testing.T) {
	s := newTestService()
	ctx := context.Background()
	if _, err := s.Authenticate(ctx, ""); statusOf(t, err) != http.StatusUnauthorized {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := s.Authenticate(ctx, "bogus"); statusOf(t, err) != http.StatusUnauthorized {
		t.Fatalf("unexpected error: %v", err)
	}
	token, _ := auth.NewTokenIssuer("test-secret", time.Hour).Issue("deleted-user")
	if _, err := s.Authenticate(ctx, token); statusOf(t, err) != http.StatusNotFound {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestStats_FreshUser(t *testing.T) {
	s := newTestService()
	ctx := context.Background()
	reg, _ := s.Register(ctx, "alice", "alice@example.com", "pw")
	u, _ := s.Authenticate(ctx, reg.AccessToken)

	st, err := s.Stats(ctx, u)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.Username != "alice" || st.TotalBattles != 0 || st.FavoriteStance != nil {
		t.Fatalf("unexpected stats: %+v", st)
	}
}
