package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"vse_go/internal/domain"

	"github.com/shopspring/decimal"
)

func newAuthService(t *testing.T) *AuthService {
	t.Helper()
	return NewAuthService(newTestStore(t), "test-secret", time.Hour, decimal.NewFromInt(100000))
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	account, token, err := svc.Register(ctx, "Alice@Example.com", "alice", "hunter2")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if token == "" {
		t.Fatal("expected a token on registration")
	}
	if account.Email != "alice@example.com" {
		t.Errorf("email must be lowercased, got %s", account.Email)
	}
	if !account.CashBalance.Equal(decimal.NewFromInt(100000)) {
		t.Errorf("starting cash: got %s, want 100000", account.CashBalance)
	}
	if account.PasswordHash == "hunter2" {
		t.Error("password stored in clear")
	}

	logged, token2, err := svc.Login(ctx, "alice", "hunter2")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if logged.ID != account.ID {
		t.Errorf("login returned wrong account: %d != %d", logged.ID, account.ID)
	}
	if token2 == "" {
		t.Fatal("expected a token on login")
	}
}

func TestRegister_Validation(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	cases := []struct {
		name                      string
		email, username, password string
	}{
		{"empty email", "", "alice", "pw"},
		{"empty username", "a@b.com", "", "pw"},
		{"empty password", "a@b.com", "alice", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := svc.Register(ctx, tc.email, tc.username, tc.password)
			if !errors.Is(err, domain.ErrInvalidCredentials) {
				t.Errorf("expected ErrInvalidCredentials, got %v", err)
			}
		})
	}
}

func TestRegister_Duplicate(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	if _, _, err := svc.Register(ctx, "a@b.com", "alice", "pw"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	_, _, err := svc.Register(ctx, "other@b.com", "alice", "pw")
	if !errors.Is(err, domain.ErrDuplicateAccount) {
		t.Errorf("expected ErrDuplicateAccount, got %v", err)
	}
}

func TestLogin_BadCredentials(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	if _, _, err := svc.Register(ctx, "a@b.com", "alice", "pw"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	// Unknown user and wrong password must be indistinguishable.
	_, _, err := svc.Login(ctx, "nobody", "pw")
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("unknown user: expected ErrInvalidCredentials, got %v", err)
	}
	_, _, err = svc.Login(ctx, "alice", "wrong")
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("wrong password: expected ErrInvalidCredentials, got %v", err)
	}
}

func TestVerifyToken(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	account, token, err := svc.Register(ctx, "a@b.com", "alice", "pw")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	id, err := svc.VerifyToken(token)
	if err != nil {
		t.Fatalf("VerifyToken failed: %v", err)
	}
	if id != account.ID {
		t.Errorf("token subject: got %d, want %d", id, account.ID)
	}

	if _, err := svc.VerifyToken("not-a-token"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("garbage token: expected ErrInvalidCredentials, got %v", err)
	}
}

func TestVerifyToken_WrongSecret(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	issuer := NewAuthService(store, "secret-a", time.Hour, decimal.NewFromInt(100000))
	verifier := NewAuthService(store, "secret-b", time.Hour, decimal.NewFromInt(100000))

	_, token, err := issuer.Register(ctx, "a@b.com", "alice", "pw")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if _, err := verifier.VerifyToken(token); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestVerifyToken_Expired(t *testing.T) {
	svc := NewAuthService(newTestStore(t), "test-secret", -time.Minute, decimal.NewFromInt(100000))

	_, token, err := svc.Register(context.Background(), "a@b.com", "alice", "pw")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if _, err := svc.VerifyToken(token); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials for expired token, got %v", err)
	}
}
