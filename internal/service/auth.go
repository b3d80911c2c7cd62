package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"vse_go/internal/domain"
	"vse_go/internal/infra/storage"

	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

// AuthService registers accounts and issues bearer tokens. Everything
// downstream of it only ever sees the verified account id.
type AuthService struct {
	store           *storage.Storage
	secret          []byte
	tokenTTL        time.Duration
	startingBalance decimal.Decimal
}

// NewAuthService is the constructor.
func NewAuthService(store *storage.Storage, secret string, tokenTTL time.Duration, startingBalance decimal.Decimal) *AuthService {
	return &AuthService{
		store:           store,
		secret:          []byte(secret),
		tokenTTL:        tokenTTL,
		startingBalance: startingBalance,
	}
}

// Register creates an account with the configured starting balance and
// returns it with a fresh token.
func (s *AuthService) Register(ctx context.Context, email, username, password string) (*domain.Account, string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	username = strings.TrimSpace(username)
	if email == "" || username == "" || password == "" {
		return nil, "", fmt.Errorf("%w: email, username and password are required", domain.ErrInvalidCredentials)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	account := &domain.Account{
		Email:           email,
		Username:        username,
		PasswordHash:    string(hash),
		CashBalance:     s.startingBalance,
		StartingBalance: s.startingBalance,
	}
	if err := s.store.CreateAccount(ctx, account); err != nil {
		return nil, "", err
	}

	token, err := s.issueToken(account)
	if err != nil {
		return nil, "", err
	}
	return account, token, nil
}

// Login verifies credentials and returns the account with a fresh token.
func (s *AuthService) Login(ctx context.Context, username, password string) (*domain.Account, string, error) {
	account, err := s.store.FindAccountByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		// Do not reveal whether the username exists.
		return nil, "", domain.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return nil, "", domain.ErrInvalidCredentials
	}

	token, err := s.issueToken(account)
	if err != nil {
		return nil, "", err
	}
	return account, token, nil
}

// Profile returns the account for a verified id.
func (s *AuthService) Profile(ctx context.Context, accountID uint) (*domain.Account, error) {
	return s.store.GetAccount(ctx, accountID)
}

// VerifyToken validates a bearer token and returns the account id it
// was issued for.
func (s *AuthService) VerifyToken(token string) (uint, error) {
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return 0, domain.ErrInvalidCredentials
	}

	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok {
		return 0, domain.ErrInvalidCredentials
	}
	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil {
		return 0, domain.ErrInvalidCredentials
	}
	return uint(id), nil
}

func (s *AuthService) issueToken(account *domain.Account) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatUint(uint64(account.ID), 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}
