package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"trailerpos/internal/core/apperror"
	appctx "trailerpos/internal/core/context"
	"trailerpos/internal/domain/catalog"
	"trailerpos/pkg/logger"
)

// MinPINLength is the shortest accepted login PIN.
const MinPINLength = 4

// Credentials is a cashier login attempt.
type Credentials struct {
	Username string `json:"username"`
	PIN      string `json:"pin"`
}

// Token is an issued bearer token.
type Token struct {
	AccessToken string    `json:"accessToken"`
	TokenType   string    `json:"tokenType"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// Cashiers resolves cashiers by login name.
type Cashiers interface {
	GetCashierByUsername(ctx context.Context, username string) (*catalog.Cashier, error)
}

// Service authenticates cashiers.
type Service struct {
	cashiers   Cashiers
	jwtService *JWTService
}

// NewService creates a new auth service.
func NewService(cashiers Cashiers, jwtService *JWTService) *Service {
	return &Service{cashiers: cashiers, jwtService: jwtService}
}

// HashPIN returns the bcrypt hash stored in Cashier.PinHash.
func HashPIN(pin string) (string, error) {
	if len(pin) < MinPINLength {
		return "", apperror.NewValidation(
			fmt.Sprintf("pin must be at least %d characters", MinPINLength),
		).WithDetail("field", "pin")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash pin: %w", err)
	}
	return string(hash), nil
}

// Login checks a cashier's PIN and issues a token.
// Unknown, inactive and PIN-less cashiers get the same error as a wrong PIN.
func (s *Service) Login(ctx context.Context, creds Credentials) (*Token, *catalog.Cashier, error) {
	cashier, err := s.cashiers.GetCashierByUsername(ctx, strings.TrimSpace(creds.Username))
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, nil, apperror.NewUnauthorized("invalid credentials")
		}
		return nil, nil, err
	}
	if !cashier.Active || cashier.PinHash == "" {
		return nil, nil, apperror.NewUnauthorized("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(cashier.PinHash), []byte(creds.PIN)); err != nil {
		logger.Warn(ctx, "cashier login failed", "username", cashier.Username)
		return nil, nil, apperror.NewUnauthorized("invalid credentials")
	}

	access, expiresAt, err := s.jwtService.GenerateAccessToken(cashier.ID.String(), ActorOf(cashier))
	if err != nil {
		return nil, nil, fmt.Errorf("generate token: %w", err)
	}

	logger.Info(ctx, "cashier logged in",
		"cashier_id", cashier.ID,
		"username", cashier.Username)

	return &Token{AccessToken: access, TokenType: "Bearer", ExpiresAt: expiresAt}, cashier, nil
}

// Authenticate validates a bearer token.
func (s *Service) Authenticate(token string) (*appctx.ActorContext, error) {
	actor, err := s.jwtService.ValidateToken(token)
	if err != nil {
		return nil, apperror.NewUnauthorized("invalid or expired token").WithCause(err)
	}
	return actor, nil
}

// ActorOf returns the actor a cashier acts as.
func ActorOf(c *catalog.Cashier) appctx.ActorContext {
	return appctx.ActorContext{
		Username: c.Username,
		FullName: c.FullName,
		StoreID:  c.StoreID.String(),
		Roles:    c.Roles,
	}
}
