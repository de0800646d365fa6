package dto

import (
	"time"

	appctx "trailerpos/internal/core/context"
	"trailerpos/internal/domain/auth"
	"trailerpos/internal/domain/catalog"
)

// LoginRequest is a cashier PIN login.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	PIN      string `json:"pin" binding:"required"`
}

// ToCredentials converts to domain credentials.
func (r *LoginRequest) ToCredentials() auth.Credentials {
	return auth.Credentials{Username: r.Username, PIN: r.PIN}
}

// TokenResponse is an issued bearer token.
type TokenResponse struct {
	AccessToken string    `json:"accessToken"`
	TokenType   string    `json:"tokenType"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// FromToken creates response from domain token.
func FromToken(t *auth.Token) *TokenResponse {
	return &TokenResponse{
		AccessToken: t.AccessToken,
		TokenType:   t.TokenType,
		ExpiresAt:   t.ExpiresAt,
	}
}

// CashierResponse is a cashier without credentials.
type CashierResponse struct {
	ID       string   `json:"id"`
	Username string   `json:"username"`
	FullName string   `json:"fullName,omitempty"`
	StoreID  string   `json:"storeId"`
	Roles    []string `json:"roles,omitempty"`
}

// FromCashier creates response from domain cashier.
func FromCashier(c *catalog.Cashier) *CashierResponse {
	return &CashierResponse{
		ID:       c.ID.String(),
		Username: c.Username,
		FullName: c.FullName,
		StoreID:  c.StoreID.String(),
		Roles:    c.Roles,
	}
}

// LoginResponse includes the token and the cashier.
type LoginResponse struct {
	Token   *TokenResponse   `json:"token"`
	Cashier *CashierResponse `json:"cashier"`
}

// ActorResponse is the authenticated actor of a request.
type ActorResponse struct {
	Username string   `json:"username"`
	FullName string   `json:"fullName,omitempty"`
	StoreID  string   `json:"storeId"`
	Roles    []string `json:"roles,omitempty"`
}

// FromActor creates response from the request actor.
func FromActor(a *appctx.ActorContext) *ActorResponse {
	return &ActorResponse{
		Username: a.Username,
		FullName: a.FullName,
		StoreID:  a.StoreID,
		Roles:    a.Roles,
	}
}
