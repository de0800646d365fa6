package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trailerpos/internal/core/apperror"
	"trailerpos/internal/core/id"
	"trailerpos/internal/domain/catalog"
)

type cashierMap map[string]*catalog.Cashier

func (m cashierMap) GetCashierByUsername(_ context.Context, username string) (*catalog.Cashier, error) {
	c, ok := m[username]
	if !ok {
		return nil, apperror.NewNotFound("cashier", username)
	}
	return c, nil
}

func newTestService(t *testing.T, now func() time.Time) (*Service, *catalog.Cashier) {
	t.Helper()

	hash, err := HashPIN("1234")
	require.NoError(t, err)

	c := catalog.NewCashier(id.New(), "cashier1", "Front Cashier")
	c.PinHash = hash
	c.Roles = []string{"cashier"}

	jwtSvc := NewJWTService(DefaultJWTConfig("test-secret"), now)
	return NewService(cashierMap{"cashier1": c}, jwtSvc), c
}

func TestLogin_IssuesTokenForValidPIN(t *testing.T) {
	svc, c := newTestService(t, nil)

	token, cashier, err := svc.Login(context.Background(), Credentials{Username: " cashier1 ", PIN: "1234"})
	require.NoError(t, err)
	assert.Equal(t, c.ID, cashier.ID)
	assert.Equal(t, "Bearer", token.TokenType)

	actor, err := svc.Authenticate(token.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "cashier1", actor.Username)
	assert.Equal(t, "Front Cashier", actor.FullName)
	assert.Equal(t, c.StoreID.String(), actor.StoreID)
	assert.Equal(t, []string{"cashier"}, actor.Roles)
}

func TestLogin_RejectsBadCredentials(t *testing.T) {
	svc, c := newTestService(t, nil)
	ctx := context.Background()

	tests := []struct {
		name  string
		creds Credentials
		setup func()
	}{
		{name: "wrong pin", creds: Credentials{Username: "cashier1", PIN: "9999"}},
		{name: "unknown cashier", creds: Credentials{Username: "nobody", PIN: "1234"}},
		{name: "inactive cashier", creds: Credentials{Username: "cashier1", PIN: "1234"}, setup: func() { c.Active = false }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.setup != nil {
				tt.setup()
			}
			_, _, err := svc.Login(ctx, tt.creds)
			appErr, ok := apperror.AsAppError(err)
			require.True(t, ok)
			assert.Equal(t, apperror.CodeUnauthorized, appErr.Code)
		})
	}
}

func TestAuthenticate_RejectsExpiredToken(t *testing.T) {
	issued := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	clock := issued
	svc, _ := newTestService(t, func() time.Time { return clock })

	token, _, err := svc.Login(context.Background(), Credentials{Username: "cashier1", PIN: "1234"})
	require.NoError(t, err)

	clock = issued.Add(13 * time.Hour)
	_, err = svc.Authenticate(token.AccessToken)
	require.Error(t, err)
}

func TestHashPIN_RejectsShortPIN(t *testing.T) {
	_, err := HashPIN("12")
	assert.True(t, apperror.IsValidation(err))
}
