package service

import (
	"context"
	"testing"
	"time"

	"circuitrack/config"
	"circuitrack/internal/auth"
	"circuitrack/internal/domain"
	"circuitrack/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthService(t *testing.T, f *fixture, opening string) *AuthService {
	t.Helper()
	cfg := &config.Config{
		JWT: config.JWTConfig{
			AccessSecret:  "access",
			RefreshSecret: "refresh",
			AccessExpiry:  time.Minute,
			RefreshExpiry: time.Hour,
			Issuer:        "circuitrack-test",
		},
		Wallet: config.WalletConfig{Currency: domain.DefaultCurrency, OpeningBalance: dec(opening)},
		Admin:  config.AdminConfig{Email: "Admin@Example.com", Password: "s3cret-admin"},
	}
	return NewAuthService(cfg, f.db, repository.NewUserRepository(f.db), f.wallets)
}

func TestRegisterProvisionsWallet(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := newAuthService(t, f, "250")

	u, access, refresh, err := svc.Register(ctx, RegisterInput{Email: " Buyer@Example.com ", Password: "password1", Role: "buyer"})
	require.NoError(t, err)
	assert.Equal(t, "buyer@example.com", u.Email)
	assert.Equal(t, domain.RoleBuyer, u.Role)
	assert.NotEmpty(t, access)
	assert.NotEmpty(t, refresh)

	w, err := f.wallets.GetByUser(ctx, u.ID)
	require.NoError(t, err)
	requireDecimal(t, "250", w.MainBalance)
	requireDecimal(t, "0", w.CashbackBalance)
	requireDecimal(t, "0", w.PenaltyBalance)

	entries, err := f.ledger.ListByWallet(ctx, w.ID, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, domain.TxCredit, entries[0].Type)
	assert.Equal(t, domain.RefTopup, entries[0].ReferenceType)

	claims, err := auth.ParseAccessToken(&config.JWTConfig{AccessSecret: "access"}, access)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID)
	assert.Equal(t, domain.RoleBuyer, claims.Role)
}

func TestRegisterWithoutOpeningBalance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := newAuthService(t, f, "0")

	u, _, _, err := svc.Register(ctx, RegisterInput{Email: "v@example.com", Password: "password1", Role: domain.RoleVendor})
	require.NoError(t, err)
	w, err := f.wallets.GetByUser(ctx, u.ID)
	require.NoError(t, err)
	requireDecimal(t, "0", w.MainBalance)
	n, err := f.ledger.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRegisterRejects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := newAuthService(t, f, "0")

	_, _, _, err := svc.Register(ctx, RegisterInput{Email: "a@example.com", Password: "password1", Role: domain.RoleAdmin})
	assert.ErrorIs(t, err, ErrInvalidRole)

	_, _, _, err = svc.Register(ctx, RegisterInput{Email: "a@example.com", Password: "password1"})
	require.NoError(t, err)
	_, _, _, err = svc.Register(ctx, RegisterInput{Email: "A@example.com", Password: "password1"})
	assert.ErrorIs(t, err, ErrEmailExists)
}

func TestLoginAndRefresh(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := newAuthService(t, f, "0")
	_, _, _, err := svc.Register(ctx, RegisterInput{Email: "l@example.com", Password: "password1"})
	require.NoError(t, err)

	_, _, _, err = svc.Login(ctx, "l@example.com", "wrong-pass")
	assert.ErrorIs(t, err, ErrInvalidCreds)
	_, _, _, err = svc.Login(ctx, "nobody@example.com", "password1")
	assert.ErrorIs(t, err, ErrInvalidCreds)

	u, _, refresh, err := svc.Login(ctx, "l@example.com", "password1")
	require.NoError(t, err)
	assert.Equal(t, "l@example.com", u.Email)

	access, _, err := svc.RefreshToken(ctx, refresh)
	require.NoError(t, err)
	assert.NotEmpty(t, access)

	_, _, err = svc.RefreshToken(ctx, "not-a-token")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestSeedAdminIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := newAuthService(t, f, "0")

	require.NoError(t, svc.SeedAdmin(ctx))
	require.NoError(t, svc.SeedAdmin(ctx))

	u, _, _, err := svc.Login(ctx, "admin@example.com", "s3cret-admin")
	require.NoError(t, err)
	assert.True(t, u.IsAdmin())
	_, err = f.wallets.GetByUser(ctx, u.ID)
	assert.NoError(t, err)
}
