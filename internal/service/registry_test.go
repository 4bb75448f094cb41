package service

import (
	"context"
	"errors"
	"testing"

	"github.com/lalith-99/nextup/internal/ident"
	"github.com/lalith-99/nextup/internal/models"
	"github.com/lalith-99/nextup/internal/repository"
	"github.com/lalith-99/nextup/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"
)

func TestCreateShop_SeedsCatalog(t *testing.T) {
	f := newFixture(t, TimeReject)
	ctx := context.Background()

	shop, err := f.registry.CreateShop(ctx, SignupInput{
		Name:       "Gallari",
		OwnerEmail: "alban@gallari.al",
		OwnerName:  "Alban",
		City:       "Tirana",
	})
	require.NoError(t, err)

	assert.Regexp(t, `^gallari-`, shop.ID)
	assert.Len(t, shop.AdminSecret, 32)
	assert.Equal(t, models.SubscriptionPending, shop.SubscriptionStatus)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(shop.AdminSecretHash), []byte(shop.AdminSecret)))

	cfg, err := f.catalog.Config(ctx, shop.ID)
	require.NoError(t, err)
	require.Len(t, cfg.Barbers, 3)
	require.Len(t, cfg.Services, 3)
	assert.Equal(t, "Any barber", cfg.Barbers[0].Name)
	assert.Equal(t, "Regular cut", cfg.Services[0].Name)
	assert.Equal(t, 45, cfg.Services[1].DurationMinutes)
	assert.Equal(t, 15.0, cfg.Services[2].Price)
}

func TestCreateShop_StoredSecretIsHashed(t *testing.T) {
	f := newFixture(t, TimeReject)
	ctx := context.Background()
	shop := f.signup(t, "Gallari")

	stored, err := f.registry.GetShop(ctx, shop.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.AdminSecret)
	assert.NotEqual(t, shop.AdminSecret, stored.AdminSecretHash)
}

func TestCreateShop_Validation(t *testing.T) {
	tests := []struct {
		name   string
		in     SignupInput
		fields []string
	}{
		{"missing both", SignupInput{}, []string{"shopName", "email"}},
		{"blank name", SignupInput{Name: "   ", OwnerEmail: "a@b.c"}, []string{"shopName"}},
		{"missing email", SignupInput{Name: "Gallari"}, []string{"email"}},
		{"bad email", SignupInput{Name: "Gallari", OwnerEmail: "not-an-email"}, []string{"email"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, TimeReject)
			shop, err := f.registry.CreateShop(context.Background(), tt.in)
			require.Error(t, err)
			assert.Nil(t, shop)

			ve, ok := IsValidation(err)
			require.True(t, ok)
			assert.Equal(t, tt.fields, ve.Fields)

			n, err := f.store.Shops().Count(context.Background())
			require.NoError(t, err)
			assert.Zero(t, n)
		})
	}
}

func TestCreateShop_UniqueIDs(t *testing.T) {
	f := newFixture(t, TimeReject)
	a := f.signup(t, "Gallari")
	b := f.signup(t, "Gallari")
	assert.NotEqual(t, a.ID, b.ID)
	assert.NotEqual(t, a.AdminSecret, b.AdminSecret)
}

func TestAuthenticate(t *testing.T) {
	f := newFixture(t, TimeReject)
	ctx := context.Background()
	shop := f.signup(t, "Gallari")
	other := f.signup(t, "Fade Lab")

	got, err := f.registry.Authenticate(ctx, shop.ID, shop.AdminSecret)
	require.NoError(t, err)
	assert.Equal(t, shop.ID, got.ID)

	failures := []struct {
		name    string
		id, sec string
	}{
		{"wrong secret", shop.ID, "nope"},
		{"other shop's secret", shop.ID, other.AdminSecret},
		{"unknown shop", "ghost-000000", shop.AdminSecret},
		{"empty secret", shop.ID, ""},
		{"padded secret", shop.ID, " " + shop.AdminSecret + " "},
		{"padded id", " " + shop.ID, shop.AdminSecret},
	}
	for _, tt := range failures {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.registry.Authenticate(ctx, tt.id, tt.sec)
			assert.True(t, errors.Is(err, ErrUnauthorized))
			assert.Equal(t, ErrUnauthorized.Error(), err.Error())
		})
	}
}

func TestAuthenticateOwner(t *testing.T) {
	f := newFixture(t, TimeReject)
	ctx := context.Background()
	shop := f.signup(t, "Gallari")

	got, err := f.registry.AuthenticateOwner(ctx, shop.ID, " OWNER@gallari.test ", shop.AdminSecret)
	require.NoError(t, err)
	assert.Equal(t, shop.ID, got.ID)

	failures := []struct {
		name           string
		id, email, sec string
	}{
		{"missing email", shop.ID, "", shop.AdminSecret},
		{"blank email", shop.ID, "   ", shop.AdminSecret},
		{"wrong email", shop.ID, "someone@else.test", shop.AdminSecret},
		{"wrong secret", shop.ID, "owner@gallari.test", "nope"},
		{"unknown shop", "ghost-000000", "owner@gallari.test", shop.AdminSecret},
	}
	for _, tt := range failures {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.registry.AuthenticateOwner(ctx, tt.id, tt.email, tt.sec)
			assert.ErrorIs(t, err, ErrUnauthorized)
			assert.Equal(t, ErrUnauthorized.Error(), err.Error())
		})
	}
}

func TestGetShop_NotFound(t *testing.T) {
	f := newFixture(t, TimeReject)
	_, err := f.registry.GetShop(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListShops_StripsSecrets(t *testing.T) {
	f := newFixture(t, TimeReject)
	f.signup(t, "Gallari")
	f.signup(t, "Fade Lab")

	shops, err := f.registry.ListShops(context.Background())
	require.NoError(t, err)
	require.Len(t, shops, 2)
	for _, s := range shops {
		assert.Empty(t, s.AdminSecret)
		assert.Empty(t, s.AdminSecretHash)
	}
}

func TestStats(t *testing.T) {
	f := newFixture(t, TimeReject)
	ctx := context.Background()
	shop := f.signup(t, "Gallari")

	_, err := f.ledger.CreateWalkIn(ctx, BookingInput{
		ShopID: shop.ID, ClientName: "Ana", ClientPhone: "555", ServiceRef: "Regular cut",
	})
	require.NoError(t, err)

	st, err := f.registry.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, Stats{ShopCount: 1, BookingCount: 1}, st)
}

// brokenCounts fails every Count call.
type brokenCounts struct {
	*memory.Store
}

type brokenShopCount struct{ repository.ShopRepository }

func (brokenShopCount) Count(context.Context) (int, error) { return 0, assert.AnError }

func (s brokenCounts) Shops() repository.ShopRepository {
	return brokenShopCount{s.Store.Shops()}
}

func TestStats_WrapsStoreErrors(t *testing.T) {
	registry := NewRegistry(brokenCounts{memory.New()}, &ident.Sequence{}, bcrypt.MinCost, zaptest.NewLogger(t))
	_, err := registry.Stats(context.Background())
	require.ErrorIs(t, err, assert.AnError)
	assert.Contains(t, err.Error(), "count shops")
}
