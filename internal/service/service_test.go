package service

import (
	"context"
	"testing"

	"github.com/lalith-99/nextup/internal/events"
	"github.com/lalith-99/nextup/internal/ident"
	"github.com/lalith-99/nextup/internal/models"
	"github.com/lalith-99/nextup/internal/repository/memory"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"
)

// fixture wires every service over one memory store.
type fixture struct {
	store    *memory.Store
	ids      *ident.Sequence
	registry *Registry
	catalog  *Catalog
	ledger   *Ledger
	hub      *events.Hub
}

func newFixture(t *testing.T, policy TimePolicy) *fixture {
	t.Helper()
	logger := zaptest.NewLogger(t)
	store := memory.New()
	ids := &ident.Sequence{}
	hub := events.NewHub()
	return &fixture{
		store:    store,
		ids:      ids,
		registry: NewRegistry(store, ids, bcrypt.MinCost, logger),
		catalog:  NewCatalog(store, ids, nil, logger),
		ledger:   NewLedger(store, ids, hub, nil, policy, logger),
		hub:      hub,
	}
}

func (f *fixture) signup(t *testing.T, name string) *models.Shop {
	t.Helper()
	shop, err := f.registry.CreateShop(context.Background(), SignupInput{
		Name:       name,
		OwnerEmail: "owner@" + ident.Slugify(name) + ".test",
		OwnerName:  "Owner",
		City:       "Tirana",
	})
	require.NoError(t, err)
	return shop
}
