package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/lalith-99/nextup/internal/models"
	"github.com/lalith-99/nextup/internal/repository"
	"github.com/lalith-99/nextup/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in   string
		want int
		ok   bool
	}{
		{"45", 45, true},
		{" 45.9 ", 45, true},
		{"0", 0, false},
		{"-10", 0, false},
		{"abc", 0, false},
		{"", 0, false},
		{"NaN", 0, false},
		{"1e20", 0, false},
	}
	for _, tt := range tests {
		got, ok := parseDuration(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestParsePrice(t *testing.T) {
	p, ok := parsePrice("0")
	assert.True(t, ok)
	assert.Zero(t, p)

	p, ok = parsePrice("12.5")
	assert.True(t, ok)
	assert.Equal(t, 12.5, p)

	for _, in := range []string{"-1", "x", "", "Inf", "NaN"} {
		_, ok := parsePrice(in)
		assert.False(t, ok, in)
	}
}

func TestAddBarber(t *testing.T) {
	f := newFixture(t, TimeReject)
	ctx := context.Background()
	shop := f.signup(t, "Gallari")

	b, err := f.catalog.AddBarber(ctx, shop.ID, "  Dritan ")
	require.NoError(t, err)
	assert.Equal(t, "Dritan", b.Name)

	barbers, err := f.catalog.ListBarbers(ctx, shop.ID)
	require.NoError(t, err)
	require.Len(t, barbers, 4)
	assert.Equal(t, "Dritan", barbers[3].Name)

	_, err = f.catalog.AddBarber(ctx, shop.ID, " ")
	_, isValidation := IsValidation(err)
	assert.True(t, isValidation)

	_, err = f.catalog.AddBarber(ctx, "ghost", "Dritan")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRemoveBarber_Idempotent(t *testing.T) {
	f := newFixture(t, TimeReject)
	ctx := context.Background()
	shop := f.signup(t, "Gallari")

	barbers, err := f.catalog.ListBarbers(ctx, shop.ID)
	require.NoError(t, err)
	target := barbers[1].ID

	require.NoError(t, f.catalog.RemoveBarber(ctx, shop.ID, target))
	require.NoError(t, f.catalog.RemoveBarber(ctx, shop.ID, target))
	require.NoError(t, f.catalog.RemoveBarber(ctx, shop.ID, "barber_missing"))

	barbers, err = f.catalog.ListBarbers(ctx, shop.ID)
	require.NoError(t, err)
	assert.Len(t, barbers, 2)
}

func TestAddService_Defaults(t *testing.T) {
	f := newFixture(t, TimeReject)
	ctx := context.Background()
	shop := f.signup(t, "Gallari")

	svc, err := f.catalog.AddService(ctx, shop.ID, ServiceInput{Name: "Kids cut", DurationMinutes: "junk", Price: "-3"})
	require.NoError(t, err)
	assert.Equal(t, DefaultDurationMinutes, svc.DurationMinutes)
	assert.Equal(t, DefaultPrice, svc.Price)
	assert.True(t, svc.IsActive)

	svc, err = f.catalog.AddService(ctx, shop.ID, ServiceInput{Name: "Shave", DurationMinutes: "15", Price: "10", IsActive: "false"})
	require.NoError(t, err)
	assert.Equal(t, 15, svc.DurationMinutes)
	assert.Equal(t, 10.0, svc.Price)
	assert.False(t, svc.IsActive)

	_, err = f.catalog.AddService(ctx, shop.ID, ServiceInput{})
	_, isValidation := IsValidation(err)
	assert.True(t, isValidation)
}

func TestUpdateService_Partial(t *testing.T) {
	f := newFixture(t, TimeReject)
	ctx := context.Background()
	shop := f.signup(t, "Gallari")

	services, err := f.catalog.ListServices(ctx, shop.ID)
	require.NoError(t, err)
	orig := services[0]

	updated, err := f.catalog.UpdateService(ctx, shop.ID, orig.ID, ServiceInput{DurationMinutes: "40", Price: "oops"})
	require.NoError(t, err)
	assert.Equal(t, 40, updated.DurationMinutes)
	assert.Equal(t, orig.Price, updated.Price)
	assert.Equal(t, orig.Name, updated.Name)
	assert.True(t, updated.IsActive)

	updated, err = f.catalog.UpdateService(ctx, shop.ID, orig.ID, ServiceInput{IsActive: "false"})
	require.NoError(t, err)
	assert.Equal(t, 40, updated.DurationMinutes)
	assert.False(t, updated.IsActive)

	active, err := f.catalog.ListActiveServices(ctx, shop.ID)
	require.NoError(t, err)
	assert.Len(t, active, 2)
	all, err := f.catalog.ListServices(ctx, shop.ID)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	_, err = f.catalog.UpdateService(ctx, shop.ID, "svc_missing", ServiceInput{Price: "1"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCatalog_TenantIsolation(t *testing.T) {
	f := newFixture(t, TimeReject)
	ctx := context.Background()
	a := f.signup(t, "Gallari")
	b := f.signup(t, "Fade Lab")

	bServices, err := f.catalog.ListServices(ctx, b.ID)
	require.NoError(t, err)
	bBarbers, err := f.catalog.ListBarbers(ctx, b.ID)
	require.NoError(t, err)

	// Shop A cannot touch shop B's rows even with the right IDs.
	_, err = f.catalog.UpdateService(ctx, a.ID, bServices[0].ID, ServiceInput{Price: "99"})
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, f.catalog.RemoveService(ctx, a.ID, bServices[0].ID))
	require.NoError(t, f.catalog.RemoveBarber(ctx, a.ID, bBarbers[0].ID))

	cfg, err := f.catalog.Config(ctx, b.ID)
	require.NoError(t, err)
	assert.Len(t, cfg.Services, 3)
	assert.Len(t, cfg.Barbers, 3)
	assert.Equal(t, 25.0, cfg.Services[0].Price)
}

// countingCache is an in-memory ConfigCache with the same version check
// as the Redis one. It records invalidations.
type countingCache struct {
	entries     map[string]models.ShopConfig
	versions    map[string]int64
	invalidated []string
}

func newCountingCache() *countingCache {
	return &countingCache{entries: map[string]models.ShopConfig{}, versions: map[string]int64{}}
}

func (c *countingCache) Get(_ context.Context, shopID string) (*models.ShopConfig, bool) {
	cfg, ok := c.entries[shopID]
	if !ok {
		return nil, false
	}
	return &cfg, true
}

func (c *countingCache) Version(_ context.Context, shopID string) (int64, bool) {
	return c.versions[shopID], true
}

func (c *countingCache) Set(_ context.Context, cfg models.ShopConfig, version int64) {
	if c.versions[cfg.ShopID] != version {
		return
	}
	c.entries[cfg.ShopID] = cfg
}

func (c *countingCache) Invalidate(_ context.Context, shopID string) {
	c.versions[shopID]++
	delete(c.entries, shopID)
	c.invalidated = append(c.invalidated, shopID)
}

func TestConfig_CacheInvalidatedOnMutation(t *testing.T) {
	f := newFixture(t, TimeReject)
	ctx := context.Background()
	cc := newCountingCache()
	f.catalog = NewCatalog(f.store, f.ids, cc, nil)
	shop := f.signup(t, "Gallari")

	cfg, err := f.catalog.Config(ctx, shop.ID)
	require.NoError(t, err)
	assert.Len(t, cfg.Barbers, 3)
	assert.Contains(t, cc.entries, shop.ID)

	_, err = f.catalog.AddBarber(ctx, shop.ID, "Dritan")
	require.NoError(t, err)
	assert.NotContains(t, cc.entries, shop.ID)

	cfg, err = f.catalog.Config(ctx, shop.ID)
	require.NoError(t, err)
	assert.Len(t, cfg.Barbers, 4)
	assert.Equal(t, []string{shop.ID}, cc.invalidated)
}

func TestConfig_UnknownShop(t *testing.T) {
	f := newFixture(t, TimeReject)
	_, err := f.catalog.Config(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

// editDuringRead runs onList once, after the store has answered the first
// ListServices call and before the caller sees the result.
type editDuringRead struct {
	*memory.Store
	onList func()
}

type editingCatalog struct {
	repository.CatalogRepository
	onList *func()
}

func (s *editDuringRead) Catalog() repository.CatalogRepository {
	return editingCatalog{CatalogRepository: s.Store.Catalog(), onList: &s.onList}
}

func (c editingCatalog) ListServices(ctx context.Context, shopID string, activeOnly bool) ([]models.Service, error) {
	services, err := c.CatalogRepository.ListServices(ctx, shopID, activeOnly)
	if hook := *c.onList; hook != nil {
		*c.onList = nil
		hook()
	}
	return services, err
}

func TestConfig_EditDuringReadIsNotCached(t *testing.T) {
	f := newFixture(t, TimeReject)
	ctx := context.Background()
	shop := f.signup(t, "Gallari")

	cc := newCountingCache()
	racing := &editDuringRead{Store: f.store}
	catalog := NewCatalog(racing, f.ids, cc, zaptest.NewLogger(t))

	racing.onList = func() {
		_, err := catalog.AddService(ctx, shop.ID, ServiceInput{Name: "Kids cut"})
		require.NoError(t, err)
	}

	// This read began before the add, so it may be stale itself...
	cfg, err := catalog.Config(ctx, shop.ID)
	require.NoError(t, err)
	assert.Len(t, cfg.Services, 3)
	assert.NotContains(t, cc.entries, shop.ID)

	// ...but every read after the add returned sees it.
	cfg, err = catalog.Config(ctx, shop.ID)
	require.NoError(t, err)
	assert.Len(t, cfg.Services, 4)
	cfg, err = catalog.Config(ctx, shop.ID)
	require.NoError(t, err)
	assert.Len(t, cfg.Services, 4)
}

func TestCatalog_ConcurrentAddsAllSurvive(t *testing.T) {
	f := newFixture(t, TimeReject)
	ctx := context.Background()
	shop := f.signup(t, "Gallari")

	const n = 20
	var wg sync.WaitGroup
	errs := make(chan error, 2*n)
	for i := 0; i < n; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_, err := f.catalog.AddService(ctx, shop.ID, ServiceInput{Name: fmt.Sprintf("Service %d", i)})
			errs <- err
		}(i)
		go func(i int) {
			defer wg.Done()
			_, err := f.catalog.AddBarber(ctx, shop.ID, fmt.Sprintf("Barber %d", i))
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	services, err := f.catalog.ListServices(ctx, shop.ID)
	require.NoError(t, err)
	assert.Len(t, services, n+3)

	barbers, err := f.catalog.ListBarbers(ctx, shop.ID)
	require.NoError(t, err)
	assert.Len(t, barbers, n+3)

	seen := map[string]bool{}
	for _, s := range services {
		assert.False(t, seen[s.ID], "duplicate id %s", s.ID)
		seen[s.ID] = true
	}
}
