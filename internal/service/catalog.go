package service

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/lalith-99/nextup/internal/cache"
	"github.com/lalith-99/nextup/internal/ident"
	"github.com/lalith-99/nextup/internal/models"
	"github.com/lalith-99/nextup/internal/repository"
	"go.uber.org/zap"
)

// Fallbacks for a new service whose duration or price is missing or junk.
const (
	DefaultDurationMinutes = 30
	DefaultPrice           = 25.0
)

// SeedDefaults builds the starter catalog every new shop gets.
func SeedDefaults(shopID string, ids ident.Generator) ([]models.Barber, []models.Service) {
	barbers := []models.Barber{
		{ID: ids.NewID(ident.PrefixBarber), ShopID: shopID, Name: "Any barber"},
		{ID: ids.NewID(ident.PrefixBarber), ShopID: shopID, Name: "Chair 1"},
		{ID: ids.NewID(ident.PrefixBarber), ShopID: shopID, Name: "Chair 2"},
	}
	services := []models.Service{
		{ID: ids.NewID(ident.PrefixService), ShopID: shopID, Name: "Regular cut", DurationMinutes: 30, Price: 25, IsActive: true},
		{ID: ids.NewID(ident.PrefixService), ShopID: shopID, Name: "Fade & beard", DurationMinutes: 45, Price: 35, IsActive: true},
		{ID: ids.NewID(ident.PrefixService), ShopID: shopID, Name: "Beard trim", DurationMinutes: 20, Price: 15, IsActive: true},
	}
	return barbers, services
}

// ServiceInput carries raw form values. Numbers arrive as text and are
// parsed leniently: anything unusable is treated as "not supplied".
type ServiceInput struct {
	Name            string
	DurationMinutes string
	Price           string
	IsActive        string
}

// parseDuration accepts "45" or "45.0"; fractions are truncated like the
// dashboard's number input does. Zero and negatives are rejected.
func parseDuration(s string) (int, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || f > math.MaxInt32 {
		return 0, false
	}
	n := int(f)
	if n <= 0 {
		return 0, false
	}
	return n, true
}

func parsePrice(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0, false
	}
	return f, true
}

// parseActive: only the literal "false" deactivates.
func parseActive(s string) bool {
	return strings.TrimSpace(s) != "false"
}

// Catalog manages a shop's barbers and services.
type Catalog struct {
	shops  repository.ShopRepository
	repo   repository.CatalogRepository
	ids    ident.Generator
	cache  cache.ConfigCache
	logger *zap.Logger
}

func NewCatalog(store repository.Store, ids ident.Generator, configCache cache.ConfigCache, logger *zap.Logger) *Catalog {
	if configCache == nil {
		configCache = cache.Noop{}
	}
	return &Catalog{
		shops:  store.Shops(),
		repo:   store.Catalog(),
		ids:    ids,
		cache:  configCache,
		logger: logger,
	}
}

func (c *Catalog) requireShop(ctx context.Context, shopID string) (*models.Shop, error) {
	shop, err := c.shops.GetByID(ctx, shopID)
	if err != nil {
		return nil, fmt.Errorf("get shop %s: %w", shopID, err)
	}
	if shop == nil {
		return nil, ErrNotFound
	}
	return shop, nil
}

func (c *Catalog) AddBarber(ctx context.Context, shopID, name string) (*models.Barber, error) {
	if _, err := c.requireShop(ctx, shopID); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, newValidationError("Barber name is required.", "name")
	}

	b := models.Barber{ID: c.ids.NewID(ident.PrefixBarber), ShopID: shopID, Name: name}
	if err := c.repo.AddBarber(ctx, b); err != nil {
		return nil, fmt.Errorf("add barber to %s: %w", shopID, err)
	}
	c.cache.Invalidate(ctx, shopID)
	return &b, nil
}

// RemoveBarber is idempotent.
func (c *Catalog) RemoveBarber(ctx context.Context, shopID, barberID string) error {
	if _, err := c.requireShop(ctx, shopID); err != nil {
		return err
	}
	if err := c.repo.RemoveBarber(ctx, shopID, strings.TrimSpace(barberID)); err != nil {
		return fmt.Errorf("remove barber from %s: %w", shopID, err)
	}
	c.cache.Invalidate(ctx, shopID)
	return nil
}

func (c *Catalog) AddService(ctx context.Context, shopID string, in ServiceInput) (*models.Service, error) {
	if _, err := c.requireShop(ctx, shopID); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, newValidationError("Service name is required.", "name")
	}

	svc := models.Service{
		ID:              c.ids.NewID(ident.PrefixService),
		ShopID:          shopID,
		Name:            name,
		DurationMinutes: DefaultDurationMinutes,
		Price:           DefaultPrice,
		IsActive:        parseActive(in.IsActive),
	}
	if d, ok := parseDuration(in.DurationMinutes); ok {
		svc.DurationMinutes = d
	}
	if p, ok := parsePrice(in.Price); ok {
		svc.Price = p
	}

	if err := c.repo.AddService(ctx, svc); err != nil {
		return nil, fmt.Errorf("add service to %s: %w", shopID, err)
	}
	c.cache.Invalidate(ctx, shopID)
	return &svc, nil
}

// UpdateService changes duration and price only when they parse, and sets
// the active flag from IsActive. The name is not editable.
func (c *Catalog) UpdateService(ctx context.Context, shopID, serviceID string, in ServiceInput) (*models.Service, error) {
	if _, err := c.requireShop(ctx, shopID); err != nil {
		return nil, err
	}
	svc, err := c.repo.GetService(ctx, shopID, strings.TrimSpace(serviceID))
	if err != nil {
		return nil, fmt.Errorf("get service %s/%s: %w", shopID, serviceID, err)
	}
	if svc == nil {
		return nil, ErrNotFound
	}

	if d, ok := parseDuration(in.DurationMinutes); ok {
		svc.DurationMinutes = d
	}
	if p, ok := parsePrice(in.Price); ok {
		svc.Price = p
	}
	svc.IsActive = parseActive(in.IsActive)

	if err := c.repo.UpdateService(ctx, *svc); err != nil {
		return nil, fmt.Errorf("update service %s/%s: %w", shopID, serviceID, err)
	}
	c.cache.Invalidate(ctx, shopID)
	return svc, nil
}

// RemoveService is idempotent. Existing bookings keep the service name.
func (c *Catalog) RemoveService(ctx context.Context, shopID, serviceID string) error {
	if _, err := c.requireShop(ctx, shopID); err != nil {
		return err
	}
	if err := c.repo.RemoveService(ctx, shopID, strings.TrimSpace(serviceID)); err != nil {
		return fmt.Errorf("remove service from %s: %w", shopID, err)
	}
	c.cache.Invalidate(ctx, shopID)
	return nil
}

func (c *Catalog) ListBarbers(ctx context.Context, shopID string) ([]models.Barber, error) {
	if _, err := c.requireShop(ctx, shopID); err != nil {
		return nil, err
	}
	return c.repo.ListBarbers(ctx, shopID)
}

// ListServices is the dashboard view: active and inactive.
func (c *Catalog) ListServices(ctx context.Context, shopID string) ([]models.Service, error) {
	if _, err := c.requireShop(ctx, shopID); err != nil {
		return nil, err
	}
	return c.repo.ListServices(ctx, shopID, false)
}

// ListActiveServices is the booking form view.
func (c *Catalog) ListActiveServices(ctx context.Context, shopID string) ([]models.Service, error) {
	if _, err := c.requireShop(ctx, shopID); err != nil {
		return nil, err
	}
	return c.repo.ListServices(ctx, shopID, true)
}

// Config returns the tablet snapshot, read through the config cache.
func (c *Catalog) Config(ctx context.Context, shopID string) (*models.ShopConfig, error) {
	if cfg, ok := c.cache.Get(ctx, shopID); ok {
		return cfg, nil
	}
	version, cacheable := c.cache.Version(ctx, shopID)

	shop, err := c.requireShop(ctx, shopID)
	if err != nil {
		return nil, err
	}
	barbers, err := c.repo.ListBarbers(ctx, shopID)
	if err != nil {
		return nil, fmt.Errorf("config barbers %s: %w", shopID, err)
	}
	services, err := c.repo.ListServices(ctx, shopID, false)
	if err != nil {
		return nil, fmt.Errorf("config services %s: %w", shopID, err)
	}

	cfg := models.ShopConfig{
		ShopID:             shop.ID,
		Name:               shop.Name,
		SubscriptionStatus: shop.SubscriptionStatus,
		Barbers:            barbers,
		Services:           services,
	}
	if cacheable {
		c.cache.Set(ctx, cfg, version)
	}
	return &cfg, nil
}
