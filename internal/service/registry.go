package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lalith-99/nextup/internal/ident"
	"github.com/lalith-99/nextup/internal/models"
	"github.com/lalith-99/nextup/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Registry provisions shops and checks their admin secrets.
type Registry struct {
	shops      repository.ShopRepository
	bookings   repository.BookingRepository
	ids        ident.Generator
	bcryptCost int
	now        func() time.Time
	logger     *zap.Logger
}

func NewRegistry(store repository.Store, ids ident.Generator, bcryptCost int, logger *zap.Logger) *Registry {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Registry{
		shops:      store.Shops(),
		bookings:   store.Bookings(),
		ids:        ids,
		bcryptCost: bcryptCost,
		now:        time.Now,
		logger:     logger,
	}
}

// SignupInput is what the signup form and POST /api/shops collect.
type SignupInput struct {
	Name       string
	OwnerEmail string
	OwnerName  string
	City       string
}

// CreateShop provisions a shop with its starter catalog.
//
// The returned Shop carries the plaintext AdminSecret. This is the only
// time it exists outside the caller's hands: we store a bcrypt hash.
func (r *Registry) CreateShop(ctx context.Context, in SignupInput) (*models.Shop, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.OwnerEmail = strings.TrimSpace(in.OwnerEmail)

	var missing []string
	if in.Name == "" {
		missing = append(missing, "shopName")
	}
	if in.OwnerEmail == "" {
		missing = append(missing, "email")
	}
	if len(missing) > 0 {
		return nil, newValidationError("Please fill in at least shop name and contact email.", missing...)
	}
	if !strings.Contains(in.OwnerEmail, "@") {
		return nil, newValidationError("Contact email does not look like an email address.", "email")
	}

	secret := r.ids.NewAdminSecret()
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), r.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash admin secret: %w", err)
	}

	shop := &models.Shop{
		ID:                 r.ids.ShopID(in.Name),
		Name:               in.Name,
		OwnerName:          strings.TrimSpace(in.OwnerName),
		OwnerEmail:         in.OwnerEmail,
		City:               strings.TrimSpace(in.City),
		AdminSecretHash:    string(hash),
		SubscriptionStatus: models.SubscriptionPending,
		CreatedAt:          r.now().UTC().Truncate(time.Microsecond),
	}
	barbers, services := SeedDefaults(shop.ID, r.ids)

	if err := r.shops.CreateWithCatalog(ctx, shop, barbers, services); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("create shop %s: %w", shop.ID, err)
	}

	r.logger.Info("shop created",
		zap.String("shop_id", shop.ID),
		zap.Int("barbers", len(barbers)),
		zap.Int("services", len(services)),
	)

	shop.AdminSecret = secret
	return shop, nil
}

// GetShop returns ErrNotFound for unknown IDs.
func (r *Registry) GetShop(ctx context.Context, shopID string) (*models.Shop, error) {
	shop, err := r.shops.GetByID(ctx, shopID)
	if err != nil {
		return nil, fmt.Errorf("get shop %s: %w", shopID, err)
	}
	if shop == nil {
		return nil, ErrNotFound
	}
	return shop, nil
}

// Authenticate checks a shop ID and admin secret, both compared exactly.
// Every mismatch returns the same ErrUnauthorized.
func (r *Registry) Authenticate(ctx context.Context, shopID, secret string) (*models.Shop, error) {
	if shopID == "" || secret == "" {
		return nil, ErrUnauthorized
	}

	shop, err := r.shops.GetByID(ctx, shopID)
	if err != nil {
		return nil, fmt.Errorf("authenticate %s: %w", shopID, err)
	}
	if shop == nil {
		return nil, ErrUnauthorized
	}

	if err := bcrypt.CompareHashAndPassword([]byte(shop.AdminSecretHash), []byte(secret)); err != nil {
		return nil, ErrUnauthorized
	}
	return shop, nil
}

// AuthenticateOwner is the dashboard login: the owner email is required on
// top of the ID and secret. Email comparison ignores case and surrounding
// spaces.
func (r *Registry) AuthenticateOwner(ctx context.Context, shopID, email, secret string) (*models.Shop, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, ErrUnauthorized
	}
	shop, err := r.Authenticate(ctx, shopID, secret)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(email, shop.OwnerEmail) {
		return nil, ErrUnauthorized
	}
	return shop, nil
}

// ListShops is for operators. Secrets and hashes are stripped.
func (r *Registry) ListShops(ctx context.Context) ([]models.Shop, error) {
	shops, err := r.shops.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list shops: %w", err)
	}
	for i := range shops {
		shops[i] = shops[i].Public()
	}
	return shops, nil
}

// Stats backs the health endpoint.
type Stats struct {
	ShopCount    int `json:"shopCount"`
	BookingCount int `json:"bookingCount"`
}

func (r *Registry) Stats(ctx context.Context) (Stats, error) {
	shops, err := r.shops.Count(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("count shops: %w", err)
	}
	bookings, err := r.bookings.Count(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("count bookings: %w", err)
	}
	return Stats{ShopCount: shops, BookingCount: bookings}, nil
}
