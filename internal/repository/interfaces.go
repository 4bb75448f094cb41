package repository

import (
	"context"
	"time"

	"github.com/lalith-99/nextup/internal/models"
)

// Every method takes ctx first and every tenant-owned read or write takes
// the shop ID. Implementations filter by it; callers never get rows from
// another shop, even with a guessed barber/service/booking ID.

// ShopRepository owns shop records.
type ShopRepository interface {
	// CreateWithCatalog stores the shop and its starter catalog in one
	// atomic write. Returns ErrConflict if the shop ID is taken; on any
	// error nothing is stored.
	CreateWithCatalog(ctx context.Context, shop *models.Shop, barbers []models.Barber, services []models.Service) error

	// GetByID returns nil, nil if the shop does not exist.
	GetByID(ctx context.Context, shopID string) (*models.Shop, error)

	// List returns every shop, newest first. Empty slice, never nil.
	List(ctx context.Context) ([]models.Shop, error)

	Count(ctx context.Context) (int, error)
}

// CatalogRepository handles barbers and services.
type CatalogRepository interface {
	AddBarber(ctx context.Context, barber models.Barber) error

	// RemoveBarber is a no-op if the barber does not exist.
	RemoveBarber(ctx context.Context, shopID, barberID string) error

	// ListBarbers returns barbers in insertion order.
	ListBarbers(ctx context.Context, shopID string) ([]models.Barber, error)

	AddService(ctx context.Context, svc models.Service) error

	// GetService returns nil, nil if not found.
	GetService(ctx context.Context, shopID, serviceID string) (*models.Service, error)

	// UpdateService overwrites duration, price and active flag.
	// Returns ErrNotFound if the service is not in the shop.
	UpdateService(ctx context.Context, svc models.Service) error

	// RemoveService is a no-op if the service does not exist.
	RemoveService(ctx context.Context, shopID, serviceID string) error

	// ListServices returns services in insertion order, optionally only
	// the active ones.
	ListServices(ctx context.Context, shopID string, activeOnly bool) ([]models.Service, error)
}

// BookingRepository is the append-only ledger.
type BookingRepository interface {
	Create(ctx context.Context, booking models.Booking) error

	// ListByShop returns bookings ordered by scheduled time ascending.
	// A non-nil since drops bookings scheduled before it.
	ListByShop(ctx context.Context, shopID string, since *time.Time) ([]models.Booking, error)

	// UpdateStatus returns the updated booking, or nil, nil if the booking
	// is not in the shop.
	UpdateStatus(ctx context.Context, shopID, bookingID string, status models.BookingStatus) (*models.Booking, error)

	Count(ctx context.Context) (int, error)
}

// Store bundles the repositories behind one backend.
type Store interface {
	Shops() ShopRepository
	Catalog() CatalogRepository
	Bookings() BookingRepository

	// Ping checks the backend is reachable.
	Ping(ctx context.Context) error
}
