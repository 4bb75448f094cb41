// Package memory is an in-process repository.Store. It backs tests and
// STORE_DRIVER=memory; data is lost on restart.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/lalith-99/nextup/internal/models"
	"github.com/lalith-99/nextup/internal/repository"
)

// Store keeps everything in maps keyed by shop ID behind one RWMutex.
// Every read returns copies so callers cannot mutate stored state.
type Store struct {
	mu       sync.RWMutex
	shops    map[string]models.Shop
	barbers  map[string][]models.Barber
	services map[string][]models.Service
	bookings map[string][]models.Booking
	order    []string // shop IDs in creation order
}

var (
	_ repository.Store             = (*Store)(nil)
	_ repository.ShopRepository    = (*shopRepo)(nil)
	_ repository.CatalogRepository = (*catalogRepo)(nil)
	_ repository.BookingRepository = (*bookingRepo)(nil)
)

func New() *Store {
	return &Store{
		shops:    make(map[string]models.Shop),
		barbers:  make(map[string][]models.Barber),
		services: make(map[string][]models.Service),
		bookings: make(map[string][]models.Booking),
	}
}

func (s *Store) Shops() repository.ShopRepository       { return &shopRepo{s} }
func (s *Store) Catalog() repository.CatalogRepository  { return &catalogRepo{s} }
func (s *Store) Bookings() repository.BookingRepository { return &bookingRepo{s} }

func (s *Store) Ping(ctx context.Context) error { return ctx.Err() }

// ---------------------------------------------------------------
// Shops
// ---------------------------------------------------------------

type shopRepo struct{ s *Store }

func (r *shopRepo) CreateWithCatalog(ctx context.Context, shop *models.Shop, barbers []models.Barber, services []models.Service) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, exists := r.s.shops[shop.ID]; exists {
		return repository.ErrConflict
	}
	stored := *shop
	stored.AdminSecret = ""
	r.s.shops[shop.ID] = stored
	r.s.order = append(r.s.order, shop.ID)
	r.s.barbers[shop.ID] = append([]models.Barber(nil), barbers...)
	r.s.services[shop.ID] = append([]models.Service(nil), services...)
	return nil
}

func (r *shopRepo) GetByID(ctx context.Context, shopID string) (*models.Shop, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	shop, ok := r.s.shops[shopID]
	if !ok {
		return nil, nil
	}
	return &shop, nil
}

func (r *shopRepo) List(ctx context.Context) ([]models.Shop, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	shops := make([]models.Shop, 0, len(r.s.order))
	for i := len(r.s.order) - 1; i >= 0; i-- {
		shops = append(shops, r.s.shops[r.s.order[i]])
	}
	return shops, nil
}

func (r *shopRepo) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return len(r.s.shops), nil
}

// ---------------------------------------------------------------
// Catalog
// ---------------------------------------------------------------

type catalogRepo struct{ s *Store }

func (r *catalogRepo) AddBarber(ctx context.Context, barber models.Barber) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.shops[barber.ShopID]; !ok {
		return repository.ErrNotFound
	}
	r.s.barbers[barber.ShopID] = append(r.s.barbers[barber.ShopID], barber)
	return nil
}

func (r *catalogRepo) RemoveBarber(ctx context.Context, shopID, barberID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	list := r.s.barbers[shopID]
	kept := make([]models.Barber, 0, len(list))
	for _, b := range list {
		if b.ID != barberID {
			kept = append(kept, b)
		}
	}
	r.s.barbers[shopID] = kept
	return nil
}

func (r *catalogRepo) ListBarbers(ctx context.Context, shopID string) ([]models.Barber, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return append(make([]models.Barber, 0, len(r.s.barbers[shopID])), r.s.barbers[shopID]...), nil
}

func (r *catalogRepo) AddService(ctx context.Context, svc models.Service) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.shops[svc.ShopID]; !ok {
		return repository.ErrNotFound
	}
	r.s.services[svc.ShopID] = append(r.s.services[svc.ShopID], svc)
	return nil
}

func (r *catalogRepo) GetService(ctx context.Context, shopID, serviceID string) (*models.Service, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, svc := range r.s.services[shopID] {
		if svc.ID == serviceID {
			return &svc, nil
		}
	}
	return nil, nil
}

func (r *catalogRepo) UpdateService(ctx context.Context, svc models.Service) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	list := r.s.services[svc.ShopID]
	for i := range list {
		if list[i].ID == svc.ID {
			list[i].DurationMinutes = svc.DurationMinutes
			list[i].Price = svc.Price
			list[i].IsActive = svc.IsActive
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *catalogRepo) RemoveService(ctx context.Context, shopID, serviceID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	list := r.s.services[shopID]
	kept := make([]models.Service, 0, len(list))
	for _, svc := range list {
		if svc.ID != serviceID {
			kept = append(kept, svc)
		}
	}
	r.s.services[shopID] = kept
	return nil
}

func (r *catalogRepo) ListServices(ctx context.Context, shopID string, activeOnly bool) ([]models.Service, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	services := make([]models.Service, 0, len(r.s.services[shopID]))
	for _, svc := range r.s.services[shopID] {
		if activeOnly && !svc.IsActive {
			continue
		}
		services = append(services, svc)
	}
	return services, nil
}

// ---------------------------------------------------------------
// Bookings
// ---------------------------------------------------------------

type bookingRepo struct{ s *Store }

func (r *bookingRepo) Create(ctx context.Context, booking models.Booking) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.shops[booking.ShopID]; !ok {
		return repository.ErrNotFound
	}
	r.s.bookings[booking.ShopID] = append(r.s.bookings[booking.ShopID], booking)
	return nil
}

func (r *bookingRepo) ListByShop(ctx context.Context, shopID string, since *time.Time) ([]models.Booking, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	bookings := make([]models.Booking, 0, len(r.s.bookings[shopID]))
	for _, b := range r.s.bookings[shopID] {
		if since != nil && b.ScheduledAt.Before(*since) {
			continue
		}
		bookings = append(bookings, b)
	}
	r.s.mu.RUnlock()

	// Stable keeps insertion order for equal times, same as the
	// (scheduled_at, created_at) ordering in postgres.
	sort.SliceStable(bookings, func(i, j int) bool {
		return bookings[i].ScheduledAt.Before(bookings[j].ScheduledAt)
	})
	return bookings, nil
}

func (r *bookingRepo) UpdateStatus(ctx context.Context, shopID, bookingID string, status models.BookingStatus) (*models.Booking, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	list := r.s.bookings[shopID]
	for i := range list {
		if list[i].ID == bookingID {
			list[i].Status = status
			updated := list[i]
			return &updated, nil
		}
	}
	return nil, nil
}

func (r *bookingRepo) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	n := 0
	for _, list := range r.s.bookings {
		n += len(list)
	}
	return n, nil
}
