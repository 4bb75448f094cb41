package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lalith-99/nextup/internal/repository"
)

// Store wires the three postgres stores onto one pool.
type Store struct {
	pool     *pgxpool.Pool
	shops    *ShopStore
	catalog  *CatalogStore
	bookings *BookingStore
}

var _ repository.Store = (*Store)(nil)

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{
		pool:     pool,
		shops:    NewShopStore(pool),
		catalog:  NewCatalogStore(pool),
		bookings: NewBookingStore(pool),
	}
}

func (s *Store) Shops() repository.ShopRepository       { return s.shops }
func (s *Store) Catalog() repository.CatalogRepository  { return s.catalog }
func (s *Store) Bookings() repository.BookingRepository { return s.bookings }

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}
