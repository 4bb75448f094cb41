package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lalith-99/nextup/internal/models"
)

type BookingStore struct {
	pool *pgxpool.Pool
}

func NewBookingStore(pool *pgxpool.Pool) *BookingStore {
	return &BookingStore{pool: pool}
}

const bookingColumns = `id, shop_id, client_name, client_phone, barber_id, barber_name,
	service_id, service_name, scheduled_at, notes, status, is_walk_in, created_at`

func scanBooking(row pgx.Row, b *models.Booking) error {
	var status string
	err := row.Scan(
		&b.ID,
		&b.ShopID,
		&b.ClientName,
		&b.ClientPhone,
		&b.BarberID,
		&b.BarberName,
		&b.ServiceID,
		&b.ServiceName,
		&b.ScheduledAt,
		&b.Notes,
		&status,
		&b.IsWalkIn,
		&b.CreatedAt,
	)
	b.Status = models.BookingStatus(status)
	return err
}

func (s *BookingStore) Create(ctx context.Context, b models.Booking) error {
	query := `
		INSERT INTO bookings (` + bookingColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err := s.pool.Exec(ctx, query,
		b.ID,
		b.ShopID,
		b.ClientName,
		b.ClientPhone,
		b.BarberID,
		b.BarberName,
		b.ServiceID,
		b.ServiceName,
		b.ScheduledAt,
		b.Notes,
		string(b.Status),
		b.IsWalkIn,
		b.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert booking: %w", err)
	}
	return nil
}

func (s *BookingStore) ListByShop(ctx context.Context, shopID string, since *time.Time) ([]models.Booking, error) {
	// since == nil → whole ledger for the shop.
	// since set   → only bookings scheduled at or after it (tablet poll).
	var query string
	var args []any

	if since != nil {
		query = `
			SELECT ` + bookingColumns + `
			FROM bookings
			WHERE shop_id = $1 AND scheduled_at >= $2
			ORDER BY scheduled_at ASC, created_at ASC`
		args = []any{shopID, *since}
	} else {
		query = `
			SELECT ` + bookingColumns + `
			FROM bookings
			WHERE shop_id = $1
			ORDER BY scheduled_at ASC, created_at ASC`
		args = []any{shopID}
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	bookings := make([]models.Booking, 0)
	for rows.Next() {
		var b models.Booking
		if err := scanBooking(rows, &b); err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bookings: %w", err)
	}
	return bookings, nil
}

func (s *BookingStore) UpdateStatus(ctx context.Context, shopID, bookingID string, status models.BookingStatus) (*models.Booking, error) {
	query := `
		UPDATE bookings SET status = $3
		WHERE shop_id = $1 AND id = $2
		RETURNING ` + bookingColumns

	var b models.Booking
	if err := scanBooking(s.pool.QueryRow(ctx, query, shopID, bookingID, string(status)), &b); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("update booking status: %w", err)
	}
	return &b, nil
}

func (s *BookingStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM bookings`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count bookings: %w", err)
	}
	return n, nil
}
