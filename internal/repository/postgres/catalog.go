package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lalith-99/nextup/internal/models"
	"github.com/lalith-99/nextup/internal/repository"
)

const (
	insertBarberSQL = `
		INSERT INTO barbers (id, shop_id, name, created_at)
		VALUES ($1, $2, $3, now())`

	insertServiceSQL = `
		INSERT INTO services (id, shop_id, name, duration_minutes, price, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())`
)

type CatalogStore struct {
	pool *pgxpool.Pool
}

func NewCatalogStore(pool *pgxpool.Pool) *CatalogStore {
	return &CatalogStore{pool: pool}
}

func (s *CatalogStore) AddBarber(ctx context.Context, barber models.Barber) error {
	_, err := s.pool.Exec(ctx, insertBarberSQL, barber.ID, barber.ShopID, barber.Name)
	if err != nil {
		return fmt.Errorf("insert barber: %w", err)
	}
	return nil
}

func (s *CatalogStore) RemoveBarber(ctx context.Context, shopID, barberID string) error {
	// Deleting zero rows is not an error.
	query := `DELETE FROM barbers WHERE shop_id = $1 AND id = $2`

	if _, err := s.pool.Exec(ctx, query, shopID, barberID); err != nil {
		return fmt.Errorf("remove barber: %w", err)
	}
	return nil
}

func (s *CatalogStore) ListBarbers(ctx context.Context, shopID string) ([]models.Barber, error) {
	query := `
		SELECT id, shop_id, name
		FROM barbers
		WHERE shop_id = $1
		ORDER BY seq`

	rows, err := s.pool.Query(ctx, query, shopID)
	if err != nil {
		return nil, fmt.Errorf("list barbers: %w", err)
	}
	defer rows.Close()

	barbers := make([]models.Barber, 0)
	for rows.Next() {
		var b models.Barber
		if err := rows.Scan(&b.ID, &b.ShopID, &b.Name); err != nil {
			return nil, fmt.Errorf("scan barber: %w", err)
		}
		barbers = append(barbers, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate barbers: %w", err)
	}
	return barbers, nil
}

func (s *CatalogStore) AddService(ctx context.Context, svc models.Service) error {
	_, err := s.pool.Exec(ctx, insertServiceSQL,
		svc.ID, svc.ShopID, svc.Name, svc.DurationMinutes, svc.Price, svc.IsActive)
	if err != nil {
		return fmt.Errorf("insert service: %w", err)
	}
	return nil
}

func scanService(row pgx.Row, svc *models.Service) error {
	return row.Scan(
		&svc.ID,
		&svc.ShopID,
		&svc.Name,
		&svc.DurationMinutes,
		&svc.Price,
		&svc.IsActive,
	)
}

func (s *CatalogStore) GetService(ctx context.Context, shopID, serviceID string) (*models.Service, error) {
	query := `
		SELECT id, shop_id, name, duration_minutes, price, is_active
		FROM services
		WHERE shop_id = $1 AND id = $2`

	var svc models.Service
	if err := scanService(s.pool.QueryRow(ctx, query, shopID, serviceID), &svc); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get service: %w", err)
	}
	return &svc, nil
}

func (s *CatalogStore) UpdateService(ctx context.Context, svc models.Service) error {
	query := `
		UPDATE services
		SET duration_minutes = $3, price = $4, is_active = $5
		WHERE shop_id = $1 AND id = $2`

	tag, err := s.pool.Exec(ctx, query, svc.ShopID, svc.ID, svc.DurationMinutes, svc.Price, svc.IsActive)
	if err != nil {
		return fmt.Errorf("update service: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (s *CatalogStore) RemoveService(ctx context.Context, shopID, serviceID string) error {
	query := `DELETE FROM services WHERE shop_id = $1 AND id = $2`

	if _, err := s.pool.Exec(ctx, query, shopID, serviceID); err != nil {
		return fmt.Errorf("remove service: %w", err)
	}
	return nil
}

func (s *CatalogStore) ListServices(ctx context.Context, shopID string, activeOnly bool) ([]models.Service, error) {
	query := `
		SELECT id, shop_id, name, duration_minutes, price, is_active
		FROM services
		WHERE shop_id = $1 AND (is_active OR NOT $2)
		ORDER BY seq`

	rows, err := s.pool.Query(ctx, query, shopID, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	defer rows.Close()

	services := make([]models.Service, 0)
	for rows.Next() {
		var svc models.Service
		if err := scanService(rows, &svc); err != nil {
			return nil, fmt.Errorf("scan service: %w", err)
		}
		services = append(services, svc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate services: %w", err)
	}
	return services, nil
}
