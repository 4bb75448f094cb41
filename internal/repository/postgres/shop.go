package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lalith-99/nextup/internal/models"
	"github.com/lalith-99/nextup/internal/repository"
)

// pgUniqueViolation is the SQLSTATE for a unique constraint failure.
const pgUniqueViolation = "23505"

type ShopStore struct {
	pool *pgxpool.Pool
}

func NewShopStore(pool *pgxpool.Pool) *ShopStore {
	return &ShopStore{pool: pool}
}

// CreateWithCatalog inserts the shop, its barbers and its services in one
// transaction. If any insert fails the deferred rollback discards the lot,
// so a failed signup never leaves a half-provisioned shop behind.
func (s *ShopStore) CreateWithCatalog(ctx context.Context, shop *models.Shop, barbers []models.Barber, services []models.Service) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin create shop: %w", err)
	}
	// Rollback after Commit is a no-op.
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO shops (shop_id, name, owner_name, owner_email, city, admin_secret_hash, subscription_status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err = tx.Exec(ctx, query,
		shop.ID,
		shop.Name,
		shop.OwnerName,
		shop.OwnerEmail,
		shop.City,
		shop.AdminSecretHash,
		shop.SubscriptionStatus,
		shop.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return repository.ErrConflict
		}
		return fmt.Errorf("insert shop: %w", err)
	}

	batch := &pgx.Batch{}
	for _, b := range barbers {
		batch.Queue(insertBarberSQL, b.ID, b.ShopID, b.Name)
	}
	for _, svc := range services {
		batch.Queue(insertServiceSQL, svc.ID, svc.ShopID, svc.Name, svc.DurationMinutes, svc.Price, svc.IsActive)
	}
	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("seed catalog: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit create shop: %w", err)
	}
	return nil
}

const shopColumns = `shop_id, name, owner_name, owner_email, city, admin_secret_hash, subscription_status, created_at`

func scanShop(row pgx.Row, sh *models.Shop) error {
	return row.Scan(
		&sh.ID,
		&sh.Name,
		&sh.OwnerName,
		&sh.OwnerEmail,
		&sh.City,
		&sh.AdminSecretHash,
		&sh.SubscriptionStatus,
		&sh.CreatedAt,
	)
}

func (s *ShopStore) GetByID(ctx context.Context, shopID string) (*models.Shop, error) {
	query := `SELECT ` + shopColumns + ` FROM shops WHERE shop_id = $1`

	var sh models.Shop
	if err := scanShop(s.pool.QueryRow(ctx, query, shopID), &sh); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get shop: %w", err)
	}
	return &sh, nil
}

func (s *ShopStore) List(ctx context.Context) ([]models.Shop, error) {
	query := `SELECT ` + shopColumns + ` FROM shops ORDER BY created_at DESC, id DESC`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list shops: %w", err)
	}
	defer rows.Close()

	shops := make([]models.Shop, 0)
	for rows.Next() {
		var sh models.Shop
		if err := scanShop(rows, &sh); err != nil {
			return nil, fmt.Errorf("scan shop: %w", err)
		}
		shops = append(shops, sh)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate shops: %w", err)
	}
	return shops, nil
}

func (s *ShopStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM shops`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count shops: %w", err)
	}
	return n, nil
}
