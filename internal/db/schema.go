package db

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// schema is idempotent; Migrate runs it on every boot.
//
// shops.id is a surrogate key; shop_id is the public identifier the rest of
// the tables reference. seq columns give barbers and services a stable
// display order.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS shops (
		id                  SERIAL PRIMARY KEY,
		shop_id             TEXT UNIQUE NOT NULL,
		name                TEXT NOT NULL,
		owner_name          TEXT NOT NULL DEFAULT '',
		owner_email         TEXT NOT NULL,
		city                TEXT NOT NULL DEFAULT '',
		admin_secret_hash   TEXT NOT NULL,
		subscription_status TEXT NOT NULL DEFAULT 'pending',
		created_at          TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS barbers (
		seq        BIGSERIAL,
		id         TEXT PRIMARY KEY,
		shop_id    TEXT NOT NULL REFERENCES shops (shop_id),
		name       TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_barbers_shop ON barbers (shop_id, seq)`,
	`CREATE TABLE IF NOT EXISTS services (
		seq              BIGSERIAL,
		id               TEXT PRIMARY KEY,
		shop_id          TEXT NOT NULL REFERENCES shops (shop_id),
		name             TEXT NOT NULL,
		duration_minutes INTEGER NOT NULL CHECK (duration_minutes > 0),
		price            DOUBLE PRECISION NOT NULL CHECK (price >= 0),
		is_active        BOOLEAN NOT NULL DEFAULT TRUE,
		created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_services_shop ON services (shop_id, seq)`,
	`CREATE TABLE IF NOT EXISTS bookings (
		id           TEXT PRIMARY KEY,
		shop_id      TEXT NOT NULL REFERENCES shops (shop_id),
		client_name  TEXT NOT NULL,
		client_phone TEXT NOT NULL,
		barber_id    TEXT,
		barber_name  TEXT,
		service_id   TEXT,
		service_name TEXT NOT NULL,
		scheduled_at TIMESTAMPTZ NOT NULL,
		notes        TEXT,
		status       TEXT NOT NULL DEFAULT 'waiting'
		             CHECK (status IN ('waiting', 'in_chair', 'done')),
		is_walk_in   BOOLEAN NOT NULL DEFAULT FALSE,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_shop_scheduled ON bookings (shop_id, scheduled_at)`,
}

// Migrate creates the tables if they don't exist.
func (db *DB) Migrate(ctx context.Context) error {
	for i, stmt := range schema {
		if _, err := db.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d: %w", i, err)
		}
	}
	db.logger.Info("schema ready", zap.Int("statements", len(schema)))
	return nil
}
