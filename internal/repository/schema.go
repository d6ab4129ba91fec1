package repository

import (
	"context"
	"database/sql"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS orders (
		id               TEXT PRIMARY KEY,
		user_id          TEXT NOT NULL,
		vendor_ids       TEXT[] NOT NULL DEFAULT '{}',
		status           TEXT NOT NULL,
		items            JSONB NOT NULL,
		rates            JSONB NOT NULL,
		shipping_address JSONB NOT NULL,
		subtotal         DOUBLE PRECISION NOT NULL,
		cgst             DOUBLE PRECISION NOT NULL,
		sgst             DOUBLE PRECISION NOT NULL,
		delivery_fee     DOUBLE PRECISION NOT NULL,
		total            DOUBLE PRECISION NOT NULL,
		driver_id        TEXT,
		notes            TEXT,
		created_at       TIMESTAMPTZ NOT NULL,
		updated_at       TIMESTAMPTZ NOT NULL,
		shipped_at       TIMESTAMPTZ,
		delivered_at     TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS orders_user_id_idx ON orders (user_id, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS orders_vendor_ids_idx ON orders USING GIN (vendor_ids)`,
	`CREATE INDEX IF NOT EXISTS orders_driver_id_idx ON orders (driver_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS procurement_orders (
		id           TEXT PRIMARY KEY,
		vendor_id    TEXT NOT NULL,
		status       TEXT NOT NULL,
		items        JSONB NOT NULL,
		subtotal     DOUBLE PRECISION NOT NULL,
		cgst         DOUBLE PRECISION NOT NULL,
		sgst         DOUBLE PRECISION NOT NULL,
		delivery_fee DOUBLE PRECISION NOT NULL,
		total        DOUBLE PRECISION NOT NULL,
		notes        TEXT,
		created_at   TIMESTAMPTZ NOT NULL,
		updated_at   TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS procurement_vendor_idx ON procurement_orders (vendor_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS notifications (
		id         TEXT PRIMARY KEY,
		user_id    TEXT NOT NULL,
		kind       TEXT NOT NULL,
		title      TEXT NOT NULL,
		body       TEXT NOT NULL,
		metadata   JSONB,
		read       BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS notifications_user_idx ON notifications (user_id, read, created_at DESC)`,
}

// EnsureSchema creates the tables this service owns when they do not exist.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
