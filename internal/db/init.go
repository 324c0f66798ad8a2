// Package db opens the Postgres connection and bootstraps the schema.
package db

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

const schema = `
CREATE TABLE IF NOT EXISTS members (
    id TEXT PRIMARY KEY,
    email TEXT NOT NULL,
    first_name TEXT NOT NULL,
    last_name TEXT NOT NULL,
    phone TEXT NOT NULL DEFAULT '',
    birth_date DATE,
    gender SMALLINT NOT NULL DEFAULT 0,
    tier SMALLINT NOT NULL DEFAULT 0,
    dealer_code TEXT NOT NULL DEFAULT '',
    marketing_opt_in BOOLEAN NOT NULL DEFAULT FALSE,
    remote_id TEXT,
    is_verified BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS vehicles (
    id TEXT PRIMARY KEY,
    owner_id TEXT NOT NULL REFERENCES members(id) ON DELETE CASCADE,
    vin TEXT NOT NULL,
    model_code TEXT NOT NULL DEFAULT '',
    model_year INTEGER NOT NULL DEFAULT 0,
    color TEXT NOT NULL DEFAULT '',
    plate_number TEXT NOT NULL DEFAULT '',
    purchase_date DATE,
    purchase_type SMALLINT NOT NULL DEFAULT 0,
    fuel_type SMALLINT NOT NULL DEFAULT 0,
    mileage INTEGER NOT NULL DEFAULT 0,
    remote_id TEXT,
    is_verified BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS members_unsynced_idx ON members (created_at) WHERE remote_id IS NULL;
CREATE INDEX IF NOT EXISTS vehicles_unsynced_idx ON vehicles (created_at) WHERE remote_id IS NULL;
CREATE INDEX IF NOT EXISTS vehicles_unverified_idx ON vehicles (created_at) WHERE remote_id IS NOT NULL AND is_verified = FALSE;
`

// InitPostgres opens dsn, checks connectivity and creates missing tables.
func InitPostgres(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	if err := bootstrap(db); err != nil {
		return nil, err
	}

	return db, nil
}

// bootstrap pings db and applies the schema. db is closed on failure.
func bootstrap(db *sql.DB) error {
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return fmt.Errorf("ping postgres: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return fmt.Errorf("create schema: %w", err)
	}

	return nil
}
