package database

import (
	"fmt"
	"log/slog"
)

func (db *DB) RunMigrations() error {
	slog.Info("Running database migrations...")

	migrations := []string{
		createExtensions,
		createUsersTable,
		createListingsTable,
		createBookingsTable,
		createBookingIndexes,
	}

	for i, migration := range migrations {
		slog.Info("Running migration", "step", i+1)
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	slog.Info("All migrations completed successfully")
	return nil
}

const createExtensions = `
CREATE EXTENSION IF NOT EXISTS "uuid-ossp";
CREATE EXTENSION IF NOT EXISTS btree_gist;`

const createUsersTable = `
CREATE TABLE IF NOT EXISTS users (
    user_id SERIAL PRIMARY KEY,
    email VARCHAR(255) UNIQUE NOT NULL,
    password_hash VARCHAR(64) NOT NULL,
    first_name VARCHAR(100) NOT NULL,
    surname VARCHAR(100) NOT NULL,
    registered_at TIMESTAMP NOT NULL DEFAULT NOW(),
    is_active BOOLEAN NOT NULL DEFAULT TRUE
);`

// Listings are owned by the listings collaborator; the reservation core
// only reads nightly_price and active from this table.
const createListingsTable = `
CREATE TABLE IF NOT EXISTS listings (
    id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
    host_id INTEGER NOT NULL REFERENCES users(user_id),
    title VARCHAR(500) NOT NULL,
    nightly_price BIGINT NOT NULL CHECK (nightly_price >= 0),
    active BOOLEAN NOT NULL DEFAULT TRUE,
    created_at TIMESTAMP NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP NOT NULL DEFAULT NOW()
);`

// The exclusion constraint is the serialization point for the
// availability check-then-insert race: two live bookings for the same
// listing can never hold overlapping [check_in, check_out) ranges.
// Reconciled bookings flagged needs_review are exempt so a paid-for
// booking can still be recorded when it lost the race (host resolves).
const createBookingsTable = `
CREATE TABLE IF NOT EXISTS bookings (
    id UUID PRIMARY KEY,
    listing_id UUID NOT NULL REFERENCES listings(id),
    guest_user_id INTEGER NOT NULL REFERENCES users(user_id),
    check_in DATE NOT NULL,
    check_out DATE NOT NULL,
    guest_count INTEGER NOT NULL,
    total_price BIGINT NOT NULL,
    status VARCHAR(20) NOT NULL DEFAULT 'PENDING',
    provider_payment_id VARCHAR(255),
    needs_review BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMP NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP NOT NULL DEFAULT NOW(),

    CHECK (check_out > check_in),
    CHECK (guest_count >= 1),
    CHECK (status IN ('PENDING', 'CONFIRMED', 'CANCELLED')),
    CONSTRAINT bookings_provider_payment_id_key UNIQUE (provider_payment_id),
    CONSTRAINT bookings_no_overlap EXCLUDE USING gist (
        listing_id WITH =,
        daterange(check_in, check_out) WITH &&
    ) WHERE (status <> 'CANCELLED' AND NOT needs_review)
);`

const createBookingIndexes = `
CREATE INDEX IF NOT EXISTS bookings_listing_dates_idx
ON bookings (listing_id, check_in, check_out)
WHERE status <> 'CANCELLED';
CREATE INDEX IF NOT EXISTS bookings_guest_idx
ON bookings (guest_user_id, created_at DESC);
CREATE INDEX IF NOT EXISTS bookings_pending_created_idx
ON bookings (created_at)
WHERE status = 'PENDING' AND provider_payment_id IS NULL;`
