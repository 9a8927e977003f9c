package db

import (
	"database/sql"
	"fmt"
)

// schema is the full database schema.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id            INTEGER PRIMARY KEY,
    username      TEXT NOT NULL,
    password_hash TEXT NOT NULL,
    role          TEXT NOT NULL DEFAULT 'user' CHECK (role IN ('admin', 'manager', 'user')),
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at    DATETIME
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username_active
    ON users(username) WHERE deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS items (
    id          INTEGER PRIMARY KEY,
    name        TEXT NOT NULL,
    description TEXT,
    price       REAL NOT NULL DEFAULT 0,
    caution     REAL NOT NULL DEFAULT 0,
    quantity    INTEGER NOT NULL DEFAULT 0 CHECK (quantity >= 0),
    category    TEXT NOT NULL DEFAULT 'other',
    location    TEXT,
    photo       BLOB,
    photo_mime  TEXT,
    created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at  DATETIME
);

-- item_id is deliberately not a foreign key: bookings may outlive their item
-- and must keep loading after the item is gone.
CREATE TABLE IF NOT EXISTS bookings (
    id                INTEGER PRIMARY KEY,
    item_id           INTEGER NOT NULL,
    qty               INTEGER NOT NULL DEFAULT 1 CHECK (qty >= 1),
    from_date         DATETIME NOT NULL,
    to_date           DATETIME NOT NULL,
    from_time         TEXT,
    to_time           TEXT,
    status            TEXT NOT NULL DEFAULT 'planned'
                      CHECK (status IN ('pending', 'planned', 'ongoing', 'finished', 'rejected')),
    source            TEXT NOT NULL DEFAULT 'manual',
    client_name       TEXT NOT NULL,
    client_first_name TEXT,
    client_last_name  TEXT,
    association_name  TEXT,
    contact_phone     TEXT,
    contact_email     TEXT,
    preferred_contact TEXT,
    messenger_handle  TEXT,
    request_comment   TEXT,
    created_at        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_bookings_item_status
    ON bookings(item_id, status);
`

// EnsureSchema creates all tables and indexes if they don't already exist.
func EnsureSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}
