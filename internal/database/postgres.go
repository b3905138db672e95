// Package database provides the PostgreSQL persistence layer for book
// records and change log entries.
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver
)

const (
	// DefaultMaxOpenConns is the default maximum number of open connections.
	DefaultMaxOpenConns = 25
	// DefaultMaxIdleConns is the default maximum number of idle connections.
	DefaultMaxIdleConns = 5
	// DefaultConnMaxLifetime is the default maximum connection lifetime.
	DefaultConnMaxLifetime = 5 * time.Minute
	// DefaultPingTimeout is the default timeout for ping operations.
	DefaultPingTimeout = 5 * time.Second
)

// Config holds database configuration.
type Config struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// NewPostgresConnection creates a new PostgreSQL database connection.
func NewPostgresConnection(cfg Config) (*sqlx.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)

	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(DefaultMaxOpenConns)
	db.SetMaxIdleConns(DefaultMaxIdleConns)
	db.SetConnMaxLifetime(DefaultConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), DefaultPingTimeout)
	defer cancel()

	if pingErr := db.PingContext(ctx); pingErr != nil {
		return nil, fmt.Errorf("failed to ping database: %w", pingErr)
	}

	return db, nil
}

// schema creates the tables consumed by the repositories. Idempotent.
const schema = `
CREATE TABLE IF NOT EXISTS books (
	id                  TEXT PRIMARY KEY,
	name                TEXT NOT NULL,
	description         TEXT NOT NULL DEFAULT '',
	category            TEXT NOT NULL,
	price_including_tax NUMERIC(10,2) NOT NULL CHECK (price_including_tax >= 0),
	price_excluding_tax NUMERIC(10,2) NOT NULL CHECK (price_excluding_tax >= 0),
	availability        TEXT NOT NULL,
	number_of_reviews   INTEGER NOT NULL DEFAULT 0 CHECK (number_of_reviews >= 0),
	image_url           TEXT NOT NULL DEFAULT '',
	rating              INTEGER NOT NULL CHECK (rating BETWEEN 0 AND 5),
	source_url          TEXT NOT NULL UNIQUE,
	crawl_timestamp     TIMESTAMPTZ NOT NULL,
	status              TEXT NOT NULL DEFAULT 'active',
	raw_snapshot        TEXT NOT NULL DEFAULT '',
	content_fingerprint TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_books_category ON books (category);
CREATE INDEX IF NOT EXISTS idx_books_rating ON books (rating);

CREATE TABLE IF NOT EXISTS change_log (
	id             TEXT PRIMARY KEY,
	book_id        TEXT NOT NULL REFERENCES books (id),
	changed_fields TEXT[] NOT NULL,
	old_values     JSONB NOT NULL DEFAULT '{}',
	new_values     JSONB NOT NULL DEFAULT '{}',
	change_type    TEXT NOT NULL,
	timestamp      TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_change_log_book_id ON change_log (book_id);
CREATE INDEX IF NOT EXISTS idx_change_log_change_type ON change_log (change_type);
CREATE INDEX IF NOT EXISTS idx_change_log_timestamp ON change_log (timestamp DESC);
`

// Migrate applies the schema. Safe to call on every startup.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
