package database

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"taskmail/internal/config"
	"taskmail/pkg/logger"
)

// Open creates the Postgres connection pool and verifies connectivity.
func Open(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(cfg.DBPoolSize)
	db.SetMaxIdleConns(cfg.DBPoolSize / 2)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	logger.Info(ctx, "Database pool initialized", "max_open", cfg.DBPoolSize)
	return db, nil
}

// Migrate creates the schema if it does not exist. Safe to run on every
// startup.
func Migrate(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			name          TEXT NOT NULL,
			email         TEXT NOT NULL,
			password_hash TEXT NOT NULL,
			created_at    TIMESTAMPTZ NOT NULL,
			updated_at    TIMESTAMPTZ NOT NULL
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS users_email_lower_idx ON users (LOWER(email))`,
		`CREATE TABLE IF NOT EXISTS items (
			id              TEXT PRIMARY KEY,
			title           VARCHAR(200) NOT NULL,
			description     TEXT NOT NULL DEFAULT '',
			completed       BOOLEAN NOT NULL DEFAULT FALSE,
			starred         BOOLEAN NOT NULL DEFAULT FALSE,
			folder          TEXT NOT NULL DEFAULT 'inbox'
				CHECK (folder IN ('inbox', 'sent', 'snoozed', 'trash')),
			owner_id        TEXT NOT NULL REFERENCES users (id),
			sender_id       TEXT REFERENCES users (id),
			recipient_id    TEXT REFERENCES users (id),
			recipient_email TEXT NOT NULL DEFAULT '',
			created_at      TIMESTAMPTZ NOT NULL,
			updated_at      TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS items_owner_idx ON items (owner_id)`,
		`CREATE INDEX IF NOT EXISTS items_owner_folder_idx ON items (owner_id, folder)`,
		`CREATE INDEX IF NOT EXISTS items_owner_starred_idx ON items (owner_id, starred)`,
		`CREATE TABLE IF NOT EXISTS item_activity (
			id          BIGSERIAL PRIMARY KEY,
			item_id     TEXT NOT NULL,
			actor_id    TEXT NOT NULL,
			owner_id    TEXT NOT NULL,
			action      TEXT NOT NULL,
			occurred_at TIMESTAMPTZ NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	logger.Info(ctx, "Schema ensured")
	return nil
}
