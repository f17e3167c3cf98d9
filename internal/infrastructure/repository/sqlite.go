package repository

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// OpenSQLite opens the relational connection store and applies the schema.
func OpenSQLite(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// a single writer avoids SQLITE_BUSY under concurrent upserts
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{`PRAGMA journal_mode=WAL;`, `PRAGMA busy_timeout=5000;`} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}
	if err := MigrateSQLite(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// MigrateSQLite creates the tables and indexes if they do not exist.
func MigrateSQLite(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS partner_connections (
			id TEXT PRIMARY KEY,
			organization_id TEXT NOT NULL UNIQUE,
			remote_account_id TEXT NOT NULL DEFAULT '',
			remote_location_id TEXT NOT NULL DEFAULT '',
			access_token_enc TEXT NOT NULL,
			refresh_token_enc TEXT NOT NULL DEFAULT '',
			token_expires_at INTEGER NOT NULL,
			account_name TEXT NOT NULL DEFAULT '',
			is_active INTEGER NOT NULL DEFAULT 1,
			connected_at INTEGER NOT NULL,
			last_synced_at INTEGER,
			updated_at INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_partner_connections_location ON partner_connections(remote_location_id, is_active);`,
		`CREATE TABLE IF NOT EXISTS webhook_events (
			id TEXT PRIMARY KEY,
			event_type TEXT NOT NULL,
			location_id TEXT NOT NULL,
			organization_id TEXT NOT NULL DEFAULT '',
			order_id TEXT NOT NULL DEFAULT '',
			outcome TEXT NOT NULL,
			received_at INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_webhook_events_received ON webhook_events(received_at);`,
	}
	for _, s := range stmts {
		if _, err := db.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("failed to migrate sqlite schema: %w", err)
		}
	}
	return nil
}
