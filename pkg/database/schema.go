package database

import (
	"context"
	"fmt"
	"log/slog"
)

// schema is applied on startup; every statement is idempotent
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            TEXT PRIMARY KEY,
		username      TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
		last_login    TIMESTAMPTZ
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS users_username_lower_idx ON users (lower(username))`,
}

// EnsureSchema creates the tables the user store needs
func (cp *ConnectionPool) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := cp.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	cp.logger.Info("database schema ready", slog.Int("statements", len(schema)))
	return nil
}
