package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	_ "github.com/lib/pq"
)

// Config describes how to reach the user database
type Config struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// FromURL returns a Config for the given postgres:// URL with the default pool limits
func FromURL(dsn string) Config {
	return Config{URL: dsn}.withDefaults()
}

func (c Config) withDefaults() Config {
	if c.MaxOpenConns <= 0 {
		c.MaxOpenConns = 10
	}
	if c.MaxIdleConns <= 0 {
		c.MaxIdleConns = 2
	}
	if c.ConnMaxLifetime <= 0 {
		c.ConnMaxLifetime = 5 * time.Minute
	}
	return c
}

// target names the host and database of a DSN without its credentials
func (c Config) target() (host, name string) {
	u, err := url.Parse(c.URL)
	if err != nil {
		return "unknown", "unknown"
	}
	return u.Host, strings.TrimPrefix(u.Path, "/")
}

// ConnectionPool owns the *sql.DB shared by the postgres repositories
type ConnectionPool struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewConnectionPool opens and pings the database
func NewConnectionPool(ctx context.Context, cfg Config, logger *slog.Logger) (*ConnectionPool, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("database url is empty")
	}

	db, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	pool := NewFromDB(db, cfg, logger)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	host, name := cfg.target()
	pool.logger.Info("database connected", slog.String("host", host), slog.String("database", name))
	return pool, nil
}

// NewFromDB wraps an already opened handle and applies the pool limits
func NewFromDB(db *sql.DB, cfg Config, logger *slog.Logger) *ConnectionPool {
	if logger == nil {
		logger = slog.Default()
	}
	cfg = cfg.withDefaults()
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	return &ConnectionPool{db: db, logger: logger}
}

// GetDB returns the underlying handle
func (cp *ConnectionPool) GetDB() *sql.DB {
	return cp.db
}

// Close releases every pooled connection
func (cp *ConnectionPool) Close() error {
	if cp.db == nil {
		return nil
	}
	return cp.db.Close()
}

// Health pings the database with a short deadline
func (cp *ConnectionPool) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return cp.db.PingContext(ctx)
}
