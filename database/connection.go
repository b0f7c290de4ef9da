package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DB wraps the pgx pool the repositories and units of work run on
type DB struct {
	*pgxpool.Pool
}

// NewConnection opens a pgx pool against the given URL and verifies it with
// a ping. Every session runs in UTC so stored timestamps compare cleanly
// against round end times computed in Go.
func NewConnection(ctx context.Context, databaseURL string) (*DB, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}
	cfg.ConnConfig.RuntimeParams["timezone"] = "UTC"

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{Pool: pool}, nil
}

// Close releases the underlying pool
func (db *DB) Close() {
	db.Pool.Close()
}

// ConstructDatabaseURL appends the database name to a base URL, keeping any
// query parameters in place and defaulting sslmode to disable. An empty name
// returns the base URL untouched.
func ConstructDatabaseURL(baseURL, databaseName string) string {
	if databaseName == "" {
		return baseURL
	}

	url := strings.TrimRight(baseURL, "/")
	if base, query, found := strings.Cut(url, "?"); found {
		url = fmt.Sprintf("%s/%s?%s", base, databaseName, query)
	} else {
		url = fmt.Sprintf("%s/%s", url, databaseName)
	}

	if !strings.Contains(url, "sslmode=") {
		separator := "?"
		if strings.Contains(url, "?") {
			separator = "&"
		}
		url += separator + "sslmode=disable"
	}
	return url
}
