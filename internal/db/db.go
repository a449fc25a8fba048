// Package db provides PostgreSQL connection, migration, and type helpers.
package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/picrelay/picrelay/internal/config"
)

// Open creates a PostgreSQL connection pool from config.
func Open(ctx context.Context, cfg config.PostgresConfig) (*pgxpool.Pool, error) {
	return pgxpool.New(ctx, DSN(cfg))
}
