// Package bundb builds the shared bun.DB connection pool.
package bundb

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"github.com/Permavault-Club/season-engine/config"
)

// NewDB opens a Postgres-backed bun.DB and verifies the connection.
func NewDB(ctx context.Context, cfg config.PostgresConfig) (*bun.DB, error) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.DSN)))

	if err := sqldb.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("bundb.NewDB: ping database: %w", err)
	}

	return bun.NewDB(sqldb, pgdialect.New()), nil
}
