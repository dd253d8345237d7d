// internal/common/database/postgres.go
package database

import (
	"context"
	"database/sql"
	"fmt"

	"nl-sql-search/internal/common/config"

	_ "github.com/lib/pq"
)

const driverName = "postgres"

// NewPostgresOpener returns a function that opens a brand-new,
// single-connection handle on every call. Nothing is pooled across calls:
// the caller owns the handle and must Close it.
func NewPostgresOpener(cfg config.PostgresConfig) func(ctx context.Context) (*sql.DB, error) {
	dsn := cfg.GetDSN()

	return func(ctx context.Context) (*sql.DB, error) {
		db, err := sql.Open(driverName, dsn)
		if err != nil {
			return nil, err
		}

		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(0)

		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
		return db, nil
	}
}

// Ping opens a connection with open, pings it and closes it. Used by
// readiness checks.
func Ping(ctx context.Context, open func(ctx context.Context) (*sql.DB, error)) error {
	db, err := open(ctx)
	if err != nil {
		return fmt.Errorf("postgres ping failed: %w", err)
	}
	return db.Close()
}
