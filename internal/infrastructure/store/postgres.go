// Package store implements the snapshot store on Postgres. All three tables
// are append-style: price and stock changes insert new timestamped rows,
// never update old ones, so "most recent row per key" queries stay the
// source of truth.
package store

import (
	"context"
	"fmt"
	"regexp"

	"github.com/jackc/pgx/v5/pgxpool"
)

var outletNameRe = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// NewPool creates and verifies a pgxpool connection pool.
func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}
	return pool, nil
}

// InstockTable returns the outlet-scoped stock table name, validating the
// outlet name since it is interpolated into DDL/DML.
func InstockTable(outlet string) (string, error) {
	if !outletNameRe.MatchString(outlet) {
		return "", fmt.Errorf("invalid outlet name %q", outlet)
	}
	return "instock_" + outlet, nil
}

// EnsureSchema creates the three snapshot tables and their indexes if they
// do not exist yet.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool, outlet string) error {
	instock, err := InstockTable(outlet)
	if err != nil {
		return err
	}

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS products (
			code         bigint PRIMARY KEY,
			brand        text NOT NULL,
			model        text NOT NULL,
			url          text NOT NULL UNIQUE,
			image        text NOT NULL DEFAULT '',
			age_category text NOT NULL DEFAULT '',
			gender       text NOT NULL DEFAULT '',
			release_year int  NOT NULL DEFAULT 0,
			usage_tag    text NOT NULL DEFAULT '',
			pronation    text NOT NULL DEFAULT '',
			article      text NOT NULL DEFAULT '',
			season       text NOT NULL DEFAULT '',
			updated_at   timestamptz NOT NULL,
			rating       int NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS prices (
			id         bigserial PRIMARY KEY,
			code       bigint NOT NULL REFERENCES products(code),
			price      int NOT NULL,
			updated_at timestamptz NOT NULL,
			rating     int NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS prices_code_updated_at_idx
			ON prices (code, updated_at DESC)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id         bigserial PRIMARY KEY,
			code       bigint NOT NULL REFERENCES products(code),
			size       double precision NOT NULL,
			count      int NOT NULL,
			updated_at timestamptz NOT NULL,
			rating     int NOT NULL
		)`, instock),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_code_size_updated_at_idx
			ON %s (code, size, updated_at DESC)`, instock, instock),
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
