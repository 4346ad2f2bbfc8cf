package postgres

import (
	"context"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
)

// NewDB opens the connection pool and verifies connectivity.
func NewDB(ctx context.Context, databaseURL string) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	return db, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS proxies (
	id            BIGSERIAL PRIMARY KEY,
	old_ip        TEXT        NOT NULL,
	old_port      INTEGER     NOT NULL,
	new_domain    TEXT        NOT NULL UNIQUE,
	https_enabled BOOLEAN     NOT NULL DEFAULT FALSE,
	is_active     BOOLEAN     NOT NULL DEFAULT TRUE,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS api_keys (
	id          BIGSERIAL PRIMARY KEY,
	key         TEXT        NOT NULL UNIQUE,
	description TEXT        NOT NULL DEFAULT '',
	is_active   BOOLEAN     NOT NULL DEFAULT TRUE,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

// EnsureSchema creates the tables on first boot. The UNIQUE constraint on
// new_domain is load-bearing: the on-disk config keys on the domain name.
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensuring schema: %w", err)
	}
	return nil
}
