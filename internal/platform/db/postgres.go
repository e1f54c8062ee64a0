package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Execer runs a statement without returning rows.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

const auditSchema = `CREATE TABLE IF NOT EXISTS console_audit_logs (
	id          BIGSERIAL PRIMARY KEY,
	actor_id    BIGINT      NOT NULL,
	action      TEXT        NOT NULL,
	entity      TEXT        NOT NULL,
	entity_id   TEXT        NOT NULL,
	meta        JSONB,
	occurred_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS console_audit_logs_entity_idx ON console_audit_logs (entity, entity_id)`

// New opens the audit sink pool and verifies the server responds.
func New(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("platform/db: parse config: %w", err)
	}
	config.MaxConns = 4

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("platform/db: new pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("platform/db: ping: %w", err)
	}

	return pool, nil
}

// EnsureAuditSchema creates the audit table when it is missing.
func EnsureAuditSchema(ctx context.Context, db Execer) error {
	if _, err := db.Exec(ctx, auditSchema); err != nil {
		return fmt.Errorf("platform/db: audit schema: %w", err)
	}
	return nil
}
