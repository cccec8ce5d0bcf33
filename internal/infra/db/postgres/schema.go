package postgres

import (
	"context"
	"database/sql"
)

// EnsureSchema creates the tables this service owns when they do not
// exist yet. Mirrors the MySQL schema with Postgres types.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS ai_credentials (
  id VARCHAR(64) PRIMARY KEY,
  secret VARCHAR(255) NOT NULL UNIQUE,
  label VARCHAR(128) NOT NULL DEFAULT '-',
  is_active BOOLEAN NOT NULL DEFAULT TRUE,
  is_rate_limited BOOLEAN NOT NULL DEFAULT FALSE,
  rate_limited_until TIMESTAMPTZ NULL,
  requests_today INT NOT NULL DEFAULT 0,
  last_used_at TIMESTAMPTZ NULL,
  created_at TIMESTAMPTZ NOT NULL
);`,
		`CREATE TABLE IF NOT EXISTS note_analyses (
  id VARCHAR(64) PRIMARY KEY,
  tenant_id VARCHAR(64) NOT NULL,
  provider VARCHAR(32) NOT NULL,
  note_length INT NOT NULL DEFAULT 0,
  result_json JSONB NOT NULL,
  artifact_url VARCHAR(512) NULL,
  created_at TIMESTAMPTZ NOT NULL
);`,
		`CREATE INDEX IF NOT EXISTS idx_note_analyses_tenant_created
  ON note_analyses (tenant_id, created_at);`,
	}
	for _, q := range stmts {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return err
		}
	}
	return nil
}
