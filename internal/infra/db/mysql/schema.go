package mysql

import (
	"context"
	"database/sql"
)

// EnsureSchema creates the tables this service owns when they do not
// exist yet. Column shapes mirror the persisted credential record and
// the analysis audit record.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS ai_credentials (
  id VARCHAR(64) PRIMARY KEY,
  secret VARCHAR(255) NOT NULL,
  label VARCHAR(128) NOT NULL DEFAULT '-',
  is_active BOOLEAN NOT NULL DEFAULT TRUE,
  is_rate_limited BOOLEAN NOT NULL DEFAULT FALSE,
  rate_limited_until DATETIME NULL,
  requests_today INT NOT NULL DEFAULT 0,
  last_used_at DATETIME NULL,
  created_at DATETIME NOT NULL,
  UNIQUE KEY uq_ai_credentials_secret (secret)
) CHARACTER SET utf8mb4;`,
		`CREATE TABLE IF NOT EXISTS note_analyses (
  id VARCHAR(64) PRIMARY KEY,
  tenant_id VARCHAR(64) NOT NULL,
  provider VARCHAR(32) NOT NULL,
  note_length INT NOT NULL DEFAULT 0,
  result_json JSON NOT NULL,
  artifact_url VARCHAR(512) NULL,
  created_at DATETIME NOT NULL,
  KEY idx_note_analyses_tenant_created (tenant_id, created_at)
) CHARACTER SET utf8mb4;`,
	}
	for _, q := range stmts {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return err
		}
	}
	return nil
}
