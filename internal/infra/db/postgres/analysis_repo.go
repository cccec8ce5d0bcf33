package postgres

import (
	"context"
	"database/sql"
	"strings"
	"time"

	domain "github.com/akchatar/socialconnect-ai/internal/domain/analysis"
)

type AnalysisRepository struct{ db *sql.DB }

func NewAnalysisRepository(db *sql.DB) *AnalysisRepository { return &AnalysisRepository{db: db} }

// Save inserts an analysis audit record
func (r *AnalysisRepository) Save(ctx context.Context, a *domain.Record) error {
	const q = `
INSERT INTO note_analyses
  (id, tenant_id, provider, note_length, result_json, artifact_url, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (id) DO UPDATE SET
  provider = EXCLUDED.provider,
  result_json = EXCLUDED.result_json,
  artifact_url = EXCLUDED.artifact_url;`

	tenant := a.TenantID
	if strings.TrimSpace(tenant) == "" {
		tenant = "-"
	}
	result := a.ResultJSON
	if strings.TrimSpace(result) == "" {
		result = "{}"
	}
	createdAt := a.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := r.db.ExecContext(ctx, q, a.ID, tenant, a.Provider, a.NoteLength, result, a.ArtifactURL, createdAt)
	return err
}

// Paginate returns a page of analysis records ordered by created_at desc
func (r *AnalysisRepository) Paginate(ctx context.Context, tenant string, page, pageSize int) ([]*domain.Record, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	const q = `
SELECT id, tenant_id, provider, note_length, result_json, artifact_url, created_at
FROM note_analyses
WHERE tenant_id=$1
ORDER BY created_at DESC, id DESC
LIMIT $2 OFFSET $3;`
	rows, err := r.db.QueryContext(ctx, q, tenant, pageSize, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Record
	for rows.Next() {
		var a domain.Record
		var artifact sql.NullString
		var created time.Time
		if err := rows.Scan(&a.ID, &a.TenantID, &a.Provider, &a.NoteLength, &a.ResultJSON, &artifact, &created); err != nil {
			return nil, err
		}
		a.ArtifactURL = artifact.String
		a.CreatedAt = created
		out = append(out, &a)
	}
	return out, rows.Err()
}
