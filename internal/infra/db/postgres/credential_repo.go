package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	domain "github.com/akchatar/socialconnect-ai/internal/domain/credential"
)

type CredentialRepository struct{ db *sql.DB }

func NewCredentialRepository(db *sql.DB) *CredentialRepository { return &CredentialRepository{db: db} }

// List returns every credential, oldest first
func (r *CredentialRepository) List(ctx context.Context) ([]*domain.Credential, error) {
	const q = `
SELECT id, secret, label, is_active, is_rate_limited, rate_limited_until,
       requests_today, last_used_at, created_at
FROM ai_credentials
ORDER BY created_at ASC, id ASC;`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Credential
	for rows.Next() {
		var c domain.Credential
		var limitedUntil, lastUsed sql.NullTime
		if err := rows.Scan(
			&c.ID, &c.Secret, &c.Label, &c.IsActive, &c.IsRateLimited,
			&limitedUntil, &c.RequestsToday, &lastUsed, &c.CreatedAt,
		); err != nil {
			return nil, err
		}
		if limitedUntil.Valid {
			t := limitedUntil.Time
			c.RateLimitedUntil = &t
		}
		if lastUsed.Valid {
			t := lastUsed.Time
			c.LastUsedAt = &t
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}

// Save inserts a credential; unique_violation maps to the domain conflict error
func (r *CredentialRepository) Save(ctx context.Context, c *domain.Credential) error {
	const q = `
INSERT INTO ai_credentials
  (id, secret, label, is_active, is_rate_limited, rate_limited_until,
   requests_today, last_used_at, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9);`

	label := c.Label
	if label == "" {
		label = "-"
	}
	createdAt := c.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := r.db.ExecContext(ctx, q,
		c.ID, c.Secret, label, c.IsActive, c.IsRateLimited, nullableTime(c.RateLimitedUntil),
		c.RequestsToday, nullableTime(c.LastUsedAt), createdAt,
	)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return domain.ErrDuplicateSecret
	}
	return err
}

// Remove deletes by id; removing an unknown id is a no-op
func (r *CredentialRepository) Remove(ctx context.Context, id domain.ID) error {
	const q = `DELETE FROM ai_credentials WHERE id=$1;`
	_, err := r.db.ExecContext(ctx, q, id)
	return err
}

// RecordUsage bumps the usage counters atomically in one statement
func (r *CredentialRepository) RecordUsage(ctx context.Context, id domain.ID, outcome domain.UsageOutcome, now time.Time, limitedUntil *time.Time) error {
	const q = `
UPDATE ai_credentials SET
  requests_today = CASE WHEN last_used_at IS NOT NULL AND last_used_at::date = $1::date
                        THEN requests_today + 1 ELSE 1 END,
  last_used_at = $1,
  is_rate_limited = CASE WHEN $2 THEN TRUE ELSE is_rate_limited END,
  rate_limited_until = CASE WHEN $2 THEN $3 ELSE rate_limited_until END
WHERE id=$4;`
	throttled := outcome == domain.OutcomeThrottled
	_, err := r.db.ExecContext(ctx, q, now, throttled, nullableTime(limitedUntil), id)
	return err
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}
