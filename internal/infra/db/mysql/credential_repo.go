package mysql

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-sql-driver/mysql"

	domain "github.com/akchatar/socialconnect-ai/internal/domain/credential"
)

type CredentialRepository struct {
	db *sql.DB
}

func NewCredentialRepository(db *sql.DB) *CredentialRepository {
	return &CredentialRepository{db: db}
}

// List returns every credential, oldest first
func (r *CredentialRepository) List(ctx context.Context) ([]*domain.Credential, error) {
	const q = `
SELECT id, secret, label, is_active, is_rate_limited, rate_limited_until,
       requests_today, last_used_at, created_at
FROM ai_credentials
ORDER BY created_at ASC, id ASC;
`
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

// Save inserts a credential. The unique index on secret maps duplicate
// inserts onto the domain conflict error.
func (r *CredentialRepository) Save(ctx context.Context, c *domain.Credential) error {
	const q = `
INSERT INTO ai_credentials
  (id, secret, label, is_active, is_rate_limited, rate_limited_until,
   requests_today, last_used_at, created_at)
VALUES (?,?,?,?,?,?,?,?,?);
`
	label := stringOrDash(c.Label)
	createdAt := c.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := r.db.ExecContext(ctx, q,
		c.ID, c.Secret, label, c.IsActive, c.IsRateLimited, nullableTime(c.RateLimitedUntil),
		c.RequestsToday, nullableTime(c.LastUsedAt), createdAt,
	)
	if me, ok := err.(*mysql.MySQLError); ok && me.Number == 1062 {
		return domain.ErrDuplicateSecret
	}
	return err
}

// Remove deletes by id; removing an unknown id is a no-op
func (r *CredentialRepository) Remove(ctx context.Context, id domain.ID) error {
	const q = `DELETE FROM ai_credentials WHERE id=?;`
	_, err := r.db.ExecContext(ctx, q, id)
	return err
}

// RecordUsage bumps the usage counters in a single statement so that
// concurrent callers cannot lose updates. The daily counter restarts
// when the previous use was on an earlier day.
func (r *CredentialRepository) RecordUsage(ctx context.Context, id domain.ID, outcome domain.UsageOutcome, now time.Time, limitedUntil *time.Time) error {
	const q = `
UPDATE ai_credentials SET
  requests_today = IF(last_used_at IS NOT NULL AND DATE(last_used_at) = DATE(?), requests_today + 1, 1),
  last_used_at = ?,
  is_rate_limited = IF(?, TRUE, is_rate_limited),
  rate_limited_until = IF(?, ?, rate_limited_until)
WHERE id=?;
`
	throttled := outcome == domain.OutcomeThrottled
	_, err := r.db.ExecContext(ctx, q, now, now, throttled, throttled, nullableTime(limitedUntil), id)
	return err
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}
