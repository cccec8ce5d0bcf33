// Package memory holds the offline credential pool used when the
// durable backend is unreachable. State lives for the process lifetime
// only; the store flips to this backend once and stays there so a
// session never flaps between two inconsistent credential sets.
package memory

import (
	"context"
	"sync"
	"time"

	domain "github.com/akchatar/socialconnect-ai/internal/domain/credential"
)

type CredentialRepository struct {
	mu    sync.Mutex
	creds []*domain.Credential
}

func NewCredentialRepository(seed []*domain.Credential) *CredentialRepository {
	r := &CredentialRepository{}
	for _, c := range seed {
		cp := *c
		r.creds = append(r.creds, &cp)
	}
	return r
}

// List returns copies so callers never share mutable state with the repo
func (r *CredentialRepository) List(ctx context.Context) ([]*domain.Credential, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*domain.Credential, 0, len(r.creds))
	for _, c := range r.creds {
		cp := *c
		out = append(out, &cp)
	}
	return out, nil
}

func (r *CredentialRepository) Save(ctx context.Context, c *domain.Credential) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.creds {
		if existing.Secret == c.Secret {
			return domain.ErrDuplicateSecret
		}
	}
	cp := *c
	r.creds = append(r.creds, &cp)
	return nil
}

func (r *CredentialRepository) Remove(ctx context.Context, id domain.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.creds[:0]
	for _, c := range r.creds {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	r.creds = kept
	return nil
}

// RecordUsage mutates under the repo lock, which serializes concurrent
// callers the same way the SQL backends' single-statement updates do.
func (r *CredentialRepository) RecordUsage(ctx context.Context, id domain.ID, outcome domain.UsageOutcome, now time.Time, limitedUntil *time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, c := range r.creds {
		if c.ID != id {
			continue
		}
		if c.LastUsedAt != nil && sameDay(*c.LastUsedAt, now) {
			c.RequestsToday++
		} else {
			c.RequestsToday = 1
		}
		t := now
		c.LastUsedAt = &t
		if outcome == domain.OutcomeThrottled {
			c.IsRateLimited = true
			if limitedUntil != nil {
				u := *limitedUntil
				c.RateLimitedUntil = &u
			}
		}
		return nil
	}
	return nil
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
