package credentials

import (
	"context"

	domain "github.com/akchatar/socialconnect-ai/internal/domain/credential"
)

// Rotator picks the next usable key out of the pool.
//
// Selection is least-recently-used over the eligible keys: never-used
// keys count as oldest, ties fall back to creation order. That yields
// round-robin fairness without a separate cursor, and it keeps working
// when keys join or leave the pool mid-session.
type Rotator struct {
	Store *Service
}

// SelectNext returns the next eligible credential, skipping ids in
// exclude (keys that already failed within the current dispatch).
// Returns credential.ErrNoneAvailable when the pool is exhausted;
// callers must fall back instead of blocking.
func (r *Rotator) SelectNext(ctx context.Context, exclude map[domain.ID]bool) (*domain.Credential, error) {
	creds, err := r.Store.List(ctx)
	if err != nil {
		return nil, err
	}

	now := r.Store.Clock.Now()
	var best *domain.Credential
	for _, c := range creds {
		if exclude[c.ID] || !c.Usable(now) {
			continue
		}
		if best == nil || olderUse(c, best) {
			best = c
		}
	}
	if best == nil {
		return nil, domain.ErrNoneAvailable
	}
	return best, nil
}

// olderUse reports whether a was used longer ago than b (nil = never = oldest).
func olderUse(a, b *domain.Credential) bool {
	switch {
	case a.LastUsedAt == nil && b.LastUsedAt == nil:
		return false // keep earlier-listed key on ties
	case a.LastUsedAt == nil:
		return true
	case b.LastUsedAt == nil:
		return false
	default:
		return a.LastUsedAt.Before(*b.LastUsedAt)
	}
}
