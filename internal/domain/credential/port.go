package credential

import (
	"context"
	"time"
)

// Repository port (interface untuk persistence)
type Repository interface {
	List(ctx context.Context) ([]*Credential, error)
	Save(ctx context.Context, c *Credential) error
	Remove(ctx context.Context, id ID) error

	// RecordUsage must be atomic on the backend: increment requests_today
	// (resetting it first when the previous use was on an earlier day),
	// set last_used_at, and on a throttled outcome set the rate-limit flag
	// with the given expiry. Lost updates between concurrent callers would
	// let two sessions hand out an already-throttled key.
	RecordUsage(ctx context.Context, id ID, outcome UsageOutcome, now time.Time, limitedUntil *time.Time) error
}
