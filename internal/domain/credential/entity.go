package credential

import (
	"time"
)

// ID tipe untuk Credential
type ID string

// UsageOutcome enum — result of a dispatch attempt, recorded against the key
type UsageOutcome string

const (
	OutcomeOK        UsageOutcome = "ok"
	OutcomeThrottled UsageOutcome = "throttled"
)

// Aggregate Root: Credential
// One rotatable API key of the cloud provider pool.
type Credential struct {
	ID               ID         `json:"id"`
	Secret           string     `json:"secret"`
	Label            string     `json:"label"`
	IsActive         bool       `json:"is_active"`
	IsRateLimited    bool       `json:"is_rate_limited"`
	RateLimitedUntil *time.Time `json:"rate_limited_until,omitempty"`
	RequestsToday    int        `json:"requests_today"`
	LastUsedAt       *time.Time `json:"last_used_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

// Usable reports whether the key may be handed out at the given instant.
// The stored rate-limit flag is advisory: once RateLimitedUntil has passed
// the key is eligible again even if the flag was never cleared.
func (c *Credential) Usable(now time.Time) bool {
	if !c.IsActive {
		return false
	}
	if c.IsRateLimited && c.RateLimitedUntil != nil && c.RateLimitedUntil.After(now) {
		return false
	}
	return true
}

// Redacted returns the secret in ***last4 form for logs and API responses.
func (c *Credential) Redacted() string {
	if len(c.Secret) <= 4 {
		return "***"
	}
	return "***" + c.Secret[len(c.Secret)-4:]
}

// PoolStats value object
type PoolStats struct {
	TotalKeys         int `json:"total_keys"`
	ActiveKeys        int `json:"active_keys"`
	RateLimitedKeys   int `json:"rate_limited_keys"`
	TotalRequestsToday int `json:"total_requests_today"`
}
