package credentials

import (
	"context"
	"log"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/akchatar/socialconnect-ai/internal/application"
	domain "github.com/akchatar/socialconnect-ai/internal/domain/credential"
)

// SecretPrefix is the key format the cloud provider hands out.
const SecretPrefix = "gsk_"

// Service implements the credential pool use-cases.
// Service is designed to be used concurrently and is thread-safe.
//
// Every operation goes to the durable backend first. The first backend
// failure flips the service into fallback mode for the rest of the
// process lifetime; flapping between two inconsistent credential sets
// within one session would be worse than staying offline.
type Service struct {
	Durable  domain.Repository
	Fallback domain.Repository
	Clock    application.Clock
	Cooldown time.Duration

	fallbackMode atomic.Bool
}

// FallbackMode reports whether the durable backend has been abandoned
// for this process.
func (s *Service) FallbackMode() bool {
	return s.fallbackMode.Load()
}

func (s *Service) repo() domain.Repository {
	if s.fallbackMode.Load() {
		return s.Fallback
	}
	return s.Durable
}

// degrade switches to the fallback backend after a durable failure.
func (s *Service) degrade(op string, err error) {
	if s.fallbackMode.CompareAndSwap(false, true) {
		log.Printf("credential store degraded op=%s err=%v (switching to offline pool)", op, err)
	}
}

// List returns every known credential from whichever backend is live.
func (s *Service) List(ctx context.Context) ([]*domain.Credential, error) {
	creds, err := s.repo().List(ctx)
	if err != nil && !s.fallbackMode.Load() {
		s.degrade("list", err)
		return s.Fallback.List(ctx)
	}
	return creds, err
}

// Add validates and stores a new credential.
func (s *Service) Add(ctx context.Context, secret, label string) (*domain.Credential, error) {
	secret = strings.TrimSpace(secret)
	if !strings.HasPrefix(secret, SecretPrefix) || len(secret) < len(SecretPrefix)+10 {
		return nil, domain.ErrInvalidSecret
	}
	if strings.TrimSpace(label) == "" {
		label = "Sans nom"
	}

	c := &domain.Credential{
		ID:        domain.ID(uuid.New().String()),
		Secret:    secret,
		Label:     label,
		IsActive:  true,
		CreatedAt: s.Clock.Now(),
	}

	err := s.repo().Save(ctx, c)
	if err != nil && err != domain.ErrDuplicateSecret && !s.fallbackMode.Load() {
		s.degrade("add", err)
		err = s.Fallback.Save(ctx, c)
	}
	if err != nil {
		return nil, err
	}
	log.Printf("credential added id=%s label=%s secret=%s", c.ID, c.Label, c.Redacted())
	return c, nil
}

// Remove deletes a credential. Removing an id that no longer exists is
// a no-op so concurrent administrators cannot fail each other.
func (s *Service) Remove(ctx context.Context, id domain.ID) error {
	err := s.repo().Remove(ctx, id)
	if err != nil && !s.fallbackMode.Load() {
		s.degrade("remove", err)
		return s.Fallback.Remove(ctx, id)
	}
	return err
}

// RecordUsage counts one dispatch attempt against the key. A throttled
// outcome additionally puts the key on cool-down: retryAfter when the
// provider reported one, the policy window otherwise.
func (s *Service) RecordUsage(ctx context.Context, id domain.ID, outcome domain.UsageOutcome, retryAfter time.Duration) error {
	now := s.Clock.Now()

	var limitedUntil *time.Time
	if outcome == domain.OutcomeThrottled {
		window := s.Cooldown
		if retryAfter > 0 {
			window = retryAfter
		}
		t := now.Add(window)
		limitedUntil = &t
	}

	err := s.repo().RecordUsage(ctx, id, outcome, now, limitedUntil)
	if err != nil && !s.fallbackMode.Load() {
		s.degrade("record_usage", err)
		return s.Fallback.RecordUsage(ctx, id, outcome, now, limitedUntil)
	}
	return err
}

// Stats aggregates the pool counters for the admin surface.
func (s *Service) Stats(ctx context.Context) (domain.PoolStats, error) {
	creds, err := s.List(ctx)
	if err != nil {
		return domain.PoolStats{}, err
	}
	now := s.Clock.Now()
	st := domain.PoolStats{TotalKeys: len(creds)}
	for _, c := range creds {
		if c.Usable(now) {
			st.ActiveKeys++
		} else if c.IsActive {
			st.RateLimitedKeys++
		}
		st.TotalRequestsToday += c.RequestsToday
	}
	return st, nil
}
