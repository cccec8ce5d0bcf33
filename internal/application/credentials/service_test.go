package credentials

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akchatar/socialconnect-ai/internal/application"
	domain "github.com/akchatar/socialconnect-ai/internal/domain/credential"
	"github.com/akchatar/socialconnect-ai/internal/infra/db/memory"
)

// brokenRepo fails every call, standing in for an unreachable database.
type brokenRepo struct{}

var errDown = errors.New("connection refused")

func (brokenRepo) List(ctx context.Context) ([]*domain.Credential, error) { return nil, errDown }
func (brokenRepo) Save(ctx context.Context, c *domain.Credential) error  { return errDown }
func (brokenRepo) Remove(ctx context.Context, id domain.ID) error        { return errDown }
func (brokenRepo) RecordUsage(ctx context.Context, id domain.ID, outcome domain.UsageOutcome, now time.Time, limitedUntil *time.Time) error {
	return errDown
}

func TestAddRejectsBadSecrets(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	_, err := svc.Add(ctx, "sk-wrong-prefix-0123456789", "x")
	assert.ErrorIs(t, err, domain.ErrInvalidSecret)

	_, err = svc.Add(ctx, "gsk_short", "x")
	assert.ErrorIs(t, err, domain.ErrInvalidSecret)

	_, err = svc.Add(ctx, "", "x")
	assert.ErrorIs(t, err, domain.ErrInvalidSecret)
}

func TestAddDefaultsLabelAndStores(t *testing.T) {
	svc, clock := newTestService(t, nil)

	c, err := svc.Add(context.Background(), "gsk_0123456789abcdef", "  ")
	require.NoError(t, err)
	assert.NotEmpty(t, c.ID)
	assert.Equal(t, "Sans nom", c.Label)
	assert.True(t, c.IsActive)
	assert.Equal(t, clock.T, c.CreatedAt)

	list, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, c.ID, list[0].ID)
}

func TestAddDuplicateSecret(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	_, err := svc.Add(ctx, "gsk_0123456789abcdef", "first")
	require.NoError(t, err)

	_, err = svc.Add(ctx, "gsk_0123456789abcdef", "second")
	assert.ErrorIs(t, err, domain.ErrDuplicateSecret)
	assert.False(t, svc.FallbackMode(), "a conflict is not a backend failure")
}

func TestRemoveIsIdempotent(t *testing.T) {
	svc, _ := newTestService(t, seedKeys("a"))
	ctx := context.Background()

	require.NoError(t, svc.Remove(ctx, "a"))
	require.NoError(t, svc.Remove(ctx, "a"))

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestRecordUsageThrottledAppliesCooldown(t *testing.T) {
	svc, clock := newTestService(t, seedKeys("a"))
	ctx := context.Background()

	require.NoError(t, svc.RecordUsage(ctx, "a", domain.OutcomeThrottled, 0))

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	c := list[0]
	assert.True(t, c.IsRateLimited)
	require.NotNil(t, c.RateLimitedUntil)
	assert.Equal(t, clock.T.Add(svc.Cooldown), *c.RateLimitedUntil)
	assert.Equal(t, 1, c.RequestsToday)
	assert.False(t, c.Usable(clock.T))
	assert.True(t, c.Usable(clock.T.Add(61*time.Second)))
}

func TestRecordUsageRetryAfterOverridesCooldown(t *testing.T) {
	svc, clock := newTestService(t, seedKeys("a"))

	require.NoError(t, svc.RecordUsage(context.Background(), "a", domain.OutcomeThrottled, 5*time.Minute))

	list, err := svc.List(context.Background())
	require.NoError(t, err)
	require.NotNil(t, list[0].RateLimitedUntil)
	assert.Equal(t, clock.T.Add(5*time.Minute), *list[0].RateLimitedUntil)
}

func TestRecordUsageResetsCounterAcrossDays(t *testing.T) {
	svc, clock := newTestService(t, seedKeys("a"))
	ctx := context.Background()

	require.NoError(t, svc.RecordUsage(ctx, "a", domain.OutcomeOK, 0))
	require.NoError(t, svc.RecordUsage(ctx, "a", domain.OutcomeOK, 0))

	list, _ := svc.List(ctx)
	assert.Equal(t, 2, list[0].RequestsToday)

	clock.Advance(24 * time.Hour)
	require.NoError(t, svc.RecordUsage(ctx, "a", domain.OutcomeOK, 0))

	list, _ = svc.List(ctx)
	assert.Equal(t, 1, list[0].RequestsToday)
}

func TestFallbackModeIsSticky(t *testing.T) {
	clock := &application.FixedClock{T: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)}
	fallback := memory.NewCredentialRepository(seedKeys("seeded"))
	svc := &Service{
		Durable:  brokenRepo{},
		Fallback: fallback,
		Clock:    clock,
		Cooldown: time.Minute,
	}
	ctx := context.Background()

	list, err := svc.List(ctx)
	require.NoError(t, err, "first failure degrades and answers from the offline pool")
	assert.Len(t, list, 1)
	assert.True(t, svc.FallbackMode())

	// Later writes stay on the fallback even though the durable repo
	// would now "work" — the mode never flips back within a session.
	c, err := svc.Add(ctx, "gsk_0123456789abcdef", "added offline")
	require.NoError(t, err)

	list, err = svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)
	require.NoError(t, svc.Remove(ctx, c.ID))
}

func TestStatsAggregatesPool(t *testing.T) {
	svc, _ := newTestService(t, seedKeys("a", "b", "c"))
	ctx := context.Background()

	require.NoError(t, svc.RecordUsage(ctx, "a", domain.OutcomeOK, 0))
	require.NoError(t, svc.RecordUsage(ctx, "a", domain.OutcomeOK, 0))
	require.NoError(t, svc.RecordUsage(ctx, "b", domain.OutcomeThrottled, 0))

	st, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, st.TotalKeys)
	assert.Equal(t, 2, st.ActiveKeys)
	assert.Equal(t, 1, st.RateLimitedKeys)
	assert.Equal(t, 3, st.TotalRequestsToday)
}

func TestRedacted(t *testing.T) {
	c := domain.Credential{Secret: "gsk_0123456789abcdef"}
	assert.Equal(t, "***cdef", c.Redacted())

	c.Secret = "abc"
	assert.Equal(t, "***", c.Redacted())
}
