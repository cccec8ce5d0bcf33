package analysis

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akchatar/socialconnect-ai/internal/application"
	"github.com/akchatar/socialconnect-ai/internal/application/credentials"
	domai "github.com/akchatar/socialconnect-ai/internal/domain/ai"
	domcred "github.com/akchatar/socialconnect-ai/internal/domain/credential"
	"github.com/akchatar/socialconnect-ai/internal/infra/db/memory"
)

// fakeCloud scripts per-secret behavior and records the keys it saw.
type fakeCloud struct {
	mu      sync.Mutex
	results map[string]fakeResult
	used    []string
}

type fakeResult struct {
	content string
	err     error
}

func (f *fakeCloud) CompleteWithKey(ctx context.Context, secret string, req domai.CompletionRequest) (string, error) {
	f.mu.Lock()
	f.used = append(f.used, secret)
	res := f.results[secret]
	f.mu.Unlock()
	return res.content, res.err
}

func (f *fakeCloud) usedKeys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.used...)
}

// blockingCloud parks until its context is cancelled.
type blockingCloud struct {
	started chan struct{}
}

func (b *blockingCloud) CompleteWithKey(ctx context.Context, secret string, req domai.CompletionRequest) (string, error) {
	b.started <- struct{}{}
	<-ctx.Done()
	return "", ctx.Err()
}

type fakeLocal struct {
	content string
	err     error
	calls   int
}

func (f *fakeLocal) Complete(ctx context.Context, req domai.CompletionRequest) (string, error) {
	f.calls++
	return f.content, f.err
}

func newDispatcher(t *testing.T, cloud domai.KeyedClient, local domai.Client, seed []*domcred.Credential) (*Dispatcher, *credentials.Service) {
	t.Helper()
	clock := &application.FixedClock{T: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)}
	repo := memory.NewCredentialRepository(seed)
	store := &credentials.Service{
		Durable:  repo,
		Fallback: repo,
		Clock:    clock,
		Cooldown: time.Minute,
	}
	return &Dispatcher{
		Default:     domai.ProviderGroq,
		Cloud:       cloud,
		Local:       local,
		Pool:        &credentials.Rotator{Store: store},
		Store:       store,
		UsePool:     true,
		MaxAttempts: 3,
		Temperature: 0.7,
	}, store
}

func poolSeed(secrets ...string) []*domcred.Credential {
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	out := make([]*domcred.Credential, 0, len(secrets))
	for i, s := range secrets {
		out = append(out, &domcred.Credential{
			ID:        domcred.ID(s),
			Secret:    s,
			IsActive:  true,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
	}
	return out
}

func TestCompleteRotatesOnThrottle(t *testing.T) {
	cloud := &fakeCloud{results: map[string]fakeResult{
		"gsk_key_one": {err: domai.ErrQuotaExceeded},
		"gsk_key_two": {content: "réponse du modèle"},
	}}
	d, store := newDispatcher(t, cloud, nil, poolSeed("gsk_key_one", "gsk_key_two"))

	comp := d.Complete(context.Background(), "note", "system", DispatchOptions{})

	assert.Empty(t, comp.Err)
	assert.Equal(t, "réponse du modèle", comp.Content)
	assert.Equal(t, []string{"gsk_key_one", "gsk_key_two"}, cloud.usedKeys())

	// The throttled key went on cool-down; the next dispatch skips it.
	list, err := store.List(context.Background())
	require.NoError(t, err)
	assert.True(t, list[0].IsRateLimited)
	require.NotNil(t, list[0].RateLimitedUntil)

	comp = d.Complete(context.Background(), "note", "system", DispatchOptions{})
	assert.Equal(t, "réponse du modèle", comp.Content)
	assert.Equal(t, []string{"gsk_key_one", "gsk_key_two", "gsk_key_two"}, cloud.usedKeys())
}

func TestCompleteRecordsSuccessfulUsage(t *testing.T) {
	cloud := &fakeCloud{results: map[string]fakeResult{
		"gsk_key_one": {content: "ok"},
	}}
	d, store := newDispatcher(t, cloud, nil, poolSeed("gsk_key_one"))

	comp := d.Complete(context.Background(), "note", "", DispatchOptions{})
	require.Empty(t, comp.Err)

	list, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, list[0].RequestsToday)
	assert.NotNil(t, list[0].LastUsedAt)
}

func TestCompleteSingleKeyThrottledIsExhausted(t *testing.T) {
	cloud := &fakeCloud{results: map[string]fakeResult{
		"gsk_single": {err: domai.ErrQuotaExceeded},
	}}
	d, _ := newDispatcher(t, cloud, nil, nil)
	d.UsePool = false
	d.SingleKey = "gsk_single"

	comp := d.Complete(context.Background(), "note", "", DispatchOptions{})
	assert.Equal(t, "Toutes les clés API sont limitées, réessayez plus tard", comp.Err)
}

func TestCompleteNoKeyConfigured(t *testing.T) {
	cloud := &fakeCloud{results: map[string]fakeResult{}}
	d, _ := newDispatcher(t, cloud, nil, nil)
	d.UsePool = false

	comp := d.Complete(context.Background(), "note", "", DispatchOptions{})
	assert.Equal(t, "Aucune clé API disponible", comp.Err)
}

func TestCompleteDrainedPoolFallsBackToLocal(t *testing.T) {
	cloud := &fakeCloud{results: map[string]fakeResult{}}
	local := &fakeLocal{content: "réponse locale"}
	d, _ := newDispatcher(t, cloud, local, nil)

	comp := d.Complete(context.Background(), "note", "", DispatchOptions{})

	assert.Equal(t, "réponse locale", comp.Content)
	assert.Equal(t, 1, local.calls)
	assert.Empty(t, cloud.usedKeys(), "no cloud attempt without a key")
}

func TestCompleteDrainedPoolWithoutLocal(t *testing.T) {
	cloud := &fakeCloud{results: map[string]fakeResult{}}
	d, _ := newDispatcher(t, cloud, nil, nil)

	comp := d.Complete(context.Background(), "note", "", DispatchOptions{})
	assert.Equal(t, "Toutes les clés API sont limitées, réessayez plus tard", comp.Err)
}

func TestCompleteAllKeysThrottled(t *testing.T) {
	cloud := &fakeCloud{results: map[string]fakeResult{
		"gsk_key_one": {err: domai.ErrQuotaExceeded},
		"gsk_key_two": {err: domai.ErrQuotaExceeded},
	}}
	local := &fakeLocal{content: "réponse locale"}
	d, _ := newDispatcher(t, cloud, local, poolSeed("gsk_key_one", "gsk_key_two"))

	comp := d.Complete(context.Background(), "note", "", DispatchOptions{})

	// Both keys observed a 429, then the drained pool degrades locally.
	assert.Equal(t, "réponse locale", comp.Content)
	assert.Equal(t, []string{"gsk_key_one", "gsk_key_two"}, cloud.usedKeys())
}

func TestCompleteInvalidKeyStopsRotation(t *testing.T) {
	cloud := &fakeCloud{results: map[string]fakeResult{
		"gsk_key_one": {err: domai.ErrInvalidCredential},
	}}
	d, _ := newDispatcher(t, cloud, nil, poolSeed("gsk_key_one", "gsk_key_two"))

	comp := d.Complete(context.Background(), "note", "", DispatchOptions{})

	assert.Equal(t, "Clé API invalide, vérifiez la configuration", comp.Err)
	assert.Equal(t, []string{"gsk_key_one"}, cloud.usedKeys(), "a dead key is a config problem, not a rotation trigger")
}

func TestCompleteLastCallerWins(t *testing.T) {
	cloud := &blockingCloud{started: make(chan struct{}, 1)}
	d, store := newDispatcher(t, cloud, nil, poolSeed("gsk_key_one"))

	firstDone := make(chan domai.Completion, 1)
	go func() {
		firstDone <- d.Complete(context.Background(), "première note", "", DispatchOptions{})
	}()
	<-cloud.started

	d.Abort()

	comp := <-firstDone
	assert.Equal(t, "Requête annulée", comp.Err)

	// A cancelled attempt observed nothing; the key's counters are untouched.
	list, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, list[0].RequestsToday)
	assert.Nil(t, list[0].LastUsedAt)
}

func TestCompleteNewCallCancelsPrevious(t *testing.T) {
	block := &blockingCloud{started: make(chan struct{}, 1)}
	d, _ := newDispatcher(t, block, nil, poolSeed("gsk_key_one"))

	firstDone := make(chan domai.Completion, 1)
	go func() {
		firstDone <- d.Complete(context.Background(), "première note", "", DispatchOptions{})
	}()
	<-block.started

	// The second call takes over the in-flight slot.
	fast := &fakeCloud{results: map[string]fakeResult{
		"gsk_key_one": {content: "seconde réponse"},
	}}
	d.Cloud = fast
	second := d.Complete(context.Background(), "seconde note", "", DispatchOptions{})

	assert.Equal(t, "seconde réponse", second.Content)
	first := <-firstDone
	assert.Equal(t, "Requête annulée", first.Err)
}

func TestCompleteCallTimeout(t *testing.T) {
	cloud := &blockingCloud{started: make(chan struct{}, 1)}
	d, _ := newDispatcher(t, cloud, nil, poolSeed("gsk_key_one"))

	done := make(chan domai.Completion, 1)
	go func() {
		done <- d.Complete(context.Background(), "note", "", DispatchOptions{Timeout: 10 * time.Millisecond})
	}()
	<-cloud.started

	comp := <-done
	assert.NotEmpty(t, comp.Err)
	assert.NotEqual(t, "Requête annulée", comp.Err, "a deadline is a timeout, not a cancellation")
}

func TestCompleteForceProviderLocal(t *testing.T) {
	cloud := &fakeCloud{results: map[string]fakeResult{}}
	local := &fakeLocal{content: "locale"}
	d, _ := newDispatcher(t, cloud, local, poolSeed("gsk_key_one"))

	comp := d.Complete(context.Background(), "note", "", DispatchOptions{ForceProvider: domai.ProviderOllama})

	assert.Equal(t, "locale", comp.Content)
	assert.Empty(t, cloud.usedKeys())
}
