package analysis

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/akchatar/socialconnect-ai/internal/application/credentials"
	domai "github.com/akchatar/socialconnect-ai/internal/domain/ai"
	domcred "github.com/akchatar/socialconnect-ai/internal/domain/credential"
)

// DispatchOptions override the dispatcher defaults for one call.
type DispatchOptions struct {
	Temperature   *float32
	MaxTokens     int
	Timeout       time.Duration  // 0 = no call-level ceiling
	ForceProvider domai.Provider // empty = configured default
}

// Dispatcher issues a single completion against one of the two
// interchangeable providers. It never returns an error: every failure
// is folded into the Completion's Err field so the caller can decide
// whether to retry, degrade to rule-only output, or show a message.
//
// One dispatcher instance tracks at most one in-flight completion.
// Issuing a new call cancels the previous one (last caller wins), and
// Abort cancels from outside. A cancelled attempt yields the Cancelled
// message and nothing else; usage counters are only touched for
// responses that were actually observed.
type Dispatcher struct {
	Default     domai.Provider
	Cloud       domai.KeyedClient
	Local       domai.Client
	Pool        *credentials.Rotator
	Store       *credentials.Service
	UsePool     bool
	SingleKey   string
	MaxAttempts int
	Temperature float32

	mu       sync.Mutex
	gen      uint64
	inflight context.CancelFunc
}

// User-facing messages; the frontend is French.
const (
	msgCancelled = "Requête annulée"
	msgNoKey     = "Aucune clé API disponible"
	msgExhausted = "Toutes les clés API sont limitées, réessayez plus tard"
	msgBadKey    = "Clé API invalide, vérifiez la configuration"
)

// Complete resolves a provider and runs one completion to an outcome.
func (d *Dispatcher) Complete(ctx context.Context, prompt, systemPrompt string, opts DispatchOptions) domai.Completion {
	ctx, done := d.begin(ctx)
	defer done()

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	provider := opts.ForceProvider
	if provider == "" {
		provider = d.Default
	}

	req := domai.CompletionRequest{
		Prompt:       prompt,
		SystemPrompt: systemPrompt,
		Temperature:  d.Temperature,
		MaxTokens:    opts.MaxTokens,
	}
	if opts.Temperature != nil {
		req.Temperature = *opts.Temperature
	}

	switch provider {
	case domai.ProviderGroq:
		return d.completeCloud(ctx, req)
	default:
		return d.completeLocal(ctx, req)
	}
}

// Abort cancels the in-flight completion, if any.
func (d *Dispatcher) Abort() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.inflight != nil {
		d.inflight()
		d.inflight = nil
	}
}

// begin registers this call as the single tracked in-flight completion,
// cancelling whichever call held that slot before.
func (d *Dispatcher) begin(ctx context.Context) (context.Context, func()) {
	ctx, cancel := context.WithCancel(ctx)

	d.mu.Lock()
	if d.inflight != nil {
		d.inflight()
	}
	d.gen++
	myGen := d.gen
	d.inflight = cancel
	d.mu.Unlock()

	return ctx, func() {
		d.mu.Lock()
		if d.gen == myGen {
			d.inflight = nil
		}
		d.mu.Unlock()
		cancel()
	}
}

func (d *Dispatcher) completeLocal(ctx context.Context, req domai.CompletionRequest) domai.Completion {
	if d.Local == nil {
		return domai.Completion{Err: "local provider not configured"}
	}
	content, err := d.Local.Complete(ctx, req)
	return toCompletion(content, err)
}

// completeCloud runs the select-dispatch-record cycle, rotating to the
// next key on a throttle up to MaxAttempts times. Selection plus the
// dispatch attempt behave as one logical operation: a key that turns
// out to still be throttled upstream triggers an immediate re-selection
// that excludes it, instead of surfacing the 429.
func (d *Dispatcher) completeCloud(ctx context.Context, req domai.CompletionRequest) domai.Completion {
	attempts := d.MaxAttempts
	if attempts <= 0 {
		attempts = 3
	}

	exclude := make(map[domcred.ID]bool)
	poolDrained := false

	for attempt := 0; attempt < attempts; attempt++ {
		secret := d.SingleKey
		var credID domcred.ID

		if d.UsePool && d.Pool != nil && !poolDrained {
			cred, err := d.Pool.SelectNext(ctx, exclude)
			switch {
			case err == nil:
				secret = cred.Secret
				credID = cred.ID
			case errors.Is(err, domcred.ErrNoneAvailable):
				// Single configured key, then the local provider,
				// before giving up.
				poolDrained = true
				if secret == "" {
					if d.Local != nil {
						log.Printf("credential pool drained, falling back to local provider")
						return d.completeLocal(ctx, req)
					}
					return domai.Completion{Err: msgExhausted}
				}
			default:
				return domai.Completion{Err: fmt.Sprintf("credential selection failed: %v", err)}
			}
		}
		if secret == "" {
			return domai.Completion{Err: msgNoKey}
		}

		content, err := d.Cloud.CompleteWithKey(ctx, secret, req)

		// A cancelled attempt observed no response; there is nothing to
		// record against the key and no result to deliver.
		if errors.Is(err, context.Canceled) {
			return domai.Completion{Err: msgCancelled}
		}

		if credID != "" {
			d.recordUsage(ctx, credID, err)
		}

		switch {
		case err == nil:
			return domai.Completion{Content: content}
		case errors.Is(err, domai.ErrQuotaExceeded):
			if credID == "" {
				// Single-key mode has nothing to rotate to.
				return domai.Completion{Err: msgExhausted}
			}
			log.Printf("credential throttled id=%s, rotating to next key", credID)
			exclude[credID] = true
			continue
		case errors.Is(err, domai.ErrInvalidCredential):
			log.Printf("credential rejected by provider id=%s", credID)
			return domai.Completion{Err: msgBadKey}
		default:
			return toCompletion("", err)
		}
	}

	return domai.Completion{Err: msgExhausted}
}

// recordUsage books the observed outcome against the key. The call
// context may already be cancelled (cancellation suppresses delivery,
// not side effects already observed), so recording runs detached.
func (d *Dispatcher) recordUsage(ctx context.Context, id domcred.ID, callErr error) {
	if d.Store == nil {
		return
	}
	outcome := domcred.OutcomeOK
	if errors.Is(callErr, domai.ErrQuotaExceeded) {
		outcome = domcred.OutcomeThrottled
	}
	if err := d.Store.RecordUsage(context.WithoutCancel(ctx), id, outcome, 0); err != nil {
		log.Printf("record usage failed id=%s err=%v", id, err)
	}
}

func toCompletion(content string, err error) domai.Completion {
	switch {
	case err == nil:
		return domai.Completion{Content: content}
	case errors.Is(err, context.Canceled):
		return domai.Completion{Err: msgCancelled}
	default:
		return domai.Completion{Err: err.Error()}
	}
}
