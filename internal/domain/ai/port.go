package ai

import "context"

// Provider enum — which upstream serves a completion request
type Provider string

const (
	// ProviderGroq is the cloud provider (OpenAI-compatible chat completions, needs a key).
	ProviderGroq Provider = "groq"
	// ProviderOllama is the local provider (needs only a reachable endpoint).
	ProviderOllama Provider = "ollama"
)

// CompletionRequest carries one prompt to a provider.
type CompletionRequest struct {
	Prompt       string
	SystemPrompt string
	Temperature  float32
	MaxTokens    int
}

// Completion is the only output shape that crosses the dispatch boundary.
// Exactly one of Content / Err is meaningful; network and parse failures
// are captured into Err, never raised past the dispatcher.
type Completion struct {
	Content string `json:"content"`
	Err     string `json:"error,omitempty"`
}

// Client port — a single upstream provider.
// Implementations return the taxonomy errors from errors.go so the
// dispatcher can distinguish throttling from a bad key or a timeout.
type Client interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// KeyedClient port — a provider that authenticates per call, so the
// dispatcher can rotate pooled credentials between attempts.
type KeyedClient interface {
	CompleteWithKey(ctx context.Context, secret string, req CompletionRequest) (string, error)
}

// StatusChecker is implemented by providers that expose a cheap
// connectivity probe, used for diagnostics only.
type StatusChecker interface {
	CheckStatus(ctx context.Context) error
}
