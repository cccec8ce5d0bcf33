package groq

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/sashabaranov/go-openai"

	domai "github.com/akchatar/socialconnect-ai/internal/domain/ai"
)

const defaultMaxTokens = 8192

// Client talks to Groq's OpenAI-compatible chat completions API.
// The key is supplied per call so pooled credentials can rotate
// between attempts without rebuilding the client.
type Client struct {
	BaseURL string
	Model   string

	// HTTPClient overrides the transport, mainly for tests.
	HTTPClient *http.Client
}

func NewClient(baseURL, model string) *Client {
	return &Client{BaseURL: baseURL, Model: model}
}

var _ domai.KeyedClient = (*Client)(nil)

// CompleteWithKey issues one chat completion with the given secret.
// Provider status codes map onto the domain taxonomy: 429 is a quota
// problem tied to this key, 401 a dead key that must not be cooled down.
func (c *Client) CompleteWithKey(ctx context.Context, secret string, req domai.CompletionRequest) (string, error) {
	cfg := openai.DefaultConfig(secret)
	cfg.BaseURL = c.BaseURL
	if c.HTTPClient != nil {
		cfg.HTTPClient = c.HTTPClient
	}
	cli := openai.NewClientWithConfig(cfg)

	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if req.SystemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role: openai.ChatMessageRoleSystem, Content: req.SystemPrompt,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role: openai.ChatMessageRoleUser, Content: req.Prompt,
	})

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	resp, err := cli.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.Model,
		Messages:    messages,
		Temperature: req.Temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return "", mapError(err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty choices: %w", domai.ErrMalformedResponse)
	}
	return resp.Choices[0].Message.Content, nil
}

func mapError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusTooManyRequests:
			return fmt.Errorf("groq: %s: %w", apiErr.Message, domai.ErrQuotaExceeded)
		case http.StatusUnauthorized:
			return fmt.Errorf("groq: %s: %w", apiErr.Message, domai.ErrInvalidCredential)
		}
		return fmt.Errorf("groq error (%d): %s", apiErr.HTTPStatusCode, apiErr.Message)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("groq: %w", domai.ErrTimeout)
	}
	return err
}
