package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	domai "github.com/akchatar/socialconnect-ai/internal/domain/ai"
)

// Client talks to a local Ollama server over its plain HTTP API.
// Ollama has no built-in request timeout, so every call carries a
// client-side deadline; without one a wedged server would hang the
// caller forever.
type Client struct {
	Endpoint string
	Model    string
	Timeout  time.Duration

	HTTPClient *http.Client
}

func NewClient(endpoint, model string, timeout time.Duration) *Client {
	return &Client{
		Endpoint:   strings.TrimRight(endpoint, "/"),
		Model:      model,
		Timeout:    timeout,
		HTTPClient: &http.Client{},
	}
}

var (
	_ domai.Client        = (*Client)(nil)
	_ domai.StatusChecker = (*Client)(nil)
)

type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	System  string          `json:"system,omitempty"`
	Stream  bool            `json:"stream"`
	Options generateOptions `json:"options"`
}

type generateOptions struct {
	Temperature float32 `json:"temperature"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// Complete POSTs one non-streaming generate request.
func (c *Client) Complete(ctx context.Context, req domai.CompletionRequest) (string, error) {
	body := generateRequest{
		Model:   c.Model,
		Prompt:  req.Prompt,
		System:  req.SystemPrompt,
		Stream:  false,
		Options: generateOptions{Temperature: req.Temperature},
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint+"/api/generate", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("no response from %s after %s, check network/CORS configuration: %w",
				c.Endpoint, c.Timeout, domai.ErrTimeout)
		}
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("ollama server error (%d): %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode generate response: %w", domai.ErrMalformedResponse)
	}
	return out.Response, nil
}

// CheckStatus hits the tags path, which lists installed models. Cheap
// connectivity probe only; not part of the dispatch path.
func (c *Client) CheckStatus(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.Endpoint+"/api/tags", nil)
	if err != nil {
		return err
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama status check failed (%d)", resp.StatusCode)
	}
	return nil
}
