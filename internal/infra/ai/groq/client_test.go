package groq

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domai "github.com/akchatar/socialconnect-ai/internal/domain/ai"
)

func chatResponse(content string) map[string]any {
	return map[string]any{
		"id":     "chatcmpl-test",
		"object": "chat.completion",
		"choices": []map[string]any{
			{"index": 0, "message": map[string]any{"role": "assistant", "content": content}},
		},
	}
}

func TestCompleteWithKeySendsSecretPerCall(t *testing.T) {
	var auth []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = append(auth, r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(chatResponse("bonjour"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "llama-3.1-8b-instant")

	out, err := c.CompleteWithKey(context.Background(), "gsk_first", domai.CompletionRequest{Prompt: "note"})
	require.NoError(t, err)
	assert.Equal(t, "bonjour", out)

	_, err = c.CompleteWithKey(context.Background(), "gsk_second", domai.CompletionRequest{Prompt: "note"})
	require.NoError(t, err)

	assert.Equal(t, []string{"Bearer gsk_first", "Bearer gsk_second"}, auth)
}

func TestCompleteWithKeyMapsQuotaError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"rate limit reached","type":"requests"}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "m")
	_, err := c.CompleteWithKey(context.Background(), "gsk_key", domai.CompletionRequest{Prompt: "x"})
	assert.ErrorIs(t, err, domai.ErrQuotaExceeded)
}

func TestCompleteWithKeyMapsInvalidKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"invalid api key","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "m")
	_, err := c.CompleteWithKey(context.Background(), "gsk_dead", domai.CompletionRequest{Prompt: "x"})
	assert.ErrorIs(t, err, domai.ErrInvalidCredential)
}

func TestCompleteWithKeyEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"id": "x", "object": "chat.completion", "choices": []any{}})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "m")
	_, err := c.CompleteWithKey(context.Background(), "gsk_key", domai.CompletionRequest{Prompt: "x"})
	assert.ErrorIs(t, err, domai.ErrMalformedResponse)
}
