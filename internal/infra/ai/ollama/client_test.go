package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domai "github.com/akchatar/socialconnect-ai/internal/domain/ai"
)

func TestCompleteSendsGenerateRequest(t *testing.T) {
	var got generateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(generateResponse{Response: "texte reformulé"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "ministral-3:3b", 5*time.Second)
	out, err := c.Complete(context.Background(), domai.CompletionRequest{
		Prompt:       "note brute",
		SystemPrompt: "consignes",
		Temperature:  0.3,
	})

	require.NoError(t, err)
	assert.Equal(t, "texte reformulé", out)
	assert.Equal(t, "ministral-3:3b", got.Model)
	assert.Equal(t, "note brute", got.Prompt)
	assert.Equal(t, "consignes", got.System)
	assert.False(t, got.Stream)
	assert.InDelta(t, 0.3, got.Options.Temperature, 0.001)
}

func TestCompleteTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "m", 20*time.Millisecond)
	_, err := c.Complete(context.Background(), domai.CompletionRequest{Prompt: "x"})

	require.Error(t, err)
	assert.ErrorIs(t, err, domai.ErrTimeout)
	assert.Contains(t, err.Error(), srv.URL, "the hint names the unreachable endpoint")
}

func TestCompleteServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "m", time.Second)
	_, err := c.Complete(context.Background(), domai.CompletionRequest{Prompt: "x"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
	assert.Contains(t, err.Error(), "model not found")
}

func TestCompleteMalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "m", time.Second)
	_, err := c.Complete(context.Background(), domai.CompletionRequest{Prompt: "x"})
	assert.ErrorIs(t, err, domai.ErrMalformedResponse)
}

func TestCheckStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tags", r.URL.Path)
		w.Write([]byte(`{"models":[]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "m", time.Second)
	assert.NoError(t, c.CheckStatus(context.Background()))
}

func TestCheckStatusDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "m", time.Second)
	assert.Error(t, c.CheckStatus(context.Background()))
}
