package kserve

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rag-orchestrator-be/pkg/llm"
)

func newTestClient(t *testing.T, baseURL string, retries int) (*Client, *int32) {
	t.Helper()
	c := NewClient(Config{
		BaseURL:         baseURL,
		CompletionsPath: "/v1/completions",
		ModelID:         "test-model",
		Retries:         retries,
		Backoff:         3 * time.Second,
	})
	var sleeps int32
	c.sleep = func(time.Duration) { atomic.AddInt32(&sleeps, 1) }
	return c, &sleeps
}

func chatBody(content string) string {
	return `{"choices":[{"message":{"content":"` + content + `"}}],"usage":{"prompt_tokens":12,"completion_tokens":7}}`
}

func TestGenerateSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/completions", r.URL.Path)

		var req map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req["model"])
		assert.Equal(t, float64(256), req["max_tokens"])

		msgs := req["messages"].([]interface{})
		require.Len(t, msgs, 1)
		assert.Equal(t, "user", msgs[0].(map[string]interface{})["role"])

		_, _ = w.Write([]byte(chatBody("  the answer  ")))
	}))
	defer srv.Close()

	c, sleeps := newTestClient(t, srv.URL, 3)
	out, err := c.Generate(context.Background(), "prompt", llm.WithMaxTokens(256))
	require.NoError(t, err)
	assert.Equal(t, "the answer", out)
	assert.Equal(t, int32(0), *sleeps)
}

func TestGenerateRetriesTransientThenSucceeds(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) <= 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(chatBody("recovered")))
	}))
	defer srv.Close()

	c, sleeps := newTestClient(t, srv.URL, 3)
	out, err := c.Generate(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "recovered", out)
	assert.Equal(t, int32(4), atomic.LoadInt32(&calls))
	// One backoff sleep per failed attempt.
	assert.Equal(t, int32(3), *sleeps)
}

func TestGenerateExhaustsRetries(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusGatewayTimeout)
	}))
	defer srv.Close()

	c, sleeps := newTestClient(t, srv.URL, 2)
	_, err := c.Generate(context.Background(), "prompt")
	require.Error(t, err)

	var genErr *GenerationError
	require.True(t, errors.As(err, &genErr))
	assert.Equal(t, 3, genErr.Attempts)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	assert.Equal(t, int32(2), *sleeps)
}

func TestGenerateHardFailureNoRetry(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c, sleeps := newTestClient(t, srv.URL, 3)
	_, err := c.Generate(context.Background(), "prompt")
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Equal(t, int32(0), *sleeps)
}

func TestGenerateNetworkErrorIsRetried(t *testing.T) {
	// Server that is immediately closed: every attempt is a transport error.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c, sleeps := newTestClient(t, srv.URL, 1)
	_, err := c.Generate(context.Background(), "prompt")
	require.Error(t, err)
	assert.Equal(t, int32(1), *sleeps)
}

func TestGenerateUnexpectedShapeReturnsRawBody(t *testing.T) {
	raw := `{"detail":"unexpected payload"}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(raw))
	}))
	defer srv.Close()

	c, _ := newTestClient(t, srv.URL, 0)
	out, err := c.Generate(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, raw, out)
}
