package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chatReply(t *testing.T, w http.ResponseWriter, content string) {
	t.Helper()
	err := json.NewEncoder(w).Encode(map[string]interface{}{
		"choices": []map[string]interface{}{
			{"message": map[string]string{"role": "assistant", "content": content}},
		},
	})
	require.NoError(t, err)
}

func TestHTTPGeneratorGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)
		require.Len(t, req.Messages, 1)
		assert.Equal(t, "user", req.Messages[0].Role)

		chatReply(t, w, `{"optimizedSequence": [1, 2]}`)
	}))
	defer srv.Close()

	gen := NewHTTPGenerator(srv.URL, "test-key", "test-model", time.Second, nil)
	text, err := gen.Generate(context.Background(), "route this tour")
	require.NoError(t, err)
	assert.Contains(t, text, "optimizedSequence")
}

func TestHTTPGeneratorRetriesTransientFailures(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		chatReply(t, w, "recovered")
	}))
	defer srv.Close()

	gen := NewHTTPGenerator(srv.URL, "", "m", 5*time.Second, nil)
	text, err := gen.Generate(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, "recovered", text)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestHTTPGeneratorDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "bad api key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	gen := NewHTTPGenerator(srv.URL, "", "m", time.Second, nil)
	_, err := gen.Generate(context.Background(), "p")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "a 4xx must not be retried")
}

func TestHTTPGeneratorGivesUpAfterMaxAttempts(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	gen := NewHTTPGenerator(srv.URL, "", "m", 10*time.Second, nil)
	_, err := gen.Generate(context.Background(), "p")
	require.Error(t, err)
	assert.Equal(t, int32(clientMaxAttempts), atomic.LoadInt32(&calls))
}

func TestHTTPGeneratorEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices": []}`))
	}))
	defer srv.Close()

	gen := NewHTTPGenerator(srv.URL, "", "m", time.Second, nil)
	_, err := gen.Generate(context.Background(), "p")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no choices")
}

func TestHTTPGeneratorRespectsCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	gen := NewHTTPGenerator(srv.URL, "", "m", time.Second, nil)
	_, err := gen.Generate(ctx, "p")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
