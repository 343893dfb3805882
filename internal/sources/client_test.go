package sources

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_RetriesOnServerError(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	cfg := DefaultClientConfig()
	cfg.RetryDelay = time.Millisecond
	client := NewClient(t.Name(), cfg, testLogger())

	body, err := client.Get(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))
	assert.EqualValues(t, 3, calls.Load())
}

func TestClient_NoRetryOnClientError(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	cfg := DefaultClientConfig()
	cfg.RetryDelay = time.Millisecond
	client := NewClient(t.Name(), cfg, testLogger())

	_, err := client.Get(context.Background(), server.URL)
	assert.Error(t, err)
	assert.EqualValues(t, 1, calls.Load(), "4xx other than 429 is not retried")
}

func TestClient_BreakerOpensAfterRepeatedFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	cfg := DefaultClientConfig()
	cfg.MaxRetries = 0
	cfg.RetryDelay = time.Millisecond
	client := NewClient(t.Name(), cfg, testLogger())

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := client.Get(ctx, server.URL)
		require.Error(t, err)
	}

	// Breaker is now open: the request fails without reaching the server.
	_, err := client.Get(ctx, server.URL)
	assert.Error(t, err)
}

func TestClient_ContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	cfg := DefaultClientConfig()
	cfg.RetryDelay = time.Hour // retry would block without the ctx check
	client := NewClient(t.Name(), cfg, testLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.Get(ctx, server.URL)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
