package catsource

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cat-tagline-go/internal/platform/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, timeout time.Duration, maxSize int64) (*Client, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	cfg := config.CatAPIConfig{BaseURL: srv.URL + "/", Path: "/cat", Timeout: timeout}
	return NewClient(cfg, maxSize, nil), &hits
}

func TestFetchRandom_Success(t *testing.T) {
	client, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/cat", r.URL.Path)
		assert.Equal(t, userAgent, r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write([]byte{0xFF, 0xD8, 0xFF, 0xE0})
	}, time.Second, 1024)

	data, err := client.FetchRandom(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []byte{0xFF, 0xD8, 0xFF, 0xE0}, data)
	assert.EqualValues(t, 1, hits.Load())
}

func TestFetchRandom_NonSuccessStatusDoesNotRetry(t *testing.T) {
	client, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}, time.Second, 1024)

	_, err := client.FetchRandom(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
	assert.EqualValues(t, 1, hits.Load())
}

func TestFetchRandom_EmptyBody(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}, time.Second, 1024)

	_, err := client.FetchRandom(context.Background())
	assert.ErrorIs(t, err, ErrEmptyBody)
}

func TestFetchRandom_BodyTooLarge(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(make([]byte, 64))
	}, time.Second, 16)

	_, err := client.FetchRandom(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds max size")
}

func TestFetchRandom_Timeout(t *testing.T) {
	release := make(chan struct{})
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}, 50*time.Millisecond, 1024)
	defer close(release)

	_, err := client.FetchRandom(context.Background())
	require.Error(t, err)
}

func TestFetchRandom_ContextCancelled(t *testing.T) {
	client, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("x"))
	}, time.Second, 1024)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := client.FetchRandom(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.EqualValues(t, 0, hits.Load())
}

func TestNewClient_Defaults(t *testing.T) {
	client := NewClient(config.CatAPIConfig{}, 0, nil)
	assert.Equal(t, config.DefaultCatAPIBaseURL+config.DefaultCatAPIPath, client.URL())
	assert.Equal(t, 10*time.Second, client.httpClient.Timeout)

	client = NewClient(config.CatAPIConfig{BaseURL: "http://x", Path: "cat"}, 0, nil)
	assert.Equal(t, "http://x/cat", client.URL())
}
