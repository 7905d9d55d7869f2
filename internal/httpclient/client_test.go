package httpclient

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestClient creates a Client with the given configuration and registers cleanup.
func newTestClient(t *testing.T, cfg *Config) *Client {
	t.Helper()
	client := New(cfg)
	t.Cleanup(client.Close)
	return client
}

// newTestServer creates a test HTTP server and registers cleanup.
func newTestServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

func TestNew(t *testing.T) {
	t.Run("nil config", func(t *testing.T) {
		client := New(nil)

		assert.Equal(t, DefaultTimeout, client.defaultTimeout)
		assert.Equal(t, defaultUserAgent, client.userAgent)
		assert.Nil(t, client.limiter, "no pacing by default")
	})

	t.Run("rate limit", func(t *testing.T) {
		client := New(&Config{RequestsPerMinute: 60})

		require.NotNil(t, client.limiter)
		assert.InDelta(t, 1.0, float64(client.limiter.Limit()), 1e-9)
		assert.Equal(t, 1, client.limiter.Burst())
	})

	t.Run("caller config not mutated", func(t *testing.T) {
		cfg := Config{}
		New(&cfg)
		assert.Zero(t, cfg.DefaultTimeout)
		assert.Empty(t, cfg.UserAgent)
	})
}

func TestGetReadsBodyAfterReturn(t *testing.T) {
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "wtracker", r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(`{"cod":"200"}`))
	})
	client := newTestClient(t, nil)

	resp, err := client.Get(context.Background(), server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"cod":"200"}`, string(body))
}

func TestDefaultTimeout(t *testing.T) {
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})
	client := newTestClient(t, &Config{DefaultTimeout: 50 * time.Millisecond})

	start := time.Now()
	_, err := client.Get(context.Background(), server.URL)
	require.Error(t, err)
	assert.Less(t, time.Since(start), time.Second)
}

func TestContextCancellation(t *testing.T) {
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	client := newTestClient(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Get(ctx, server.URL)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRateLimitWaitHonoursContext(t *testing.T) {
	var hits atomic.Int32
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	})
	// one request per minute: the second call must wait far longer than the deadline
	client := newTestClient(t, &Config{RequestsPerMinute: 1})

	resp, err := client.Get(context.Background(), server.URL)
	require.NoError(t, err)
	resp.Body.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = client.Get(ctx, server.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit wait")
	assert.EqualValues(t, 1, hits.Load())
}

func TestHooks(t *testing.T) {
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	client := newTestClient(t, nil)

	var before, after atomic.Int32
	var status atomic.Int32
	client.SetBeforeRequestHook(func(r *http.Request) { before.Add(1) })
	client.SetAfterResponseHook(func(r *http.Request, resp *http.Response, err error, d time.Duration) {
		after.Add(1)
		if resp != nil {
			status.Store(int32(resp.StatusCode))
		}
		assert.GreaterOrEqual(t, d, time.Duration(0))
	})

	resp, err := client.Get(context.Background(), server.URL)
	require.NoError(t, err)
	resp.Body.Close()

	assert.EqualValues(t, 1, before.Load())
	assert.EqualValues(t, 1, after.Load())
	assert.EqualValues(t, http.StatusTeapot, status.Load())
}

func TestCustomTransport(t *testing.T) {
	var called atomic.Bool
	transport := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		called.Store(true)
		return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(http.NoBody), Request: r}, nil
	})
	client := newTestClient(t, &Config{Transport: transport})

	resp, err := client.Get(context.Background(), "http://example.invalid/forecast")
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	assert.True(t, called.Load())
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }
