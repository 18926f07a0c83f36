package httpx

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guarzo/crosslist/internal/ratelimit"
)

const payload = `{"items":[{"id":"1"}]}`

func gzipBytes(t *testing.T, s string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	_, err := w.Write([]byte(s))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func brotliBytes(t *testing.T, s string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := brotli.NewWriter(&buf)
	_, err := w.Write([]byte(s))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestClient_GetDecodesContentEncoding(t *testing.T) {
	tests := []struct {
		name     string
		encoding string
		body     func(t *testing.T) []byte
	}{
		{name: "identity", body: func(*testing.T) []byte { return []byte(payload) }},
		{name: "gzip", encoding: "gzip", body: func(t *testing.T) []byte { return gzipBytes(t, payload) }},
		{name: "brotli", encoding: "br", body: func(t *testing.T) []byte { return brotliBytes(t, payload) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := tt.body(t)
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, DefaultUserAgent, r.Header.Get("User-Agent"))
				if tt.encoding != "" {
					w.Header().Set("Content-Encoding", tt.encoding)
				}
				_, _ = w.Write(body)
			}))
			defer server.Close()

			var out struct {
				Items []struct {
					ID string `json:"id"`
				} `json:"items"`
			}
			err := New().GetJSON(context.Background(), server.URL, nil, &out)
			require.NoError(t, err)
			require.Len(t, out.Items, 1)
			assert.Equal(t, "1", out.Items[0].ID)
		})
	}
}

func TestClient_StatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("boom"))
	}))
	defer server.Close()

	_, err := New(WithRetry(0, 0)).Get(context.Background(), server.URL, nil)
	require.Error(t, err)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusInternalServerError, statusErr.StatusCode)
	assert.Equal(t, "boom", statusErr.Body)
}

func TestClient_TooManyRequestsOpensBackoff(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "2")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	limiter := ratelimit.NewLimiter(ratelimit.Config{RequestsPerSecond: 100, Burst: 10})
	_, err := New(WithLimiter(limiter), WithRetry(0, 0)).Get(context.Background(), server.URL, nil)
	require.Error(t, err)

	assert.True(t, limiter.RetryAt().After(time.Now().Add(time.Second)))
}

func TestClient_Retry(t *testing.T) {
	tests := []struct {
		name     string
		statuses []int
		wantErr  bool
		wantHits int32
	}{
		{name: "server errors then success", statuses: []int{503, 502, 200}, wantHits: 3},
		{name: "too many requests then success", statuses: []int{429, 200}, wantHits: 2},
		{name: "gives up after max retries", statuses: []int{500, 500, 500, 500}, wantErr: true, wantHits: 3},
		{name: "client error is not retried", statuses: []int{404, 200}, wantErr: true, wantHits: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var hits atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				n := int(hits.Add(1)) - 1
				status := tt.statuses[len(tt.statuses)-1]
				if n < len(tt.statuses) {
					status = tt.statuses[n]
				}
				if status == http.StatusTooManyRequests {
					w.Header().Set("Retry-After", "0")
				}
				w.WriteHeader(status)
				_, _ = w.Write([]byte(payload))
			}))
			defer server.Close()

			limiter := ratelimit.NewLimiter(ratelimit.Config{RequestsPerSecond: 1000, Burst: 10})
			c := New(WithLimiter(limiter), WithRetry(2, time.Millisecond))

			body, err := c.Get(context.Background(), server.URL, nil)
			if tt.wantErr {
				require.Error(t, err)
				var statusErr *StatusError
				assert.True(t, errors.As(err, &statusErr))
			} else {
				require.NoError(t, err)
				assert.Equal(t, payload, string(body))
			}
			assert.Equal(t, tt.wantHits, hits.Load())
		})
	}
}

func TestClient_RetryStopsWhenBackoffOutlastsDeadline(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Retry-After", "60")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	limiter := ratelimit.NewLimiter(ratelimit.Config{RequestsPerSecond: 100, Burst: 10})
	c := New(WithLimiter(limiter), WithRetry(2, time.Millisecond))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	start := time.Now()
	_, err := c.Get(ctx, server.URL, nil)
	require.Error(t, err)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusTooManyRequests, statusErr.StatusCode)
	assert.Equal(t, int32(1), hits.Load())
	assert.Less(t, time.Since(start), time.Second)
}

func TestClient_CustomHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get("x-api-key"))
		assert.Equal(t, "custom-agent", r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte("{}"))
	}))
	defer server.Close()

	headers := http.Header{}
	headers.Set("x-api-key", "secret")

	var out map[string]any
	err := New(WithUserAgent("custom-agent")).GetJSON(context.Background(), server.URL, headers, &out)
	require.NoError(t, err)
}
