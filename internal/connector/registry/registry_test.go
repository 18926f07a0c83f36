package registry

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guarzo/crosslist/internal/connector"
	"github.com/guarzo/crosslist/internal/connector/httpx"
	"github.com/guarzo/crosslist/internal/model"
	"github.com/guarzo/crosslist/internal/ratelimit"
)

func TestDefault_RegistersEveryPlatform(t *testing.T) {
	r := Default(Options{})
	assert.Empty(t, r.Missing())
	assert.Equal(t, connector.AllPlatforms(), r.Platforms())
}

func TestDefault_Get(t *testing.T) {
	r := Default(Options{})

	tests := []struct {
		name         string
		creds        connector.Credentials
		capability   connector.Capability
		available    bool
		requiresAuth bool
	}{
		{name: "ebay", creds: connector.Credentials{"client_id": "a", "client_secret": "b"}, capability: connector.APISearch, available: true, requiresAuth: true},
		{name: "EBAY", creds: nil, capability: connector.APISearch, available: false, requiresAuth: true},
		{name: "etsy", creds: connector.Credentials{"api_key": "k"}, capability: connector.APISearch, available: true, requiresAuth: true},
		{name: "etsy", creds: nil, capability: connector.APISearch, available: false, requiresAuth: true},
		{name: " depop ", creds: nil, capability: connector.ScraperFriendly, available: true, requiresAuth: false},
		{name: "facebook", creds: nil, capability: connector.NoExternalSearch, available: false, requiresAuth: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := r.Get(tt.name, tt.creds)
			require.NoError(t, err)
			assert.Equal(t, tt.capability, c.Capability())
			assert.Equal(t, tt.available, c.IsAvailable())
			assert.Equal(t, tt.requiresAuth, c.RequiresAuth())
		})
	}
}

func TestDefault_UnknownPlatform(t *testing.T) {
	_, err := Default(Options{}).Get("craigslist", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, connector.ErrUnknownPlatform))
}

// ebayServer answers token requests and returns the scripted statuses for
// consecutive searches, repeating the last one.
func ebayServer(t *testing.T, tokenHits, searchHits *atomic.Int32, statuses ...int) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/identity/v1/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		tokenHits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"tok","token_type":"Bearer","expires_in":7200}`))
	})
	mux.HandleFunc("/buy/browse/v1/item_summary/search", func(w http.ResponseWriter, r *http.Request) {
		n := int(searchHits.Add(1)) - 1
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		status := statuses[len(statuses)-1]
		if n < len(statuses) {
			status = statuses[n]
		}
		if status == http.StatusTooManyRequests {
			w.Header().Set("Retry-After", "60")
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"total":0,"itemSummaries":[]}`))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func searchEbay(t *testing.T, r *connector.Registry) error {
	t.Helper()
	c, err := r.Get("ebay", connector.Credentials{"client_id": "id", "client_secret": "secret"})
	require.NoError(t, err)

	q, err := model.NewSearchQuery("hoodie")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err = c.Search(ctx, q)
	return err
}

func TestDefault_ReusesTokenAcrossSearches(t *testing.T) {
	var tokenHits, searchHits atomic.Int32
	server := ebayServer(t, &tokenHits, &searchHits, http.StatusOK)
	r := Default(Options{EbayBaseURL: server.URL})

	require.NoError(t, searchEbay(t, r))
	require.NoError(t, searchEbay(t, r))

	assert.Equal(t, int32(1), tokenHits.Load())
	assert.Equal(t, int32(2), searchHits.Load())
}

func TestDefault_BackoffOutlivesSearch(t *testing.T) {
	var tokenHits, searchHits atomic.Int32
	server := ebayServer(t, &tokenHits, &searchHits, http.StatusTooManyRequests, http.StatusOK)
	r := Default(Options{EbayBaseURL: server.URL})

	err := searchEbay(t, r)
	require.Error(t, err)
	var statusErr *httpx.StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusTooManyRequests, statusErr.StatusCode)

	err = searchEbay(t, r)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ratelimit.ErrBackingOff))

	assert.Equal(t, int32(1), searchHits.Load(), "second search waits out the 429 window")
	assert.Equal(t, int32(1), tokenHits.Load())
}

func TestDefault_SeparateRegistriesDoNotShareState(t *testing.T) {
	var tokenHits, searchHits atomic.Int32
	server := ebayServer(t, &tokenHits, &searchHits, http.StatusTooManyRequests, http.StatusOK)

	require.Error(t, searchEbay(t, Default(Options{EbayBaseURL: server.URL})))
	require.NoError(t, searchEbay(t, Default(Options{EbayBaseURL: server.URL})))

	assert.Equal(t, int32(2), tokenHits.Load())
	assert.Equal(t, int32(2), searchHits.Load())
}
