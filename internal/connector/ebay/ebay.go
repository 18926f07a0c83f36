// Package ebay searches eBay through the Buy Browse API using an
// application (client credentials) token.
package ebay

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/guarzo/crosslist/internal/connector"
	"github.com/guarzo/crosslist/internal/connector/httpx"
	"github.com/guarzo/crosslist/internal/model"
	"github.com/guarzo/crosslist/internal/ratelimit"
)

const (
	DefaultBaseURL     = "https://api.ebay.com"
	DefaultMarketplace = "EBAY_US"

	tokenPath  = "/identity/v1/oauth2/token"
	searchPath = "/buy/browse/v1/item_summary/search"
	apiScope   = "https://api.ebay.com/oauth/api_scope"

	// Browse API caps limit at 200 per page.
	maxPageSize = 200
)

// Credential keys.
const (
	CredClientID      = "client_id"
	CredClientSecret  = "client_secret"
	CredMarketplaceID = "marketplace_id"
)

// Client implements connector.Connector for eBay.
type Client struct {
	baseURL     string
	marketplace string
	http        *httpx.Client
	tokens      connector.TokenProvider
}

var _ connector.Connector = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at another host (sandbox or tests).
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithHTTP replaces the shared HTTP client.
func WithHTTP(h *httpx.Client) Option {
	return func(c *Client) {
		c.http = h
	}
}

// WithTokenProvider injects the token provider instead of building one from
// the client id and secret.
func WithTokenProvider(tp connector.TokenProvider) Option {
	return func(c *Client) {
		c.tokens = tp
	}
}

// New creates an eBay client. Without credentials or an injected token
// provider the client reports itself unavailable.
func New(creds connector.Credentials, opts ...Option) *Client {
	return newClient(creds, nil, opts...)
}

// NewFactory adapts New to the registry. Clients built by one factory share
// an HTTP client, its rate limiter and one token provider per client id, so
// backoff windows and access tokens outlive a single search.
func NewFactory(opts ...Option) connector.Factory {
	shared := httpx.New(httpx.WithLimiter(ratelimit.ForPlatform(string(connector.PlatformEbay))))
	opts = append([]Option{WithHTTP(shared)}, opts...)
	tokens := &tokenCache{providers: make(map[string]connector.TokenProvider)}

	return func(creds connector.Credentials) (connector.Connector, error) {
		return newClient(creds, tokens, opts...), nil
	}
}

func newClient(creds connector.Credentials, tokens *tokenCache, opts ...Option) *Client {
	c := &Client{
		baseURL:     DefaultBaseURL,
		marketplace: DefaultMarketplace,
	}
	if m := creds.Get(CredMarketplaceID); m != "" {
		c.marketplace = m
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = httpx.New(httpx.WithLimiter(ratelimit.ForPlatform(string(connector.PlatformEbay))))
	}

	if c.tokens == nil && creds.Has(CredClientID, CredClientSecret) {
		build := func() connector.TokenProvider { return c.clientCredentials(creds) }
		if tokens != nil {
			c.tokens = tokens.get(creds.Get(CredClientID)+"\x00"+creds.Get(CredClientSecret), build)
		} else {
			c.tokens = build()
		}
	}

	return c
}

func (c *Client) clientCredentials(creds connector.Credentials) connector.TokenProvider {
	cfg := clientcredentials.Config{
		ClientID:     creds.Get(CredClientID),
		ClientSecret: creds.Get(CredClientSecret),
		TokenURL:     c.baseURL + tokenPath,
		Scopes:       []string{apiScope},
		AuthStyle:    oauth2.AuthStyleInHeader,
	}
	// The token source keeps this context for refreshes; it only carries
	// the HTTP client.
	tokenCtx := context.WithValue(context.Background(), oauth2.HTTPClient, c.http.HTTPClient())
	return connector.NewOAuth2TokenProvider(cfg.TokenSource(tokenCtx))
}

// tokenCache holds one token provider per credential pair.
type tokenCache struct {
	mu        sync.Mutex
	providers map[string]connector.TokenProvider
}

func (tc *tokenCache) get(key string, build func() connector.TokenProvider) connector.TokenProvider {
	tc.mu.Lock()
	defer tc.mu.Unlock()

	if tp, ok := tc.providers[key]; ok {
		return tp
	}
	tp := build()
	tc.providers[key] = tp
	return tp
}

func (c *Client) Platform() connector.Platform     { return connector.PlatformEbay }
func (c *Client) Capability() connector.Capability { return connector.APISearch }
func (c *Client) RequiresAuth() bool               { return true }

// IsAvailable is true once a token provider exists.
func (c *Client) IsAvailable() bool {
	return c != nil && c.tokens != nil
}

// Search queries item_summary/search. Missing credentials yield no results.
func (c *Client) Search(ctx context.Context, query model.SearchQuery) ([]model.SearchResult, error) {
	if !c.IsAvailable() {
		return []model.SearchResult{}, nil
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("ebay token: %w", err)
	}

	headers := http.Header{}
	headers.Set("Authorization", "Bearer "+token)
	headers.Set("X-EBAY-C-MARKETPLACE-ID", c.marketplace)

	var resp searchResponse
	if err := c.http.GetJSON(ctx, c.searchURL(query), headers, &resp); err != nil {
		return nil, fmt.Errorf("ebay search: %w", err)
	}

	results := make([]model.SearchResult, 0, len(resp.ItemSummaries))
	for _, item := range resp.ItemSummaries {
		r, err := item.toResult()
		if err != nil {
			continue // skip malformed items
		}
		results = append(results, r)
	}
	return results, nil
}

func (c *Client) searchURL(query model.SearchQuery) string {
	params := url.Values{}
	q := query.Keywords
	if query.ItemType != "" {
		q += " " + query.ItemType
	}
	params.Set("q", q)

	limit := query.Limit
	if limit <= 0 || limit > maxPageSize {
		limit = maxPageSize
	}
	params.Set("limit", strconv.Itoa(limit))

	if filter := priceFilter(query); filter != "" {
		params.Set("filter", filter)
	}

	switch query.SortBy {
	case model.SortLowestPrice:
		params.Set("sort", "price")
	case model.SortNewest:
		params.Set("sort", "newlyListed")
	}

	return c.baseURL + searchPath + "?" + params.Encode()
}

func priceFilter(query model.SearchQuery) string {
	if !query.MinPrice.Valid && !query.MaxPrice.Valid {
		return ""
	}
	var lo, hi string
	if query.MinPrice.Valid {
		lo = query.MinPrice.Decimal.String()
	}
	if query.MaxPrice.Valid {
		hi = query.MaxPrice.Decimal.String()
	}
	return fmt.Sprintf("price:[%s..%s],priceCurrency:USD", lo, hi)
}

type amount struct {
	Value    string `json:"value"`
	Currency string `json:"currency"`
}

type itemSummary struct {
	ItemID     string `json:"itemId"`
	Title      string `json:"title"`
	ItemWebURL string `json:"itemWebUrl"`
	Price      amount `json:"price"`
	Condition  string `json:"condition"`
	Image      struct {
		ImageURL string `json:"imageUrl"`
	} `json:"image"`
	Seller struct {
		Username           string `json:"username"`
		FeedbackPercentage string `json:"feedbackPercentage"`
		FeedbackScore      int    `json:"feedbackScore"`
	} `json:"seller"`
	ShippingOptions []struct {
		ShippingCostType string `json:"shippingCostType"`
		ShippingCost     amount `json:"shippingCost"`
	} `json:"shippingOptions"`
	BuyingOptions           []string `json:"buyingOptions"`
	ItemCreationDate        string   `json:"itemCreationDate"`
	EstimatedAvailabilities []struct {
		EstimatedAvailableQuantity int `json:"estimatedAvailableQuantity"`
	} `json:"estimatedAvailabilities"`
}

type searchResponse struct {
	Total         int           `json:"total"`
	ItemSummaries []itemSummary `json:"itemSummaries"`
}

func (it itemSummary) toResult() (model.SearchResult, error) {
	if it.ItemID == "" {
		return model.SearchResult{}, fmt.Errorf("missing item id")
	}
	price, err := decimal.NewFromString(it.Price.Value)
	if err != nil {
		return model.SearchResult{}, fmt.Errorf("item %s price %q: %w", it.ItemID, it.Price.Value, err)
	}
	if price.IsNegative() {
		return model.SearchResult{}, fmt.Errorf("item %s has negative price", it.ItemID)
	}

	r := model.SearchResult{
		Platform:          string(connector.PlatformEbay),
		ListingID:         it.ItemID,
		URL:               it.ItemWebURL,
		Title:             it.Title,
		Price:             price,
		Condition:         it.Condition,
		ThumbnailURL:      it.Image.ImageURL,
		SellerName:        it.Seller.Username,
		QuantityAvailable: 1,
		Extras:            map[string]any{},
	}

	if len(it.ShippingOptions) > 0 {
		if cost, err := decimal.NewFromString(it.ShippingOptions[0].ShippingCost.Value); err == nil && !cost.IsNegative() {
			r.ShippingCost = decimal.NewNullDecimal(cost)
		}
	}

	if it.Seller.FeedbackPercentage != "" {
		if pct, err := strconv.ParseFloat(it.Seller.FeedbackPercentage, 64); err == nil {
			r.SellerRating = &pct
		}
	}

	if it.ItemCreationDate != "" {
		if t, err := time.Parse(time.RFC3339, it.ItemCreationDate); err == nil {
			r.PostedAt = &t
		}
	}

	if len(it.EstimatedAvailabilities) > 0 && it.EstimatedAvailabilities[0].EstimatedAvailableQuantity > 0 {
		r.QuantityAvailable = it.EstimatedAvailabilities[0].EstimatedAvailableQuantity
	}

	for _, opt := range it.BuyingOptions {
		switch opt {
		case "BEST_OFFER":
			r.AcceptsOffers = true
		case "AUCTION":
			r.Extras["auction"] = true
		}
	}
	if it.Seller.FeedbackScore > 0 {
		r.Extras["seller_feedback_score"] = it.Seller.FeedbackScore
	}

	return r, nil
}
