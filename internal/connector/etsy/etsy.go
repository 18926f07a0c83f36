// Package etsy searches active Etsy listings through Open API v3.
package etsy

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/guarzo/crosslist/internal/connector"
	"github.com/guarzo/crosslist/internal/connector/httpx"
	"github.com/guarzo/crosslist/internal/model"
	"github.com/guarzo/crosslist/internal/ratelimit"
)

const (
	DefaultBaseURL = "https://openapi.etsy.com"
	searchPath     = "/v3/application/listings/active"

	// Etsy caps limit at 100 per page.
	maxPageSize = 100

	// CredAPIKey is the keystring sent as x-api-key.
	CredAPIKey = "api_key"
)

// Client implements connector.Connector for Etsy.
type Client struct {
	apiKey  string
	baseURL string
	http    *httpx.Client
}

var _ connector.Connector = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at another host.
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

// New creates an Etsy client from credentials.
func New(creds connector.Credentials, opts ...Option) *Client {
	c := &Client{
		apiKey:  creds.Get(CredAPIKey),
		baseURL: DefaultBaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = httpx.New(httpx.WithLimiter(ratelimit.ForPlatform(string(connector.PlatformEtsy))))
	}
	return c
}

// NewFactory adapts New to the registry. Every instance it builds shares one
// HTTP client and rate limiter.
func NewFactory(opts ...Option) connector.Factory {
	shared := httpx.New(httpx.WithLimiter(ratelimit.ForPlatform(string(connector.PlatformEtsy))))
	opts = append([]Option{WithHTTP(shared)}, opts...)

	return func(creds connector.Credentials) (connector.Connector, error) {
		return New(creds, opts...), nil
	}
}

func (c *Client) Platform() connector.Platform     { return connector.PlatformEtsy }
func (c *Client) Capability() connector.Capability { return connector.APISearch }
func (c *Client) RequiresAuth() bool               { return true }

// IsAvailable is true when an API key is configured.
func (c *Client) IsAvailable() bool {
	return c != nil && c.apiKey != ""
}

// Search queries active listings.
func (c *Client) Search(ctx context.Context, query model.SearchQuery) ([]model.SearchResult, error) {
	if !c.IsAvailable() {
		return []model.SearchResult{}, nil
	}

	headers := http.Header{}
	headers.Set("x-api-key", c.apiKey)

	var resp listingsResponse
	if err := c.http.GetJSON(ctx, c.searchURL(query), headers, &resp); err != nil {
		return nil, fmt.Errorf("etsy search: %w", err)
	}

	results := make([]model.SearchResult, 0, len(resp.Results))
	for _, l := range resp.Results {
		r, err := l.toResult()
		if err != nil {
			continue
		}
		results = append(results, r)
	}
	return results, nil
}

func (c *Client) searchURL(query model.SearchQuery) string {
	params := url.Values{}
	keywords := query.Keywords
	if query.ItemType != "" {
		keywords += " " + query.ItemType
	}
	params.Set("keywords", keywords)

	limit := query.Limit
	if limit <= 0 || limit > maxPageSize {
		limit = maxPageSize
	}
	params.Set("limit", strconv.Itoa(limit))

	if query.MinPrice.Valid {
		params.Set("min_price", query.MinPrice.Decimal.String())
	}
	if query.MaxPrice.Valid {
		params.Set("max_price", query.MaxPrice.Decimal.String())
	}

	switch query.SortBy {
	case model.SortLowestPrice:
		params.Set("sort_on", "price")
		params.Set("sort_order", "asc")
	case model.SortNewest:
		params.Set("sort_on", "created")
		params.Set("sort_order", "desc")
	}

	return c.baseURL + searchPath + "?" + params.Encode()
}

type money struct {
	Amount       int64  `json:"amount"`
	Divisor      int64  `json:"divisor"`
	CurrencyCode string `json:"currency_code"`
}

func (m money) decimal() (decimal.Decimal, error) {
	if m.Divisor <= 0 {
		return decimal.Zero, fmt.Errorf("invalid divisor %d", m.Divisor)
	}
	if m.Amount < 0 {
		return decimal.Zero, fmt.Errorf("negative amount %d", m.Amount)
	}
	return decimal.NewFromInt(m.Amount).Div(decimal.NewFromInt(m.Divisor)), nil
}

type listing struct {
	ListingID         int64    `json:"listing_id"`
	ShopID            int64    `json:"shop_id"`
	Title             string   `json:"title"`
	URL               string   `json:"url"`
	Price             money    `json:"price"`
	Quantity          int      `json:"quantity"`
	CreationTimestamp int64    `json:"creation_timestamp"`
	Tags              []string `json:"tags"`
	WhoMade           string   `json:"who_made"`
	WhenMade          string   `json:"when_made"`
	IsCustomizable    bool     `json:"is_customizable"`
}

type listingsResponse struct {
	Count   int       `json:"count"`
	Results []listing `json:"results"`
}

func (l listing) toResult() (model.SearchResult, error) {
	if l.ListingID == 0 {
		return model.SearchResult{}, fmt.Errorf("missing listing id")
	}
	price, err := l.Price.decimal()
	if err != nil {
		return model.SearchResult{}, fmt.Errorf("listing %d: %w", l.ListingID, err)
	}

	r := model.SearchResult{
		Platform:          string(connector.PlatformEtsy),
		ListingID:         strconv.FormatInt(l.ListingID, 10),
		URL:               l.URL,
		Title:             l.Title,
		Price:             price,
		QuantityAvailable: l.Quantity,
		Extras: map[string]any{
			"shop_id": l.ShopID,
		},
	}
	if r.QuantityAvailable < 1 {
		r.QuantityAvailable = 1
	}
	if l.CreationTimestamp > 0 {
		t := time.Unix(l.CreationTimestamp, 0).UTC()
		r.PostedAt = &t
	}
	if len(l.Tags) > 0 {
		r.Extras["tags"] = l.Tags
	}
	if l.WhenMade != "" {
		r.Extras["when_made"] = l.WhenMade
	}
	if l.IsCustomizable {
		r.Extras["customizable"] = true
	}
	return r, nil
}
