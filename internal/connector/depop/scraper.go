// Package depop reads Depop's public search page. No credentials are needed;
// product tiles are parsed from the server-rendered HTML.
package depop

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/shopspring/decimal"

	"github.com/guarzo/crosslist/internal/connector"
	"github.com/guarzo/crosslist/internal/connector/httpx"
	"github.com/guarzo/crosslist/internal/model"
	"github.com/guarzo/crosslist/internal/ratelimit"
)

const (
	DefaultBaseURL = "https://www.depop.com"
	searchPath     = "/search/"
)

const (
	tileSelector       = `[data-testid="product__item"]`
	priceSelector      = `[aria-label="Price"]`
	discountSelector   = `[aria-label="Discounted price"]`
	titleSelector      = `[data-testid="product__title"]`
	sizeSelector       = `[data-testid="product__size"]`
	conditionSelector  = `[data-testid="product__condition"]`
	shippingSelector   = `[data-testid="product__shipping"]`
	productPathPattern = `^/products/([^/]+)/?$`
)

var (
	productPath = regexp.MustCompile(productPathPattern)
	priceNumber = regexp.MustCompile(`[0-9][0-9,]*(?:\.[0-9]+)?`)
)

// Scraper implements connector.Connector for Depop.
type Scraper struct {
	baseURL string
	http    *httpx.Client
}

var _ connector.Connector = (*Scraper)(nil)

// Option configures a Scraper.
type Option func(*Scraper)

// WithBaseURL points the scraper at another host.
func WithBaseURL(u string) Option {
	return func(s *Scraper) {
		s.baseURL = strings.TrimRight(u, "/")
	}
}

// WithHTTP replaces the shared HTTP client.
func WithHTTP(h *httpx.Client) Option {
	return func(s *Scraper) {
		s.http = h
	}
}

// New creates a Depop scraper. Credentials are ignored.
func New(_ connector.Credentials, opts ...Option) *Scraper {
	s := &Scraper{baseURL: DefaultBaseURL}
	for _, opt := range opts {
		opt(s)
	}
	if s.http == nil {
		s.http = httpx.New(httpx.WithLimiter(ratelimit.ForPlatform(string(connector.PlatformDepop))))
	}
	return s
}

// NewFactory adapts New to the registry. Every instance it builds shares one
// HTTP client and rate limiter.
func NewFactory(opts ...Option) connector.Factory {
	shared := httpx.New(httpx.WithLimiter(ratelimit.ForPlatform(string(connector.PlatformDepop))))
	opts = append([]Option{WithHTTP(shared)}, opts...)

	return func(creds connector.Credentials) (connector.Connector, error) {
		return New(creds, opts...), nil
	}
}

func (s *Scraper) Platform() connector.Platform     { return connector.PlatformDepop }
func (s *Scraper) Capability() connector.Capability { return connector.ScraperFriendly }
func (s *Scraper) RequiresAuth() bool               { return false }
func (s *Scraper) IsAvailable() bool                { return s != nil }

// Search fetches and parses the first page of results.
func (s *Scraper) Search(ctx context.Context, query model.SearchQuery) ([]model.SearchResult, error) {
	headers := http.Header{}
	headers.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	body, err := s.http.Get(ctx, s.searchURL(query), headers)
	if err != nil {
		return nil, fmt.Errorf("depop search: %w", err)
	}

	results, err := s.parse(body)
	if err != nil {
		return nil, fmt.Errorf("depop parse: %w", err)
	}
	if query.Limit > 0 && len(results) > query.Limit {
		results = results[:query.Limit]
	}
	return results, nil
}

func (s *Scraper) searchURL(query model.SearchQuery) string {
	params := url.Values{}
	q := query.Keywords
	if query.ItemType != "" {
		q += " " + query.ItemType
	}
	params.Set("q", q)
	if query.MinPrice.Valid {
		params.Set("priceMin", query.MinPrice.Decimal.String())
	}
	if query.MaxPrice.Valid {
		params.Set("priceMax", query.MaxPrice.Decimal.String())
	}
	switch query.SortBy {
	case model.SortLowestPrice:
		params.Set("sort", "priceAscending")
	case model.SortNewest:
		params.Set("sort", "newlyListed")
	}
	return s.baseURL + searchPath + "?" + params.Encode()
}

// parse extracts product tiles. Tiles without a product link or a readable
// price are skipped.
func (s *Scraper) parse(body []byte) ([]model.SearchResult, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	results := []model.SearchResult{}
	seen := make(map[string]bool)

	doc.Find(tileSelector).Each(func(_ int, tile *goquery.Selection) {
		href, ok := tile.Attr("href")
		if !ok {
			href, ok = tile.Find("a").First().Attr("href")
		}
		if !ok {
			return
		}
		m := productPath.FindStringSubmatch(pathOf(href))
		if len(m) < 2 || seen[m[1]] {
			return
		}

		priceText := strings.TrimSpace(tile.Find(discountSelector).First().Text())
		if priceText == "" {
			priceText = strings.TrimSpace(tile.Find(priceSelector).First().Text())
		}
		price, err := parsePrice(priceText)
		if err != nil {
			return
		}

		title := strings.TrimSpace(tile.Find(titleSelector).First().Text())
		img := tile.Find("img").First()
		if title == "" {
			title = strings.TrimSpace(img.AttrOr("alt", ""))
		}

		r := model.SearchResult{
			Platform:          string(connector.PlatformDepop),
			ListingID:         m[1],
			URL:               s.baseURL + "/products/" + m[1] + "/",
			Title:             title,
			Price:             price,
			Condition:         strings.TrimSpace(tile.Find(conditionSelector).First().Text()),
			ThumbnailURL:      img.AttrOr("src", ""),
			QuantityAvailable: 1,
			AcceptsOffers:     true,
			Extras:            map[string]any{},
		}

		if size := strings.TrimSpace(tile.Find(sizeSelector).First().Text()); size != "" {
			r.Extras["size"] = size
		}
		shipping := strings.TrimSpace(tile.Find(shippingSelector).First().Text())
		if strings.Contains(strings.ToLower(shipping), "free") {
			r.ShippingCost = decimal.NewNullDecimal(decimal.Zero)
		} else if cost, err := parsePrice(shipping); err == nil {
			r.ShippingCost = decimal.NewNullDecimal(cost)
		}

		seen[m[1]] = true
		results = append(results, r)
	})

	return results, nil
}

func pathOf(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	return u.Path
}

// parsePrice reads values like "$1,024.50" or "US$18".
func parsePrice(text string) (decimal.Decimal, error) {
	num := priceNumber.FindString(text)
	if num == "" {
		return decimal.Zero, fmt.Errorf("no price in %q", text)
	}
	num = strings.ReplaceAll(num, ",", "")
	if _, err := strconv.ParseFloat(num, 64); err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromString(num)
}
