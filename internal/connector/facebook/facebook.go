// Package facebook represents Facebook Marketplace, which offers no external
// search API and forbids scraping. The connector exists so the platform can be
// named in requests and reported as skipped.
package facebook

import (
	"context"

	"github.com/guarzo/crosslist/internal/connector"
	"github.com/guarzo/crosslist/internal/model"
)

// Client is a connector that is never available.
type Client struct{}

var _ connector.Connector = (*Client)(nil)

// New returns the Facebook Marketplace connector.
func New(connector.Credentials) *Client {
	return &Client{}
}

// NewFactory adapts New to the registry.
func NewFactory() connector.Factory {
	return func(creds connector.Credentials) (connector.Connector, error) {
		return New(creds), nil
	}
}

func (c *Client) Platform() connector.Platform     { return connector.PlatformFacebook }
func (c *Client) Capability() connector.Capability { return connector.NoExternalSearch }
func (c *Client) RequiresAuth() bool               { return false }
func (c *Client) IsAvailable() bool                { return false }

// Search always returns no results.
func (c *Client) Search(context.Context, model.SearchQuery) ([]model.SearchResult, error) {
	return []model.SearchResult{}, nil
}
