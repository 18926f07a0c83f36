// Package registry wires every concrete connector into a connector.Registry.
package registry

import (
	"github.com/guarzo/crosslist/internal/connector"
	"github.com/guarzo/crosslist/internal/connector/depop"
	"github.com/guarzo/crosslist/internal/connector/ebay"
	"github.com/guarzo/crosslist/internal/connector/etsy"
	"github.com/guarzo/crosslist/internal/connector/facebook"
)

// Options carries per-connector overrides, mostly base URLs for sandboxes
// and tests. Zero values keep the production defaults.
type Options struct {
	EbayBaseURL  string
	EtsyBaseURL  string
	DepopBaseURL string

	// EbayTokens replaces the client-credentials token source.
	EbayTokens connector.TokenProvider
}

// Default returns a registry with every supported platform registered.
func Default(opts Options) *connector.Registry {
	r := connector.NewRegistry()

	var ebayOpts []ebay.Option
	if opts.EbayBaseURL != "" {
		ebayOpts = append(ebayOpts, ebay.WithBaseURL(opts.EbayBaseURL))
	}
	if opts.EbayTokens != nil {
		ebayOpts = append(ebayOpts, ebay.WithTokenProvider(opts.EbayTokens))
	}
	r.Register(connector.PlatformEbay, ebay.NewFactory(ebayOpts...))

	var etsyOpts []etsy.Option
	if opts.EtsyBaseURL != "" {
		etsyOpts = append(etsyOpts, etsy.WithBaseURL(opts.EtsyBaseURL))
	}
	r.Register(connector.PlatformEtsy, etsy.NewFactory(etsyOpts...))

	var depopOpts []depop.Option
	if opts.DepopBaseURL != "" {
		depopOpts = append(depopOpts, depop.WithBaseURL(opts.DepopBaseURL))
	}
	r.Register(connector.PlatformDepop, depop.NewFactory(depopOpts...))

	r.Register(connector.PlatformFacebook, facebook.NewFactory())

	return r
}
