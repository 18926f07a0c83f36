package connector

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/guarzo/crosslist/internal/model"
)

var (
	// ErrUnknownPlatform is returned by the registry for names outside the
	// registered platform set.
	ErrUnknownPlatform = errors.New("unknown platform")

	// ErrUnavailable marks a connector that cannot be queried: the platform
	// forbids external search or required credentials are missing.
	ErrUnavailable = errors.New("connector unavailable")
)

// Capability describes how a platform can be searched.
type Capability int

const (
	// APISearch means the platform offers an official query API.
	APISearch Capability = iota
	// ScraperFriendly means public, unauthenticated pages can be read.
	ScraperFriendly
	// NoExternalSearch means the platform cannot be queried from outside.
	NoExternalSearch
)

func (c Capability) String() string {
	switch c {
	case APISearch:
		return "api_search"
	case ScraperFriendly:
		return "scraper_friendly"
	case NoExternalSearch:
		return "no_external_search"
	default:
		return "unknown"
	}
}

// Searchable reports whether connectors with this capability may be scheduled.
func (c Capability) Searchable() bool {
	return c == APISearch || c == ScraperFriendly
}

// Platform is the closed set of supported marketplaces.
type Platform string

const (
	PlatformEbay     Platform = "ebay"
	PlatformEtsy     Platform = "etsy"
	PlatformDepop    Platform = "depop"
	PlatformFacebook Platform = "facebook"
)

var allPlatforms = []Platform{
	PlatformDepop,
	PlatformEbay,
	PlatformEtsy,
	PlatformFacebook,
}

// AllPlatforms enumerates every supported platform in name order.
func AllPlatforms() []Platform {
	out := make([]Platform, len(allPlatforms))
	copy(out, allPlatforms)
	return out
}

// ParsePlatform resolves a user-supplied name, ignoring case and padding.
func ParsePlatform(name string) (Platform, bool) {
	p := Platform(strings.ToLower(strings.TrimSpace(name)))
	return p, p.Valid()
}

// Valid reports whether p belongs to the supported set.
func (p Platform) Valid() bool {
	for _, known := range allPlatforms {
		if p == known {
			return true
		}
	}
	return false
}

func (p Platform) String() string {
	return string(p)
}

// Connector is implemented by every marketplace integration.
//
// Search must return an empty slice, not an error, for expected conditions
// such as zero matches or missing optional credentials. An error means a
// genuine fault (network, parse) and is isolated to this platform by the
// aggregator.
type Connector interface {
	Platform() Platform
	Capability() Capability
	Search(ctx context.Context, query model.SearchQuery) ([]model.SearchResult, error)
	IsAvailable() bool
	RequiresAuth() bool
}

// Credentials are opaque key/value secrets for one platform.
type Credentials map[string]string

// Get returns the trimmed value for key.
func (c Credentials) Get(key string) string {
	if c == nil {
		return ""
	}
	return strings.TrimSpace(c[key])
}

// Has reports whether every key is present and non-blank.
func (c Credentials) Has(keys ...string) bool {
	for _, k := range keys {
		if c.Get(k) == "" {
			return false
		}
	}
	return true
}

// CredentialSource supplies credentials per platform. The aggregator hands
// them to the registry without inspecting them.
type CredentialSource interface {
	Credentials(platform Platform) Credentials
}

// StaticCredentials is a fixed CredentialSource.
type StaticCredentials map[Platform]Credentials

// Credentials implements CredentialSource.
func (s StaticCredentials) Credentials(platform Platform) Credentials {
	if s == nil {
		return nil
	}
	return s[platform]
}

// Names returns platform names in sorted order.
func Names(platforms []Platform) []string {
	out := make([]string, 0, len(platforms))
	for _, p := range platforms {
		out = append(out, string(p))
	}
	sort.Strings(out)
	return out
}
