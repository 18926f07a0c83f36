package connector

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
)

// TokenProvider supplies a bearer token for authenticated connectors.
// Implementations refresh lazily when the current token expires.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a TokenProvider that always returns the same token.
type StaticToken string

// Token implements TokenProvider.
func (s StaticToken) Token(context.Context) (string, error) {
	if s == "" {
		return "", fmt.Errorf("static token is empty")
	}
	return string(s), nil
}

// OAuth2TokenProvider adapts an oauth2.TokenSource. Wrap the source in
// oauth2.ReuseTokenSource so the token is cached until it expires.
type OAuth2TokenProvider struct {
	source oauth2.TokenSource
}

// NewOAuth2TokenProvider returns a provider backed by a reusing token source.
func NewOAuth2TokenProvider(source oauth2.TokenSource) *OAuth2TokenProvider {
	return &OAuth2TokenProvider{source: oauth2.ReuseTokenSource(nil, source)}
}

// Token implements TokenProvider.
func (p *OAuth2TokenProvider) Token(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	tok, err := p.source.Token()
	if err != nil {
		return "", fmt.Errorf("fetch oauth token: %w", err)
	}
	return tok.AccessToken, nil
}
