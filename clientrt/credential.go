// Package clientrt is the runtime imported by generated clients. It carries
// bearer-token credentials, a retrying HTTP pipeline, request helpers, the
// HTTP status error returned for unexpected responses, and a pull-based pager
// for operations whose results span several pages.
package clientrt

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// AccessToken is a bearer token and its expiry.
type AccessToken struct {
	Token     string
	ExpiresOn time.Time
}

// TokenCredential acquires bearer tokens for a set of scopes. Generated
// clients call it once per request, so implementations should cache.
type TokenCredential interface {
	GetToken(ctx context.Context, scopes ...string) (AccessToken, error)
}

// TokenSourceCredential adapts an oauth2.TokenSource. The scopes are fixed
// by the source and ignored here.
type TokenSourceCredential struct {
	Source oauth2.TokenSource
}

func (c TokenSourceCredential) GetToken(ctx context.Context, scopes ...string) (AccessToken, error) {
	if c.Source == nil {
		return AccessToken{}, errors.New("clientrt: nil token source")
	}
	tok, err := c.Source.Token()
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: tok.AccessToken, ExpiresOn: tok.Expiry}, nil
}

// ClientSecretCredential performs the OAuth2 client-credentials flow and
// keeps one reusable token source per distinct scope set.
type ClientSecretCredential struct {
	TokenURL     string
	ClientID     string
	ClientSecret string

	mu      sync.Mutex
	sources map[string]oauth2.TokenSource
}

// NewClientSecretCredential returns a credential for the given tenant token endpoint.
func NewClientSecretCredential(tokenURL, clientID, clientSecret string) *ClientSecretCredential {
	return &ClientSecretCredential{TokenURL: tokenURL, ClientID: clientID, ClientSecret: clientSecret}
}

func (c *ClientSecretCredential) GetToken(ctx context.Context, scopes ...string) (AccessToken, error) {
	key := strings.Join(scopes, " ")
	c.mu.Lock()
	if c.sources == nil {
		c.sources = make(map[string]oauth2.TokenSource)
	}
	src, ok := c.sources[key]
	if !ok {
		cfg := clientcredentials.Config{
			ClientID:     c.ClientID,
			ClientSecret: c.ClientSecret,
			TokenURL:     c.TokenURL,
			Scopes:       scopes,
		}
		// The source outlives this call, so it must not be bound to ctx.
		src = oauth2.ReuseTokenSource(nil, cfg.TokenSource(context.Background()))
		c.sources[key] = src
	}
	c.mu.Unlock()
	return TokenSourceCredential{Source: src}.GetToken(ctx, scopes...)
}

// StaticCredential always returns the same token.
type StaticCredential string

func (s StaticCredential) GetToken(context.Context, ...string) (AccessToken, error) {
	return AccessToken{Token: string(s)}, nil
}
