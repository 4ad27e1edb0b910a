// Package auth obtains OAuth2 client-credentials tokens for outbound HTTP.
package auth

import (
	"context"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
)

// ClientCred caches a token and refreshes it when it expires.
type ClientCred struct {
	src oauth2.TokenSource
}

// NewClientCred builds a token source for conf. base, when non-nil, is used
// to reach the token endpoint.
func NewClientCred(ctx context.Context, conf Conf, base *http.Client) *ClientCred {
	if base != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, base)
	}
	cc := conf.toOauth2Config()
	return &ClientCred{src: cc.TokenSource(ctx)}
}

// GetToken returns a valid access token, requesting a new one if needed.
func (c *ClientCred) GetToken() (string, error) {
	tok, err := c.src.Token()
	if err != nil {
		return "", fmt.Errorf("failed to get token: %w", err)
	}
	return tok.AccessToken, nil
}

// Client returns an HTTP client that authorizes every request.
func (c *ClientCred) Client(ctx context.Context) *http.Client {
	return oauth2.NewClient(ctx, c.src)
}
