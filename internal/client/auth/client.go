package auth

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/oauth2"
)

// Config identity provider configuration for the interactive sign-in.
type Config struct {
	Authority    string // e.g. https://login.microsoftonline.com
	Tenant       string
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// Client runs the authorization-code sign-in against the identity provider.
type Client struct {
	oauth oauth2.Config
}

// NewClient creates an Auth Provider client.
func NewClient(cfg Config) *Client {
	base := strings.TrimRight(cfg.Authority, "/") + "/" + cfg.Tenant + "/oauth2"
	return &Client{
		oauth: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint: oauth2.Endpoint{
				AuthURL:  base + "/authorize",
				TokenURL: base + "/token",
			},
		},
	}
}

// SignInURL returns the URL the user opens to sign in for resourceID.
// state is echoed back to the redirect URL.
func (c *Client) SignInURL(state, resourceID string) string {
	return c.oauth.AuthCodeURL(state, oauth2.SetAuthURLParam("resource", resourceID))
}

// Exchange trades an authorization code for an access token on resourceID.
func (c *Client) Exchange(ctx context.Context, code, resourceID string) (string, error) {
	tok, err := c.oauth.Exchange(ctx, code, oauth2.SetAuthURLParam("resource", resourceID))
	if err != nil {
		return "", fmt.Errorf("token exchange: %w", err)
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("token exchange: empty access token")
	}
	return tok.AccessToken, nil
}
