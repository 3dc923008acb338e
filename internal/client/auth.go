// ABOUTME: Credential exchange endpoints
// ABOUTME: Login and register both answer with a bearer token

package client

import "context"

// Login exchanges credentials for a token via POST /api/auth/login
func (c *Client) Login(ctx context.Context, creds Credentials) (string, error) {
	var resp TokenResponse
	if err := c.post(ctx, "/api/auth/login", creds, &resp); err != nil {
		return "", err
	}
	if resp.Token == "" {
		return "", &APIError{Kind: KindTransient, Message: "backend returned no token"}
	}
	return resp.Token, nil
}

// Register creates an account and returns its token via POST /api/auth/register
func (c *Client) Register(ctx context.Context, reg Registration) (string, error) {
	var resp TokenResponse
	if err := c.post(ctx, "/api/auth/register", reg, &resp); err != nil {
		return "", err
	}
	if resp.Token == "" {
		return "", &APIError{Kind: KindTransient, Message: "backend returned no token"}
	}
	return resp.Token, nil
}

// OAuthURL returns the backend URL that starts an OAuth2 login with the given provider.
// The backend redirects to redirectURI with ?token=... on success.
func (c *Client) OAuthURL(provider, redirectURI string) string {
	return c.baseURL + pathf("/oauth2/authorization/%s", provider) + "?redirect_uri=" + queryEscape(redirectURI)
}
