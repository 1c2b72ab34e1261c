package authsdk

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// SDKClient is a client for the Gatekeeper authentication service.
// It provides access to unauthenticated operations and can create authenticated Sessions.
type SDKClient struct {
	BaseURL    string
	HTTPClient *http.Client

	// CheckExpiry makes a Session refuse to send a token it knows has
	// expired. Disable it in tests that want the server to see stale tokens.
	// Default: true
	CheckExpiry bool
}

// NewSDKClient creates a new auth service client.
func NewSDKClient(baseURL string) *SDKClient {
	return &SDKClient{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		CheckExpiry: true,
	}
}

// AuthenticateWithPassword logs in and returns a session holding the token.
func (c *SDKClient) AuthenticateWithPassword(ctx context.Context, username, password string) (*Session, error) {
	tokenResp, err := c.Login(ctx, LoginRequest{Username: username, Password: password})
	if err != nil {
		return nil, err
	}
	return newSession(c, tokenResp), nil
}

// RegisterAndAuthenticate registers a principal and returns a session for it.
func (c *SDKClient) RegisterAndAuthenticate(ctx context.Context, req RegisterRequest) (*Session, error) {
	tokenResp, err := c.Register(ctx, req)
	if err != nil {
		return nil, err
	}
	return newSession(c, tokenResp), nil
}

// NewSessionFromToken wraps a token obtained elsewhere. expiresIn is in
// seconds; zero means unknown and disables the local expiry check.
func (c *SDKClient) NewSessionFromToken(token string, expiresIn int) *Session {
	return newSession(c, &TokenResponse{Token: token, TokenType: "Bearer", ExpiresIn: expiresIn})
}
