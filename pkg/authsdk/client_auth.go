package authsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// Register creates a principal and returns its first token.
func (c *SDKClient) Register(ctx context.Context, req RegisterRequest) (*TokenResponse, error) {
	return c.postToken(ctx, "/api/v1/auth/register", req)
}

// Login exchanges credentials for a token. A failed login returns
// ErrInvalidCredentials whatever the cause.
func (c *SDKClient) Login(ctx context.Context, req LoginRequest) (*TokenResponse, error) {
	return c.postToken(ctx, "/api/v1/auth/login", req)
}

func (c *SDKClient) postToken(ctx context.Context, path string, body any) (*TokenResponse, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	resp, err := c.doRequest(ctx, http.MethodPost, path, bytes.NewReader(payload), map[string]string{
		"Content-Type": "application/json",
	})
	if err != nil {
		return nil, err
	}

	var tokenResp TokenResponse
	if err := decodeJSON(resp, &tokenResp, http.StatusOK); err != nil {
		return nil, err
	}

	return &tokenResp, nil
}
