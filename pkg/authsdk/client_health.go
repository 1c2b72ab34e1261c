package authsdk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// ErrNotReady is returned by GetReadiness when /readyz answers 503. The
// response is still returned so callers can see which check failed.
var ErrNotReady = errors.New("authsdk: gatekeeper not ready")

// GetLiveness calls GET /livez. It only needs the process to be serving and
// reports the build version and uptime.
func (c *SDKClient) GetLiveness(ctx context.Context) (*HealthResponse, error) {
	health, err := c.getHealth(ctx, "/livez")
	if err != nil {
		return nil, err
	}
	if health.Status != "ok" {
		return health, fmt.Errorf("%w: liveness status %q", ErrNotReady, health.Status)
	}
	return health, nil
}

// GetReadiness calls GET /readyz, which checks the identity store, the token
// signer and the shared login throttle when one is configured.
func (c *SDKClient) GetReadiness(ctx context.Context) (*HealthResponse, error) {
	health, err := c.getHealth(ctx, "/readyz")
	if err != nil {
		return nil, err
	}
	if health.Status != "ok" {
		return health, fmt.Errorf("%w: readiness status %q", ErrNotReady, health.Status)
	}
	return health, nil
}

// getHealth decodes a health body from either 200 or 503.
func (c *SDKClient) getHealth(ctx context.Context, path string) (*HealthResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s response: %w", path, err)
	}

	switch resp.StatusCode {
	case http.StatusOK, http.StatusServiceUnavailable:
	default:
		return nil, parseErrorResponse(resp, body)
	}

	var health HealthResponse
	if err := json.Unmarshal(body, &health); err != nil {
		return nil, fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return &health, nil
}
