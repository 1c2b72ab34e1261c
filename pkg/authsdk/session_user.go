package authsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// Me returns the principal the session is authenticated as.
func (s *Session) Me(ctx context.Context) (*PrincipalResponse, error) {
	resp, err := s.doAuthRequest(ctx, http.MethodGet, "/api/v1/users/me", nil, nil)
	if err != nil {
		return nil, err
	}

	var me PrincipalResponse
	if err := decodeJSON(resp, &me, http.StatusOK); err != nil {
		return nil, err
	}

	return &me, nil
}

// AdminPing checks that the session holds ROLE_ADMIN.
func (s *Session) AdminPing(ctx context.Context) (*AdminPingResponse, error) {
	resp, err := s.doAuthRequest(ctx, http.MethodGet, "/api/v1/admin/ping", nil, nil)
	if err != nil {
		return nil, err
	}

	var pong AdminPingResponse
	if err := decodeJSON(resp, &pong, http.StatusOK); err != nil {
		return nil, err
	}

	return &pong, nil
}

// SetPrincipalActive enables or disables a principal. Requires ROLE_ADMIN.
func (s *Session) SetPrincipalActive(ctx context.Context, principalID string, active bool) error {
	payload, err := json.Marshal(SetActiveRequest{Active: active})
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	resp, err := s.doAuthRequest(ctx, http.MethodPut,
		"/api/v1/admin/principals/"+url.PathEscape(principalID)+"/active",
		bytes.NewReader(payload),
		map[string]string{"Content-Type": "application/json"},
	)
	if err != nil {
		return err
	}

	return checkStatusNoContent(resp)
}
