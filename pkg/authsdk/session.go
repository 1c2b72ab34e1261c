package authsdk

import (
	"errors"
	"sync"
	"time"
)

// ErrSessionExpired is returned locally when a session's token has passed
// its expiry. Tokens cannot be refreshed; log in again.
var ErrSessionExpired = errors.New("authsdk: session token expired")

// expiryBuffer stops a session from sending a token about to expire in flight.
const expiryBuffer = 5 * time.Second

// Session holds a bearer token and performs authenticated calls with it.
type Session struct {
	client *SDKClient

	mu          sync.RWMutex
	accessToken string
	expiresAt   time.Time // zero when unknown
}

// newSession creates a new authenticated session from a token response.
func newSession(client *SDKClient, tokenResp *TokenResponse) *Session {
	s := &Session{
		client:      client,
		accessToken: tokenResp.Token,
	}
	if tokenResp.ExpiresIn > 0 {
		s.expiresAt = time.Now().Add(time.Duration(tokenResp.ExpiresIn)*time.Second - expiryBuffer)
	}
	return s
}

// AccessToken returns the current access token without checking expiration.
func (s *Session) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken
}

// ExpiresAt returns when the session stops sending its token, or the zero
// time when unknown.
func (s *Session) ExpiresAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.expiresAt
}

// Expired reports whether the token is known to have expired.
func (s *Session) Expired() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.expiresAt.IsZero() && !time.Now().Before(s.expiresAt)
}

func (s *Session) validToken() (string, error) {
	if s.client.CheckExpiry && s.Expired() {
		return "", ErrSessionExpired
	}
	return s.AccessToken(), nil
}
