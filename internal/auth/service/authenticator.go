package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/aussiebroadwan/gatekeeper/internal/auth/store"
	"github.com/aussiebroadwan/gatekeeper/pkg/httpx"
)

// RequestAuthenticator resolves bearer tokens to security contexts for
// httpx.AuthnMiddleware.
type RequestAuthenticator struct {
	Tokens     *TokenService
	Identities PrincipalFinder
}

var _ httpx.TokenAuthenticator = (*RequestAuthenticator)(nil)

// AuthenticateToken returns an authenticated context only when the token
// verifies and its subject resolves to an active principal the token is
// bound to. Every token failure, an empty subject and an unknown or disabled
// principal are reported as httpx.ErrNotAuthenticated. Lookup failures are
// returned as they are.
func (a *RequestAuthenticator) AuthenticateToken(ctx context.Context, token string) (httpx.SecurityContext, error) {
	subject, err := a.Tokens.ExtractSubject(token)
	if err != nil {
		if isTokenError(err) {
			return httpx.SecurityContext{}, fmt.Errorf("%w: %w", httpx.ErrNotAuthenticated, err)
		}
		return httpx.SecurityContext{}, err
	}
	if subject == "" {
		return httpx.SecurityContext{}, httpx.ErrNotAuthenticated
	}

	p, err := a.Identities.FindByIdentifier(ctx, subject)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return httpx.SecurityContext{}, httpx.ErrNotAuthenticated
		}
		return httpx.SecurityContext{}, fmt.Errorf("authenticate: lookup principal: %w", err)
	}

	if !p.Active || !a.Tokens.IsValid(token, p) {
		return httpx.SecurityContext{}, httpx.ErrNotAuthenticated
	}

	return httpx.SecurityContext{
		Authenticated: true,
		Subject:       p.Username,
		PrincipalID:   p.ID,
		Authorities:   p.Authorities,
	}, nil
}
