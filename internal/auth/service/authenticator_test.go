package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/gatekeeper/internal/auth/domain"
	"github.com/aussiebroadwan/gatekeeper/internal/auth/store"
	"github.com/aussiebroadwan/gatekeeper/pkg/httpx"
	"github.com/aussiebroadwan/gatekeeper/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func TestAuthenticateToken(t *testing.T) {
	t.Parallel()
	f := newAuthFixture(t)
	ctx := context.Background()
	authn := &RequestAuthenticator{Tokens: f.tokens, Identities: store.NewIdentityStore(f.store)}

	res := f.register(t, "alice", "password", "ROLE_USER", "ROLE_REPORTER")
	alice, err := f.store.Principals().GetPrincipalByUsername(ctx, "alice")
	require.NoError(t, err)

	t.Run("valid token", func(t *testing.T) {
		sc, err := authn.AuthenticateToken(ctx, res.Token)
		require.NoError(t, err)
		require.True(t, sc.Authenticated)
		require.Equal(t, "alice", sc.Subject)
		require.Equal(t, alice.ID, sc.PrincipalID)
		require.Equal(t, []string{"ROLE_USER", "ROLE_REPORTER"}, sc.Authorities)
	})

	t.Run("garbage token", func(t *testing.T) {
		sc, err := authn.AuthenticateToken(ctx, "not-a-token")
		require.ErrorIs(t, err, httpx.ErrNotAuthenticated)
		require.ErrorIs(t, err, ErrMalformedToken)
		require.False(t, sc.Authenticated)
	})

	t.Run("tampered token", func(t *testing.T) {
		dot := strings.LastIndexByte(res.Token, '.')
		repl := byte('A')
		if res.Token[dot+1] == 'A' {
			repl = 'B'
		}
		tampered := res.Token[:dot+1] + string(repl) + res.Token[dot+2:]
		_, err := authn.AuthenticateToken(ctx, tampered)
		require.ErrorIs(t, err, httpx.ErrNotAuthenticated)
	})

	t.Run("unknown subject", func(t *testing.T) {
		ghost, err := f.tokens.Issue(domain.Principal{Username: "ghost"})
		require.NoError(t, err)
		_, err = authn.AuthenticateToken(ctx, ghost.Token)
		require.ErrorIs(t, err, httpx.ErrNotAuthenticated)
	})

	t.Run("empty subject", func(t *testing.T) {
		signer, err := jwtx.NewSignerHS256(testSecret)
		require.NoError(t, err)
		tok, err := signer.Sign(jwtx.NewAccessClaims("", nil, nil, time.Hour, testIssuer, f.clock.Now()))
		require.NoError(t, err)

		_, err = authn.AuthenticateToken(ctx, tok)
		require.ErrorIs(t, err, httpx.ErrNotAuthenticated)
	})
}

func TestAuthenticateToken_DisabledPrincipal(t *testing.T) {
	t.Parallel()
	f := newAuthFixture(t)
	ctx := context.Background()
	authn := &RequestAuthenticator{Tokens: f.tokens, Identities: store.NewIdentityStore(f.store)}

	res := f.register(t, "alice", "password")
	p, err := f.store.Principals().GetPrincipalByUsername(ctx, "alice")
	require.NoError(t, err)

	users := &UserService{Store: f.store}
	require.NoError(t, users.SetActive(ctx, p.ID, false))

	_, err = authn.AuthenticateToken(ctx, res.Token)
	require.ErrorIs(t, err, httpx.ErrNotAuthenticated)
}

func TestAuthenticateToken_Expired(t *testing.T) {
	t.Parallel()
	f := newAuthFixture(t)
	authn := &RequestAuthenticator{Tokens: f.tokens, Identities: store.NewIdentityStore(f.store)}

	res := f.register(t, "alice", "password")
	f.clock.Advance(2 * time.Hour)

	_, err := authn.AuthenticateToken(context.Background(), res.Token)
	require.ErrorIs(t, err, httpx.ErrNotAuthenticated)
	require.ErrorIs(t, err, ErrTokenExpired)
}

func TestAuthenticateToken_LookupFailure(t *testing.T) {
	t.Parallel()
	clock := newTestClock()
	tokens := newTestTokens(t, clock)

	boom := errors.New("connection reset")
	authn := &RequestAuthenticator{
		Tokens: tokens,
		Identities: &fakeIdentities{
			find: func(context.Context, string) (domain.Principal, error) { return domain.Principal{}, boom },
		},
	}

	res, err := tokens.Issue(domain.Principal{Username: "alice"})
	require.NoError(t, err)

	_, err = authn.AuthenticateToken(context.Background(), res.Token)
	require.ErrorIs(t, err, boom)
	require.NotErrorIs(t, err, httpx.ErrNotAuthenticated)
}

// The authenticator plugged into the filter, driven over HTTP.
func TestAuthnMiddleware_WithRequestAuthenticator(t *testing.T) {
	t.Parallel()
	f := newAuthFixture(t)
	authn := &RequestAuthenticator{Tokens: f.tokens, Identities: store.NewIdentityStore(f.store)}

	res := f.register(t, "alice", "password")
	f.clock.Advance(time.Second)

	var (
		calls int
		seen  httpx.SecurityContext
	)
	downstream := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		seen = httpx.SecurityContextFrom(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
	h := httpx.AuthnMiddleware(authn, httpx.MustPathMatcher("/api/v1/auth/**"))(downstream)

	t.Run("public path without credentials", func(t *testing.T) {
		calls = 0
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil))
		require.Equal(t, 1, calls)
		require.False(t, seen.Authenticated)
		require.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("protected path with fresh token", func(t *testing.T) {
		calls = 0
		req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
		req.Header.Set("Authorization", "Bearer "+res.Token)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		require.Equal(t, 1, calls)
		require.True(t, seen.Authenticated)
		require.Equal(t, "alice", seen.Subject)
	})

	t.Run("replay without header", func(t *testing.T) {
		calls = 0
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil))
		require.Equal(t, 1, calls)
		require.False(t, seen.Authenticated)
	})

	t.Run("store failure short-circuits with 401", func(t *testing.T) {
		broken := &RequestAuthenticator{
			Tokens: f.tokens,
			Identities: &fakeIdentities{
				find: func(context.Context, string) (domain.Principal, error) {
					return domain.Principal{}, errors.New("db down")
				},
			},
		}
		hb := httpx.AuthnMiddleware(broken, nil)(downstream)

		calls = 0
		req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
		req.Header.Set("Authorization", "Bearer "+res.Token)
		rec := httptest.NewRecorder()
		hb.ServeHTTP(rec, req)

		require.Equal(t, 0, calls)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Equal(t, httpx.AuthFailedBody, rec.Body.String())
	})
}
