package httpx

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/aussiebroadwan/gatekeeper/pkg/cryptox"
	"github.com/aussiebroadwan/gatekeeper/pkg/slogx"
)

// AuthFailedBody is the only body the filter ever writes.
const AuthFailedBody = "Authentication failed"

// ErrNotAuthenticated is the normal "no credential resolved" outcome of a
// TokenAuthenticator. The request continues unauthenticated. Any other error
// is a processing failure.
var ErrNotAuthenticated = errors.New("httpx: not authenticated")

// TokenAuthenticator turns a raw bearer token into a security context.
type TokenAuthenticator interface {
	AuthenticateToken(ctx context.Context, token string) (SecurityContext, error)
}

// TokenAuthenticatorFunc adapts a function to TokenAuthenticator.
type TokenAuthenticatorFunc func(ctx context.Context, token string) (SecurityContext, error)

func (f TokenAuthenticatorFunc) AuthenticateToken(ctx context.Context, token string) (SecurityContext, error) {
	return f(ctx, token)
}

// AuthnMiddleware attempts bearer authentication once per request. It only
// establishes identity; access is enforced by the Require* middleware.
//
//   - public paths pass through untouched
//   - no or non-bearer Authorization header: continue unauthenticated
//   - ErrNotAuthenticated: continue unauthenticated
//   - any other error or panic: a single 401 "Authentication failed" and the
//     chain stops; nothing is written if the response is already committed
//   - a cancelled request stops without writing
func AuthnMiddleware(authn TokenAuthenticator, public *PathMatcher) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if public.Match(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			token, ok := BearerToken(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			log := slogx.FromContext(ctx).With("token_fp", cryptox.FingerprintToken(token))

			sc, err := authenticate(ctx, authn, token)
			switch {
			case err == nil && sc.Authenticated:
				ctx = WithSecurityContext(ctx, sc)
				ctx = slogx.WithPrincipal(ctx, sc.Subject)
				next.ServeHTTP(w, r.WithContext(ctx))

			case err == nil, errors.Is(err, ErrNotAuthenticated):
				log.Debug("bearer token not accepted", "err", err)
				next.ServeHTTP(w, r)

			case ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
				log.Debug("request cancelled during authentication", "err", err)

			default:
				log.Error("authentication processing failed", "err", err)
				if committed(w) {
					return
				}
				writeAuthFailed(w)
			}
		})
	}
}

// BearerToken extracts the token from "Authorization: Bearer <token>". The
// scheme is case-insensitive; an empty token counts as absent.
func BearerToken(r *http.Request) (string, bool) {
	authz := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, found := strings.Cut(authz, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}
	return token, true
}

func authenticate(ctx context.Context, authn TokenAuthenticator, token string) (sc SecurityContext, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			sc, err = SecurityContext{}, fmt.Errorf("httpx: authenticator panic: %v", rec)
		}
	}()
	return authn.AuthenticateToken(ctx, token)
}

// committed reports whether headers were already sent. Writers that cannot
// tell are assumed uncommitted.
func committed(w http.ResponseWriter) bool {
	for {
		switch v := w.(type) {
		case interface{ Written() bool }:
			return v.Written()
		case interface{ Unwrap() http.ResponseWriter }:
			w = v.Unwrap()
		default:
			return false
		}
	}
}

func writeAuthFailed(w http.ResponseWriter) {
	NoCache(w)
	w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(AuthFailedBody))
}
