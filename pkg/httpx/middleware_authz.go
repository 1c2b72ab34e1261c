package httpx

import (
	"net/http"
	"strings"
)

// RequireAuthenticated rejects requests without an authenticated security
// context with 401.
func RequireAuthenticated() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !SecurityContextFrom(r.Context()).Authenticated {
				writeUnauthorized(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAnyAuthority the caller must hold at least one of the authorities.
func RequireAnyAuthority(required ...string) Middleware {
	want := make(map[string]struct{}, len(required))
	for _, a := range required {
		want[a] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sc := SecurityContextFrom(r.Context())
			if !sc.Authenticated {
				writeUnauthorized(w)
				return
			}

			for _, a := range sc.Authorities {
				if _, ok := want[a]; ok {
					next.ServeHTTP(w, r)
					return
				}
			}

			writeInsufficientAuthority(w, required...)
		})
	}
}

// RequireAllAuthorities the caller must hold every authority listed.
func RequireAllAuthorities(required ...string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sc := SecurityContextFrom(r.Context())
			if !sc.Authenticated {
				writeUnauthorized(w)
				return
			}

			for _, a := range required {
				if !sc.HasAuthority(a) {
					writeInsufficientAuthority(w, required...)
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
	WriteError(w, http.StatusUnauthorized, "unauthorized", "Authentication is required to access this resource.")
}

// RFC 6750 style insufficient_scope, carrying authorities instead of scopes.
func writeInsufficientAuthority(w http.ResponseWriter, required ...string) {
	w.Header().Set("WWW-Authenticate", `Bearer error="insufficient_scope", scope="`+strings.Join(required, " ")+`"`)
	WriteError(w, http.StatusForbidden, "access_denied", "Missing required authority.")
}
