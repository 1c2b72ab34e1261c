package httpx_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aussiebroadwan/gatekeeper/pkg/httpx"
	"github.com/stretchr/testify/require"
)

func requestAs(sc *httpx.SecurityContext) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/ping", nil)
	if sc == nil {
		return req
	}
	return req.WithContext(httpx.WithSecurityContext(req.Context(), *sc))
}

func TestRequireAuthenticated(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	h := httpx.RequireAuthenticated()(ok)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, requestAs(nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.NotEmpty(t, rec.Header().Get("WWW-Authenticate"))
	require.Contains(t, rec.Body.String(), `"error":"unauthorized"`)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, requestAs(&httpx.SecurityContext{Authenticated: true, Subject: "alice"}))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireAnyAuthority(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	h := httpx.RequireAnyAuthority("ROLE_ADMIN", "ROLE_OPS")(ok)

	tests := []struct {
		name string
		sc   *httpx.SecurityContext
		want int
	}{
		{"anonymous", nil, http.StatusUnauthorized},
		{"unauthenticated with authorities", &httpx.SecurityContext{Authorities: []string{"ROLE_ADMIN"}}, http.StatusUnauthorized},
		{"lacks authority", &httpx.SecurityContext{Authenticated: true, Authorities: []string{"ROLE_USER"}}, http.StatusForbidden},
		{"has one", &httpx.SecurityContext{Authenticated: true, Authorities: []string{"ROLE_USER", "ROLE_OPS"}}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, requestAs(tt.sc))
			require.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusForbidden {
				require.Contains(t, rec.Header().Get("WWW-Authenticate"), "insufficient_scope")
			}
		})
	}
}

func TestRequireAllAuthorities(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	h := httpx.RequireAllAuthorities("ROLE_ADMIN", "ROLE_OPS")(ok)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, requestAs(&httpx.SecurityContext{Authenticated: true, Authorities: []string{"ROLE_ADMIN"}}))
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, requestAs(&httpx.SecurityContext{Authenticated: true, Authorities: []string{"ROLE_OPS", "ROLE_ADMIN"}}))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestSecurityContextIsolation(t *testing.T) {
	auths := []string{"ROLE_USER"}
	ctx := httpx.WithSecurityContext(t.Context(), httpx.SecurityContext{Authenticated: true, Authorities: auths})

	auths[0] = "ROLE_ADMIN"
	got := httpx.SecurityContextFrom(ctx)
	require.Equal(t, []string{"ROLE_USER"}, got.Authorities)

	got.Authorities[0] = "ROLE_ROOT"
	require.Equal(t, []string{"ROLE_USER"}, httpx.SecurityContextFrom(ctx).Authorities)

	require.False(t, httpx.SecurityContextFrom(t.Context()).Authenticated)
	require.False(t, httpx.SecurityContext{Authorities: []string{"ROLE_USER"}}.HasAuthority("ROLE_USER"))
}
