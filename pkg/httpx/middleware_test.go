package httpx_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aussiebroadwan/gatekeeper/pkg/httpx"
	"github.com/stretchr/testify/require"
)

func TestChainOrder(t *testing.T) {
	var trace []string
	mark := func(name string) httpx.Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				trace = append(trace, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := httpx.Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		trace = append(trace, "handler")
	}), mark("outer"), nil, mark("inner"))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, "outer,inner,handler", strings.Join(trace, ","))
}

func TestNormalizeFields(t *testing.T) {
	require.Equal(t, []string{"ROLE_USER", "ROLE_ADMIN"}, httpx.NormalizeFields([]string{" ROLE_USER", "", "ROLE_ADMIN", "ROLE_USER "}))
	require.Empty(t, httpx.NormalizeFields(nil))
	require.Nil(t, httpx.ParseSpaceDelimitedFields("   "))
	require.Equal(t, []string{"a", "b"}, httpx.ParseSpaceDelimitedFields(" a  b "))
}
