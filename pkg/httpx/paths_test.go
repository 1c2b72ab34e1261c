package httpx_test

import (
	"testing"

	"github.com/aussiebroadwan/gatekeeper/pkg/httpx"
	"github.com/stretchr/testify/require"
)

func TestPathMatcher(t *testing.T) {
	m, err := httpx.NewPathMatcher("/api/v1/auth/**", "/api/v1/*/health", "/livez", " ", "")
	require.NoError(t, err)
	require.Equal(t, []string{"/api/v1/auth/**", "/api/v1/*/health", "/livez"}, m.Patterns())

	tests := []struct {
		path string
		want bool
	}{
		{"/api/v1/auth/login", true},
		{"/api/v1/auth/register", true},
		{"/api/v1/auth/deep/nested/path", true},
		{"/api/v1/auth", true},
		{"/api/v1/auth/", true},
		{"/api/v1/authz", false},
		{"/api/v1/users/health", true},
		{"/api/v1/users/x/health", false},
		{"/livez", true},
		{"/livez/extra", false},
		{"/api/v1/users/me", false},
		{"/api/v1/auth/../users/me", false},
		{"//api/v1/auth/login", true},
		{"", false},
	}

	for _, tt := range tests {
		require.Equal(t, tt.want, m.Match(tt.path), "path %q", tt.path)
	}
}

func TestPathMatcher_Invalid(t *testing.T) {
	_, err := httpx.NewPathMatcher("api/v1/auth/**")
	require.Error(t, err)

	require.Panics(t, func() { httpx.MustPathMatcher("relative") })
}

func TestPathMatcher_Nil(t *testing.T) {
	var m *httpx.PathMatcher
	require.False(t, m.Match("/anything"))
	require.Nil(t, m.Patterns())
}
