package jwtx_test

import (
	"testing"
	"time"

	"github.com/aussiebroadwan/gatekeeper/pkg/jwtx"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestNewAccessClaims(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 500, time.UTC)
	auths := []string{"ROLE_USER"}
	ext := map[string]any{"tenant": "bar"}

	c := jwtx.NewAccessClaims("alice", auths, ext, time.Hour, "gatekeeper", now)

	require.Equal(t, "alice", c.Subject)
	require.Equal(t, "gatekeeper", c.Issuer)
	require.Equal(t, now.Truncate(time.Second), c.IssuedAt.Time.UTC())
	require.Equal(t, c.IssuedAt, c.NotBefore)
	require.Equal(t, now.Truncate(time.Second).Add(time.Hour), c.ExpiresAt.Time.UTC())
	require.Equal(t, jwtx.DeriveJTI("alice", now.Truncate(time.Second)), c.ID)

	// inputs are snapshotted
	auths[0] = "ROLE_ADMIN"
	ext["tenant"] = "baz"
	require.Equal(t, []string{"ROLE_USER"}, c.Authorities)
	require.Equal(t, "bar", c.Ext["tenant"])
}

func TestNewAccessClaims_EmptyExtOmitted(t *testing.T) {
	c := jwtx.NewAccessClaims("alice", nil, map[string]any{}, time.Minute, "", time.Now())
	require.Nil(t, c.Ext)
}

func TestNewAccessClaims_Deterministic(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	a := jwtx.NewAccessClaims("alice", []string{"ROLE_USER"}, nil, time.Hour, "gatekeeper", now)
	b := jwtx.NewAccessClaims("alice", []string{"ROLE_USER"}, nil, time.Hour, "gatekeeper", now.Add(900*time.Millisecond))
	require.Equal(t, a, b)
}

func TestDeriveJTI(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	require.Equal(t, jwtx.DeriveJTI("alice", now), jwtx.DeriveJTI("alice", now))
	require.NotEqual(t, jwtx.DeriveJTI("alice", now), jwtx.DeriveJTI("bob", now))
	require.NotEqual(t, jwtx.DeriveJTI("alice", now), jwtx.DeriveJTI("alice", now.Add(time.Second)))
	require.Len(t, jwtx.DeriveJTI("alice", now), 22)
}

func TestValidateIssuer(t *testing.T) {
	c := &jwtx.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer: "gatekeeper",
		},
	}

	t.Run("matching issuer", func(t *testing.T) {
		require.NoError(t, c.ValidateIssuer("gatekeeper"))
	})

	t.Run("empty expected issuer", func(t *testing.T) {
		require.NoError(t, c.ValidateIssuer(""))
	})

	t.Run("mismatched issuer", func(t *testing.T) {
		require.ErrorIs(t, c.ValidateIssuer("someone-else"), jwtx.ErrIssuer)
	})
}

func TestValidateExpiryAt(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		exp    time.Time
		nbf    time.Time
		leeway time.Duration
		want   error
	}{
		{"valid token", now.Add(time.Minute), time.Time{}, 0, nil},
		{"expired token", now.Add(-time.Minute), time.Time{}, 0, jwtx.ErrExpired},
		{"expires exactly now", now, time.Time{}, 0, jwtx.ErrExpired},
		{"not yet valid", now.Add(time.Hour), now.Add(time.Minute), 0, jwtx.ErrNotYetValid},
		{"expired within leeway", now.Add(-10 * time.Second), time.Time{}, 30 * time.Second, nil},
		{"expired beyond leeway", now.Add(-2 * time.Minute), time.Time{}, 30 * time.Second, jwtx.ErrExpired},
		{"nbf within leeway", now.Add(time.Hour), now.Add(10 * time.Second), 30 * time.Second, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &jwtx.Claims{RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(tt.exp),
			}}
			if !tt.nbf.IsZero() {
				c.NotBefore = jwt.NewNumericDate(tt.nbf)
			}

			err := c.ValidateExpiryAt(now, tt.leeway)
			if tt.want == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.want)
		})
	}

	t.Run("missing exp", func(t *testing.T) {
		c := &jwtx.Claims{}
		require.ErrorIs(t, c.ValidateExpiryAt(now, 0), jwtx.ErrInvalidClaim)
	})
}
