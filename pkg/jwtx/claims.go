package jwtx

import (
	"crypto/sha256"
	"encoding/base64"
	"maps"
	"slices"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultAccessTokenTTL is the lifetime of an access token when the service
// is not configured otherwise.
const DefaultAccessTokenTTL = time.Hour

// Claims are the access-token claims. Registered claims carry identity and
// the validity window; the rest is a snapshot taken at issuance.
type Claims struct {
	jwt.RegisteredClaims

	// Authorities held by the principal when the token was minted,
	// e.g. ["ROLE_USER", "ROLE_ADMIN"].
	Authorities []string `json:"authorities,omitempty"`

	// Ext holds caller supplied claims. Reserved names are never read from
	// here.
	Ext map[string]any `json:"ext,omitempty"`
}

// NewAccessClaims builds claims valid from now until now+ttl.
func NewAccessClaims(
	subject string,
	authorities []string,
	ext map[string]any,
	ttl time.Duration,
	issuer string,
	now time.Time,
) Claims {
	now = now.UTC().Truncate(time.Second)

	var extra map[string]any
	if len(ext) > 0 {
		extra = maps.Clone(ext)
	}

	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        DeriveJTI(subject, now),
		},
		Authorities: slices.Clone(authorities),
		Ext:         extra,
	}
}

// DeriveJTI returns the "jti" claim for a token issued to subject at
// issuedAt. Equal inputs give equal identifiers, so issuance stays
// reproducible for a fixed clock.
func DeriveJTI(subject string, issuedAt time.Time) string {
	sum := sha256.Sum256([]byte(subject + "|" + strconv.FormatInt(issuedAt.Unix(), 10)))
	return base64.RawURLEncoding.EncodeToString(sum[:16])
}

// ValidateIssuer checks if the issuer matches expected value.
func (c *Claims) ValidateIssuer(expected string) error {
	if expected == "" {
		return nil
	}

	if c.Issuer != expected {
		return ErrIssuer
	}

	return nil
}

// ValidateExpiryAt checks exp and nbf against now, allowing leeway of clock
// skew on both ends.
func (c *Claims) ValidateExpiryAt(now time.Time, leeway time.Duration) error {
	if c.ExpiresAt == nil {
		return ErrInvalidClaim
	}

	if !now.Before(c.ExpiresAt.Add(leeway)) {
		return ErrExpired
	}

	if c.NotBefore != nil && now.Before(c.NotBefore.Add(-leeway)) {
		return ErrNotYetValid
	}

	return nil
}
