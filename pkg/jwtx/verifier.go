package jwtx

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Verifier validates a JWT and gives you back the claims if it's legit.
type Verifier interface {
	Verify(token string) (Claims, error)
}

// VerifyOptions captures the expectations a verifier enforces.
type VerifyOptions struct {
	// Issuer the token must have (claims.iss). Empty means "don't care".
	Issuer string

	// Leeway allows small clock skew when validating exp/nbf.
	Leeway time.Duration

	// Now overrides the clock, mostly for tests. Defaults to time.Now.
	Now func() time.Time
}

var (
	ErrMalformed  = errors.New("jwtx: malformed token")
	ErrInvalidSig = errors.New("jwtx: invalid signature")

	ErrIssuer       = errors.New("jwtx: issuer mismatch")
	ErrExpired      = errors.New("jwtx: token expired")
	ErrNotYetValid  = errors.New("jwtx: token not yet valid")
	ErrInvalidClaim = errors.New("jwtx: invalid claims")
)

// HS256Verifier validates tokens produced by an HS256Signer sharing the
// same secret.
type HS256Verifier struct {
	secret []byte
	opts   VerifyOptions
	parser *jwt.Parser
}

// NewVerifierHS256 builds a verifier. Only HS256 is accepted and base64
// segments must be canonical, so a token has exactly one valid encoding.
func NewVerifierHS256(secret []byte, opts VerifyOptions) (*HS256Verifier, error) {
	if len(secret) < MinSecretLength {
		return nil, ErrWeakSecret
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &HS256Verifier{
		secret: append([]byte(nil), secret...),
		opts:   opts,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithStrictDecoding(),
			jwt.WithoutClaimsValidation(),
		),
	}, nil
}

// Verify checks structure, then signature, then issuer, then the validity
// window. The first failing stage decides the returned error, which always
// wraps exactly one of ErrMalformed, ErrInvalidSig, ErrExpired,
// ErrNotYetValid or ErrInvalidClaim.
func (v *HS256Verifier) Verify(tokenStr string) (Claims, error) {
	claims := &Claims{}

	token, err := v.parser.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	})
	if err != nil {
		return Claims{}, v.classify(tokenStr, err)
	}
	if !token.Valid {
		return Claims{}, ErrInvalidSig
	}

	// A foreign issuer means the token was not minted with our secret's
	// blessing, treat it as a signature problem.
	if err := claims.ValidateIssuer(v.opts.Issuer); err != nil {
		return Claims{}, fmt.Errorf("%w: %w", ErrInvalidSig, err)
	}
	if err := claims.ValidateExpiryAt(v.opts.Now(), v.opts.Leeway); err != nil {
		return Claims{}, err
	}

	return *claims, nil
}

func (v *HS256Verifier) classify(tokenStr string, err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		// If the header and payload parse on their own, the damage is in the
		// signature region, even when it split into extra segments.
		parts := strings.Split(tokenStr, ".")
		if len(parts) >= 3 {
			head := parts[0] + "." + parts[1] + "."
			if _, _, uerr := v.parser.ParseUnverified(head, &Claims{}); uerr == nil {
				return fmt.Errorf("%w: %v", ErrInvalidSig, err)
			}
		}
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid),
		errors.Is(err, jwt.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %v", ErrInvalidSig, err)
	default:
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
}
