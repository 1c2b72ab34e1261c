package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/gatekeeper/internal/auth/domain"
	"github.com/aussiebroadwan/gatekeeper/pkg/jwtx"
)

// TokenConfig controls issued tokens.
type TokenConfig struct {
	Issuer string
	TTL    time.Duration
	Leeway time.Duration

	// Now overrides the clock for issue and validation.
	Now func() time.Time
}

// TokenService issues and validates HS256 access tokens. It holds no state
// besides the secret and is safe for concurrent use.
type TokenService struct {
	signer   jwtx.Signer
	verifier jwtx.Verifier
	issuer   string
	ttl      time.Duration
	now      func() time.Time
}

// NewTokenService fails on a missing or weak secret, which is a startup
// error rather than a per-call one.
func NewTokenService(secret []byte, cfg TokenConfig) (*TokenService, error) {
	if cfg.TTL <= 0 {
		cfg.TTL = jwtx.DefaultAccessTokenTTL
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	signer, err := jwtx.NewSignerHS256(secret)
	if err != nil {
		return nil, fmt.Errorf("token signer: %w", err)
	}
	verifier, err := jwtx.NewVerifierHS256(secret, jwtx.VerifyOptions{
		Issuer: cfg.Issuer,
		Leeway: cfg.Leeway,
		Now:    cfg.Now,
	})
	if err != nil {
		return nil, fmt.Errorf("token verifier: %w", err)
	}

	return &TokenService{
		signer:   signer,
		verifier: verifier,
		issuer:   cfg.Issuer,
		ttl:      cfg.TTL,
		now:      cfg.Now,
	}, nil
}

// TTL is the lifetime of issued tokens.
func (s *TokenService) TTL() time.Duration { return s.ttl }

// Ready reports whether tokens can be signed.
func (s *TokenService) Ready() error {
	return s.signer.Validate()
}

// Issue mints a token for p carrying its current authorities.
func (s *TokenService) Issue(p domain.Principal) (domain.AuthResult, error) {
	return s.IssueWithClaims(p, nil)
}

// IssueWithClaims is Issue plus caller supplied claims under "ext".
func (s *TokenService) IssueWithClaims(p domain.Principal, ext map[string]any) (domain.AuthResult, error) {
	if p.Username == "" {
		return domain.AuthResult{}, errors.New("token: principal has no identifier")
	}

	claims := jwtx.NewAccessClaims(p.Username, p.Authorities, ext, s.ttl, s.issuer, s.now())
	token, err := s.signer.Sign(claims)
	if err != nil {
		return domain.AuthResult{}, fmt.Errorf("token: sign: %w", err)
	}

	return domain.AuthResult{
		Token:     token,
		TokenType: domain.TokenTypeBearer,
		ExpiresIn: s.ttl,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Parse verifies token and returns its claims. Errors wrap one of
// ErrMalformedToken, ErrInvalidSignature or ErrTokenExpired.
func (s *TokenService) Parse(token string) (jwtx.Claims, error) {
	claims, err := s.verifier.Verify(token)
	if err != nil {
		return jwtx.Claims{}, classifyTokenError(err)
	}
	return claims, nil
}

// ExtractSubject returns the identifier a valid token was issued for. A
// valid token with an empty subject yields "" and no error.
func (s *TokenService) ExtractSubject(token string) (string, error) {
	claims, err := s.Parse(token)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// IsValid reports whether token verifies, is within its validity window and
// was issued for p.
func (s *TokenService) IsValid(token string, p domain.Principal) bool {
	if p.Username == "" {
		return false
	}
	claims, err := s.Parse(token)
	if err != nil {
		return false
	}
	return claims.Subject == p.Username
}

func classifyTokenError(err error) error {
	switch {
	case errors.Is(err, jwtx.ErrInvalidSig):
		return fmt.Errorf("%w: %w", ErrInvalidSignature, err)
	case errors.Is(err, jwtx.ErrExpired), errors.Is(err, jwtx.ErrNotYetValid):
		return fmt.Errorf("%w: %w", ErrTokenExpired, err)
	default:
		return fmt.Errorf("%w: %w", ErrMalformedToken, err)
	}
}

// isTokenError reports whether err is one of the token validation failures.
func isTokenError(err error) bool {
	return errors.Is(err, ErrMalformedToken) ||
		errors.Is(err, ErrInvalidSignature) ||
		errors.Is(err, ErrTokenExpired)
}
