package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/aussiebroadwan/gatekeeper/internal/auth/domain"
	"github.com/aussiebroadwan/gatekeeper/internal/auth/store"
	"github.com/aussiebroadwan/gatekeeper/internal/auth/throttle"
	"github.com/aussiebroadwan/gatekeeper/pkg/cryptox"
	"github.com/aussiebroadwan/gatekeeper/pkg/httpx"
	"github.com/aussiebroadwan/gatekeeper/pkg/slogx"
)

// DefaultAuthority is granted when registration asks for nothing.
const DefaultAuthority = "ROLE_USER"

// RegisterRequest is a registration candidate.
type RegisterRequest struct {
	Username    string
	Password    string
	Authorities []string
}

// LoginRequest carries login credentials.
type LoginRequest struct {
	Username string
	Password string
}

// AuthService turns registration and login requests into issued tokens.
type AuthService struct {
	Identities IdentityStore
	Passwords  cryptox.PasswordEncoder
	Tokens     *TokenService

	// Throttle limits failed logins per identifier. Nil disables it.
	Throttle throttle.Throttle

	// DefaultAuthorities are granted when a registration requests none.
	DefaultAuthorities []string
	// AssignableAuthorities bounds what a registration may request.
	AssignableAuthorities []string

	dummyHash string
}

// Init precomputes the hash used to equalise login timing for unknown
// identifiers. It must succeed before Login is called.
func (s *AuthService) Init() error {
	raw, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return fmt.Errorf("auth service: dummy secret: %w", err)
	}
	hash, err := s.Passwords.Hash(raw)
	if err != nil {
		return fmt.Errorf("auth service: dummy hash: %w", err)
	}
	s.dummyHash = hash
	return nil
}

// Register creates a principal and returns a token for it. No token is
// issued unless the principal was persisted.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (domain.AuthResult, error) {
	l := slogx.FromContext(ctx)

	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		return domain.AuthResult{}, ErrInvalidRegistration
	}

	authorities, err := s.grantedAuthorities(req.Authorities)
	if err != nil {
		return domain.AuthResult{}, err
	}

	exists, err := s.Identities.ExistsByIdentifier(ctx, username)
	if err != nil {
		return domain.AuthResult{}, fmt.Errorf("register: existence check: %w", err)
	}
	if exists {
		return domain.AuthResult{}, ErrIdentifierTaken
	}

	hash, err := s.Passwords.Hash(req.Password)
	if err != nil {
		if errors.Is(err, cryptox.ErrPasswordTooLong) {
			return domain.AuthResult{}, fmt.Errorf("%w: %w", ErrInvalidRegistration, err)
		}
		return domain.AuthResult{}, fmt.Errorf("register: hash password: %w", err)
	}

	p, err := s.Identities.Save(ctx, domain.Principal{
		Username:     username,
		PasswordHash: hash,
		Authorities:  authorities,
		Active:       true,
	})
	if err != nil {
		// Lost a race with a concurrent registration.
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.AuthResult{}, ErrIdentifierTaken
		}
		return domain.AuthResult{}, fmt.Errorf("register: save principal: %w", err)
	}

	res, err := s.Tokens.Issue(p)
	if err != nil {
		return domain.AuthResult{}, err
	}

	l.Info("principal registered",
		slog.String("principal_id", p.ID),
		slog.Any("authorities", p.Authorities),
	)
	return res, nil
}

// Login verifies credentials and returns a token. Unknown identifiers, wrong
// passwords and disabled accounts all yield ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (domain.AuthResult, error) {
	l := slogx.FromContext(ctx)
	thr := s.throttle()
	key := throttle.Key(req.Username)

	d, err := thr.Check(ctx, key)
	if err != nil {
		return domain.AuthResult{}, fmt.Errorf("login: throttle check: %w", err)
	}
	if d.Locked {
		l.Warn("login locked out", slog.Duration("retry_after", d.RetryAfter))
		return domain.AuthResult{}, ErrTooManyAttempts
	}

	if s.dummyHash == "" {
		return domain.AuthResult{}, ErrNotInitialized
	}

	username := strings.TrimSpace(req.Username)
	p, err := s.Identities.FindByIdentifier(ctx, username)
	switch {
	case errors.Is(err, store.ErrNotFound):
		// Burn the same hashing work as a real comparison.
		s.Passwords.Matches(req.Password, s.dummyHash)
		return domain.AuthResult{}, s.loginFailed(ctx, key, "unknown identifier")
	case err != nil:
		return domain.AuthResult{}, fmt.Errorf("login: lookup: %w", err)
	}

	if !s.Passwords.Matches(req.Password, p.PasswordHash) {
		return domain.AuthResult{}, s.loginFailed(ctx, key, "password mismatch")
	}
	if !p.Active {
		return domain.AuthResult{}, s.loginFailed(ctx, key, "inactive principal")
	}

	if err := thr.Reset(ctx, key); err != nil {
		l.Warn("failed to reset login throttle", slog.Any("error", err))
	}

	// Re-read so the token carries the freshest authorities.
	fresh, err := s.Identities.FindByIdentifier(ctx, p.Username)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return domain.AuthResult{}, ErrInvalidCredentials
	case err != nil:
		return domain.AuthResult{}, fmt.Errorf("login: reload principal: %w", err)
	}
	if !fresh.Active {
		return domain.AuthResult{}, ErrInvalidCredentials
	}

	res, err := s.Tokens.Issue(fresh)
	if err != nil {
		return domain.AuthResult{}, err
	}

	l.Info("login succeeded", slog.String("principal_id", fresh.ID))
	return res, nil
}

func (s *AuthService) loginFailed(ctx context.Context, key, reason string) error {
	l := slogx.FromContext(ctx)

	d, err := s.throttle().Fail(ctx, key)
	if err != nil {
		l.Warn("failed to record login failure", slog.Any("error", err))
	}
	l.Info("login failed", slog.String("reason", reason), slog.Int("failures", d.Failures))

	return ErrInvalidCredentials
}

// grantedAuthorities applies the registration policy to what was asked for.
func (s *AuthService) grantedAuthorities(requested []string) ([]string, error) {
	requested = httpx.NormalizeFields(requested)
	if len(requested) == 0 {
		if len(s.DefaultAuthorities) == 0 {
			return []string{DefaultAuthority}, nil
		}
		return slices.Clone(s.DefaultAuthorities), nil
	}

	assignable := s.AssignableAuthorities
	if len(assignable) == 0 {
		assignable = []string{DefaultAuthority}
	}
	for _, a := range requested {
		if !slices.Contains(assignable, a) {
			return nil, fmt.Errorf("%w: %q", ErrUnassignableAuthority, a)
		}
	}
	return requested, nil
}

func (s *AuthService) throttle() throttle.Throttle {
	if s.Throttle == nil {
		return throttle.Nop{}
	}
	return s.Throttle
}
