package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/gatekeeper/internal/auth/domain"
	"github.com/aussiebroadwan/gatekeeper/internal/auth/store"
	"github.com/aussiebroadwan/gatekeeper/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/gatekeeper/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

const testIssuer = "gatekeeper-test"

var testSecret = []byte("0123456789abcdef0123456789abcdef")

// testClock is a settable clock shared by a TokenService and its test.
type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func newTestClock() *testClock {
	return &testClock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newTestTokens(t *testing.T, clock *testClock) *TokenService {
	t.Helper()

	tokens, err := NewTokenService(testSecret, TokenConfig{
		Issuer: testIssuer,
		TTL:    time.Hour,
		Now:    clock.Now,
	})
	require.NoError(t, err)
	return tokens
}

func newTestStore(t *testing.T) store.Store {
	t.Helper()

	s, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, s.ApplyMigrations())
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newTestEncoder(t *testing.T) cryptox.PasswordEncoder {
	t.Helper()

	enc, err := cryptox.NewPasswordEncoder(cryptox.SchemeArgon2id, "test-pepper", 0)
	require.NoError(t, err)
	return enc
}

func initAuth(t *testing.T, svc *AuthService) *AuthService {
	t.Helper()

	require.NoError(t, svc.Init())
	return svc
}

// fakeIdentities lets a test script individual store calls.
type fakeIdentities struct {
	find   func(ctx context.Context, id string) (domain.Principal, error)
	exists func(ctx context.Context, id string) (bool, error)
	save   func(ctx context.Context, p domain.Principal) (domain.Principal, error)
}

func (f *fakeIdentities) FindByIdentifier(ctx context.Context, id string) (domain.Principal, error) {
	if f.find == nil {
		return domain.Principal{}, store.ErrNotFound
	}
	return f.find(ctx, id)
}

func (f *fakeIdentities) ExistsByIdentifier(ctx context.Context, id string) (bool, error) {
	if f.exists == nil {
		return false, nil
	}
	return f.exists(ctx, id)
}

func (f *fakeIdentities) Save(ctx context.Context, p domain.Principal) (domain.Principal, error) {
	if f.save == nil {
		p.ID = "01HZZZZZZZZZZZZZZZZZZZZZZZ"
		return p, nil
	}
	return f.save(ctx, p)
}
