package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/aussiebroadwan/gatekeeper/internal/auth/domain"
	"github.com/aussiebroadwan/gatekeeper/internal/auth/store"
	"github.com/aussiebroadwan/gatekeeper/pkg/idx"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, s.ApplyMigrations())
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSavePrincipal_CreateAssignsIDAndTimestamps(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	saved, err := s.Principals().SavePrincipal(ctx, domain.Principal{
		Username:     "alice@example.com",
		PasswordHash: "$argon2id$stub",
		Authorities:  []string{"ROLE_USER", "ROLE_ADMIN"},
		Active:       true,
	})
	require.NoError(t, err)

	_, err = idx.Parse(saved.ID)
	require.NoError(t, err, "id should be a ULID")
	require.Equal(t, "alice@example.com", saved.Username)
	require.Equal(t, []string{"ROLE_USER", "ROLE_ADMIN"}, saved.Authorities)
	require.True(t, saved.Active)
	require.False(t, saved.CreatedAt.IsZero())
	require.Equal(t, saved.CreatedAt, saved.UpdatedAt)

	byID, err := s.Principals().GetPrincipalByID(ctx, saved.ID)
	require.NoError(t, err)
	require.Equal(t, saved, byID)

	byName, err := s.Principals().GetPrincipalByUsername(ctx, "alice@example.com")
	require.NoError(t, err)
	require.Equal(t, saved, byName)
}

func TestSavePrincipal_UpdateKeepsCreatedAt(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	clock := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return clock }

	created, err := s.Principals().SavePrincipal(ctx, domain.Principal{Username: "bob", PasswordHash: "h1", Active: true})
	require.NoError(t, err)

	clock = clock.Add(time.Hour)
	created.PasswordHash = "h2"
	created.Authorities = nil
	updated, err := s.Principals().SavePrincipal(ctx, created)
	require.NoError(t, err)

	require.Equal(t, created.ID, updated.ID)
	require.Equal(t, "h2", updated.PasswordHash)
	require.Nil(t, updated.Authorities)
	require.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), updated.CreatedAt)
	require.Equal(t, clock, updated.UpdatedAt)

	n, err := s.Principals().CountPrincipals(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
}

func TestSavePrincipal_DuplicateUsername(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Principals().SavePrincipal(ctx, domain.Principal{Username: "dup@test.com", PasswordHash: "h"})
	require.NoError(t, err)

	_, err = s.Principals().SavePrincipal(ctx, domain.Principal{Username: "dup@test.com", PasswordHash: "h"})
	require.ErrorIs(t, err, store.ErrAlreadyExists)
}

func TestLookups_NotFoundAndExists(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Principals().GetPrincipalByUsername(ctx, "ghost")
	require.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.Principals().GetPrincipalByID(ctx, idx.New().String())
	require.ErrorIs(t, err, store.ErrNotFound)

	// Ids that are not ULIDs never reach the database.
	for _, id := range []string{"", "nope", "' OR 1=1 --"} {
		_, err = s.Principals().GetPrincipalByID(ctx, id)
		require.ErrorIs(t, err, store.ErrNotFound, "id %q", id)
		require.ErrorIs(t, s.Principals().SetActive(ctx, id, false), store.ErrNotFound, "id %q", id)
	}

	exists, err := s.Principals().ExistsByUsername(ctx, "carol")
	require.NoError(t, err)
	require.False(t, exists)

	_, err = s.Principals().SavePrincipal(ctx, domain.Principal{Username: "carol", PasswordHash: "h"})
	require.NoError(t, err)

	exists, err = s.Principals().ExistsByUsername(ctx, "carol")
	require.NoError(t, err)
	require.True(t, exists)

	exists, err = s.Principals().ExistsByUsername(ctx, "CAROL")
	require.NoError(t, err)
	require.False(t, exists, "identifiers compare exactly")
}

func TestSetActive(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p, err := s.Principals().SavePrincipal(ctx, domain.Principal{Username: "dave", PasswordHash: "h", Active: true})
	require.NoError(t, err)

	require.NoError(t, s.Principals().SetActive(ctx, p.ID, false))
	got, err := s.Principals().GetPrincipalByID(ctx, p.ID)
	require.NoError(t, err)
	require.False(t, got.Active)

	require.ErrorIs(t, s.Principals().SetActive(ctx, "missing", true), store.ErrNotFound)
}

func TestIdentityStoreAdapter(t *testing.T) {
	ids := store.NewIdentityStore(newTestStore(t))
	ctx := context.Background()

	saved, err := ids.Save(ctx, domain.Principal{Username: "erin", PasswordHash: "h", Active: true})
	require.NoError(t, err)
	require.NotEmpty(t, saved.ID)

	found, err := ids.FindByIdentifier(ctx, "erin")
	require.NoError(t, err)
	require.Equal(t, saved.ID, found.ID)

	ok, err := ids.ExistsByIdentifier(ctx, "erin")
	require.NoError(t, err)
	require.True(t, ok)

	_, err = ids.FindByIdentifier(ctx, "")
	require.ErrorIs(t, err, store.ErrNotFound)

	_, err = ids.Save(ctx, domain.Principal{})
	require.Error(t, err)
}

func TestFileStore_MigrationsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "auth.db")

	s, err := NewStore(path)
	require.NoError(t, err)
	require.NoError(t, s.ApplyMigrations())
	require.NoError(t, s.ApplyMigrations())
	require.NoError(t, s.Ping(context.Background()))
	require.NoError(t, s.Close())
}

func TestFileDSN(t *testing.T) {
	require.Equal(t, ":memory:", FileDSN(":memory:"))
	require.Equal(t, "file:x.db?mode=ro", FileDSN("file:x.db?mode=ro"))
	require.Contains(t, FileDSN("auth.db"), "journal_mode(WAL)")
}
