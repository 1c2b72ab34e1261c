package store

import (
	"context"
	"errors"

	"github.com/aussiebroadwan/gatekeeper/internal/auth/domain"
)

// IdentityStore is the lookup-by-identifier view of a Store used by the
// authentication core. The identifier is the principal's username.
type IdentityStore struct {
	store Store
}

func NewIdentityStore(s Store) *IdentityStore {
	return &IdentityStore{store: s}
}

// FindByIdentifier returns ErrNotFound when no principal has this identifier.
func (s *IdentityStore) FindByIdentifier(ctx context.Context, identifier string) (domain.Principal, error) {
	if identifier == "" {
		return domain.Principal{}, ErrNotFound
	}
	return s.store.Principals().GetPrincipalByUsername(ctx, identifier)
}

func (s *IdentityStore) ExistsByIdentifier(ctx context.Context, identifier string) (bool, error) {
	if identifier == "" {
		return false, nil
	}
	return s.store.Principals().ExistsByUsername(ctx, identifier)
}

// Save persists p and returns the stored form, including a generated ID for
// new principals.
func (s *IdentityStore) Save(ctx context.Context, p domain.Principal) (domain.Principal, error) {
	if p.Username == "" {
		return domain.Principal{}, errors.New("store: principal username is empty")
	}
	return s.store.Principals().SavePrincipal(ctx, p)
}
