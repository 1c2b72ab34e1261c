package service

import (
	"context"

	"github.com/aussiebroadwan/gatekeeper/internal/auth/domain"
)

// PrincipalFinder resolves an identifier to a stored principal, returning
// store.ErrNotFound when there is none.
type PrincipalFinder interface {
	FindByIdentifier(ctx context.Context, identifier string) (domain.Principal, error)
}

// IdentityStore is the persistence boundary of the authentication core.
// store.IdentityStore is the production implementation.
type IdentityStore interface {
	PrincipalFinder
	ExistsByIdentifier(ctx context.Context, identifier string) (bool, error)
	Save(ctx context.Context, p domain.Principal) (domain.Principal, error)
}
