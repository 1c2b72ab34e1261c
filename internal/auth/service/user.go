package service

import (
	"context"

	"github.com/aussiebroadwan/gatekeeper/internal/auth/domain"
	"github.com/aussiebroadwan/gatekeeper/internal/auth/store"
)

type UserService struct {
	Store store.Store
}

// GetPrincipalByID fetches a principal by id.
func (s *UserService) GetPrincipalByID(ctx context.Context, id string) (domain.Principal, error) {
	return s.Store.Principals().GetPrincipalByID(ctx, id)
}

// SetActive enables or disables a principal. Tokens already issued to a
// disabled principal stop authenticating on their next use.
func (s *UserService) SetActive(ctx context.Context, id string, active bool) error {
	return s.Store.Principals().SetActive(ctx, id, active)
}

// Count returns the number of registered principals.
func (s *UserService) Count(ctx context.Context) (int64, error) {
	return s.Store.Principals().CountPrincipals(ctx)
}
