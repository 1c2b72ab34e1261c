package store

import (
	"context"
	"errors"
	"strings"

	"github.com/aussiebroadwan/gatekeeper/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite, postgres)
// implement this and expose sub-repositories to keep concerns tidy.
//
// There is no transaction API: every write is a single statement and username
// uniqueness is enforced by the schema.
type Store interface {
	Principals() Principals

	ApplyMigrations() error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

type Principals interface {
	// GetPrincipalByID returns a principal by its ULID.
	GetPrincipalByID(ctx context.Context, id string) (domain.Principal, error)

	// GetPrincipalByUsername is the login lookup. Matching is exact.
	GetPrincipalByUsername(ctx context.Context, username string) (domain.Principal, error)

	// ExistsByUsername answers without loading the row.
	ExistsByUsername(ctx context.Context, username string) (bool, error)

	// SavePrincipal creates or updates by ID. An empty ID creates a new row
	// with a fresh ULID. CreatedAt is kept on update. Returns the stored row,
	// or ErrAlreadyExists when the username belongs to another principal.
	SavePrincipal(ctx context.Context, p domain.Principal) (domain.Principal, error)

	// SetActive enables or disables login for a principal.
	SetActive(ctx context.Context, id string, active bool) error

	// CountPrincipals returns the number of stored principals.
	CountPrincipals(ctx context.Context) (int64, error)
}

// EncodeAuthorities flattens authorities into the space-delimited column form.
func EncodeAuthorities(authorities []string) string {
	return strings.Join(authorities, " ")
}

// DecodeAuthorities parses the space-delimited column form.
func DecodeAuthorities(s string) []string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return nil
	}
	return fields
}
