package domain

import (
	"slices"
	"time"
)

// Principal is a stored identity. Username is the unique identifier used at
// login (a username or an email address).
type Principal struct {
	ID           string
	Username     string
	PasswordHash string   // argon2id PHC or bcrypt
	Authorities  []string // Parsed from space-delimited storage, e.g. ROLE_USER
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasAuthority reports whether a is among the principal's authorities.
func (p Principal) HasAuthority(a string) bool {
	return slices.Contains(p.Authorities, a)
}
