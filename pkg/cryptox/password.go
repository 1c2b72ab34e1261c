package cryptox

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// Supported password schemes.
const (
	SchemeArgon2id = "argon2id"
	SchemeBcrypt   = "bcrypt"
)

// Argon2id parameters for newly created hashes. Stored hashes carry their own
// parameters, so changing these only affects new hashes.
const (
	argonMemory      = 19 * 1024 // KiB
	argonIterations  = 2
	argonParallelism = 1
	argonKeyLength   = 32
	argonSaltLength  = 16
)

// DefaultBcryptCost is used when a bcrypt encoder is built with cost 0.
const DefaultBcryptCost = 12

var (
	ErrUnknownScheme     = errors.New("cryptox: unknown password scheme")
	ErrPasswordTooLong   = errors.New("cryptox: password too long for scheme")
	ErrInvalidHashFormat = errors.New("cryptox: invalid hash format")
)

// PasswordEncoder hashes raw passwords one way and checks candidates against
// stored hashes.
type PasswordEncoder interface {
	Hash(raw string) (string, error)
	Matches(raw, encoded string) bool
}

// NewPasswordEncoder builds the encoder used for new hashes. Whatever the
// scheme, the result verifies both argon2id and bcrypt hashes.
func NewPasswordEncoder(scheme, pepper string, bcryptCost int) (PasswordEncoder, error) {
	argon := &Argon2idEncoder{Pepper: pepper}
	bc := &BcryptEncoder{Cost: bcryptCost}

	switch strings.ToLower(strings.TrimSpace(scheme)) {
	case "", SchemeArgon2id:
		return &DelegatingEncoder{Primary: argon, argon: argon, bcrypt: bc}, nil
	case SchemeBcrypt:
		if bcryptCost != 0 && (bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost) {
			return nil, fmt.Errorf("cryptox: bcrypt cost %d out of range", bcryptCost)
		}
		return &DelegatingEncoder{Primary: bc, argon: argon, bcrypt: bc}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownScheme, scheme)
	}
}

// DelegatingEncoder hashes with Primary and verifies by looking at the
// stored hash prefix.
type DelegatingEncoder struct {
	Primary PasswordEncoder

	argon  *Argon2idEncoder
	bcrypt *BcryptEncoder
}

func (d *DelegatingEncoder) Hash(raw string) (string, error) {
	return d.Primary.Hash(raw)
}

func (d *DelegatingEncoder) Matches(raw, encoded string) bool {
	switch {
	case strings.HasPrefix(encoded, "$argon2id$"):
		return d.argon.Matches(raw, encoded)
	case isBcryptHash(encoded):
		return d.bcrypt.Matches(raw, encoded)
	default:
		return false
	}
}

// Argon2idEncoder produces PHC strings of the form
// $argon2id$v=19$m=X,t=Y,p=Z$salt$hash. The pepper is appended to the
// password before hashing and never stored.
type Argon2idEncoder struct {
	Pepper string
}

func (e *Argon2idEncoder) Hash(raw string) (string, error) {
	salt := make([]byte, argonSaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("cryptox: read salt: %w", err)
	}

	key := argon2.IDKey([]byte(raw+e.Pepper), salt, argonIterations, argonMemory, argonParallelism, argonKeyLength)

	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		argonMemory,
		argonIterations,
		argonParallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

func (e *Argon2idEncoder) Matches(raw, encoded string) bool {
	p, err := parseArgon2id(encoded)
	if err != nil {
		return false
	}

	computed := argon2.IDKey([]byte(raw+e.Pepper), p.salt, p.iterations, p.memory, p.parallelism, uint32(len(p.key))) // #nosec G115 - key length comes from a short decoded hash
	return subtle.ConstantTimeCompare(computed, p.key) == 1
}

type argon2Params struct {
	memory      uint32
	iterations  uint32
	parallelism uint8
	salt        []byte
	key         []byte
}

func parseArgon2id(encoded string) (argon2Params, error) {
	// ["", "argon2id", "v=19", "m=X,t=Y,p=Z", salt, hash]
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return argon2Params{}, ErrInvalidHashFormat
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return argon2Params{}, fmt.Errorf("%w: version", ErrInvalidHashFormat)
	}

	var p argon2Params
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.memory, &p.iterations, &p.parallelism); err != nil {
		return argon2Params{}, fmt.Errorf("%w: parameters: %v", ErrInvalidHashFormat, err)
	}
	if p.memory == 0 || p.iterations == 0 || p.parallelism == 0 {
		return argon2Params{}, fmt.Errorf("%w: zero parameter", ErrInvalidHashFormat)
	}

	var err error
	if p.salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil {
		return argon2Params{}, fmt.Errorf("%w: salt: %v", ErrInvalidHashFormat, err)
	}
	if p.key, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil || len(p.key) == 0 {
		return argon2Params{}, fmt.Errorf("%w: key", ErrInvalidHashFormat)
	}

	return p, nil
}

// BcryptEncoder wraps golang.org/x/crypto/bcrypt. It is unpeppered so hashes
// imported from other bcrypt systems keep verifying.
type BcryptEncoder struct {
	Cost int
}

func (e *BcryptEncoder) Hash(raw string) (string, error) {
	cost := e.Cost
	if cost == 0 {
		cost = DefaultBcryptCost
	}

	out, err := bcrypt.GenerateFromPassword([]byte(raw), cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", ErrPasswordTooLong
	}
	if err != nil {
		return "", fmt.Errorf("cryptox: bcrypt: %w", err)
	}
	return string(out), nil
}

func (e *BcryptEncoder) Matches(raw, encoded string) bool {
	return bcrypt.CompareHashAndPassword([]byte(encoded), []byte(raw)) == nil
}

func isBcryptHash(encoded string) bool {
	return strings.HasPrefix(encoded, "$2a$") ||
		strings.HasPrefix(encoded, "$2b$") ||
		strings.HasPrefix(encoded, "$2y$")
}
