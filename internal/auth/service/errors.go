package service

import "errors"

// Token validation failures. They wrap the matching jwtx error.
var (
	ErrMalformedToken   = errors.New("malformed_token")
	ErrInvalidSignature = errors.New("invalid_signature")
	ErrTokenExpired     = errors.New("token_expired")
)

// Login and registration outcomes.
var (
	ErrIdentifierTaken       = errors.New("identifier_taken")
	ErrInvalidCredentials    = errors.New("invalid_credentials")
	ErrInvalidRegistration   = errors.New("invalid_registration")
	ErrUnassignableAuthority = errors.New("unassignable_authority")
	ErrTooManyAttempts       = errors.New("too_many_attempts")
)

// ErrNotInitialized is returned by Login when Init has not run.
var ErrNotInitialized = errors.New("auth service not initialized")
