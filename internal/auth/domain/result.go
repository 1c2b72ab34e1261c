package domain

import "time"

// TokenTypeBearer is the only token type issued.
const TokenTypeBearer = "Bearer"

// AuthResult is what a successful login or registration returns.
type AuthResult struct {
	Token     string
	TokenType string
	ExpiresIn time.Duration
	ExpiresAt time.Time
}
